package handlers

import (
	"context"
	"database/sql"
	"net/http"
	"testing"

	"github.com/sedipro/sufragio/admin"
	"github.com/sedipro/sufragio/cliparse"
	"github.com/sedipro/sufragio/metrics"
	"github.com/sedipro/sufragio/middleware"
	"github.com/sedipro/sufragio/models"
	"github.com/sedipro/sufragio/store"
	"github.com/sedipro/sufragio/testutil"
	"github.com/sedipro/sufragio/voting"
)

// testEnv bundles a fresh database with every handler built over it
type testEnv struct {
	db       *sql.DB
	store    *store.Store
	cfg      cliparse.Config
	metrics  *metrics.Metrics
	auth     *AuthHandler
	election *ElectionHandler
	voting   *VotingHandler
	admin    *AdminHandler
	results  *ResultsHandler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testutil.SetupTestDB(t)
	s := store.New(db)
	cfg := testutil.GetTestConfig()
	m := metrics.New()
	svc := &admin.Service{Store: s}

	return &testEnv{
		db:       db,
		store:    s,
		cfg:      cfg,
		metrics:  m,
		auth:     NewAuthHandler(s, cfg),
		election: NewElectionHandler(s),
		voting:   NewVotingHandler(&voting.Coordinator{Store: s, QueryTimeout: cfg.GetQueryTimeout(), Metrics: m}),
		admin:    NewAdminHandler(svc),
		results:  NewResultsHandler(svc, m),
	}
}

// asVoter loads the voter and attaches it to the request the way
// Guard.RequireVoter does.
func (e *testEnv) asVoter(t *testing.T, req *http.Request, dni string) *http.Request {
	t.Helper()

	v, err := e.store.GetVoter(context.Background(), dni)
	if err != nil {
		t.Fatalf("Failed to load voter %s: %v", dni, err)
	}
	return req.WithContext(middleware.WithVoter(req.Context(), v))
}

func (e *testEnv) config(t *testing.T) models.ElectionConfig {
	t.Helper()

	cfg, err := e.store.GetConfig(context.Background())
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}
