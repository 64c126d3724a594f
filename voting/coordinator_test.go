package voting

import (
	"context"
	"database/sql"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/sedipro/sufragio/errs"
	"github.com/sedipro/sufragio/metrics"
	"github.com/sedipro/sufragio/models"
	"github.com/sedipro/sufragio/store"
	"github.com/sedipro/sufragio/testutil"
)

const (
	dniTI  = "12345678"
	dniMKT = "87654321"
)

type fixture struct {
	conn   *sql.DB
	store  *store.Store
	coord  *Coordinator
	tiA    string
	tiB    string
	mktA   string
	presiA string
	presiB string
}

func setup(t *testing.T) fixture {
	t.Helper()

	conn := testutil.SetupTestDB(t)
	s := store.New(conn)

	f := fixture{
		conn:   conn,
		store:  s,
		coord:  &Coordinator{Store: s, Metrics: metrics.New()},
		tiA:    testutil.CreateTestCandidate(t, conn, "TI A", models.PositionTI, true, 1),
		tiB:    testutil.CreateTestCandidate(t, conn, "TI B", models.PositionTI, true, 2),
		mktA:   testutil.CreateTestCandidate(t, conn, "MKT A", models.PositionMKT, true, 1),
		presiA: testutil.CreateTestCandidate(t, conn, "Presi A", models.PositionPresidencia, true, 1),
		presiB: testutil.CreateTestCandidate(t, conn, "Presi B", models.PositionPresidencia, true, 2),
	}

	testutil.CreateTestVoter(t, conn, dniTI, "Luis", models.PositionTI, true)
	testutil.CreateTestVoter(t, conn, dniMKT, "María", models.PositionMKT, true)

	return f
}

func (f fixture) voter(t *testing.T, dni string) models.Voter {
	t.Helper()
	v, err := f.store.GetVoter(context.Background(), dni)
	if err != nil {
		t.Fatalf("Failed to load voter: %v", err)
	}
	return v
}

func assertKind(t *testing.T, err error, kind errs.Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", kind)
	}
	if got := errs.KindOf(err); got != kind {
		t.Fatalf("expected %s error, got %s (%v)", kind, got, err)
	}
}

func TestSubmitArea(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	testutil.SetTestStatus(t, f.conn, models.StatusAreasOpen)

	if err := f.coord.SubmitArea(ctx, f.voter(t, dniTI), f.tiA); err != nil {
		t.Fatalf("SubmitArea() error = %v", err)
	}

	if n := testutil.CountBallots(t, f.conn, models.PositionTI, 1); n != 1 {
		t.Errorf("expected 1 TI ballot, got %d", n)
	}
	if !f.voter(t, dniTI).HasVotedArea {
		t.Error("expected has_voted_area to be set")
	}

	ballots, err := f.store.ListBallots(ctx, models.PositionTI, 1)
	if err != nil {
		t.Fatal(err)
	}
	if ballots[0].VoteType != models.VoteValid || *ballots[0].CandidateID != f.tiA {
		t.Errorf("unexpected ballot: %+v", ballots[0])
	}
}

func TestSubmitArea_Duplicate(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	testutil.SetTestStatus(t, f.conn, models.StatusAreasOpen)

	v := f.voter(t, dniTI)
	if err := f.coord.SubmitArea(ctx, v, f.tiA); err != nil {
		t.Fatal(err)
	}

	// A stale voter snapshot must not allow a second ballot
	err := f.coord.SubmitArea(ctx, v, f.tiB)
	assertKind(t, err, errs.KindForbidden)

	if n := testutil.CountBallots(t, f.conn, models.PositionTI, 1); n != 1 {
		t.Errorf("ballot count changed after rejected submission: %d", n)
	}
}

func TestSubmitArea_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		status models.ElectionStatus
		setup  func(t *testing.T, f fixture)
		choice func(t *testing.T, f fixture) string
		want   errs.Kind
	}{
		{
			name:   "election waiting",
			status: models.StatusWaiting,
			choice: func(t *testing.T, f fixture) string { return f.tiA },
			want:   errs.KindForbidden,
		},
		{
			name:   "presidency phase",
			status: models.StatusPresiOpen,
			choice: func(t *testing.T, f fixture) string { return f.tiA },
			want:   errs.KindForbidden,
		},
		{
			name:   "voter disabled",
			status: models.StatusAreasOpen,
			setup: func(t *testing.T, f fixture) {
				disabled := false
				if _, err := f.store.UpdateVoter(context.Background(), dniTI, models.UpdateVoterRequest{IsEnabled: &disabled}); err != nil {
					t.Fatal(err)
				}
			},
			choice: func(t *testing.T, f fixture) string { return f.tiA },
			want:   errs.KindForbidden,
		},
		{
			name:   "candidate of another area",
			status: models.StatusAreasOpen,
			choice: func(t *testing.T, f fixture) string { return f.mktA },
			want:   errs.KindBadRequest,
		},
		{
			name:   "malformed id",
			status: models.StatusAreasOpen,
			choice: func(t *testing.T, f fixture) string { return "not-a-uuid" },
			want:   errs.KindBadRequest,
		},
		{
			name:   "empty choice",
			status: models.StatusAreasOpen,
			choice: func(t *testing.T, f fixture) string { return "" },
			want:   errs.KindBadRequest,
		},
		{
			name:   "unapproved candidate",
			status: models.StatusAreasOpen,
			choice: func(t *testing.T, f fixture) string {
				return testutil.CreateTestCandidate(t, f.conn, "Pending", models.PositionTI, false, 3)
			},
			want: errs.KindBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setup(t)
			testutil.SetTestStatus(t, f.conn, tt.status)
			if tt.setup != nil {
				tt.setup(t, f)
			}

			err := f.coord.SubmitArea(context.Background(), f.voter(t, dniTI), tt.choice(t, f))
			assertKind(t, err, tt.want)

			if n := testutil.CountBallots(t, f.conn, models.PositionTI, 1); n != 0 {
				t.Errorf("expected no ballots, got %d", n)
			}
			if f.voter(t, dniTI).HasVotedArea {
				t.Error("rejected submission should not set has_voted_area")
			}
		})
	}
}

func TestSubmitArea_BlankAndNull(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	testutil.SetTestStatus(t, f.conn, models.StatusAreasOpen)

	if err := f.coord.SubmitArea(ctx, f.voter(t, dniTI), models.ChoiceBlank); err != nil {
		t.Fatal(err)
	}
	if err := f.coord.SubmitArea(ctx, f.voter(t, dniMKT), models.ChoiceNull); err != nil {
		t.Fatal(err)
	}

	ti, _ := f.store.ListBallots(ctx, models.PositionTI, 1)
	mkt, _ := f.store.ListBallots(ctx, models.PositionMKT, 1)
	if len(ti) != 1 || ti[0].VoteType != models.VoteBlank || ti[0].CandidateID != nil {
		t.Errorf("unexpected TI ballots: %+v", ti)
	}
	if len(mkt) != 1 || mkt[0].VoteType != models.VoteNull || mkt[0].CandidateID != nil {
		t.Errorf("unexpected MKT ballots: %+v", mkt)
	}
}

func TestSubmitArea_ConcurrentDoubleSubmit(t *testing.T) {
	f := setup(t)
	testutil.SetTestStatus(t, f.conn, models.StatusAreasOpen)
	v := f.voter(t, dniTI)

	var (
		wg        sync.WaitGroup
		succeeded atomic.Int32
		forbidden atomic.Int32
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := f.coord.SubmitArea(context.Background(), v, f.tiA)
			switch {
			case err == nil:
				succeeded.Add(1)
			case errs.Is(err, errs.KindForbidden):
				forbidden.Add(1)
			}
		}()
	}
	wg.Wait()

	if succeeded.Load() != 1 {
		t.Errorf("expected exactly 1 accepted submission, got %d", succeeded.Load())
	}
	if forbidden.Load() != 9 {
		t.Errorf("expected 9 forbidden submissions, got %d", forbidden.Load())
	}
	if n := testutil.CountBallots(t, f.conn, models.PositionTI, 1); n != 1 {
		t.Errorf("expected 1 ballot, got %d", n)
	}
}

func TestSubmitArea_CanceledContext(t *testing.T) {
	f := setup(t)
	testutil.SetTestStatus(t, f.conn, models.StatusAreasOpen)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := f.coord.SubmitArea(ctx, f.voter(t, dniTI), f.tiA)
	assertKind(t, err, errs.KindUnavailable)

	if f.voter(t, dniTI).HasVotedArea {
		t.Error("failed submission should not set has_voted_area")
	}
}

func TestSubmitPresidency(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	testutil.SetTestStatus(t, f.conn, models.StatusPresiOpen)

	// Area phase not completed
	err := f.coord.SubmitPresidency(ctx, f.voter(t, dniTI), f.presiA)
	assertKind(t, err, errs.KindForbidden)

	testutil.MarkTestVoterVoted(t, f.conn, dniTI, true, false)
	if err := f.coord.SubmitPresidency(ctx, f.voter(t, dniTI), f.presiA); err != nil {
		t.Fatalf("SubmitPresidency() error = %v", err)
	}

	err = f.coord.SubmitPresidency(ctx, f.voter(t, dniTI), f.presiB)
	assertKind(t, err, errs.KindForbidden)

	if n := testutil.CountBallots(t, f.conn, models.PositionPresidencia, 1); n != 1 {
		t.Errorf("expected 1 presidency ballot, got %d", n)
	}
}

func TestSubmitPresidency_WrongPhaseAndCandidate(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	testutil.MarkTestVoterVoted(t, f.conn, dniTI, true, false)

	testutil.SetTestStatus(t, f.conn, models.StatusAreasOpen)
	assertKind(t, f.coord.SubmitPresidency(ctx, f.voter(t, dniTI), f.presiA), errs.KindForbidden)

	testutil.SetTestStatus(t, f.conn, models.StatusPresiOpen)
	assertKind(t, f.coord.SubmitPresidency(ctx, f.voter(t, dniTI), f.tiA), errs.KindBadRequest)

	if f.voter(t, dniTI).HasVotedPresidency {
		t.Error("rejected submission should not set has_voted_presidency")
	}
}

func TestSubmitRunoff_Area(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	testutil.SetTestStatus(t, f.conn, models.StatusAreasOpen)
	testutil.SetTestRunoff(t, f.conn, models.PositionTI, f.tiA, f.tiB)
	testutil.MarkTestVoterVoted(t, f.conn, dniTI, true, false)

	if err := f.coord.SubmitRunoff(ctx, f.voter(t, dniTI), models.PositionTI, f.tiB); err != nil {
		t.Fatalf("SubmitRunoff() error = %v", err)
	}
	if !f.voter(t, dniTI).HasVotedRunoff(models.PositionTI) {
		t.Error("expected TI in the round-2 set")
	}

	err := f.coord.SubmitRunoff(ctx, f.voter(t, dniTI), models.PositionTI, f.tiA)
	assertKind(t, err, errs.KindForbidden)

	if n := testutil.CountBallots(t, f.conn, models.PositionTI, 2); n != 1 {
		t.Errorf("expected 1 round-2 ballot, got %d", n)
	}
}

func TestSubmitRunoff_Segmentation(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	mktB := testutil.CreateTestCandidate(t, f.conn, "MKT B", models.PositionMKT, true, 2)
	testutil.SetTestStatus(t, f.conn, models.StatusAreasOpen)
	testutil.SetTestRunoff(t, f.conn, models.PositionMKT, f.mktA, mktB)
	testutil.MarkTestVoterVoted(t, f.conn, dniTI, true, false)

	err := f.coord.SubmitRunoff(ctx, f.voter(t, dniTI), models.PositionMKT, f.mktA)
	assertKind(t, err, errs.KindForbidden)

	if n := testutil.CountBallots(t, f.conn, models.PositionMKT, 2); n != 0 {
		t.Errorf("expected no MKT round-2 ballots, got %d", n)
	}
	if f.voter(t, dniTI).HasVotedRunoff(models.PositionMKT) {
		t.Error("round-2 set should be unchanged")
	}
}

func TestSubmitRunoff_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		status   models.ElectionStatus
		runoff   bool
		areaVote bool
		position models.Position
		choice   func(f fixture) string
		want     errs.Kind
	}{
		{
			name:     "position not in runoff",
			status:   models.StatusAreasOpen,
			areaVote: true,
			position: models.PositionTI,
			choice:   func(f fixture) string { return f.tiA },
			want:     errs.KindForbidden,
		},
		{
			name:     "wrong phase for area runoff",
			status:   models.StatusPresiOpen,
			runoff:   true,
			areaVote: true,
			position: models.PositionTI,
			choice:   func(f fixture) string { return f.tiA },
			want:     errs.KindForbidden,
		},
		{
			name:     "area runoff before area vote",
			status:   models.StatusAreasOpen,
			runoff:   true,
			position: models.PositionTI,
			choice:   func(f fixture) string { return f.tiA },
			want:     errs.KindForbidden,
		},
		{
			name:     "choice is not a finalist",
			status:   models.StatusAreasOpen,
			runoff:   true,
			areaVote: true,
			position: models.PositionTI,
			choice:   func(f fixture) string { return f.mktA },
			want:     errs.KindBadRequest,
		},
		{
			name:     "unknown position",
			status:   models.StatusAreasOpen,
			areaVote: true,
			position: models.Position("FINANZAS"),
			choice:   func(f fixture) string { return models.ChoiceBlank },
			want:     errs.KindBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setup(t)
			testutil.SetTestStatus(t, f.conn, tt.status)
			if tt.runoff {
				testutil.SetTestRunoff(t, f.conn, models.PositionTI, f.tiA, f.tiB)
			}
			if tt.areaVote {
				testutil.MarkTestVoterVoted(t, f.conn, dniTI, true, false)
			}

			err := f.coord.SubmitRunoff(context.Background(), f.voter(t, dniTI), tt.position, tt.choice(f))
			assertKind(t, err, tt.want)

			if n := testutil.CountBallots(t, f.conn, models.PositionTI, 2); n != 0 {
				t.Errorf("expected no round-2 ballots, got %d", n)
			}
			if len(f.voter(t, dniTI).VotedRound2Positions) != 0 {
				t.Error("round-2 set should be unchanged")
			}
		})
	}
}

func TestSubmitRunoff_Presidency(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	testutil.SetTestStatus(t, f.conn, models.StatusPresiOpen)
	testutil.SetTestRunoff(t, f.conn, models.PositionPresidencia, f.presiA, f.presiB)

	// Only a presidency vote blocks the presidency runoff
	if err := f.coord.SubmitRunoff(ctx, f.voter(t, dniTI), models.PositionPresidencia, models.ChoiceBlank); err != nil {
		t.Fatalf("SubmitRunoff() error = %v", err)
	}

	testutil.MarkTestVoterVoted(t, f.conn, dniMKT, true, true)
	err := f.coord.SubmitRunoff(ctx, f.voter(t, dniMKT), models.PositionPresidencia, f.presiA)
	assertKind(t, err, errs.KindForbidden)

	if n := testutil.CountBallots(t, f.conn, models.PositionPresidencia, 2); n != 1 {
		t.Errorf("expected 1 presidency round-2 ballot, got %d", n)
	}
}

func TestCoordinator_Metrics(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	testutil.SetTestStatus(t, f.conn, models.StatusAreasOpen)

	_ = f.coord.SubmitArea(ctx, f.voter(t, dniTI), f.tiA)
	_ = f.coord.SubmitArea(ctx, f.voter(t, dniTI), f.tiA)

	snap := f.coord.Metrics.Snapshot()
	if snap["total"].(uint64) != 1 || snap["rejected"].(uint64) != 1 {
		t.Errorf("unexpected metrics: %v", snap)
	}
}
