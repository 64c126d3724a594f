// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sedipro/sufragio/auth"
	"github.com/sedipro/sufragio/cliparse"
	"github.com/sedipro/sufragio/db"
	"github.com/sedipro/sufragio/models"
)

// TestAdminKey is the shared admin secret used by GetTestConfig
const TestAdminKey = "test-admin-key"

// SetupTestDB creates a fresh sqlite database file with the full schema.
// The file lives in the test's temp dir and is removed with it.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "sufragio.db")
	conn, err := db.Open(context.Background(), "sqlite", "file:"+path, 5*time.Second)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := db.CreateSchema(context.Background(), conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:            3318,
		DatabaseURL:     "file::memory:",
		DatabaseType:    "sqlite",
		AdminKey:        TestAdminKey,
		IPHashSalt:      "test-ip-salt",
		SessionTTL:      "12h",
		ConnectTimeout:  "5s",
		QueryTimeout:    "10s",
		RateWindow:      "1m",
		LoginRateLimit:  10,
		VoteRateLimit:   20,
		JanitorInterval: "1m",
	}
}

// CreateTestVoter registers a voter of the given area
func CreateTestVoter(t *testing.T, conn *sql.DB, dni, name string, area models.Position, enabled bool) {
	t.Helper()

	_, err := conn.Exec(`
		INSERT INTO voter (dni, name, email, area, is_enabled, has_voted_area, has_voted_presidency, created_at)
		VALUES ($1, $2, $3, $4, $5, FALSE, FALSE, $6)
	`, dni, name, dni+"@test.local", string(area), enabled, time.Now().UTC())
	if err != nil {
		t.Fatalf("Failed to create test voter: %v", err)
	}
}

// MarkTestVoterVoted sets the phase flags of a voter directly
func MarkTestVoterVoted(t *testing.T, conn *sql.DB, dni string, area, presidency bool) {
	t.Helper()

	_, err := conn.Exec(`
		UPDATE voter SET has_voted_area = $1, has_voted_presidency = $2 WHERE dni = $3
	`, area, presidency, dni)
	if err != nil {
		t.Fatalf("Failed to mark test voter: %v", err)
	}
}

// CreateTestSession stores a session token for a voter and returns it
func CreateTestSession(t *testing.T, conn *sql.DB, dni string, ttl time.Duration) string {
	t.Helper()

	token, err := auth.GenerateSessionToken()
	if err != nil {
		t.Fatalf("Failed to generate session token: %v", err)
	}
	_, err = conn.Exec(`
		UPDATE voter SET session_token = $1, session_expires_at = $2 WHERE dni = $3
	`, token, time.Now().Add(ttl).Unix(), dni)
	if err != nil {
		t.Fatalf("Failed to create test session: %v", err)
	}

	return token
}

// CreateTestCandidate adds a candidate and returns its ID
func CreateTestCandidate(t *testing.T, conn *sql.DB, name string, position models.Position, approved bool, order int) string {
	t.Helper()

	id := uuid.NewString()
	_, err := conn.Exec(`
		INSERT INTO candidate (id, name, photo_url, position, is_approved, presentation_order, created_at)
		VALUES ($1, $2, '', $3, $4, $5, $6)
	`, id, name, string(position), approved, order, time.Now().UTC())
	if err != nil {
		t.Fatalf("Failed to create test candidate: %v", err)
	}

	return id
}

// SetTestStatus sets the global election status
func SetTestStatus(t *testing.T, conn *sql.DB, status models.ElectionStatus) {
	t.Helper()

	if _, err := conn.Exec(`UPDATE election_config SET status = $1 WHERE id = 1`, string(status)); err != nil {
		t.Fatalf("Failed to set election status: %v", err)
	}
}

// SetTestRunoff puts a position in RUNOFF with the given finalists
func SetTestRunoff(t *testing.T, conn *sql.DB, position models.Position, finalistA, finalistB string) {
	t.Helper()

	_, err := conn.Exec(`
		UPDATE position_state SET status = 'RUNOFF', finalist_a = $1, finalist_b = $2 WHERE position = $3
	`, finalistA, finalistB, string(position))
	if err != nil {
		t.Fatalf("Failed to set runoff: %v", err)
	}
}

// InsertTestBallot stores a ballot directly. An empty candidateID stores a
// ballot of the given non-VALID type.
func InsertTestBallot(t *testing.T, conn *sql.DB, position models.Position, candidateID string, voteType models.VoteType, round int) {
	t.Helper()

	var cid *string
	if candidateID != "" {
		cid = &candidateID
	}
	_, err := conn.Exec(`
		INSERT INTO ballot (id, position, candidate_id, vote_type, round, voted_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, uuid.NewString(), string(position), cid, string(voteType), round, time.Now().UTC())
	if err != nil {
		t.Fatalf("Failed to insert test ballot: %v", err)
	}
}

// CountBallots returns the ballot count for a position and round
func CountBallots(t *testing.T, conn *sql.DB, position models.Position, round int) int {
	t.Helper()

	var n int
	err := conn.QueryRow(`SELECT COUNT(*) FROM ballot WHERE position = $1 AND round = $2`, string(position), round).Scan(&n)
	if err != nil {
		t.Fatalf("Failed to count ballots: %v", err)
	}
	return n
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
