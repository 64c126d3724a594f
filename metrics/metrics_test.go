package metrics

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/sedipro/sufragio/errs"
)

func TestSubmission(t *testing.T) {
	m := New()

	m.Submission("area", 5*time.Millisecond, nil)
	m.Submission("area", 7*time.Millisecond, nil)
	m.Submission("runoff", 3*time.Millisecond, nil)
	m.Submission("area", time.Millisecond, errs.Forbidden("ya votaste"))
	m.Submission("presidency", time.Millisecond, errs.BadRequest("candidato"))
	m.Submission("presidency", time.Second, errs.Infra(context.DeadlineExceeded))
	m.Submission("presidency", time.Second, errors.New("boom"))

	snap := m.Snapshot()

	accepted := snap["accepted"].(map[string]uint64)
	if accepted["area"] != 2 || accepted["runoff"] != 1 || accepted["presidency"] != 0 {
		t.Errorf("unexpected accepted counts: %v", accepted)
	}
	if snap["total"].(uint64) != 3 {
		t.Errorf("expected 3 accepted ballots, got %v", snap["total"])
	}
	if snap["rejected"].(uint64) != 2 {
		t.Errorf("expected 2 rejected, got %v", snap["rejected"])
	}
	if snap["failed"].(uint64) != 2 {
		t.Errorf("expected 2 failed, got %v", snap["failed"])
	}
	if _, ok := snap["last_ballot"]; !ok {
		t.Error("expected last_ballot to be set")
	}
	if snap["latency"] == nil {
		t.Error("expected latency statistics")
	}

	if s := m.String(); !strings.HasPrefix(s, "3 ballots, 2 rejected, 2 failed") {
		t.Errorf("unexpected summary: %s", s)
	}
}

func TestSubmission_NilMetrics(t *testing.T) {
	var m *Metrics
	// Must not panic
	m.Submission("area", time.Millisecond, nil)
}

func TestSubmission_Concurrent(t *testing.T) {
	m := New()
	done := make(chan struct{})

	for i := 0; i < 10; i++ {
		go func(i int) {
			defer func() { done <- struct{}{} }()
			m.Submission(fmt.Sprintf("k%d", i%2), time.Millisecond, nil)
		}(i)
	}
	for i := 0; i < 10; i++ {
		<-done
	}

	if total := m.Snapshot()["total"].(uint64); total != 10 {
		t.Errorf("expected 10 accepted, got %d", total)
	}
}
