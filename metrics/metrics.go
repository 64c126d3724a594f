package metrics

import (
	"fmt"
	"sync"
	"time"

	"github.com/bbengfort/x/stats"
	"github.com/sedipro/sufragio/errs"
)

// Metrics tracks ballot submissions since the process started. Counts are
// per submission kind only; nothing here can be tied to a voter or choice.
type Metrics struct {
	sync.RWMutex
	started  time.Time         // Process start
	last     time.Time         // The time of the last accepted ballot
	accepted map[string]uint64 // Accepted submissions by kind
	rejected uint64            // Eligibility or validation failures
	failed   uint64            // Infrastructure failures
	latency  *stats.Statistics // Submission latency in milliseconds
}

// New creates the metrics data store
func New() *Metrics {
	return &Metrics{
		started:  time.Now(),
		accepted: make(map[string]uint64),
		latency:  new(stats.Statistics),
	}
}

// Submission registers the outcome of one submission of the given kind
// ("area", "presidency" or "runoff").
func (m *Metrics) Submission(kind string, took time.Duration, err error) {
	if m == nil {
		return
	}

	// Synchronized internally
	m.latency.Update(float64(took) / float64(time.Millisecond))

	m.Lock()
	defer m.Unlock()

	switch k := errs.KindOf(err); {
	case err == nil:
		m.accepted[kind]++
		m.last = time.Now()
	case k == errs.KindUnavailable || k == errs.KindInternal:
		m.failed++
	default:
		m.rejected++
	}
}

// Snapshot returns the metrics as a JSON friendly map
func (m *Metrics) Snapshot() map[string]interface{} {
	m.RLock()
	defer m.RUnlock()

	accepted := make(map[string]uint64, len(m.accepted))
	var total uint64
	for k, v := range m.accepted {
		accepted[k] = v
		total += v
	}

	data := map[string]interface{}{
		"started":  m.started.Format(time.RFC3339Nano),
		"uptime":   time.Since(m.started).String(),
		"accepted": accepted,
		"total":    total,
		"rejected": m.rejected,
		"failed":   m.failed,
		"latency":  m.latency.Serialize(),
	}
	if !m.last.IsZero() {
		data["last_ballot"] = m.last.Format(time.RFC3339Nano)
	}
	return data
}

// String returns a summary of the submission metrics
func (m *Metrics) String() string {
	m.RLock()
	defer m.RUnlock()

	var total uint64
	for _, v := range m.accepted {
		total += v
	}

	return fmt.Sprintf(
		"%d ballots, %d rejected, %d failed in %s",
		total, m.rejected, m.failed, time.Since(m.started).Round(time.Second),
	)
}
