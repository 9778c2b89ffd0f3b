package evaluation

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// Report aggregates every finding for one target. It is assembled by a
// single owner and read-only once built.
type Report struct {
	id          string
	target      Target
	profile     string
	startedAt   time.Time
	completedAt time.Time
	findings    []Finding
}

// NewReport builds an immutable report. Findings are copied and sorted into
// canonical kind order; the sort is stable so probe order breaks ties.
// Evidence is deep-copied so later changes by the caller are not visible.
func NewReport(target Target, profile string, startedAt, completedAt time.Time, findings []Finding) *Report {
	copied := cloneFindings(findings)
	sort.SliceStable(copied, func(i, j int) bool {
		return copied[i].Kind.order() < copied[j].Kind.order()
	})
	return &Report{
		id:          uuid.NewString(),
		target:      target,
		profile:     profile,
		startedAt:   startedAt,
		completedAt: completedAt,
		findings:    copied,
	}
}

func (r *Report) ID() string {
	return r.id
}

func (r *Report) Target() Target {
	return r.target
}

func (r *Report) Profile() string {
	return r.profile
}

func (r *Report) StartedAt() time.Time {
	return r.startedAt
}

func (r *Report) CompletedAt() time.Time {
	return r.completedAt
}

func (r *Report) Duration() time.Duration {
	return r.completedAt.Sub(r.startedAt)
}

// Findings returns a deep copy of the findings in canonical order.
func (r *Report) Findings() []Finding {
	return cloneFindings(r.findings)
}

// Find returns the first finding of the given kind.
func (r *Report) Find(kind Kind) (Finding, bool) {
	for _, f := range r.findings {
		if f.Kind == kind {
			return f.clone(), true
		}
	}
	return Finding{}, false
}

// LatencyRating returns the latency rating, or 0 when there is none.
func (r *Report) LatencyRating() int {
	f, ok := r.Find(KindLatency)
	if !ok || f.Latency == nil {
		return 0
	}
	return f.Latency.Rating
}
