package domain

import "github.com/samber/lo"

// RunSummary is what the operator sees before and after a run.
type RunSummary struct {
	RunID      string
	Counters   RunCounters
	Exempt     int
	Actionable int
	Failed     int
	Simulated  bool
	// ByStatus is only filled after dispatch.
	ByStatus map[string]int
}

// RunResult is everything the report writer needs from a finished run.
type RunResult struct {
	Summary    RunSummary
	Exempt     []*ResourceRecord
	Actionable []*ResourceRecord
}

// Failed returns the actionable records that did not end in Success.
func (r RunResult) Failed() []*ResourceRecord {
	return lo.Filter(r.Actionable, func(rec *ResourceRecord, _ int) bool {
		return rec.Status != StatusSuccess
	})
}
