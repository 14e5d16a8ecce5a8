// Package doctor runs environment health checks for the toast CLI.
package doctor

import "context"

// Status is the outcome of one check item. Statuses are ordered: a later
// status is worse.
type Status string

const (
	StatusPass Status = "pass"
	StatusWarn Status = "warn"
	StatusFail Status = "fail"
)

func (s Status) rank() int {
	switch s {
	case StatusWarn:
		return 1
	case StatusFail:
		return 2
	default:
		return 0
	}
}

// CheckItem is one line of a check's output.
type CheckItem struct {
	Label  string `json:"label"`
	Status Status `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// Result groups the items produced by one check.
type Result struct {
	Name  string      `json:"name"`
	Items []CheckItem `json:"items"`
}

// Status is the worst status among the items, or pass when there are none.
func (r Result) Status() Status {
	worst := StatusPass
	for _, item := range r.Items {
		if item.Status.rank() > worst.rank() {
			worst = item.Status
		}
	}
	return worst
}

// Check is a single diagnostic.
type Check interface {
	Name() string
	Run(ctx context.Context) Result
}

// RunAll runs checks in order. A cancelled ctx stops before the next check.
func RunAll(ctx context.Context, checks []Check) []Result {
	results := make([]Result, 0, len(checks))
	for _, check := range checks {
		if ctx.Err() != nil {
			break
		}
		results = append(results, check.Run(ctx))
	}
	return results
}

// Counts tallies item statuses across results.
type Counts struct {
	Passed int `json:"passed"`
	Warned int `json:"warned"`
	Failed int `json:"failed"`
}

// Healthy reports whether nothing failed, or with strict set, nothing warned
// either.
func (c Counts) Healthy(strict bool) bool {
	if strict {
		return c.Failed == 0 && c.Warned == 0
	}
	return c.Failed == 0
}

// Summary counts items by status.
func Summary(results []Result) Counts {
	var c Counts
	for _, r := range results {
		for _, item := range r.Items {
			switch item.Status {
			case StatusPass:
				c.Passed++
			case StatusWarn:
				c.Warned++
			case StatusFail:
				c.Failed++
			}
		}
	}
	return c
}

// Report is the machine-readable doctor output.
type Report struct {
	Healthy bool     `json:"healthy"`
	Summary Counts   `json:"summary"`
	Checks  []Result `json:"checks"`
}

// NewReport summarises results.
func NewReport(results []Result, strict bool) Report {
	c := Summary(results)
	return Report{Healthy: c.Healthy(strict), Summary: c, Checks: results}
}
