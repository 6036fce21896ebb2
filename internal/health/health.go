// Package health checks that the client's dependencies are usable: the session database, the route
// policy and the backend.
package health

import (
	"context"
	"time"
)

// Pinger checks a connection (e.g. *sql.DB, the storage layer, the API client).
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PolicyChecker is implemented by the route guard to verify its policy evaluates.
type PolicyChecker interface {
	HealthCheck(ctx context.Context) error
}

// Status is the overall outcome of a Check.
type Status string

const (
	StatusServing    Status = "SERVING"
	StatusNotServing Status = "NOT_SERVING"
)

// Result is the outcome of one named check. Err is nil when the check passed; Skipped is set when the
// dependency is not configured.
type Result struct {
	Name    string
	Err     error
	Skipped bool
	Elapsed time.Duration
}

// Report is the result of every check, in run order.
type Report struct {
	Status  Status
	Results []Result
}

// Checker runs the checks. Any of its dependencies may be nil and is then reported as skipped.
type Checker struct {
	storage Pinger
	policy  PolicyChecker
	backend Pinger
	timeout time.Duration
}

// NewChecker returns a Checker. timeout bounds each check; zero means 5s.
func NewChecker(storage Pinger, policy PolicyChecker, backend Pinger, timeout time.Duration) *Checker {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Checker{storage: storage, policy: policy, backend: backend, timeout: timeout}
}

// Check runs the storage, policy and backend checks. The report is NOT_SERVING if any of them failed.
func (c *Checker) Check(ctx context.Context) Report {
	r := Report{Status: StatusServing}
	add := func(name string, configured bool, fn func(context.Context) error) {
		if !configured {
			r.Results = append(r.Results, Result{Name: name, Skipped: true})
			return
		}
		cctx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()
		start := time.Now()
		err := fn(cctx)
		r.Results = append(r.Results, Result{Name: name, Err: err, Elapsed: time.Since(start)})
		if err != nil {
			r.Status = StatusNotServing
		}
	}
	add("storage", c.storage != nil, func(ctx context.Context) error { return c.storage.PingContext(ctx) })
	add("policy", c.policy != nil, func(ctx context.Context) error { return c.policy.HealthCheck(ctx) })
	add("backend", c.backend != nil, func(ctx context.Context) error { return c.backend.PingContext(ctx) })
	return r
}
