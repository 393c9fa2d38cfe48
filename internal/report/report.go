// Package report holds the aggregate result of one bulk workflow run, keyed
// by account display name, and the exporters that render it. The workflow
// writes it; everything else reads it.
package report

import (
	"sort"
	"time"
)

// Failure pairs a resource with the provider's reason for the failure.
type Failure struct {
	Resource string
	Reason   string
}

// AccountReport collects the outcome categories for one account. Validation
// fills Valid/NonExistent/Malformed/Errors; execution fills Deleted/Failed.
type AccountReport struct {
	Valid       []string
	NonExistent []string
	Malformed   []Failure
	Errors      []Failure
	Deleted     []string
	Failed      []Failure
}

// Report is the aggregate a workflow run returns: every outcome category per
// account plus total wall-clock time.
type Report struct {
	Accounts map[string]*AccountReport
	Elapsed  time.Duration
}

// New returns an empty report. Each run starts from one of these; nothing is
// retained across runs.
func New() *Report {
	return &Report{Accounts: make(map[string]*AccountReport)}
}

// Account returns the per-account bucket, creating it on first use.
func (r *Report) Account(name string) *AccountReport {
	if name == "" {
		name = "Unknown"
	}
	acct, ok := r.Accounts[name]
	if !ok {
		acct = &AccountReport{}
		r.Accounts[name] = acct
	}
	return acct
}

// Merge folds another report into this one additively; nothing in the
// receiver is overwritten. Merging is commutative over completion order.
func (r *Report) Merge(other *Report) {
	for name, src := range other.Accounts {
		dst := r.Account(name)
		dst.Valid = append(dst.Valid, src.Valid...)
		dst.NonExistent = append(dst.NonExistent, src.NonExistent...)
		dst.Malformed = append(dst.Malformed, src.Malformed...)
		dst.Errors = append(dst.Errors, src.Errors...)
		dst.Deleted = append(dst.Deleted, src.Deleted...)
		dst.Failed = append(dst.Failed, src.Failed...)
	}
}

// AccountNames returns the account keys in stable order for rendering.
func (r *Report) AccountNames() []string {
	names := make([]string, 0, len(r.Accounts))
	for name := range r.Accounts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Totals sums the outcome categories across accounts.
func (r *Report) Totals() (valid, nonExistent, malformed, errs, deleted, failed int) {
	for _, acct := range r.Accounts {
		valid += len(acct.Valid)
		nonExistent += len(acct.NonExistent)
		malformed += len(acct.Malformed)
		errs += len(acct.Errors)
		deleted += len(acct.Deleted)
		failed += len(acct.Failed)
	}
	return
}
