package snapshot

import (
	"fmt"
	"strings"

	"github.com/dop251/goja"

	"github.com/hemantobora/azsnap/internal/azure"
)

// Filter selects snapshots for listing or deletion. Keyword is a
// case-insensitive substring match on the snapshot name; Expression is an
// optional JavaScript predicate evaluated against each snapshot.
type Filter struct {
	Keyword string

	prog *goja.Program
}

// NewFilter compiles the optional JS expression up front so a bad expression
// fails before any subscription is queried.
func NewFilter(keyword, expression string) (*Filter, error) {
	f := &Filter{Keyword: keyword}

	if expression != "" {
		prog, err := goja.Compile("filter", expression, true)
		if err != nil {
			return nil, fmt.Errorf("invalid filter expression: %w", err)
		}
		f.prog = prog
	}

	return f, nil
}

// Match reports whether a snapshot passes the keyword and expression filters.
//
// The expression sees a `snapshot` object:
//
//	snapshot.name, snapshot.resourceGroup, snapshot.timeCreated,
//	snapshot.ageDays, snapshot.diskState, snapshot.createdBy
//
// e.g. `snapshot.ageDays > 90 && snapshot.diskState != "Attached"`.
func (f *Filter) Match(s azure.Snapshot) (bool, error) {
	if f.Keyword != "" && !strings.Contains(strings.ToLower(s.Name), strings.ToLower(f.Keyword)) {
		return false, nil
	}

	if f.prog == nil {
		return true, nil
	}

	// a fresh runtime per evaluation; goja runtimes are not safe for
	// concurrent use and Match runs from pool workers
	vm := goja.New()
	vm.Set("snapshot", map[string]interface{}{
		"name":          s.Name,
		"resourceGroup": s.ResourceGroup,
		"timeCreated":   s.TimeCreated,
		"ageDays":       s.AgeDays(),
		"diskState":     s.DiskState,
		"createdBy":     s.CreatedBy,
	})

	value, err := vm.RunProgram(f.prog)
	if err != nil {
		return false, fmt.Errorf("filter expression failed for %s: %w", s.Name, err)
	}

	return value.ToBoolean(), nil
}
