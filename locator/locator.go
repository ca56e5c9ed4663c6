// Package locator resolves semantic page roles ("header", "footer-link",
// "social-link", ...) to DOM nodes through ordered fallback strategies.
package locator

import (
	"errors"
	"fmt"
	"sort"

	"github.com/use-agent/sitecheck/dom"
)

// ErrUnknownRole is returned when no Spec is registered for a role.
var ErrUnknownRole = errors.New("locator: unknown role")

// Spec is the ordered strategy list for one role. The first strategy that
// yields at least one node wins; when all come back empty the result is
// empty, never an error.
type Spec []Strategy

// Match is the outcome of resolving a role.
type Match struct {
	Role string

	// Strategy names the strategy that produced Nodes ("" when none did).
	Strategy string

	// Tried is the number of strategies evaluated, including the winner.
	Tried int

	Nodes []*dom.Node
}

// Empty reports whether nothing was located.
func (m Match) Empty() bool { return len(m.Nodes) == 0 }

// First returns the first located node, or nil.
func (m Match) First() *dom.Node {
	if m.Empty() {
		return nil
	}
	return m.Nodes[0]
}

// Run evaluates the spec under root.
func (s Spec) Run(root *dom.Node) Match {
	var m Match
	for _, st := range s {
		m.Tried++
		if nodes := st.Select(root); len(nodes) > 0 {
			m.Strategy = st.Name()
			m.Nodes = dom.SortNodes(nodes)
			return m
		}
	}
	return m
}

// Locator holds the role registry. The zero value has no roles; use New or
// Default.
type Locator struct {
	specs map[string]Spec
}

// New creates a Locator from a role table. The table is copied.
func New(specs map[string]Spec) *Locator {
	l := &Locator{specs: make(map[string]Spec, len(specs))}
	for role, spec := range specs {
		l.specs[role] = spec
	}
	return l
}

// With returns a copy of l with role registered (or replaced).
func (l *Locator) With(role string, spec Spec) *Locator {
	c := New(l.specs)
	c.specs[role] = spec
	return c
}

// Roles lists the registered roles in sorted order.
func (l *Locator) Roles() []string {
	out := make([]string, 0, len(l.specs))
	for r := range l.specs {
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}

// Locate resolves role under root.
func (l *Locator) Locate(role string, root *dom.Node) (Match, error) {
	spec, ok := l.specs[role]
	if !ok {
		return Match{Role: role}, fmt.Errorf("%w: %q", ErrUnknownRole, role)
	}
	m := spec.Run(root)
	m.Role = role
	return m, nil
}

// Nodes is Locate without the diagnostics. Unknown roles yield nil.
func (l *Locator) Nodes(role string, root *dom.Node) []*dom.Node {
	m, err := l.Locate(role, root)
	if err != nil {
		return nil
	}
	return m.Nodes
}
