// Package resolve maps free-text country names onto ISO codes using a
// reference table: exact case-insensitive matches first, then canonical
// names found inside the raw name.
package resolve

import (
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/text/cases"

	"github.com/hyperifyio/relnotes/internal/reference"
)

// Kind reports how a name was resolved.
type Kind int

const (
	None Kind = iota
	Exact
	Substring
)

func (k Kind) String() string {
	switch k {
	case Exact:
		return "exact"
	case Substring:
		return "substring"
	default:
		return "none"
	}
}

// Match is the outcome of resolving one raw name. Code is empty when the
// name could not be resolved.
type Match struct {
	Code string
	Kind Kind
	// Entry is the reference entry that matched.
	Entry reference.Entry
	// Alternatives lists other codes whose canonical names also occur in the
	// raw name. Only set for substring matches.
	Alternatives []string
}

// Resolved reports whether a code was found.
func (m Match) Resolved() bool { return m.Code != "" }

// Ambiguous reports whether more than one entry satisfied the substring test.
func (m Match) Ambiguous() bool { return len(m.Alternatives) > 0 }

// Resolver holds a reference table with pre-folded names. It is not safe for
// concurrent use.
type Resolver struct {
	table  reference.Table
	folded []string
	fold   cases.Caser
}

// New builds a resolver over t. The table is not copied and must not be
// modified afterwards.
func New(t reference.Table) *Resolver {
	r := &Resolver{table: t, fold: cases.Fold()}
	r.folded = make([]string, len(t))
	for i, e := range t {
		r.folded[i] = r.fold.String(e.Name)
	}
	return r
}

// Resolve returns the code for raw. An exact match anywhere in the table
// wins over any substring match; within each pass the first entry in table
// order wins. With table order [Niger, Nigeria], "Nigeria" resolves to
// Nigeria, not to the earlier Niger whose name it contains.
func (r *Resolver) Resolve(raw string) Match {
	name := r.fold.String(strings.TrimSpace(raw))
	if name == "" {
		return Match{}
	}
	for i, f := range r.folded {
		if f == name {
			return Match{Code: r.table[i].Code, Kind: Exact, Entry: r.table[i]}
		}
	}

	var m Match
	for i, f := range r.folded {
		if f == "" || !strings.Contains(name, f) {
			continue
		}
		if !m.Resolved() {
			m = Match{Code: r.table[i].Code, Kind: Substring, Entry: r.table[i]}
			continue
		}
		if r.table[i].Code != m.Code {
			m.Alternatives = append(m.Alternatives, r.table[i].Code)
		}
	}
	if !m.Resolved() {
		return m
	}
	ev := log.Debug()
	if m.Ambiguous() {
		ev = log.Warn().Strs("alternatives", m.Alternatives)
	}
	ev.Str("stage", "resolve").Str("name", raw).Str("code", m.Code).Str("canonical", m.Entry.Name).Msg("substring match")
	return m
}
