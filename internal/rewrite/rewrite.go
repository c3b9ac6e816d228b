// Package rewrite applies operator-configured keyword removal and term
// substitution to release-note lines.
package rewrite

import (
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"
)

// Substitution replaces every case-insensitive occurrence of From with the
// literal To.
type Substitution struct {
	From string
	To   string
}

// Rules is an ordered, compiled rule set. Removals always run before
// substitutions. The zero value leaves text unchanged.
type Rules struct {
	remove []string
	subs   []Substitution

	removeRe []*regexp.Regexp
	subsRe   []*regexp.Regexp
}

// New compiles a rule set. Empty keywords and empty From terms are skipped.
func New(remove []string, subs []Substitution) Rules {
	r := Rules{}
	for _, kw := range remove {
		if kw == "" {
			continue
		}
		r.remove = append(r.remove, kw)
		r.removeRe = append(r.removeRe, foldPattern(kw))
	}
	for _, s := range subs {
		if s.From == "" {
			continue
		}
		r.subs = append(r.subs, s)
		r.subsRe = append(r.subsRe, foldPattern(s.From))
	}
	return r
}

// Keywords returns the removal keywords in application order.
func (r Rules) Keywords() []string { return append([]string(nil), r.remove...) }

// Substitutions returns the substitutions in application order.
func (r Rules) Substitutions() []Substitution { return append([]Substitution(nil), r.subs...) }

// Parse builds rules from the comma-separated REMOVE_WORD,
// CHANGE_PARAMETER1 and CHANGE_PARAMETER2 values. Each whole value is
// trimmed; its elements are not, so a deliberate leading space in an inner
// term is kept. from[i] is replaced by to[i]; when the lists differ in
// length the surplus is ignored.
func Parse(remove, from, to string) Rules {
	remove = strings.TrimSpace(remove)
	from = strings.TrimSpace(from)
	to = strings.TrimSpace(to)
	var kws []string
	if remove != "" {
		kws = strings.Split(remove, ",")
	}
	var subs []Substitution
	if from != "" && to != "" {
		fs := strings.Split(from, ",")
		ts := strings.Split(to, ",")
		if len(fs) != len(ts) {
			log.Warn().Int("from", len(fs)).Int("to", len(ts)).Msg("substitution lists differ in length; extra terms ignored")
		}
		n := min(len(fs), len(ts))
		for i := 0; i < n; i++ {
			subs = append(subs, Substitution{From: fs[i], To: ts[i]})
		}
	} else if from != "" || to != "" {
		log.Warn().Msg("substitutions need both CHANGE_PARAMETER1 and CHANGE_PARAMETER2; ignoring")
	}
	return New(kws, subs)
}

// Empty reports whether the rule set would leave every input unchanged.
func (r Rules) Empty() bool {
	return len(r.removeRe) == 0 && len(r.subsRe) == 0
}

// Apply runs removals then substitutions over text, each in list order.
func (r Rules) Apply(text string) string {
	for _, re := range r.removeRe {
		text = re.ReplaceAllLiteralString(text, "")
	}
	for i, re := range r.subsRe {
		text = re.ReplaceAllLiteralString(text, r.subs[i].To)
	}
	return text
}

func foldPattern(term string) *regexp.Regexp {
	return regexp.MustCompile("(?i)" + regexp.QuoteMeta(term))
}
