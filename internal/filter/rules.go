package filter

import (
	"fmt"

	"github.com/gobwas/glob"
)

// Rule overrides compile options for matching templates.
type Rule struct {
	// Pattern is matched against the root-relative path.
	Pattern string

	// Partial overrides the global partial registration when non-nil.
	Partial *bool

	// OutputFolder overrides the global output folder when non-empty.
	OutputFolder string

	g glob.Glob
}

// Rules is an ordered rule list; the first matching rule wins.
// A nil *Rules matches nothing.
type Rules struct {
	rules []Rule
}

// NewRules compiles the rule patterns.
func NewRules(rules []Rule) (*Rules, error) {
	compiled := make([]Rule, 0, len(rules))

	for i, r := range rules {
		g, err := glob.Compile(r.Pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("compiling rule %d pattern %q: %w", i, r.Pattern, err)
		}

		r.g = g
		compiled = append(compiled, r)
	}

	return &Rules{rules: compiled}, nil
}

// Lookup returns the first rule matching the root-relative path.
func (r *Rules) Lookup(rel string) (Rule, bool) {
	if r == nil {
		return Rule{}, false
	}

	rel = normalize(rel)

	for _, rule := range r.rules {
		if rule.g.Match(rel) {
			return rule, true
		}
	}

	return Rule{}, false
}

// Len returns the number of rules.
func (r *Rules) Len() int {
	if r == nil {
		return 0
	}

	return len(r.rules)
}
