package preflight

// RuleSet is an ordered collection of rules. The zero value holds no rules.
type RuleSet struct {
	rules []Rule
}

// NewRuleSet builds a set from rules in the given order.
func NewRuleSet(rules ...Rule) RuleSet {
	return RuleSet{rules: append([]Rule(nil), rules...)}
}

// DefaultRuleSet returns every rule in category display order. Camera consensus issues are
// produced by the engine, not by a rule.
func DefaultRuleSet(opts RuleOptions) RuleSet {
	return NewRuleSet(
		ResolutionRule(),
		PixelAspectRule(opts),
		DepthOfFieldRule(),
		FrameRangeRule(),
		AOVPresenceRule(),
		ZDepthRule(),
		MotionRule(opts),
		GlobalIlluminationRule(),
		CryptomatteRule(opts),
		DomeLightRule(),
		GlobalEnvironmentRule(),
		SaveStateRule(),
	)
}

// Rules returns the rules in evaluation order.
func (s RuleSet) Rules() []Rule {
	return append([]Rule(nil), s.rules...)
}

// Len is the number of rules.
func (s RuleSet) Len() int {
	return len(s.rules)
}

// Without returns a copy of the set with every rule of the given categories removed.
func (s RuleSet) Without(categories ...Category) RuleSet {
	if len(categories) == 0 {
		return NewRuleSet(s.rules...)
	}
	drop := make(map[Category]struct{}, len(categories))
	for _, c := range categories {
		drop[c] = struct{}{}
	}
	kept := make([]Rule, 0, len(s.rules))
	for _, r := range s.rules {
		if _, ok := drop[r.Category()]; !ok {
			kept = append(kept, r)
		}
	}
	return RuleSet{rules: kept}
}

// Evaluate runs every rule sequentially and returns one issue list per rule, in rule order.
func (s RuleSet) Evaluate(snap SceneSnapshot, consensus ConsensusResult) [][]ValidationIssue {
	out := make([][]ValidationIssue, len(s.rules))
	for i, r := range s.rules {
		out[i] = r.Evaluate(snap, consensus)
	}
	return out
}
