package preflight

import "github.com/sourcegraph/conc/iter"

// Options configures an Engine.
type Options struct {
	TieBreak TieBreak
	Rules    RuleOptions
	// Disabled removes every rule of these categories. Disabling CategoryCamera drops the
	// consensus issues but the default camera is still resolved for the camera rules.
	Disabled []Category
	// Parallel evaluates rules concurrently. Output is identical to sequential evaluation.
	Parallel bool
}

// Engine runs the preflight pipeline: capture, consensus, rules, aggregation.
// An Engine holds no per-run state and may be reused.
type Engine struct {
	opts  Options
	rules RuleSet
}

// NewEngine builds an engine with the default rule set.
func NewEngine(opts Options) *Engine {
	return NewEngineWithRules(opts, DefaultRuleSet(opts.Rules))
}

// NewEngineWithRules builds an engine over a custom rule set.
func NewEngineWithRules(opts Options, rules RuleSet) *Engine {
	return &Engine{
		opts:  opts,
		rules: rules.Without(opts.Disabled...),
	}
}

// RuleSet is the set of rules the engine evaluates.
func (e *Engine) RuleSet() RuleSet {
	return e.rules
}

// Result is the outcome of a successful run.
type Result struct {
	Snapshot  SceneSnapshot
	Consensus ConsensusResult
	Report    Report
}

// Run captures the scene and validates it. Fatal errors (*SceneQueryError, *NoJobsError)
// are returned without a report.
func (e *Engine) Run(insp Inspector) (Result, error) {
	snap, err := Capture(insp)
	if err != nil {
		return Result{}, err
	}
	return e.Validate(snap)
}

// Validate runs consensus and rules over an existing snapshot.
func (e *Engine) Validate(snap SceneSnapshot) (Result, error) {
	consensus, err := Resolve(snap, e.opts.TieBreak)
	if err != nil {
		return Result{}, err
	}

	var lists [][]ValidationIssue
	if !e.cameraDisabled() {
		lists = append(lists, CameraIssues(snap, consensus))
	}
	lists = append(lists, e.evaluate(snap, consensus)...)

	return Result{
		Snapshot:  snap,
		Consensus: consensus,
		Report:    Aggregate(lists...),
	}, nil
}

func (e *Engine) evaluate(snap SceneSnapshot, consensus ConsensusResult) [][]ValidationIssue {
	if !e.opts.Parallel {
		return e.rules.Evaluate(snap, consensus)
	}
	// iter.Map writes each result at its input index, so fan-in keeps rule order.
	return iter.Map(e.rules.rules, func(r *Rule) []ValidationIssue {
		return (*r).Evaluate(snap, consensus)
	})
}

func (e *Engine) cameraDisabled() bool {
	for _, c := range e.opts.Disabled {
		if c == CategoryCamera {
			return true
		}
	}
	return false
}
