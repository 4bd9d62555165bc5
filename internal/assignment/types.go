package assignment

// MetricKind names the type a metric rule's output file is parsed as.
const (
	MetricBool  = "bool"
	MetricInt   = "int"
	MetricFloat = "float"
)

type Rule struct {
	Target   string  `toml:"target" validate:"required"`
	FailOkay *bool   `toml:"fail_okay,omitempty"`
	WaitText *string `toml:"wait_text,omitempty"`
	PassText *string `toml:"pass_text,omitempty"`
	FailText *string `toml:"fail_text,omitempty"`
	HelpText *string `toml:"help_text,omitempty"`
	Kind     *string `toml:"kind,omitempty" validate:"omitempty,oneof=bool int float"`
}

// IsMetric reports whether the rule harvests a typed score on success.
func (r *Rule) IsMetric() bool {
	return r.Kind != nil
}

// Ruleset is an ordered group of rules sharing gating flags and a
// default failure tolerance. Execution order equals declaration order.
type Ruleset struct {
	OnGrade  *bool  `toml:"on_grade,omitempty"`
	OnSubmit *bool  `toml:"on_submit,omitempty"`
	FailOkay *bool  `toml:"fail_okay,omitempty"`
	Rules    []Rule `toml:"rules" validate:"dive"`
}

// EffectiveFailOkay resolves a rule's tolerance against the ruleset
// default. Rule-level settings win; everything unset means fatal.
func (rs *Ruleset) EffectiveFailOkay(rule *Rule) bool {
	if rule.FailOkay != nil {
		return *rule.FailOkay
	}
	if rs.FailOkay != nil {
		return *rs.FailOkay
	}
	return false
}

// MetricRules returns the rules that produce scores, in declaration order.
func (rs *Ruleset) MetricRules() []Rule {
	var metrics []Rule
	for _, rule := range rs.Rules {
		if rule.IsMetric() {
			metrics = append(metrics, rule)
		}
	}
	return metrics
}
