// Package policy holds the tunable detection policy for continuity scans.
//
// Thresholds and synonym sets are policy choices, not engine semantics:
// which relative jump in a numeric attribute warrants review, how rule
// scope maps to alert severity, and which keywords count as an explanation
// for a state change all vary per story world. Policies are authored as
// CUE files and compiled into a typed Policy; a built-in default applies
// when no file is given.
package policy

import (
	"github.com/fablekeep/continuity/internal/story"
)

// Policy configures the conflict detector.
//
// Percentages are integers (50 means 50%) so that a policy file never
// contains floats and compiled policies compare exactly.
type Policy struct {
	// NumericJumpPercent flags a numeric attribute change whose relative
	// magnitude exceeds this percentage as high severity, even when the
	// change is nominally explained.
	NumericJumpPercent int

	// NumericTolerancePercent is the relative difference below which two
	// numeric values matched to the same world rule are considered
	// compatible. Zero means any difference conflicts.
	NumericTolerancePercent int

	// SeverityByScope maps a world rule's scope to the severity of a
	// violation alert for that rule.
	SeverityByScope map[story.RuleScope]story.Severity

	// Synonyms maps an attribute value keyword to the additional keywords
	// accepted as evidence that an intervening scene explains the change.
	// Example: "dead" -> ["died", "killed", "slain"].
	Synonyms map[string][]string
}

// Default returns the built-in policy used when no policy file is given.
func Default() *Policy {
	return &Policy{
		NumericJumpPercent:      50,
		NumericTolerancePercent: 0,
		SeverityByScope: map[story.RuleScope]story.Severity{
			story.ScopeUniversal:   story.SeverityHigh,
			story.ScopeRegional:    story.SeverityMedium,
			story.ScopeSituational: story.SeverityLow,
		},
		Synonyms: map[string][]string{},
	}
}

// ViolationSeverity returns the severity for a violation of a rule with the
// given scope, falling back to medium for unknown scopes.
func (p *Policy) ViolationSeverity(scope story.RuleScope) story.Severity {
	if sev, ok := p.SeverityByScope[scope]; ok {
		return sev
	}
	return story.SeverityMedium
}

// SynonymsFor returns the explanation keywords for a value: the folded
// value itself plus any configured synonyms.
func (p *Policy) SynonymsFor(value string) []string {
	keywords := []string{value}
	if extra, ok := p.Synonyms[value]; ok {
		keywords = append(keywords, extra...)
	}
	return keywords
}
