package continuity

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/fablekeep/continuity/internal/story"
)

// fold normalizes text for matching: NFC then lowercase. All engine string
// comparisons go through fold so that visually identical authored text
// compares equal regardless of input encoding.
func fold(s string) string {
	return strings.ToLower(norm.NFC.String(s))
}

// foldTokens splits folded text into its word set.
func foldTokens(s string) map[string]bool {
	tokens := map[string]bool{}
	for _, tok := range strings.FieldsFunc(fold(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		tokens[tok] = true
	}
	return tokens
}

type ruleEntry struct {
	rule     story.WorldRule
	keywords []string // folded
}

// Matcher associates world rules with assertions by keyword overlap.
// Matching is mechanical: a keyword hit means "this rule is about this
// fact", never "this fact violates this rule".
type Matcher struct {
	entries []ruleEntry
}

// NewMatcher prepares rules for matching. A rule with no authored keywords
// falls back to the words of its own name, so it still matches scenes that
// restate the rule verbatim.
func NewMatcher(rules []story.WorldRule) *Matcher {
	m := &Matcher{entries: make([]ruleEntry, 0, len(rules))}
	for _, r := range rules {
		var keywords []string
		for _, kw := range r.Keywords {
			kw = strings.TrimSpace(fold(kw))
			if kw != "" {
				keywords = append(keywords, kw)
			}
		}
		if len(keywords) == 0 {
			for _, tok := range strings.Fields(fold(r.Name)) {
				if len(tok) >= 3 {
					keywords = append(keywords, tok)
				}
			}
		}
		m.entries = append(m.entries, ruleEntry{rule: r, keywords: keywords})
	}
	return m
}

// Match returns the rules relevant to an assertion, judged against the
// attribute name, the value, and the text of the scene the assertion comes
// from. Rules come back in the order they were given (name order from the
// store), keeping repeated scans deterministic.
func (m *Matcher) Match(attribute, value, sceneText string) []story.WorldRule {
	tokens := foldTokens(attribute + " " + value + " " + sceneText)
	folded := fold(attribute) + " " + fold(value) + " " + fold(sceneText)

	var matched []story.WorldRule
	for _, entry := range m.entries {
		for _, kw := range entry.keywords {
			if containsKeyword(tokens, folded, kw) {
				matched = append(matched, entry.rule)
				break
			}
		}
	}
	return matched
}

// containsKeyword checks a single folded keyword against the haystack.
// Single words match on word boundaries; multi-word keywords match as a
// substring of the folded text.
func containsKeyword(tokens map[string]bool, folded, kw string) bool {
	if strings.ContainsAny(kw, " \t") {
		return strings.Contains(folded, kw)
	}
	return tokens[kw]
}
