package policy

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/token"

	"github.com/fablekeep/continuity/internal/story"
)

// CompileError reports a problem in a policy file with its CUE position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// LoadFile reads and compiles a CUE policy file.
// Missing fields keep their default values; present fields must be valid.
func LoadFile(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy file: %w", err)
	}
	return LoadBytes(path, data)
}

// LoadBytes compiles CUE policy source. The filename is used for error
// positions only.
func LoadBytes(filename string, data []byte) (*Policy, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("compile policy: %w", err)
	}
	return Compile(v.LookupPath(cue.ParsePath("policy")))
}

// Compile parses a CUE value into a Policy.
// Uses the CUE SDK's Go API directly (not CLI subprocess).
//
// The CUE value should be the policy struct itself:
//
//	policy: {
//		numeric_jump_percent: 50
//		severity_by_scope: {universal: "high"}
//		synonyms: {dead: ["died", "killed"]}
//	}
func Compile(v cue.Value) (*Policy, error) {
	if !v.Exists() {
		return nil, &CompileError{Field: "policy", Message: "policy struct is required"}
	}
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("compile policy: %w", err)
	}

	p := Default()

	if err := compileInt(v, "numeric_jump_percent", &p.NumericJumpPercent); err != nil {
		return nil, err
	}
	if err := compileInt(v, "numeric_tolerance_percent", &p.NumericTolerancePercent); err != nil {
		return nil, err
	}
	if err := compileSeverities(v, p); err != nil {
		return nil, err
	}
	if err := compileSynonyms(v, p); err != nil {
		return nil, err
	}

	return p, nil
}

func compileInt(v cue.Value, field string, dst *int) error {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return nil
	}
	n, err := fv.Int64()
	if err != nil {
		return &CompileError{Field: field, Message: "must be an integer", Pos: fv.Pos()}
	}
	if n < 0 {
		return &CompileError{Field: field, Message: "must not be negative", Pos: fv.Pos()}
	}
	*dst = int(n)
	return nil
}

func compileSeverities(v cue.Value, p *Policy) error {
	sv := v.LookupPath(cue.ParsePath("severity_by_scope"))
	if !sv.Exists() {
		return nil
	}

	iter, err := sv.Fields()
	if err != nil {
		return &CompileError{Field: "severity_by_scope", Message: "must be a struct", Pos: sv.Pos()}
	}
	for iter.Next() {
		scope := story.RuleScope(iter.Selector().Unquoted())
		if !story.ValidRuleScopes[scope] {
			return &CompileError{
				Field:   "severity_by_scope",
				Message: fmt.Sprintf("unknown rule scope %q", scope),
				Pos:     iter.Value().Pos(),
			}
		}
		raw, err := iter.Value().String()
		if err != nil {
			return &CompileError{Field: "severity_by_scope", Message: "severity must be a string", Pos: iter.Value().Pos()}
		}
		sev := story.Severity(raw)
		if !story.ValidSeverities[sev] {
			return &CompileError{
				Field:   "severity_by_scope",
				Message: fmt.Sprintf("unknown severity %q", raw),
				Pos:     iter.Value().Pos(),
			}
		}
		p.SeverityByScope[scope] = sev
	}
	return nil
}

func compileSynonyms(v cue.Value, p *Policy) error {
	sv := v.LookupPath(cue.ParsePath("synonyms"))
	if !sv.Exists() {
		return nil
	}

	iter, err := sv.Fields()
	if err != nil {
		return &CompileError{Field: "synonyms", Message: "must be a struct", Pos: sv.Pos()}
	}
	for iter.Next() {
		key := iter.Selector().Unquoted()

		list, err := iter.Value().List()
		if err != nil {
			return &CompileError{
				Field:   "synonyms",
				Message: fmt.Sprintf("%q must be a list of strings", key),
				Pos:     iter.Value().Pos(),
			}
		}
		var words []string
		for list.Next() {
			w, err := list.Value().String()
			if err != nil {
				return &CompileError{
					Field:   "synonyms",
					Message: fmt.Sprintf("%q entries must be strings", key),
					Pos:     list.Value().Pos(),
				}
			}
			words = append(words, w)
		}
		p.Synonyms[key] = words
	}
	return nil
}
