package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fablekeep/continuity/internal/policy"
)

// ValidationResult holds policy validation results.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationIssue `json:"errors,omitempty"`
}

// ValidationIssue is one problem found in a policy file.
type ValidationIssue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`
}

// NewValidateCommand creates the policy validation command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <policy-file>",
		Short: "Validate a CUE policy file",
		Long: `Validate a CUE policy file without running a scan.

Checks syntax, field types, and that scopes and severities use known
values. Faster feedback than discovering a bad policy mid-scan.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(rootOpts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    rootOpts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   rootOpts.Verbose,
	}

	_, err := policy.LoadFile(path)
	if err == nil {
		if done, err := formatter.JSON(ValidationResult{Valid: true}); done {
			return err
		}
		fmt.Fprintf(formatter.Writer, "%s: valid\n", path)
		return nil
	}

	result := ValidationResult{Valid: false}
	var ce *policy.CompileError
	if errors.As(err, &ce) {
		issue := ValidationIssue{Field: ce.Field, Message: ce.Message}
		if ce.Pos.IsValid() {
			issue.Line = ce.Pos.Line()
		}
		result.Errors = append(result.Errors, issue)
	} else {
		result.Errors = append(result.Errors, ValidationIssue{Field: "policy", Message: err.Error()})
	}

	if rootOpts.Format == "json" {
		if outErr := formatter.Error(ErrCodePolicy, "policy validation failed", result); outErr != nil {
			return outErr
		}
	} else {
		for _, issue := range result.Errors {
			if issue.Line > 0 {
				fmt.Fprintf(formatter.Writer, "%s:%d: %s: %s\n", path, issue.Line, issue.Field, issue.Message)
			} else {
				fmt.Fprintf(formatter.Writer, "%s: %s: %s\n", path, issue.Field, issue.Message)
			}
		}
	}
	return WrapExitError(ExitFailure, "policy validation failed", err)
}
