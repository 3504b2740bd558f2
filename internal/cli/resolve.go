package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fablekeep/continuity/internal/continuity"
	"github.com/fablekeep/continuity/internal/story"
)

// ResolveOptions holds flags for the resolve command.
type ResolveOptions struct {
	Database string
	Decision string
	Notes    string
}

// NewResolveCommand creates the resolve command.
func NewResolveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ResolveOptions{}

	cmd := &cobra.Command{
		Use:   "resolve <alert-id>",
		Short: "Record an author decision on an alert",
		Long: `Record the author's decision on a pending alert.

Decisions: revised_content (the text was changed), updated_fact (the
conflicting fact is now canon), dismissed (not an issue). A resolved alert
only accepts a further revised_content decision.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(rootOpts, opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", defaultDatabase, "path to the story database")
	cmd.Flags().StringVar(&opts.Decision, "decision", "", "author decision (required)")
	cmd.Flags().StringVar(&opts.Notes, "notes", "", "free-form author notes")
	_ = cmd.MarkFlagRequired("decision")

	return cmd
}

func runResolve(rootOpts *RootOptions, opts *ResolveOptions, alertID string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    rootOpts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   rootOpts.Verbose,
	}

	st, err := openExistingStore(opts.Database)
	if err != nil {
		if outErr := formatter.Error(ErrCodeDatabase, err.Error(), nil); outErr != nil {
			return outErr
		}
		return err
	}
	defer st.Close()

	scanner := continuity.NewScanner(st, nil)
	alert, err := scanner.Alerts().Resolve(cmd.Context(), alertID, story.Decision(opts.Decision), opts.Notes)
	if err != nil {
		code, exit := engineErrorCode(err)
		if outErr := formatter.Error(code, err.Error(), nil); outErr != nil {
			return outErr
		}
		return WrapExitError(exit, "resolve alert", err)
	}

	if done, err := formatter.JSON(alert); done {
		return err
	}
	fmt.Fprintf(formatter.Writer, "alert %s resolved as %s\n", alert.ID, alert.AuthorDecision)
	return nil
}
