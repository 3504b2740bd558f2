package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/fablekeep/continuity/internal/continuity"
	"github.com/fablekeep/continuity/internal/story"
)

// AlertsOptions holds flags for the alerts command.
type AlertsOptions struct {
	Database string
	Project  string
	Decision string
}

// NewAlertsCommand creates the alerts listing command.
func NewAlertsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AlertsOptions{}

	cmd := &cobra.Command{
		Use:   "alerts",
		Short: "List continuity alerts for a project",
		Long: `List a project's continuity alerts, optionally filtered by the author's
decision (pending, revised_content, updated_fact, dismissed).`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAlerts(rootOpts, opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", defaultDatabase, "path to the story database")
	cmd.Flags().StringVar(&opts.Project, "project", "", "project id (required)")
	cmd.Flags().StringVar(&opts.Decision, "decision", "", "filter by author decision")
	_ = cmd.MarkFlagRequired("project")

	return cmd
}

func runAlerts(rootOpts *RootOptions, opts *AlertsOptions, cmd *cobra.Command) error {
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
	alerts, err := scanner.Alerts().List(cmd.Context(), opts.Project, story.Decision(opts.Decision))
	if err != nil {
		code, exit := engineErrorCode(err)
		if outErr := formatter.Error(code, err.Error(), nil); outErr != nil {
			return outErr
		}
		return WrapExitError(exit, "list alerts", err)
	}

	if done, err := formatter.JSON(alerts); done {
		return err
	}
	printAlerts(formatter, alerts)
	return nil
}

func printAlerts(f *OutputFormatter, alerts []story.ContinuityAlert) {
	if len(alerts) == 0 {
		fmt.Fprintln(f.Writer, "no alerts")
		return
	}

	// Highest severity first for triage; the store already orders newest
	// first within a severity.
	sorted := make([]story.ContinuityAlert, len(alerts))
	copy(sorted, alerts)
	sort.SliceStable(sorted, func(i, j int) bool {
		return severityRank(sorted[i].Severity) < severityRank(sorted[j].Severity)
	})

	for _, a := range sorted {
		fmt.Fprintf(f.Writer, "%s  %-8s %-26s %-15s %s\n",
			a.ID, a.Severity, a.Type, a.AuthorDecision, a.Description)
		if f.Verbose && a.SuggestedResolution != "" {
			fmt.Fprintf(f.Writer, "    suggestion: %s\n", a.SuggestedResolution)
		}
	}
}
