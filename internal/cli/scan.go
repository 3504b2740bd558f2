package cli

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/spf13/cobra"

	"github.com/fablekeep/continuity/internal/continuity"
	"github.com/fablekeep/continuity/internal/story"
)

// ScanOptions holds flags for the scan command.
type ScanOptions struct {
	Database string
	Project  string
	Scene    string
	Policy   string
}

// NewScanCommand creates the scan command.
func NewScanCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ScanOptions{}

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Run a continuity scan",
		Long: `Run a continuity scan over a project or a single scene.

A project scan walks every character's full state history. A scene scan is
incremental: it re-checks only the characters snapshotted in that scene,
but across their complete histories. Both are idempotent; re-running a
scan with unchanged data records nothing new.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(rootOpts, opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", defaultDatabase, "path to the story database")
	cmd.Flags().StringVar(&opts.Project, "project", "", "project id to scan")
	cmd.Flags().StringVar(&opts.Scene, "scene", "", "scene id for an incremental scan")
	cmd.Flags().StringVar(&opts.Policy, "policy", "", "path to a CUE policy file (default: built-in policy)")

	return cmd
}

func runScan(rootOpts *RootOptions, opts *ScanOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    rootOpts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   rootOpts.Verbose,
	}

	if (opts.Project == "") == (opts.Scene == "") {
		if err := formatter.Error(ErrCodeUsage, "exactly one of --project or --scene is required", nil); err != nil {
			return err
		}
		return NewExitError(ExitCommandError, "exactly one of --project or --scene is required")
	}

	pol, err := loadPolicy(opts.Policy)
	if err != nil {
		outErr := formatter.Error(ErrCodePolicy, err.Error(), nil)
		if outErr != nil {
			return outErr
		}
		return err
	}

	st, err := openExistingStore(opts.Database)
	if err != nil {
		outErr := formatter.Error(ErrCodeDatabase, err.Error(), nil)
		if outErr != nil {
			return outErr
		}
		return err
	}
	defer st.Close()

	scanner := continuity.NewScanner(st, pol, continuity.WithLogger(slog.Default()))

	ctx := cmd.Context()
	var report *continuity.ScanReport
	if opts.Project != "" {
		formatter.VerboseLog("scanning project %s", opts.Project)
		report, err = scanner.ScanProject(ctx, opts.Project)
	} else {
		formatter.VerboseLog("scanning scene %s", opts.Scene)
		report, err = scanner.ScanScene(ctx, opts.Scene)
	}
	if err != nil {
		code, exit := engineErrorCode(err)
		if outErr := formatter.Error(code, err.Error(), nil); outErr != nil {
			return outErr
		}
		return WrapExitError(exit, "scan failed", err)
	}

	if done, err := formatter.JSON(report); done {
		return err
	}
	printReport(formatter, report)
	return nil
}

func printReport(f *OutputFormatter, report *continuity.ScanReport) {
	fmt.Fprintf(f.Writer, "Scan %s (%s %s)\n", report.ScanID, report.Scope, report.ProjectID)
	if report.SceneID != "" {
		fmt.Fprintf(f.Writer, "  scene:            %s\n", report.SceneID)
	}
	fmt.Fprintf(f.Writer, "  new alerts:       %d\n", len(report.NewAlerts))
	fmt.Fprintf(f.Writer, "  reopened:         %d\n", len(report.ReopenedAlerts))
	fmt.Fprintf(f.Writer, "  skipped open:     %d\n", report.SkippedOpen)
	fmt.Fprintf(f.Writer, "  skipped resolved: %d\n", report.SkippedResolved)

	if len(report.CountsBySeverity) > 0 {
		fmt.Fprintf(f.Writer, "  by severity:      %s\n", formatCounts(severityCounts(report)))
	}
	if len(report.CountsByType) > 0 {
		fmt.Fprintf(f.Writer, "  by type:          %s\n", formatCounts(typeCounts(report)))
	}
	for _, note := range report.Notes {
		fmt.Fprintf(f.Writer, "  note: %s: %s\n", note.EntityID, note.Reason)
	}
}

type countEntry struct {
	label string
	n     int
}

func severityCounts(report *continuity.ScanReport) []countEntry {
	var entries []countEntry
	for sev, n := range report.CountsBySeverity {
		entries = append(entries, countEntry{string(sev), n})
	}
	return entries
}

func typeCounts(report *continuity.ScanReport) []countEntry {
	var entries []countEntry
	for typ, n := range report.CountsByType {
		entries = append(entries, countEntry{string(typ), n})
	}
	return entries
}

func formatCounts(entries []countEntry) string {
	sort.Slice(entries, func(i, j int) bool { return entries[i].label < entries[j].label })
	out := ""
	for i, e := range entries {
		if i > 0 {
			out += " "
		}
		out += fmt.Sprintf("%s=%d", e.label, e.n)
	}
	return out
}

// severityRank orders severities for display, highest first.
func severityRank(sev story.Severity) int {
	switch sev {
	case story.SeverityHigh:
		return 0
	case story.SeverityMedium:
		return 1
	default:
		return 2
	}
}
