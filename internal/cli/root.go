package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"marketingops/internal/aggregation"
	"marketingops/internal/domain"

	"github.com/spf13/cobra"
)

// SnapshotEnv names the default snapshot file when --snapshot is not given.
const SnapshotEnv = "MARKETINGOPS_SNAPSHOT"

// options are the persistent flags shared by every rollup command.
type options struct {
	snapshot string
	from     string
	to       string
	asJSON   bool
}

// NewRootCmd creates the top-level "opsctl" command.
func NewRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "opsctl",
		Short:         "Offline marketing rollups over a snapshot file",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&opts.snapshot, "snapshot", "s", os.Getenv(SnapshotEnv), "snapshot JSON file (leads, campaigns, campaignGroups, goals)")
	root.PersistentFlags().StringVar(&opts.from, "from", "", "window start, YYYY-MM-DD")
	root.PersistentFlags().StringVar(&opts.to, "to", "", "window end, YYYY-MM-DD")
	root.PersistentFlags().BoolVar(&opts.asJSON, "json", false, "print JSON instead of a table")

	root.AddCommand(
		newFunnelCmd(opts),
		newChannelsCmd(opts),
		newGroupsCmd(opts),
		newExpensesCmd(opts),
		newSummaryCmd(opts),
		newPlanCmd(opts),
		newGoalsCmd(opts),
	)

	return root
}

func (o *options) window() (domain.Window, error) {
	var w domain.Window
	if o.from != "" {
		from, err := domain.ParseDate(o.from)
		if err != nil {
			return w, err
		}
		w.From = from
	}
	if o.to != "" {
		to, err := domain.ParseDate(o.to)
		if err != nil {
			return w, err
		}
		w.To = to
	}
	return w, w.Validate()
}

// load reads the snapshot and builds the dashboard for the flag window.
func (o *options) load() (aggregation.Snapshot, aggregation.Dashboard, error) {
	var snap aggregation.Snapshot
	if o.snapshot == "" {
		return snap, aggregation.Dashboard{}, fmt.Errorf("snapshot file is required (--snapshot or %s)", SnapshotEnv)
	}
	w, err := o.window()
	if err != nil {
		return snap, aggregation.Dashboard{}, err
	}

	data, err := os.ReadFile(o.snapshot)
	if err != nil {
		return snap, aggregation.Dashboard{}, fmt.Errorf("reading snapshot: %w", err)
	}
	if err := json.Unmarshal(data, &snap); err != nil {
		return snap, aggregation.Dashboard{}, fmt.Errorf("decoding snapshot %s: %w", o.snapshot, err)
	}
	if snap.Goals != nil {
		snap.Goals.Normalize()
	}

	return snap, aggregation.BuildDashboard(snap, w), nil
}

// emit writes v as indented JSON when --json is set, otherwise the table.
func (o *options) emit(out io.Writer, v any, table func() string) error {
	if o.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	_, err := fmt.Fprint(out, table())
	return err
}
