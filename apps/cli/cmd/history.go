package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/jcall-dev/jcall/packages/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse saved call results",
	Long: `Browse call results recorded with --save. Records live in a local
SQLite database, newest first.

Examples:
  jcall history list
  jcall history show 3f2a
  jcall history prune --keep 100`,
}

var (
	historyDBFlag    string
	historyLimitFlag int
	historyKeepFlag  int
)

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent records",
	Args:  cobra.NoArgs,
	RunE:  historyListCommand,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one record, accepting a unique ID prefix",
	Args:  cobra.ExactArgs(1),
	RunE:  historyShowCommand,
}

var historyPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete all but the most recent records",
	Args:  cobra.NoArgs,
	RunE:  historyPruneCommand,
}

func init() {
	historyCmd.PersistentFlags().StringVar(&historyDBFlag, "db", getEnvString("JCALL_DB", ""), "History database path (env: JCALL_DB)")
	historyListCmd.Flags().IntVarP(&historyLimitFlag, "limit", "n", 20, "Max records to list")
	historyPruneCmd.Flags().IntVar(&historyKeepFlag, "keep", 100, "Number of records to keep")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyPruneCmd)
}

func openHistory() (*history.Store, error) {
	path := historyDBFlag
	if path == "" {
		var err error
		path, err = history.DefaultPath()
		if err != nil {
			return nil, err
		}
	}
	return history.Open(path)
}

func historyListCommand(cmd *cobra.Command, args []string) error {
	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	records, err := store.List(historyLimitFlag)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No history yet. Record calls with: jcall send ... --save")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tWHEN\tOUTCOME\tSTATUS\tMETHOD\tURL\tNAME")
	for _, rec := range records {
		status := "-"
		if rec.StatusCode != 0 {
			status = fmt.Sprintf("%d", rec.StatusCode)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			rec.ID[:8],
			rec.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			rec.Outcome,
			status,
			rec.Method,
			rec.URL,
			rec.Name,
		)
	}
	return w.Flush()
}

func historyShowCommand(cmd *cobra.Command, args []string) error {
	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	rec, err := store.Get(args[0])
	if err != nil {
		if errors.Is(err, history.ErrNotFound) {
			return fmt.Errorf("no record matches %q", args[0])
		}
		return err
	}

	bold := color.New(color.Bold).SprintFunc()
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s %s\n", bold("ID:"), rec.ID)
	fmt.Fprintf(out, "%s %s\n", bold("When:"), rec.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	if rec.Name != "" {
		fmt.Fprintf(out, "%s %s\n", bold("Name:"), rec.Name)
	}
	fmt.Fprintf(out, "%s %s %s\n", bold("Call:"), rec.Method, rec.URL)
	fmt.Fprintf(out, "%s %s\n", bold("Outcome:"), rec.Outcome)
	if rec.StatusCode != 0 {
		fmt.Fprintf(out, "%s %d\n", bold("Status:"), rec.StatusCode)
	}
	fmt.Fprintf(out, "%s %dms\n", bold("Duration:"), rec.DurationMs)

	if rec.ResponseBody != "" {
		fmt.Fprintf(out, "%s\n", bold("Body:"))
		var pretty any
		if err := json.Unmarshal([]byte(rec.ResponseBody), &pretty); err == nil {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(pretty)
		}
		fmt.Fprintln(out, rec.ResponseBody)
	}
	return nil
}

func historyPruneCommand(cmd *cobra.Command, args []string) error {
	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	deleted, err := store.Prune(historyKeepFlag)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d record(s), kept the %d most recent.\n", deleted, historyKeepFlag)
	return nil
}
