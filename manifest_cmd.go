package main

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/chazu/spool/pkg/store"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "manifest",
		Short: "Query the generation manifest",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List recorded generations, newest first",
		Args:  cobra.NoArgs,
		Run:   runManifestList,
	}
	list.Flags().String("run", "", "Filter by run ID")
	list.Flags().String("kind", "", "Filter by fitting kind")
	list.Flags().Bool("failed", false, "Only failed generations")
	list.Flags().IntP("limit", "l", 20, "Max results")
	list.Flags().Bool("json", false, "Print records as JSON")

	runs := &cobra.Command{
		Use:   "runs",
		Short: "Summarize recent runs",
		Args:  cobra.NoArgs,
		Run:   runManifestRuns,
	}
	runs.Flags().IntP("limit", "l", 10, "Max runs")
	runs.Flags().Bool("json", false, "Print summaries as JSON")

	cmd.AddCommand(list, runs)
	RootCmd.AddCommand(cmd)
}

// openManifest opens the configured manifest directly, without the rest of
// the App.
func openManifest() *store.SQLiteStore {
	cfg, err := loadConfig()
	if err != nil {
		exitErr("load config", err)
	}
	if cfg.ManifestPath == "" {
		exitErr("open manifest", errors.New("no manifest configured (set manifest in the config or pass --manifest)"))
	}
	s, err := store.NewSQLiteStore(cfg.ManifestPath)
	if err != nil {
		exitErr("open manifest", err)
	}
	return s
}

func runManifestList(cmd *cobra.Command, args []string) {
	runID, _ := cmd.Flags().GetString("run")
	kind, _ := cmd.Flags().GetString("kind")
	failed, _ := cmd.Flags().GetBool("failed")
	limit, _ := cmd.Flags().GetInt("limit")
	asJSON, _ := cmd.Flags().GetBool("json")

	s := openManifest()
	defer s.Close()

	records, err := s.List(cmd.Context(), store.ListParams{
		RunID:      runID,
		Kind:       kind,
		FailedOnly: failed,
		Limit:      limit,
	})
	if err != nil {
		exitErr("list", err)
	}

	if asJSON {
		printJSON(records)
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 2, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tRUN\tKIND\tJOB\tSTATUS\tFILE")
	for _, r := range records {
		status := color.New(color.FgGreen).Sprint("ok")
		if !r.Success {
			status = color.New(color.FgRed).Sprint("failed")
		} else if r.Warnings > 0 {
			status = color.New(color.FgYellow).Sprintf("%d warnings", r.Warnings)
		}
		file := r.Filename
		if file == "" {
			file = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.CreatedAt.Local().Format(time.DateTime), shortRun(r.RunID), r.Kind, r.Job, status, file)
	}
	w.Flush()
}

func runManifestRuns(cmd *cobra.Command, args []string) {
	limit, _ := cmd.Flags().GetInt("limit")
	asJSON, _ := cmd.Flags().GetBool("json")

	s := openManifest()
	defer s.Close()

	runs, err := s.Runs(cmd.Context(), limit)
	if err != nil {
		exitErr("runs", err)
	}

	if asJSON {
		printJSON(runs)
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 2, 2, ' ', 0)
	fmt.Fprintln(w, "STARTED\tRUN\tTOTAL\tSUCCEEDED\tWARNINGS")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\n",
			r.StartedAt.Local().Format(time.DateTime), r.RunID, r.Total, r.Succeeded, r.Warnings)
	}
	w.Flush()
}

func shortRun(id string) string {
	if len(id) > 10 {
		return id[:10]
	}
	if id == "" {
		return "-"
	}
	return id
}
