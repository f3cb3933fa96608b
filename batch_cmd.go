package main

import (
	"fmt"
	"os"

	"github.com/chazu/spool/pkg/generate"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "batch <script>",
		Short: "Generate every job of a catalog script",
		Args:  cobra.ExactArgs(1),
		Run:   runBatch,
	}
	cmd.Flags().Bool("dry-run", false, "Build and bevel without writing files")
	cmd.Flags().Bool("json", false, "Print the results as JSON")
	RootCmd.AddCommand(cmd)
}

type batchItem struct {
	Job    string          `json:"job"`
	Kind   string          `json:"kind"`
	ID     string          `json:"id"`
	Result generate.Result `json:"result"`
}

type batchOutput struct {
	RunID     string          `json:"run_id,omitempty"`
	Catalog   string          `json:"catalog"`
	Succeeded int             `json:"succeeded"`
	Failed    int             `json:"failed"`
	Warnings  []EvalErrorData `json:"warnings"`
	Items     []batchItem     `json:"items"`
}

func runBatch(cmd *cobra.Command, args []string) {
	source := readScript(args[0])
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	asJSON, _ := cmd.Flags().GetBool("json")

	ctx := cmd.Context()
	app := openApp(ctx)
	rep, ev, err := app.RunCatalog(ctx, source, dryRun)
	if cerr := app.Close(ctx); cerr != nil {
		fmt.Fprintf(os.Stderr, "warning: shutdown: %v\n", cerr)
	}
	if rep == nil {
		printFindings(os.Stderr, ev)
		exitErr("batch", err)
	}

	if asJSON {
		out := batchOutput{
			RunID:     rep.RunID,
			Catalog:   rep.Catalog,
			Succeeded: rep.Succeeded(),
			Failed:    rep.Failed(),
			Warnings:  ev.Warnings,
		}
		for _, it := range rep.Items {
			out.Items = append(out.Items, batchItem{
				Job:    it.Job.Name,
				Kind:   it.Job.Kind.String(),
				ID:     it.Job.ID.Short(),
				Result: it.Result,
			})
		}
		printJSON(out)
	} else {
		printFindings(os.Stderr, ev)
		printReport(os.Stdout, rep)
	}

	if err != nil {
		exitErr("batch", err)
	}
	if rep.Failed() > 0 {
		os.Exit(1)
	}
}
