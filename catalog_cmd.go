package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/chazu/spool/pkg/catalog"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect catalog scripts without generating",
	}

	validate := &cobra.Command{
		Use:   "validate <script>",
		Short: "Evaluate a script and report validation findings",
		Args:  cobra.ExactArgs(1),
		Run:   runCatalogValidate,
	}
	validate.Flags().Bool("json", false, "Print findings as JSON")

	list := &cobra.Command{
		Use:   "list <script>",
		Short: "List the jobs a script declares",
		Args:  cobra.ExactArgs(1),
		Run:   runCatalogList,
	}
	list.Flags().Bool("json", false, "Print the catalog as JSON")

	cmd.AddCommand(validate, list)
	RootCmd.AddCommand(cmd)
}

func runCatalogValidate(cmd *cobra.Command, args []string) {
	source := readScript(args[0])
	asJSON, _ := cmd.Flags().GetBool("json")

	app := openApp(cmd.Context())
	ev := app.Evaluate(source)
	app.Close(cmd.Context())

	if asJSON {
		printJSON(ev)
	} else {
		printFindings(os.Stdout, ev)
		if ev.OK() {
			fmt.Printf("%s %d jobs, %d warnings\n",
				color.New(color.FgGreen).Sprint("valid:"), ev.Catalog.Len(), len(ev.Warnings))
		}
	}
	if !ev.OK() {
		os.Exit(1)
	}
}

func runCatalogList(cmd *cobra.Command, args []string) {
	source := readScript(args[0])
	asJSON, _ := cmd.Flags().GetBool("json")

	app := openApp(cmd.Context())
	ev := app.Evaluate(source)
	app.Close(cmd.Context())
	if ev.Catalog == nil {
		printFindings(os.Stderr, ev)
		os.Exit(1)
	}

	if asJSON {
		printJSON(ev.Catalog)
		return
	}
	printCatalog(ev.Catalog)
}

func printCatalog(c *catalog.Catalog) {
	name := c.Name
	if name == "" {
		name = "(unnamed)"
	}
	fmt.Printf("catalog %s: %d jobs\n", name, c.Len())
	w := tabwriter.NewWriter(os.Stdout, 0, 2, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tKIND\tNPS\tSCHEDULE\tUNITS")
	for _, j := range c.Jobs {
		units := j.Request.Units
		if units == "" {
			units = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			j.ID.Short(), j.Name, j.Kind, j.Request.NPS, j.Request.Schedule, units)
	}
	w.Flush()
}
