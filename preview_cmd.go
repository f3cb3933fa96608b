package main

import (
	"fmt"
	"os"

	"github.com/chazu/spool/pkg/export"
	"github.com/chazu/spool/pkg/kernel"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "preview <script>",
		Short: "Tessellate every job of a catalog side by side",
		Long: "Builds every job without writing individual files. The laid-out bodies are\n" +
			"written as one 3MF with --file, or printed as JSON mesh data with --json.",
		Args: cobra.ExactArgs(1),
		Run:  runPreview,
	}
	cmd.Flags().StringP("file", "f", "", "Write the merged preview to this 3MF file")
	cmd.Flags().Bool("json", false, "Print mesh data as JSON")
	RootCmd.AddCommand(cmd)
}

func runPreview(cmd *cobra.Command, args []string) {
	source := readScript(args[0])
	file, _ := cmd.Flags().GetString("file")
	asJSON, _ := cmd.Flags().GetBool("json")

	ctx := cmd.Context()
	app := openApp(ctx)
	units := app.cfg.Units
	meshes, ev, err := app.Preview(ctx, source)
	app.Close(ctx)
	if err != nil {
		printFindings(os.Stderr, ev)
		exitErr("preview", err)
	}

	switch {
	case asJSON:
		printJSON(previewData(meshes))
	case file != "":
		merged := kernel.Merge(ev.Catalog.Name, meshes...)
		if err := export.Write(file, merged, units); err != nil {
			exitErr("write preview", err)
		}
		fmt.Printf("wrote %d bodies (%d triangles) to %s\n", len(meshes), merged.TriangleCount(), file)
	default:
		for _, m := range meshes {
			b := m.Bounds()
			fmt.Printf("%-24s %7d triangles  x [%8.3f, %8.3f]\n", m.Name, m.TriangleCount(), b.Min.X, b.Max.X)
		}
	}
}
