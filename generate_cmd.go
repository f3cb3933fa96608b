package main

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/chazu/spool/pkg/bevel"
	"github.com/chazu/spool/pkg/fitting"
	"github.com/chazu/spool/pkg/generate"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a single fitting",
	}

	pipe := fittingCmd(fitting.Pipe, "Straight pipe spool")
	pipe.Flags().Float64("length", 12, "Pipe length in inches")

	elbow := fittingCmd(fitting.Elbow, "Butt-weld elbow")
	elbow.Flags().String("radius", "long", "Elbow radius: long or short")
	elbow.Flags().Float64("angle", 90, "Sweep in degrees")

	tee := fittingCmd(fitting.Tee, "Equal or reducing tee")
	tee.Flags().String("branch", "", "Branch NPS (default: equal)")

	cross := fittingCmd(fitting.Cross, "Equal or reducing cross")
	cross.Flags().String("branch", "", "Branch NPS (default: equal)")

	flange := fittingCmd(fitting.Flange, "RTJ weld-neck flange")
	flange.Flags().Int("class", 600, "Pressure class")

	cmd.AddCommand(pipe, elbow, tee, cross, flange)
	RootCmd.AddCommand(cmd)
}

// fittingCmd returns the subcommand for kind with the flags every kind
// shares.
func fittingCmd(kind fitting.Kind, short string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   kind.String(),
		Short: short,
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			runGenerate(cmd, kind)
		},
	}
	cmd.Flags().StringP("nps", "n", "", "Nominal pipe size, e.g. 2 or 1-1/2 (required)")
	cmd.Flags().StringP("schedule", "s", "40", "Wall schedule")
	cmd.Flags().String("name", "", "Job name (default: derived from the fitting)")
	cmd.Flags().String("output", "", "Output file (default: <out>/<name>.3mf)")
	cmd.Flags().Float64("bevel", bevel.WeldAngle, "Bevel angle in degrees; 0 cuts every end square")
	cmd.Flags().Float64("land", bevel.StandardLand, "Root face in inches")
	cmd.Flags().StringSlice("square", nil, "Ends to leave square cut: "+strings.Join(fitting.EndNames(kind), ", "))
	cmd.Flags().Bool("dry-run", false, "Build and bevel without writing a file")
	cmd.Flags().Bool("json", false, "Print the result as JSON")
	_ = cmd.MarkFlagRequired("nps")
	return cmd
}

func runGenerate(cmd *cobra.Command, kind fitting.Kind) {
	req, err := requestFromFlags(cmd, kind)
	if err != nil {
		exitErr("flags", err)
	}
	asJSON, _ := cmd.Flags().GetBool("json")

	ctx := cmd.Context()
	app := openApp(ctx)
	res := app.Generate(ctx, kind, req)
	if err := app.Close(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "warning: shutdown: %v\n", err)
	}

	if asJSON {
		printJSON(res)
	} else {
		name := req.Name
		if name == "" {
			name = kind.String()
		}
		printResult(os.Stdout, name, res)
	}
	if !res.Success {
		os.Exit(1)
	}
}

func requestFromFlags(cmd *cobra.Command, kind fitting.Kind) (generate.Request, error) {
	f := cmd.Flags()
	nps, _ := f.GetString("nps")
	schedule, _ := f.GetString("schedule")
	name, _ := f.GetString("name")
	output, _ := f.GetString("output")
	angle, _ := f.GetFloat64("bevel")
	land, _ := f.GetFloat64("land")
	square, _ := f.GetStringSlice("square")
	dryRun, _ := f.GetBool("dry-run")

	req := generate.Request{
		Name:     name,
		NPS:      nps,
		Schedule: schedule,
		Output:   output,
		Units:    unitsFlag,
		DryRun:   dryRun,
	}

	names := fitting.EndNames(kind)
	spec := bevel.Spec{Angle: angle, Land: land}
	if spec.SquareCut() {
		spec = bevel.Square
	}
	req.Ends = bevel.Uniform(spec, names...)
	for _, end := range square {
		end = strings.TrimSpace(end)
		if !slices.Contains(names, end) {
			return req, fmt.Errorf("%s has no end %q (ends: %s)", kind, end, strings.Join(names, ", "))
		}
		req.Ends[end] = bevel.Square
	}

	switch kind {
	case fitting.Pipe:
		req.Length, _ = f.GetFloat64("length")
	case fitting.Elbow:
		req.Radius, _ = f.GetString("radius")
		req.Angle, _ = f.GetFloat64("angle")
	case fitting.Tee, fitting.Cross:
		req.Branch, _ = f.GetString("branch")
	case fitting.Flange:
		req.Class, _ = f.GetInt("class")
	}
	return req, nil
}
