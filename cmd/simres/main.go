package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/simres/internal/export"
	"github.com/san-kum/simres/internal/matfile"
	"github.com/san-kum/simres/internal/result"
	"github.com/san-kum/simres/internal/units"
)

var (
	unitsFile string
	prefix    string
	constants bool
	outFile   string
	// plot dimensions
	plotHeight int
	plotWidth  int
)

// main registers the simres subcommands and executes the root command,
// exiting with status 1 when a command fails.
func main() {
	rootCmd := &cobra.Command{
		Use:   "simres",
		Short: "inspect and export Modelica simulation results",
	}
	rootCmd.PersistentFlags().StringVar(&unitsFile, "units", "", "custom unit table (yaml)")

	varsCmd := &cobra.Command{
		Use:   "vars [file]",
		Short: "list result variables",
		Args:  cobra.ExactArgs(1),
		RunE:  listVars,
	}
	varsCmd.Flags().StringVar(&prefix, "prefix", "", "only variables with this name prefix")
	varsCmd.Flags().BoolVar(&constants, "constants", false, "load only the parameter/constant block")

	infoCmd := &cobra.Command{
		Use:   "info [file]",
		Short: "show result kind, version and layout",
		Args:  cobra.ExactArgs(1),
		RunE:  showInfo,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [file] [variable]",
		Short: "plot one variable in the terminal",
		Args:  cobra.ExactArgs(2),
		RunE:  plotVariable,
	}
	plotCmd.Flags().IntVar(&plotHeight, "height", 15, "plot height")
	plotCmd.Flags().IntVar(&plotWidth, "width", 80, "plot width")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [file] [variables...]",
		Short: "export variables to CSV",
		Args:  cobra.MinimumNArgs(1),
		RunE:  exportCSV,
	}
	exportCSVCmd.Flags().StringVar(&outFile, "out", "", "output file (default stdout)")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [file] [variables...]",
		Short: "export variables to JSON",
		Args:  cobra.MinimumNArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVar(&outFile, "out", "", "output file (default stdout)")

	linsysCmd := &cobra.Command{
		Use:   "linsys [file]",
		Short: "show a linearization result (A, B, C, D)",
		Args:  cobra.ExactArgs(1),
		RunE:  showLinearSystem,
	}

	rootCmd.AddCommand(varsCmd, infoCmd, plotCmd, exportCSVCmd, exportJSONCmd, linsysCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func unitTable() (units.Table, error) {
	if unitsFile == "" {
		return units.Default(), nil
	}
	return units.LoadTable(unitsFile)
}

func loadTrajectory(path string, constantsOnly bool) (*result.Trajectory, error) {
	table, err := unitTable()
	if err != nil {
		return nil, err
	}
	var opts []matfile.Option
	if constantsOnly {
		opts = append(opts, matfile.WithConstantsOnly())
	}
	f, err := matfile.Load(path, opts...)
	if err != nil {
		return nil, err
	}
	return result.DecodeTrajectory(f, table)
}

func listVars(cmd *cobra.Command, args []string) error {
	traj, err := loadTrajectory(args[0], constants)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tUNIT\tDISPLAY\tKIND\tDESCRIPTION")
	shown := 0
	for _, name := range traj.Names() {
		if prefix != "" && !strings.HasPrefix(name, prefix) {
			continue
		}
		v, _ := traj.Variable(name)
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			v.Name, v.Unit, v.DisplayUnit, v.Kind, v.Description)
		shown++
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Printf("\n%d of %d variables\n", shown, traj.Len())
	printWarnings(traj)
	return nil
}

func showInfo(cmd *cobra.Command, args []string) error {
	table, err := unitTable()
	if err != nil {
		return err
	}
	f, err := matfile.Load(args[0])
	if err != nil {
		return err
	}
	kind, version, err := result.Classify(f)
	if err != nil {
		return err
	}

	fmt.Printf("file: %s\n", f.Path)
	fmt.Printf("kind: %s\n", kind)
	fmt.Printf("version: %s\n", version)
	fmt.Printf("orientation: %s\n", f.Orientation)

	switch kind {
	case result.KindTrajectory:
		traj, err := result.DecodeTrajectory(f, table)
		if err != nil {
			return err
		}
		fmt.Printf("variables: %d\n", traj.Len())
		indices := make([]int, 0, len(traj.Blocks))
		for i := range traj.Blocks {
			indices = append(indices, i)
		}
		sort.Ints(indices)
		for _, i := range indices {
			b := traj.Blocks[i]
			fmt.Printf("dataset %d: %d samples x %d columns\n", i, b.Len(), b.Width())
		}
		printWarnings(traj)
	case result.KindLinearSystem:
		ls, err := result.DecodeLinearSystem(f)
		if err != nil {
			return err
		}
		fmt.Printf("states: %d, inputs: %d, outputs: %d\n", ls.NX, ls.NU, ls.NY)
	}
	return nil
}

func plotVariable(cmd *cobra.Command, args []string) error {
	traj, err := loadTrajectory(args[0], false)
	if err != nil {
		return err
	}
	v, ok := traj.Variable(args[1])
	if !ok {
		return fmt.Errorf("no variable %q in %s", args[1], args[0])
	}

	caption := v.Name
	if v.Unit != "" {
		caption = fmt.Sprintf("%s [%s]", v.Name, v.Unit)
	}
	graph := asciigraph.Plot(v.Values(),
		asciigraph.Height(plotHeight),
		asciigraph.Width(plotWidth),
		asciigraph.Caption(caption),
	)
	fmt.Println(graph)
	return nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	return exportWith(args, export.CSV)
}

func exportJSON(cmd *cobra.Command, args []string) error {
	return exportWith(args, export.JSON)
}

func exportWith(args []string, write func(io.Writer, *result.Trajectory, []string) error) error {
	traj, err := loadTrajectory(args[0], false)
	if err != nil {
		return err
	}

	out := io.Writer(os.Stdout)
	if outFile != "" {
		f, err := os.Create(outFile)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	return write(out, traj, args[1:])
}

func showLinearSystem(cmd *cobra.Command, args []string) error {
	ls, err := result.LoadLinearSystem(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("file: %s\n", ls.Path)
	fmt.Printf("states: %d, inputs: %d, outputs: %d\n\n", ls.NX, ls.NU, ls.NY)
	printNames("x", ls.StateNames)
	printNames("u", ls.InputNames)
	printNames("y", ls.OutputNames)

	for _, m := range []struct {
		name string
		mat  *mat.Dense
	}{
		{"A", ls.A}, {"B", ls.B}, {"C", ls.C}, {"D", ls.D},
	} {
		if m.mat == nil {
			fmt.Printf("\n%s: (empty)\n", m.name)
			continue
		}
		fmt.Printf("\n%s =\n%v\n", m.name, mat.Formatted(m.mat, mat.Prefix(""), mat.Squeeze()))
	}
	return nil
}

func printNames(kind string, names []string) {
	for i, name := range names {
		fmt.Printf("%s%d: %s\n", kind, i, name)
	}
}

func printWarnings(traj *result.Trajectory) {
	if len(traj.Warnings) == 0 {
		return
	}
	fmt.Printf("\n%d unit warnings:\n", len(traj.Warnings))
	for _, w := range traj.Warnings {
		fmt.Printf("  %s\n", w)
	}
}
