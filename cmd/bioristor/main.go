package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/copyleftdev/bioristor/internal/config"
	"github.com/copyleftdev/bioristor/internal/device"
	"github.com/copyleftdev/bioristor/internal/logging"
	"github.com/copyleftdev/bioristor/internal/optimization"
	"github.com/copyleftdev/bioristor/internal/solver"
)

type solveOptions struct {
	profile     string
	algorithm   string
	formulation string
	loss        string
	output      string
	logLevel    string
	currents    device.Currents
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "bioristor",
		Short:        "estimate ion concentration from Bioristor currents",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newSolveCmd(), newProfileCmd(), newAlgorithmsCmd())
	return rootCmd
}

func newSolveCmd() *cobra.Command {
	opts := solveOptions{currents: solver.DefaultCurrents()}

	solveCmd := &cobra.Command{
		Use:   "solve",
		Short: "solve for concentration, resistance and saturation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSolve(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}

	f := solveCmd.Flags()
	f.StringVar(&opts.profile, "profile", "", "solver profile (yaml)")
	f.StringVar(&opts.algorithm, "algorithm", "", "override the profile algorithm")
	f.StringVar(&opts.formulation, "formulation", "", "override the profile formulation")
	f.StringVar(&opts.loss, "loss", "", "override the profile loss")
	f.StringVarP(&opts.output, "output", "o", "yaml", "output format (yaml, json)")
	f.StringVar(&opts.logLevel, "log-level", "warn", "log level")
	f.Float32Var(&opts.currents.IDSOn, "i-ds-on", opts.currents.IDSOn, "drain-source current with gate on (A)")
	f.Float32Var(&opts.currents.IDSOff, "i-ds-off", opts.currents.IDSOff, "drain-source current with gate off (A)")
	f.Float32Var(&opts.currents.IGSOn, "i-gs-on", opts.currents.IGSOn, "gate-source current with gate on (A)")

	return solveCmd
}

func runSolve(ctx context.Context, stdout io.Writer, opts solveOptions) error {
	p, err := config.LoadProfile(opts.profile)
	if err != nil {
		return err
	}
	if opts.algorithm != "" {
		p.Algorithm = opts.algorithm
	}
	if opts.formulation != "" {
		p.Formulation = opts.formulation
	}
	if opts.loss != "" {
		p.Loss = opts.loss
	}

	logger, err := logging.NewLogger(&logging.Config{Level: opts.logLevel, Format: "console", Output: "stderr"})
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	report, err := solver.New(logger, nil).Solve(ctx, p, opts.currents)
	if errors.Is(err, optimization.ErrDiverged) {
		if encErr := encode(stdout, opts.output, report.Estimate()); encErr != nil {
			return encErr
		}
	}
	if err != nil {
		return fmt.Errorf("solve: %w", err)
	}

	return encode(stdout, opts.output, report)
}

func newProfileCmd() *cobra.Command {
	var out string

	profileCmd := &cobra.Command{
		Use:   "profile",
		Short: "print or save the default solver profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if out != "" {
				return config.SaveProfile(out, solver.DefaultProfile())
			}
			return config.WriteProfile(cmd.OutOrStdout(), solver.DefaultProfile())
		},
	}
	profileCmd.Flags().StringVar(&out, "out", "", "write the profile to a file instead of stdout")

	return profileCmd
}

func newAlgorithmsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "algorithms",
		Short: "list algorithms and the formulations and losses they accept",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ALGORITHM\tFORMULATION\tLOSSES")
			for _, c := range solver.Algorithms() {
				fmt.Fprintf(w, "%s\t%s\t%s\n", c.Algorithm, c.Formulation, strings.Join(c.Losses, ","))
			}
			return w.Flush()
		},
	}
}

func encode(w io.Writer, format string, v interface{}) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
