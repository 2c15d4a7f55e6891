package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/cosim/internal/config"
	"github.com/san-kum/cosim/internal/models"
	"github.com/san-kum/cosim/internal/results"
	"github.com/san-kum/cosim/internal/runner"
	"github.com/san-kum/cosim/internal/store"
	"github.com/san-kum/cosim/internal/tui"
	"github.com/san-kum/cosim/internal/viz"
)

var (
	dataDir string
	verbose bool
	// run overrides
	preset      string
	stopTime    float64
	stepSize    float64
	loggingStep float64
	live        bool
	noSave      bool
	// plot
	plotWidth  int
	plotHeight int
	// export
	exportFormat string
	exportOut    string
)

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "cosim",
		Short: "fixed-step co-simulation of fmus and go models",
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".cosim", "data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	runCmd := &cobra.Command{
		Use:   "run [config]",
		Short: "run a scenario",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runScenario,
	}
	runCmd.Flags().StringVar(&preset, "preset", "", "built-in scenario preset")
	runCmd.Flags().Float64Var(&stopTime, "stop", 0, "override stop time")
	runCmd.Flags().Float64Var(&stepSize, "step", 0, "override step size")
	runCmd.Flags().Float64Var(&loggingStep, "log-step", 0, "override logging step size")
	runCmd.Flags().BoolVar(&live, "live", false, "live progress view")
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")

	validateCmd := &cobra.Command{
		Use:   "validate [config]",
		Short: "validate a scenario without running it",
		Args:  cobra.MaximumNArgs(1),
		RunE:  validateScenario,
	}
	validateCmd.Flags().StringVar(&preset, "preset", "", "built-in scenario preset")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list built-in scenario presets",
		Run: func(cmd *cobra.Command, args []string) {
			names := make([]string, 0, len(config.Presets))
			for name := range config.Presets {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				fmt.Println(name)
			}
		},
	}

	modelsCmd := &cobra.Command{
		Use:   "models",
		Short: "list built-in models",
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range models.NewRegistry().List() {
				fmt.Println(name)
			}
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id] [column]",
		Short: "plot a result column",
		Args:  cobra.ExactArgs(2),
		RunE:  plotRun,
	}
	plotCmd.Flags().IntVar(&plotWidth, "width", 80, "plot width")
	plotCmd.Flags().IntVar(&plotHeight, "height", 15, "plot height")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run data",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVar(&exportFormat, "format", "csv", "csv or json")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "output path (default stdout)")

	rootCmd.AddCommand(runCmd, validateCmd, modelsCmd, presetsCmd, listCmd, plotCmd, exportCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig(args []string) (*config.Config, error) {
	var cfg *config.Config
	switch {
	case preset != "" && len(args) > 0:
		return nil, fmt.Errorf("pass either a config file or --preset, not both")
	case preset != "":
		p, ok := config.Presets[preset]
		if !ok {
			return nil, fmt.Errorf("unknown preset %q", preset)
		}
		cfg = p
	case len(args) > 0:
		loaded, err := config.LoadFile(args[0])
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	default:
		return nil, fmt.Errorf("pass a config file or --preset")
	}
	if stopTime > 0 {
		cfg.StopTime = stopTime
	}
	if stepSize > 0 {
		cfg.StepSize = stepSize
	}
	if loggingStep > 0 {
		cfg.LoggingStepSize = loggingStep
	}
	return cfg, nil
}

func runScenario(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}
	logger := newLogger()
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	opts := runner.Options{Logger: logger}

	var table *results.Table
	if live {
		p := tui.NewProgram(cfg.StopTime)
		opts.Observer = func(event runner.StepEvent) {
			msg := tui.StepMsg{Step: event.Step, Time: event.Time}
			for _, v := range event.Values {
				msg.Values = append(msg.Values, tui.ValuePair{Name: v.Name, Value: v.Value.String()})
			}
			p.Send(msg)
		}
		var runErr error
		go func() {
			table, runErr = runner.Run(ctx, cfg, opts)
			p.Send(tui.DoneMsg{Err: runErr})
		}()
		if _, err := p.Run(); err != nil {
			return err
		}
		if runErr != nil {
			return runErr
		}
	} else {
		table, err = runner.Run(ctx, cfg, opts)
		if err != nil {
			return err
		}
	}

	fmt.Printf("simulated %d steps, %d columns\n", table.NumRows(), table.NumCols())

	if noSave {
		return nil
	}
	snapshot, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	st := store.New(dataDir)
	if err := st.Init(ctx); err != nil {
		return err
	}
	defer st.Close()
	id, err := st.Save(ctx, store.RunMeta{
		StopTime:        cfg.StopTime,
		StepSize:        cfg.StepSize,
		LoggingStepSize: cfg.LoggingStepSize,
		Systems:         cfg.SystemNames(),
		Config:          string(snapshot),
	}, table)
	if err != nil {
		return err
	}
	fmt.Printf("saved run %s\n", id)
	return nil
}

func validateScenario(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}
	sim, _, err := runner.Build(cfg, runner.Options{Logger: newLogger()})
	if err != nil {
		return err
	}
	defer sim.ConcludeSimulation()
	fmt.Printf("ok: %d systems, wiring valid\n", len(cfg.SystemNames()))
	return nil
}

func openStore(ctx context.Context) (*store.Store, error) {
	st := store.New(dataDir)
	if err := st.Init(ctx); err != nil {
		return nil, err
	}
	return st, nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	metas, err := st.List(ctx)
	if err != nil {
		return err
	}
	if len(metas) == 0 {
		fmt.Println("no runs")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCREATED\tSYSTEMS\tSTOP\tSTEP\tROWS")
	for _, m := range metas {
		fmt.Fprintf(w, "%s\t%s\t%s\t%g\t%g\t%d\n",
			m.ID, humanize.Time(m.CreatedAt), strings.Join(m.Systems, ","),
			m.StopTime, m.StepSize, m.Rows)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	table, err := st.LoadTable(ctx, args[0])
	if err != nil {
		return err
	}
	graph, err := viz.Plot(table, args[1], plotWidth, plotHeight)
	if err != nil {
		return err
	}
	fmt.Println(graph)
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	table, err := st.LoadTable(ctx, args[0])
	if err != nil {
		return err
	}

	out := os.Stdout
	if exportOut != "" {
		f, err := os.Create(exportOut)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	switch exportFormat {
	case "csv":
		return table.WriteCSV(out)
	case "json":
		return table.WriteJSON(out)
	default:
		return fmt.Errorf("unknown format %q (want csv or json)", exportFormat)
	}
}
