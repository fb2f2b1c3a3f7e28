package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"

	"cutting_stock_cg/src/config"
	"cutting_stock_cg/src/cutstock"
	"cutting_stock_cg/src/report"
)

var errSomeFailed = errors.New("some instances could not be solved")

func newSolveCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "solve FILE...",
		Short: "Solve instance files (text format, or .xlsx workbooks)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, paths []string) error {
			return a.solveAll(cmd, paths)
		},
	}
}

func loadInstance(path string) (*cutstock.Instance, error) {
	var inst *cutstock.Instance
	var err error
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		inst, err = cutstock.LoadWorkbook(path)
	} else {
		inst, err = cutstock.LoadInstance(path)
	}
	if err != nil {
		return nil, err
	}
	if err := inst.Validate(); err != nil {
		return nil, err
	}
	return inst, nil
}

// outputPath keeps base as is for a single instance and otherwise inserts
// the instance name before the extension.
func outputPath(base, instPath string, multi bool) string {
	if !multi {
		return base
	}
	ext := filepath.Ext(base)
	name := strings.TrimSuffix(filepath.Base(instPath), filepath.Ext(instPath))
	return strings.TrimSuffix(base, ext) + "-" + name + ext
}

func (a *app) solveAll(cmd *cobra.Command, paths []string) error {
	cfg := a.cfg
	solver, err := cfg.NewSolver()
	if err != nil {
		return err
	}
	stdout, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()

	var metrics *report.Metrics
	if cfg.MetricsFile != "" {
		metrics = report.NewMetrics()
	}

	failed := false
	for _, p := range paths {
		inst, err := loadInstance(p)
		if err != nil {
			fmt.Fprintf(stderr, "Error for instance \"%v\": %v. Skipping...\n", p, err)
			failed = true
			continue
		}

		log := a.log.WithValues("instance", p)
		observers := []cutstock.Observer{report.NewLog(log)}
		if !cfg.Quiet && cfg.Format == config.FormatText {
			observers = append(observers, report.NewConsole(stdout))
		}
		if metrics != nil {
			observers = append(observers, metrics)
		}
		var chart *report.Convergence
		if cfg.ChartFile != "" {
			chart = report.NewConvergence(filepath.Base(p))
			observers = append(observers, chart)
		}

		if cfg.Format == config.FormatText {
			fmt.Fprintf(stdout, "Solving %v...\n", p)
		}
		ctx := logr.NewContext(cmd.Context(), log)
		res, err := cutstock.Solve(ctx, inst, solver, cfg.Options(), observers...)
		if err != nil {
			fmt.Fprintf(stderr, "An error occurred while solving instance \"%v\": %v\n", p, err)
			failed = true
			continue
		}

		if err := writeResult(stdout, cfg, solver.Name(), p, inst, res); err != nil {
			return err
		}
		multi := len(paths) > 1
		if chart != nil {
			if err := writeFile(outputPath(cfg.ChartFile, p, multi), chart.Render); err != nil {
				return err
			}
		}
		if cfg.ExportFile != "" {
			if err := report.ExportWorkbook(outputPath(cfg.ExportFile, p, multi), inst, res); err != nil {
				return err
			}
		}
	}

	if metrics != nil {
		if err := metrics.WriteTextfile(cfg.MetricsFile); err != nil {
			return err
		}
	}
	if failed {
		return errSomeFailed
	}
	return nil
}

func writeResult(w io.Writer, cfg *config.Config, solver, path string, inst *cutstock.Instance, res *cutstock.Result) error {
	switch cfg.Format {
	case config.FormatYAML:
		return report.NewSummary(solver, inst, res, cfg.History).WriteYAML(w)
	case config.FormatJSON:
		return report.NewSummary(solver, inst, res, cfg.History).WriteJSON(w)
	default:
		_, err := fmt.Fprintf(w, "Instance %v:\n%v\n", path, res)
		return err
	}
}

func writeFile(path string, render func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := render(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
