package main

import (
	"github.com/spf13/cobra"

	"cutting_stock_cg/src/report"
	"cutting_stock_cg/src/server"
)

func newServeCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve POST /solve over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			solver, err := a.cfg.NewSolver()
			if err != nil {
				return err
			}
			metrics := report.NewSharedMetrics()
			srv := server.New(a.log.WithName("server"), solver, a.cfg.Options(), metrics)
			err = srv.Run(cmd.Context(), a.cfg.Listen)
			if a.cfg.MetricsFile != "" {
				if werr := metrics.WriteTextfile(a.cfg.MetricsFile); werr != nil && err == nil {
					err = werr
				}
			}
			return err
		},
	}
}
