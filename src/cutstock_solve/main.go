package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"cutting_stock_cg/src/config"
	_ "cutting_stock_cg/src/oracle/gonumlp"
)

type app struct {
	v          *viper.Viper
	configFile string
	cfg        *config.Config
	log        logr.Logger
	zl         *zap.Logger
}

func newApp() *app {
	return &app{v: viper.New(), log: logr.Discard()}
}

// sync flushes the zap logger, if one was built.
func (a *app) sync() {
	if a.zl != nil {
		_ = a.zl.Sync()
	}
}

func newLogger(level string, development bool) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if development {
		zc = zap.NewDevelopmentConfig()
	}
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	zc.Level = zap.NewAtomicLevelAt(lvl)
	return zc.Build()
}

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "cutstock-solve",
		Short:         "Solve one dimensional cutting stock instances by column generation",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(a.v, a.configFile)
			if err != nil {
				return err
			}
			a.cfg = cfg
			zl, err := newLogger(cfg.LogLevel, cfg.LogDevelopment)
			if err != nil {
				return err
			}
			a.zl, a.log = zl, zapr.NewLogger(zl)
			return nil
		},
	}
	root.PersistentFlags().StringVar(&a.configFile, "config", "", "YAML config file")
	if err := config.BindFlags(root.PersistentFlags(), a.v); err != nil {
		panic(err)
	}
	root.AddCommand(newSolveCommand(a), newServeCommand(a))
	return root
}

func main() {
	os.Exit(execute())
}

// execute runs the command line and returns the exit code, after the
// deferred cleanups have run.
func execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	a := newApp()
	defer a.sync()

	if err := newRootCommand(a).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
