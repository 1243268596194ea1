package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/dd0wney/stratnet/pkg/catalog"
	"github.com/dd0wney/stratnet/pkg/config"
	"github.com/dd0wney/stratnet/pkg/engine"
	"github.com/dd0wney/stratnet/pkg/logging"
)

var version = "dev"

type rootOptions struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "stratnet",
		Short:         "Strategic network layout service",
		Long:          "stratnet lays out a community distribution network radially and runs a force simulation over it.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	cmd.SetVersionTemplate("stratnet {{ .Version }}\n")
	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Config file (.yaml, .yml or .toml)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides config and LOG_LEVEL")

	cmd.AddCommand(
		serveCmd(opts),
		validateCmd(opts),
		layoutCmd(opts),
		exportCmd(opts),
		tuiCmd(opts),
	)
	return cmd
}

// load reads the configuration named by --config.
func (o *rootOptions) load() (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	return cfg, nil
}

// logger writes JSON logs to w at the configured level.
func (o *rootOptions) logger(cfg *config.Config, w io.Writer) logging.Logger {
	if w == nil {
		w = os.Stderr
	}
	return logging.NewJSONLogger(w, logging.ParseLevel(cfg.Log.Level))
}

// offlineEngine builds an engine over the seed catalog, merging dataFile when
// given. It is not driven by a controller: callers read placement only.
func offlineEngine(cfg *config.Config, dataFile string, logger logging.Logger) (*engine.Engine, *catalog.MergeResult, error) {
	eng, err := engine.New(cfg.Engine(), engine.WithLogger(logger))
	if err != nil {
		return nil, nil, err
	}
	if dataFile == "" {
		return eng, nil, nil
	}
	data, err := os.ReadFile(dataFile)
	if err != nil {
		return nil, nil, err
	}
	res, err := eng.ImportJSON(data)
	if err != nil {
		return nil, nil, err
	}
	return eng, res, nil
}
