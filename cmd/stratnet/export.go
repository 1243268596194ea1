package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dd0wney/stratnet/pkg/artifact"
	"github.com/dd0wney/stratnet/pkg/config"
	"github.com/dd0wney/stratnet/pkg/logging"
)

type exportOptions struct {
	out      string
	dataFile string
	compress bool
	sink     bool
}

func exportCmd(opts *rootOptions) *cobra.Command {
	eo := &exportOptions{}
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a placed snapshot of the network",
		Long: "Places the seed network, plus an optional data file, and writes the snapshot document.\n" +
			"By default the document goes to stdout; --out writes a file and --sink uses the configured artifact sink.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			return runExport(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), cfg, eo, time.Now())
		},
	}
	cmd.Flags().StringVarP(&eo.out, "out", "o", "", "Output file, or a directory to write network-graph-<ms>.json into")
	cmd.Flags().StringVarP(&eo.dataFile, "data", "d", "", "JSON document merged over the seed network")
	cmd.Flags().BoolVar(&eo.compress, "compress", false, "Snappy-compress the document")
	cmd.Flags().BoolVar(&eo.sink, "sink", false, "Write to the configured artifact sink")
	return cmd
}

func runExport(ctx context.Context, stdout, stderr io.Writer, cfg *config.Config, eo *exportOptions, now time.Time) error {
	if eo.sink && eo.out != "" {
		return fmt.Errorf("--sink and --out are mutually exclusive")
	}

	eng, _, err := offlineEngine(cfg, eo.dataFile, logging.NewNopLogger())
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(eng.ExportSnapshot(), "", "  ")
	if err != nil {
		return err
	}
	name := artifact.SnapshotName(now)

	switch {
	case eo.sink:
		cfg.Artifact.Compress = cfg.Artifact.Compress || eo.compress
		w, err := newArtifactWriter(ctx, cfg.Artifact, nil)
		if err != nil {
			return err
		}
		if w == nil {
			return fmt.Errorf("no artifact sink configured (set artifact.dir or artifact.s3.bucket)")
		}
		loc, err := w.Write(ctx, name, data)
		if err != nil {
			return err
		}
		fmt.Fprintln(stderr, loc)

	case eo.out != "":
		target := eo.out
		if info, err := os.Stat(target); err == nil && info.IsDir() {
			sink, err := artifact.NewFileSink(target)
			if err != nil {
				return err
			}
			loc, err := artifact.NewWriter(sink, eo.compress, nil).Write(ctx, name, data)
			if err != nil {
				return err
			}
			fmt.Fprintln(stderr, loc)
			return nil
		}
		_, body := artifact.Encode(target, data, eo.compress)
		if err := os.WriteFile(target, body, 0o644); err != nil {
			return err
		}
		fmt.Fprintln(stderr, target)

	default:
		_, body := artifact.Encode(name, data, eo.compress)
		if _, err := stdout.Write(body); err != nil {
			return err
		}
		if !eo.compress {
			fmt.Fprintln(stdout)
		}
	}
	return nil
}
