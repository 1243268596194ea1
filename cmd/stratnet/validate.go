package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dd0wney/stratnet/pkg/catalog"
)

var (
	good   = color.New(color.FgGreen, color.Bold)
	bad    = color.New(color.FgRed, color.Bold)
	warn   = color.New(color.FgYellow)
	subtle = color.New(color.FgHiBlack)
)

// errInvalidDocument is returned after the report has been printed.
var errInvalidDocument = errors.New("document is invalid")

func validateCmd(opts *rootOptions) *cobra.Command {
	var standalone bool
	cmd := &cobra.Command{
		Use:   "validate <file>",
		Short: "Check a network document",
		Long:  "Parses a JSON network document and merges it into the built-in seed network, or checks it on its own with --standalone. Findings are reported as warnings.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			return runValidate(cmd.OutOrStdout(), args[0], data, standalone)
		},
	}
	cmd.Flags().BoolVar(&standalone, "standalone", false, "Validate the document without merging it into the seed network")
	return cmd
}

func runValidate(w io.Writer, name string, data []byte, standalone bool) error {
	fmt.Fprintf(w, "%s %s\n\n", subtle.Sprint("validating"), name)

	p, err := catalog.ParsePayload(data)
	if err != nil {
		return reportInvalid(w, err)
	}

	var cat *catalog.Catalog
	res := &catalog.MergeResult{}
	if standalone {
		if cat, err = catalog.FromPayload(p); err != nil {
			return reportInvalid(w, err)
		}
		res.NodesAdded, res.LinksAdded = cat.Len(), len(cat.Links())
		res.Warnings = cat.Check().Findings()
	} else {
		cat = catalog.Seed()
		if res, err = cat.Merge(p); err != nil {
			return reportInvalid(w, err)
		}
	}

	fmt.Fprintf(w, "  %s document is valid\n", good.Sprint("✓"))
	fmt.Fprintf(w, "    nodes added    %d\n", res.NodesAdded)
	fmt.Fprintf(w, "    nodes updated  %d\n", res.NodesUpdated)
	fmt.Fprintf(w, "    links added    %d\n", res.LinksAdded)

	stats := cat.Stats()
	tiers := make([]string, 0, len(stats.NodesByTier))
	for t := range stats.NodesByTier {
		tiers = append(tiers, string(t))
	}
	sort.Strings(tiers)
	fmt.Fprintf(w, "\n  %s\n", subtle.Sprintf("%d nodes, %d links", stats.Nodes, stats.Links))
	for _, t := range tiers {
		fmt.Fprintf(w, "    %-14s %d\n", t, stats.NodesByTier[catalog.Tier(t)])
	}

	if len(res.Warnings) > 0 {
		fmt.Fprintln(w)
		for _, f := range res.Warnings {
			fmt.Fprintf(w, "  %s %s\n", warn.Sprint("!"), f)
		}
	}
	return nil
}

func reportInvalid(w io.Writer, err error) error {
	fmt.Fprintf(w, "  %s %v\n", bad.Sprint("✗"), err)
	var verr *catalog.ValidationError
	if errors.As(err, &verr) && verr.Field != "" {
		fmt.Fprintf(w, "    %s %s\n", subtle.Sprint("field"), verr.Field)
	}
	return errInvalidDocument
}
