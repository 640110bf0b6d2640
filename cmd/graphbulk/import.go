package main

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/uswitch/graphbulk/pkg/bulk"
	"github.com/uswitch/graphbulk/pkg/config"
	"github.com/uswitch/graphbulk/pkg/ingest"
)

var importCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Write JSON lines graph elements to the container",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger := cfg.Log.SetLogger()

		in, err := openInput(cmd, args)
		if err != nil {
			return err
		}
		defer in.Close()

		summary, err := importElements(cmd.Context(), cfg, logger, in)
		if err != nil {
			return err
		}

		return report(cmd.OutOrStdout(), cmd.ErrOrStderr(), summary)
	},
}

func importElements(ctx context.Context, cfg *config.Config, logger *log.Logger, r io.Reader) (*bulk.Summary, error) {
	parser, err := ingest.NewParser()
	if err != nil {
		return nil, err
	}

	elements, err := parser.Read(r)
	if err != nil {
		return nil, err
	}

	ex, err := cfg.NewExecutor(logger)
	if err != nil {
		return nil, err
	}
	defer ex.Close()

	return ex.Import(ctx, elements)
}

// report prints the summary, and each failure, returning an error when
// anything failed.
func report(out, errOut io.Writer, summary *bulk.Summary) error {
	fmt.Fprintln(out, summary)

	for _, failure := range summary.Failures {
		fmt.Fprintf(errOut, "%s: %v\n", failure.Item.ID(), failure.Err)
	}

	if failed := summary.Failed(); failed > 0 {
		return fmt.Errorf("%s of %s elements failed", humanize.Comma(int64(failed)), humanize.Comma(int64(summary.Total())))
	}

	return nil
}

func init() {
	rootCmd.AddCommand(importCmd)
}
