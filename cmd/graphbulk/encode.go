package main

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log"

	"github.com/spf13/cobra"

	"github.com/uswitch/graphbulk/pkg/config"
	"github.com/uswitch/graphbulk/pkg/ingest"
)

var encodeCmd = &cobra.Command{
	Use:   "encode [file]",
	Short: "Print the documents import would write, one per line",
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

		return encodeElements(cmd.Context(), cfg, logger, in, cmd.OutOrStdout())
	},
}

func encodeElements(ctx context.Context, cfg *config.Config, logger *log.Logger, r io.Reader, w io.Writer) error {
	parser, err := ingest.NewParser()
	if err != nil {
		return err
	}

	elements, err := parser.Read(r)
	if err != nil {
		return err
	}

	ex, err := cfg.NewExecutor(logger)
	if err != nil {
		return err
	}
	defer ex.Close()

	docs, err := ex.Encode(ctx, elements)
	if err != nil {
		return err
	}

	buffered := bufio.NewWriter(w)
	encoder := json.NewEncoder(buffered)
	for _, doc := range docs {
		if err := encoder.Encode(doc); err != nil {
			return err
		}
	}

	return buffered.Flush()
}

func init() {
	rootCmd.AddCommand(encodeCmd)
}
