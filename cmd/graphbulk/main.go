package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/uswitch/graphbulk/pkg/config"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:          "graphbulk",
	Short:        "Bulk load property graphs into partitioned document containers",
	SilenceUsage: true,
}

func init() {
	flags := rootCmd.PersistentFlags()

	flags.StringVarP(&configPath, "config", "c", "", "YAML config file")
	flags.String("backend", config.BackendMemory, "container backend: memory, badger or gremlin")
	flags.String("partition-key-path", "/pk", "partition key path of the container")
	flags.String("dir", "", "badger directory")
	flags.String("url", "", "gremlin server url, e.g. ws://127.0.0.1:8182")
	flags.String("mode", "multi-valued", "vertex property layout: multi-valued or flattened")
	flags.Bool("upsert", false, "replace existing documents instead of reporting conflicts")
	flags.String("vertex-partition-property", "", "vertex property holding the partition key of /_partition containers")
	flags.String("log-file", "", "rotate logs into this file instead of stderr")
}

// loadConfig reads the config file, if any, then applies the flags that were
// set explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Default()

	if configPath != "" {
		var err error
		if cfg, err = config.FromPath(configPath); err != nil {
			return nil, err
		}
	}

	flags := cmd.Flags()

	stringFlags := map[string]*string{
		"backend":                   &cfg.Store.Backend,
		"partition-key-path":        &cfg.Store.PartitionKeyPath,
		"dir":                       &cfg.Store.Dir,
		"url":                       &cfg.Store.URL,
		"mode":                      &cfg.Import.Mode,
		"vertex-partition-property": &cfg.Import.VertexPartitionProperty,
		"log-file":                  &cfg.Log.File,
	}
	for name, field := range stringFlags {
		if flags.Changed(name) {
			value, err := flags.GetString(name)
			if err != nil {
				return nil, err
			}
			*field = value
		}
	}

	if flags.Changed("upsert") {
		upsert, err := flags.GetBool("upsert")
		if err != nil {
			return nil, err
		}
		cfg.Import.Upsert = upsert
	}

	return cfg, cfg.Validate()
}

type nopCloser struct{ io.Reader }

func (nopCloser) Close() error { return nil }

// openInput reads the named file, or stdin for "-" or no argument.
func openInput(cmd *cobra.Command, args []string) (io.ReadCloser, error) {
	if len(args) == 0 || args[0] == "-" {
		return nopCloser{cmd.InOrStdin()}, nil
	}

	return os.Open(args[0])
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
