package main

import (
	"math/rand"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/uswitch/graphbulk/pkg/bulk"
	"github.com/uswitch/graphbulk/pkg/graph"
	"github.com/uswitch/graphbulk/pkg/ingest"
	"github.com/uswitch/graphbulk/pkg/sample"
)

var (
	generatePeople int
	generateFactor int
	generateSeed   int64
	generateImport bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate people and their relationships as JSON lines, or import them",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger := cfg.Log.SetLogger()

		elements, err := generateElements(generatePeople, generateFactor, generateSeed)
		if err != nil {
			return err
		}

		if !generateImport {
			return ingest.NewWriter(cmd.OutOrStdout()).Write(elements...)
		}

		// people are partitioned by country unless told otherwise
		if configPath == "" && !cmd.Flags().Changed("partition-key-path") {
			cfg.Store.PartitionKeyPath = sample.PartitionKeyPath
		}

		logger.Printf("generated %s elements", humanize.Comma(int64(len(elements))))

		ex, err := cfg.NewExecutor(logger)
		if err != nil {
			return err
		}
		defer ex.Close()

		var summary *bulk.Summary
		if summary, err = ex.Import(cmd.Context(), elements); err != nil {
			return err
		}

		return report(cmd.OutOrStdout(), cmd.ErrOrStderr(), summary)
	},
}

func generateElements(people, factor int, seed int64) ([]graph.Element, error) {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	return sample.NewGenerator(rand.NewSource(seed)).Graph(people, factor)
}

func init() {
	flags := generateCmd.Flags()

	flags.IntVar(&generatePeople, "people", 100, "number of people")
	flags.IntVar(&generateFactor, "factor", 3, "most relationships per person")
	flags.Int64Var(&generateSeed, "seed", 0, "random seed, zero for the current time")
	flags.BoolVar(&generateImport, "import", false, "import into the container instead of printing")

	rootCmd.AddCommand(generateCmd)
}
