package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sarchlab/moesi/harness"
	"github.com/sarchlab/moesi/monitor"
	"github.com/sarchlab/moesi/tracing"
)

var (
	flagServePort int
	flagServeOpen bool
)

func init() {
	serveCmd.Flags().IntVar(&flagCores, "cores", envInt("MOESI_CORES", 4), "number of cores")
	serveCmd.Flags().IntVar(&flagCacheSize, "cache-size", envInt("MOESI_CACHE_SIZE", 64), "lines per cache")
	serveCmd.Flags().IntVar(&flagMemWords, "mem-words", envInt("MOESI_MEM_WORDS", 2048), "words of memory")
	serveCmd.Flags().IntVar(&flagServePort, "port", 0, "port to listen on (0 picks a free port)")
	serveCmd.Flags().BoolVar(&flagServeOpen, "open", false, "open the snapshot URL in the default browser")
	serveCmd.Flags().StringVar(&flagTrace, "trace", "memory", "trace sink: memory, json, csv, or sqlite")

	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve <scenario>",
	Short: "Run a scenario, then serve its final state and trace over HTTP.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]

		var scenario *harness.Scenario

		for i := range harness.Scenarios {
			if harness.Scenarios[i].Name == name {
				scenario = &harness.Scenarios[i]
				break
			}
		}

		if scenario == nil {
			return fmt.Errorf("moesisim: unknown scenario %q (see `moesisim list`)", name)
		}

		var sink tracing.Sink = tracing.NewMemorySink()
		if flagTrace != "memory" {
			var (
				closeSink func()
				err       error
			)

			sink, closeSink, err = sinkFor(flagTrace)
			if err != nil {
				return err
			}

			defer closeSink()
		}

		sys, err := harness.NewSystem(harness.Config{
			Cores: flagCores, CacheSize: flagCacheSize, MemWords: flagMemWords,
			WordSize: 4, Strict: true, Sink: sink,
			Concurrent: name == "concurrent-atomic-add",
		})
		if err != nil {
			return err
		}

		if err := scenario.Run(sys); err != nil {
			return err
		}

		return monitor.NewServer(sys, flagServePort).ListenAndServe(flagServeOpen)
	},
}
