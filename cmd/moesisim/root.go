// Package main provides the command-line interface for the MOESI
// simulator. Grounded on github.com/sarchlab/akita/v4/akita/cmd's cobra
// root command.
package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any
// subcommands.
var rootCmd = &cobra.Command{
	Use:   "moesisim",
	Short: "moesisim runs scripted MOESI cache-coherence scenarios.",
	Long: `moesisim runs scripted MOESI cache-coherence scenarios against a ` +
		`small simulated multi-core system: N cores, each with a direct` +
		`-mapped private cache, a single shared bus, and a flat memory.`,
}

// Execute adds every child command to the root command and runs it.
func Execute() {
	if err := godotenv.Load(); err != nil {
		// A missing .env is expected in most environments; only a
		// malformed one is worth a log line, which godotenv.Load already
		// folds into err for us to ignore here.
		_ = err
	}

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func main() {
	Execute()
}
