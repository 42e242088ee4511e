// Package cli provides the command-line interface.
package cli

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/finsight-labs/finsight-cli/internal/config"
	"github.com/finsight-labs/finsight-cli/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	cfgPath string
	verbose bool

	// cfg is loaded once before any command runs.
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "finsight",
	Short: "Conversational search over indexed financial news",
	Long: `Finsight ingests articles from configured financial news sites into a
local vector index and answers questions about them conversationally,
with streamed answers and source citations.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		// API keys may live in a .env file next to the working directory.
		_ = godotenv.Load()

		logger.SetVerbose(verbose)

		var err error
		cfg, err = config.Load(cfgPath)
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", config.DefaultPath(), "path to config file")
}

// Execute runs the root command. Answers and reports go to stdout;
// cobra would otherwise default command output to stderr.
func Execute() error {
	rootCmd.SetOut(os.Stdout)
	return rootCmd.Execute()
}
