package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/finsight-labs/finsight-cli/internal/adapters/driven/storage/sqlite"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show vector index statistics",
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, _ []string) error {
	index, err := sqlite.NewStore(cfg.Index.DataDir)
	if err != nil {
		return err
	}
	defer index.Close()

	stats, err := index.Stats(cmd.Context())
	if err != nil {
		return err
	}

	cmd.Printf("Indexed chunks: %d\n", stats.TotalDocuments)
	if len(stats.Sources) == 0 {
		cmd.Println("Sources: none (run 'finsight ingest' first)")
		return nil
	}
	cmd.Printf("Sources: %s\n", strings.Join(stats.Sources, ", "))
	return nil
}
