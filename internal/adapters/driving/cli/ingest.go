package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/finsight-labs/finsight-cli/internal/adapters/driven/ai"
	"github.com/finsight-labs/finsight-cli/internal/adapters/driven/fetch/web"
	"github.com/finsight-labs/finsight-cli/internal/adapters/driven/storage/sqlite"
	"github.com/finsight-labs/finsight-cli/internal/chunker"
	"github.com/finsight-labs/finsight-cli/internal/core/domain"
	"github.com/finsight-labs/finsight-cli/internal/core/services"
	"github.com/finsight-labs/finsight-cli/internal/scraper"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Scrape configured news sources into the local index",
	Long: `Fetches section pages from every enabled source, extracts and validates
article content, splits it into chunks, embeds them and upserts the
result into the vector index. Re-running on unchanged articles is a
no-op; edited articles replace their old chunks.`,
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, _ []string) error {
	sources := cfg.EnabledSources()
	if len(sources) == 0 {
		return fmt.Errorf("%w: no enabled sources configured", domain.ErrInvalidInput)
	}

	embedder, err := ai.CreateAndValidateEmbeddingService(cfg.EmbeddingSettings())
	if err != nil {
		return err
	}
	defer embedder.Close()

	index, err := sqlite.NewStore(cfg.Index.DataDir)
	if err != nil {
		return err
	}
	defer index.Close()

	pipeline := services.NewPipelineService(
		scraper.New(web.New(web.Config{}), nil, sources),
		chunker.New(
			chunker.WithChunkSize(cfg.Chunking.Size),
			chunker.WithOverlap(cfg.Chunking.Overlap),
		),
		embedder,
		index,
	)

	report, err := pipeline.Run(cmd.Context())
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	cmd.Printf("Ingest complete: %d articles scraped, %d chunks indexed.\n",
		report.ArticlesScraped, report.ChunksCreated)
	return nil
}
