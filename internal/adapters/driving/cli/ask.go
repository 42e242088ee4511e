package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/finsight-labs/finsight-cli/internal/adapters/driven/ai"
	sessionmem "github.com/finsight-labs/finsight-cli/internal/adapters/driven/session/memory"
	"github.com/finsight-labs/finsight-cli/internal/adapters/driven/storage/sqlite"
	"github.com/finsight-labs/finsight-cli/internal/core/domain"
	"github.com/finsight-labs/finsight-cli/internal/core/ports/driving"
	"github.com/finsight-labs/finsight-cli/internal/core/services"
)

var (
	askSession string
	askSources []string
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about the indexed news",
	Long: `Answers a question using retrieval-augmented generation over the local
index. With a question argument, answers once and exits. Without one,
starts an interactive chat where follow-up questions share the same
conversation memory. Type "exit" or "quit" to leave.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVar(&askSession, "session", "", "conversation ID (generated if omitted)")
	askCmd.Flags().StringSliceVar(&askSources, "source", nil, "restrict retrieval to these sources (repeatable)")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	embedder, err := ai.CreateAndValidateEmbeddingService(cfg.EmbeddingSettings())
	if err != nil {
		return err
	}
	defer embedder.Close()

	llm, err := ai.CreateAndValidateLLMService(cfg.LLMSettings())
	if err != nil {
		return err
	}
	defer llm.Close()

	index, err := sqlite.NewStore(cfg.Index.DataDir)
	if err != nil {
		return err
	}
	defer index.Close()

	engine := services.NewChatService(embedder, llm, index,
		sessionmem.NewStore(sessionmem.WithMaxTurns(cfg.Session.MaxTurns)),
		services.WithTopK(cfg.RAG.TopK),
		services.WithGeneration(cfg.LLM.MaxTokens, cfg.LLM.Temperature),
	)

	sessionID := askSession
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	if len(args) == 1 {
		return askOnce(cmd, engine, sessionID, args[0])
	}
	return askInteractive(cmd, engine, sessionID)
}

// askOnce answers a single question and exits.
func askOnce(cmd *cobra.Command, engine driving.ChatEngine, sessionID, question string) error {
	return streamAnswer(cmd, engine, domain.ChatRequest{
		Query:     question,
		SessionID: sessionID,
		Sources:   askSources,
	})
}

// askInteractive runs a chat loop sharing one session.
func askInteractive(cmd *cobra.Command, engine driving.ChatEngine, sessionID string) error {
	cmd.Println("Ask about the indexed financial news. Type \"exit\" to leave.")

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		cmd.Print("\n> ")
		if !scanner.Scan() {
			return scanner.Err()
		}

		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			continue
		}
		if question == "exit" || question == "quit" {
			return nil
		}

		err := streamAnswer(cmd, engine, domain.ChatRequest{
			Query:     question,
			SessionID: sessionID,
			Sources:   askSources,
		})
		if err != nil {
			// Keep the conversation alive; partial answers stay on screen.
			cmd.PrintErrf("error: %v\n", err)
		}
	}
}

// streamAnswer renders one turn's event stream: deltas as they arrive,
// then the citation block.
func streamAnswer(cmd *cobra.Command, engine driving.ChatEngine, req domain.ChatRequest) error {
	events, err := engine.StreamQuery(cmd.Context(), req)
	if err != nil {
		return err
	}

	for event := range events {
		switch event.Type {
		case domain.EventAnswerDelta:
			cmd.Print(event.Delta)
		case domain.EventCitations:
			cmd.Print(renderCitations(event.Citations))
		case domain.EventError:
			cmd.Println()
			return event.Err
		}
	}

	cmd.Println()
	return nil
}

// renderCitations formats the deduplicated source list shown after an
// answer.
func renderCitations(citations []domain.Citation) string {
	if len(citations) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("\n\n---\n**Sources:**\n")
	for i, citation := range citations {
		fmt.Fprintf(&b, "%d. [%s](%s)\n", i+1, citation.Title, citation.URL)
	}
	return b.String()
}
