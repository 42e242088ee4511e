package cli

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

var cleanForce bool

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Delete the local index data",
	Long:  `Removes the vector index from disk. The next ingest starts from scratch.`,
	RunE:  runClean,
}

func init() {
	cleanCmd.Flags().BoolVarP(&cleanForce, "force", "f", false, "skip confirmation")
	rootCmd.AddCommand(cleanCmd)
}

func runClean(cmd *cobra.Command, _ []string) error {
	dataDir := cfg.Index.DataDir
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return err
		}
		dataDir = filepath.Join(home, ".finsight", "data")
	}

	if _, err := os.Stat(dataDir); os.IsNotExist(err) {
		cmd.Println("Nothing to clean.")
		return nil
	}

	if !cleanForce {
		cmd.Printf("Delete all index data in %s? [y/N] ", dataDir)
		scanner := bufio.NewScanner(cmd.InOrStdin())
		if !scanner.Scan() {
			return scanner.Err()
		}
		answer := strings.ToLower(strings.TrimSpace(scanner.Text()))
		if answer != "y" && answer != "yes" {
			cmd.Println("Aborted.")
			return nil
		}
	}

	if err := os.RemoveAll(dataDir); err != nil {
		return err
	}
	cmd.Println("Index data deleted.")
	return nil
}
