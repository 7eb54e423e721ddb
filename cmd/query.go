package cmd

import (
	"fmt"

	"github.com/cwbudde/goiqdb/internal/iqdb"
	"github.com/spf13/cobra"
)

var queryK int

var queryCmd = &cobra.Command{
	Use:   "query [image-path]",
	Short: "Find the most visually similar images in the catalog",
	Args:  cobra.ExactArgs(1),
	RunE:  runQuery,
}

func init() {
	queryCmd.Flags().IntVar(&queryK, "k", 16, "Number of results to return")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	if databaseURL == "" {
		return fmt.Errorf("--database (or $DATABASE_URL) is required")
	}

	img, err := decodeImageFile(args[0])
	if err != nil {
		return err
	}

	db, err := iqdb.Open(databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open catalog: %w", err)
	}
	defer db.Close()

	results, err := db.Query(img, queryK)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	if len(results) == 0 {
		fmt.Println("no matches found")
		return nil
	}

	for i, r := range results {
		fmt.Printf("%2d. post %-10d score %.4f\n", i+1, r.PostID, r.Score)
	}
	return nil
}
