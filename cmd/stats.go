package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/cwbudde/goiqdb/internal/iqdb"
	"github.com/spf13/cobra"
)

var statsServerURL string

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Report catalog and index size",
	Long: `Reports the total row count and live image count. With --server, queries
a running goiqdb server's /stats endpoint instead of opening the catalog
file directly.`,
	RunE: runStats,
}

func init() {
	statsCmd.Flags().StringVar(&statsServerURL, "server", "", "Query a running server instead of opening the catalog file directly")
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	if statsServerURL != "" {
		return remoteStats(statsServerURL)
	}

	if databaseURL == "" {
		return fmt.Errorf("--database (or $DATABASE_URL) is required")
	}

	db, err := iqdb.Open(databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open catalog: %w", err)
	}
	defer db.Close()

	stats := db.Stats()
	fmt.Printf("total rows:  %d\n", stats.TotalRows)
	fmt.Printf("live images: %d\n", stats.LiveImages)
	return nil
}

func remoteStats(serverURL string) error {
	url := serverURL + "/stats"
	resp, err := http.Get(url)
	if err != nil {
		return fmt.Errorf("failed to connect to server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned error: %s", string(body))
	}

	var stats iqdb.Stats
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	fmt.Printf("total rows:  %d\n", stats.TotalRows)
	fmt.Printf("live images: %d\n", stats.LiveImages)
	return nil
}
