package cmd

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/cwbudde/goiqdb/internal/iqdb"
	"github.com/spf13/cobra"
)

var removeCmd = &cobra.Command{
	Use:   "remove [post-id]",
	Short: "Remove an image from the catalog by post id",
	Args:  cobra.ExactArgs(1),
	RunE:  runRemove,
}

func init() {
	rootCmd.AddCommand(removeCmd)
}

func runRemove(cmd *cobra.Command, args []string) error {
	if databaseURL == "" {
		return fmt.Errorf("--database (or $DATABASE_URL) is required")
	}

	postID, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil {
		return fmt.Errorf("invalid post id %q: %w", args[0], err)
	}

	db, err := iqdb.Open(databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open catalog: %w", err)
	}
	defer db.Close()

	if err := db.RemoveImage(uint32(postID)); err != nil {
		return fmt.Errorf("remove failed: %w", err)
	}

	slog.Info("image removed", "postId", postID)
	fmt.Printf("removed post %d\n", postID)
	return nil
}
