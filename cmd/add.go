package cmd

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"os"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/cwbudde/goiqdb/internal/iqdb"
	"github.com/spf13/cobra"
)

var addPostID uint32

var addCmd = &cobra.Command{
	Use:   "add [image-path]",
	Short: "Compute a signature for an image and add it to the catalog",
	Args:  cobra.ExactArgs(1),
	RunE:  runAdd,
}

func init() {
	addCmd.Flags().Uint32Var(&addPostID, "post-id", 0, "Post id to associate with this image (required)")
	addCmd.MarkFlagRequired("post-id")
	rootCmd.AddCommand(addCmd)
}

func runAdd(cmd *cobra.Command, args []string) error {
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

	id, err := db.AddImage(img, addPostID)
	if err != nil {
		return fmt.Errorf("add failed: %w", err)
	}

	slog.Info("image added", "id", id, "postId", addPostID)
	fmt.Printf("added post %d as catalog row %d\n", addPostID, id)
	return nil
}

func decodeImageFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}
