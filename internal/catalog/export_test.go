package catalog

import "os"

// overwriteMagic corrupts the header magic of an existing catalog file, for
// exercising Open's validation path.
func overwriteMagic(path string) error {
	f, err := os.OpenFile(path, os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteAt([]byte("XXXXXXXX"), 0)
	return err
}
