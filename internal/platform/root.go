package platform

import (
	"fmt"
	"os"
	"path/filepath"
)

// rootMarkers identify a glossary directory.
var rootMarkers = append([]string{".glossa", ".git"}, ConfigFiles...)

// FindRoot looks upwards from startDir for a glossary root: a directory
// holding .glossa, .git or a config file. It returns the absolute path.
func FindRoot(startDir string) (string, error) {
	abs, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	dir := abs
	for {
		for _, marker := range rootMarkers {
			if hasFile(dir, marker) {
				return dir, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("root not found")
}

func hasFile(dir, name string) bool {
	_, err := os.Stat(filepath.Join(dir, name))
	return err == nil
}
