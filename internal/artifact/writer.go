package artifact

import (
	"fmt"
	"os"
	"path/filepath"
)

// WriteToFile writes the artifact as indented JSON, creating parent
// directories as needed.
func (a ConfigArtifact) WriteToFile(path string) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create artifact directory: %w", err)
		}
	}

	data, err := a.ToJSON()
	if err != nil {
		return fmt.Errorf("encode artifact: %w", err)
	}

	return os.WriteFile(path, append(data, '\n'), 0644)
}
