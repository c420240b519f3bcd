package filesystem

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// excludeFile is the on-disk shape of an exclude-pattern file:
//
//	patterns:
//	  - "*.tmp"
//	  - "cache/*"
type excludeFile struct {
	Patterns []string `yaml:"patterns"`
}

// LoadExcludePatterns reads glob patterns from a YAML file. Patterns
// match against the slash-separated relative path and against the base
// name of each candidate file.
func LoadExcludePatterns(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read exclude file: %w", err)
	}

	var ef excludeFile
	if err := yaml.Unmarshal(data, &ef); err != nil {
		return nil, fmt.Errorf("parse exclude file %s: %w", path, err)
	}
	return ef.Patterns, nil
}
