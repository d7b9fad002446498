// Package setup handles troupe project initialization.
package setup

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ykomatsu/troupe/internal/model"
	atomicyaml "github.com/ykomatsu/troupe/internal/yaml"
)

// Dir is the per-project directory troupe keeps its socket, config, and
// state in.
const Dir = ".troupe"

// Run initializes the .troupe/ directory structure in the given project
// directory. projectName defaults to the directory basename when empty.
func Run(projectDir, projectName string) error {
	absDir, err := filepath.Abs(projectDir)
	if err != nil {
		return fmt.Errorf("resolve project dir: %w", err)
	}

	base := filepath.Join(absDir, Dir)
	if _, err := os.Stat(base); err == nil {
		return fmt.Errorf("%s already exists", base)
	}

	for _, d := range []string{"logs", "state", "locks"} {
		if err := os.MkdirAll(filepath.Join(base, d), 0755); err != nil {
			return fmt.Errorf("create directory %s: %w", d, err)
		}
	}

	if projectName == "" {
		projectName = filepath.Base(absDir)
	}
	cfg := model.DefaultConfig(projectName)

	if err := atomicyaml.AtomicWrite(filepath.Join(base, "config.yaml"), cfg); err != nil {
		return fmt.Errorf("write config.yaml: %w", err)
	}
	return nil
}

// LoadConfig reads .troupe/config.yaml below the given project directory.
func LoadConfig(projectDir string) (model.Config, error) {
	var cfg model.Config
	if err := atomicyaml.Load(filepath.Join(projectDir, Dir, "config.yaml"), &cfg); err != nil {
		return model.Config{}, err
	}
	return cfg, nil
}
