package studio

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"studiochat/internal/domain"
)

// LoadFromDirectory loads studio preset definitions from YAML files in a
// directory. Files must have .yaml or .yml extension and conform to the
// StudioPreset schema.
func LoadFromDirectory(dir string, logger *slog.Logger) ([]domain.StudioPreset, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		logger.Debug("presets directory does not exist, skipping", "dir", dir)
		return nil, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read presets dir: %w", err)
	}

	var presets []domain.StudioPreset
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml") {
			continue
		}

		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			logger.Warn("cannot read preset file", "path", path, "err", err)
			continue
		}

		var preset domain.StudioPreset
		if err := yaml.Unmarshal(data, &preset); err != nil {
			logger.Warn("cannot parse preset file", "path", path, "err", err)
			continue
		}

		if preset.Name == "" {
			preset.Name = strings.TrimSuffix(name, filepath.Ext(name))
		}

		logger.Info("loaded studio preset", "name", preset.Name, "path", path)
		presets = append(presets, preset)
	}

	return presets, nil
}
