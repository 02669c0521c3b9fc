package agent

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// LoadConfig reads model routing from a YAML file such as config/models.yaml.
// A missing file yields the zero Config, which routes every flow to the mock provider.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		cfg.ActiveProvider = "mock"
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	if cfg.ActiveProvider == "" {
		cfg.ActiveProvider = "mock"
	}
	return cfg, nil
}
