package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// RemoteConfig holds the filtered-read endpoint settings used for avatar
// resolution.
type RemoteConfig struct {
	BaseURL      string `yaml:"baseURL,omitempty"`
	ResourcePath string `yaml:"resourcePath,omitempty"`
	APIKey       string `yaml:"apiKey,omitempty"`
	IDColumn     string `yaml:"idColumn,omitempty"`
	ValueColumn  string `yaml:"valueColumn,omitempty"`
}

// ProjectConfig holds service-level settings loaded from aviary.yml.
type ProjectConfig struct {
	Addr     string       `yaml:"addr,omitempty"`
	DataRoot string       `yaml:"dataRoot,omitempty"`
	Verbose  bool         `yaml:"verbose,omitempty"`
	Remote   RemoteConfig `yaml:"remote,omitempty"`
}

// Load attempts to read aviary.yml or aviary.yaml from the given directory.
// Returns a zero-value config (not an error) if no config file exists.
func Load(dir string) (*ProjectConfig, error) {
	for _, name := range []string{"aviary.yml", "aviary.yaml"} {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var cfg ProjectConfig
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, err
		}
		return &cfg, nil
	}
	return &ProjectConfig{}, nil
}
