// Package config loads runtime configuration from environment variables,
// an optional .env file, and an optional YAML overrides file.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	DocAI     DocAIConfig
	ModelName string
	Overrides Overrides
}

// DocAIConfig identifies the Document AI processor used for extraction.
type DocAIConfig struct {
	ProjectID   string
	Location    string
	ProcessorID string
}

// Overrides tunes the normalizer heuristics without a rebuild. Empty slices
// mean "use the built-in defaults". Loaded from a YAML file when
// STATEMENT_AGENT_CONFIG points at one.
type Overrides struct {
	DateFormats    []string            `yaml:"date_formats"`
	HeaderSynonyms map[string][]string `yaml:"header_synonyms"`
}

// DefaultModelName is the Gemini model used when GEMINI_MODEL is unset.
const DefaultModelName = "gemini-2.5-flash"

// Load loads configuration from environment variables. A .env file in the
// current directory is applied first if present. You can optionally specify
// a custom .env file path.
func Load(envPath ...string) (*Config, error) {
	if len(envPath) > 0 && envPath[0] != "" {
		if err := godotenv.Load(envPath[0]); err != nil {
			return nil, fmt.Errorf("failed to load .env file: %w", err)
		}
	} else {
		// Try to load .env from current directory (ignore error if not found)
		_ = godotenv.Load()
	}

	cfg := &Config{
		DocAI: DocAIConfig{
			ProjectID:   os.Getenv("GCP_PROJECT_ID"),
			Location:    getEnvOrDefault("GCP_LOCATION", "us"),
			ProcessorID: os.Getenv("DOCUMENT_AI_PROCESSOR_ID"),
		},
		ModelName: getEnvOrDefault("GEMINI_MODEL", DefaultModelName),
	}

	if path := os.Getenv("STATEMENT_AGENT_CONFIG"); path != "" {
		ov, err := loadOverrides(path)
		if err != nil {
			return nil, err
		}
		cfg.Overrides = *ov
	}

	return cfg, nil
}

// Validate checks that the fields required to call Document AI are set.
func (c *Config) Validate() error {
	var missing []string
	if c.DocAI.ProjectID == "" {
		missing = append(missing, "GCP_PROJECT_ID")
	}
	if c.DocAI.ProcessorID == "" {
		missing = append(missing, "DOCUMENT_AI_PROCESSOR_ID")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %v", missing)
	}
	return nil
}

func loadOverrides(path string) (*Overrides, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read overrides file %q: %w", path, err)
	}
	var ov Overrides
	if err := yaml.Unmarshal(data, &ov); err != nil {
		return nil, fmt.Errorf("parse overrides file %q: %w", path, err)
	}
	return &ov, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}
