// Package config loads and normalizes the application configuration using
// Viper. All shape ambiguity (flat vs. nested wordlist paths) is resolved
// here, once, so the core pipeline only ever sees canonical structures.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"dirhunter/internal/advisory"
	"dirhunter/internal/logger"
	"dirhunter/internal/scan"
)

// Settings is the overall configuration, mirroring dirhunter.yaml.
type Settings struct {
	Mode     string          `mapstructure:"mode"` // LOCAL, AI_AGENT or AUTO
	Scan     scan.Request    `mapstructure:"scan"`
	Logger   logger.Config   `mapstructure:"logger"`
	Advisory advisory.Config `mapstructure:"advisory"`
	Redis    RedisConfig     `mapstructure:"redis"`

	// Wordlists maps a category hint to a wordlist file path. Canonical
	// form; see normalizeWordlists.
	Wordlists map[string]string `mapstructure:"-"`
}

// RedisConfig holds the optional Redis mirror for the dedup store.
type RedisConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
}

// Load reads configuration from the given directory (file "dirhunter.yaml")
// and environment variables, and normalizes ambiguous fields.
func Load(path string) (Settings, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("dirhunter")
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return Settings{}, err
	}

	var settings Settings
	if err := v.Unmarshal(&settings); err != nil {
		return Settings{}, err
	}

	wordlists, err := normalizeWordlists(v.Get("wordlists"))
	if err != nil {
		return Settings{}, err
	}
	settings.Wordlists = wordlists

	if settings.Mode == "" {
		settings.Mode = "AUTO"
	}
	return settings, nil
}

// normalizeWordlists accepts the two shapes the wordlists key historically
// takes — a flat path string, or a mapping of category to path — and always
// returns the mapping form with at least a "general" entry when any value
// was provided. This is the only place that branches on the shape.
func normalizeWordlists(raw interface{}) (map[string]string, error) {
	out := make(map[string]string)
	switch val := raw.(type) {
	case nil:
		return out, nil
	case string:
		if val != "" {
			out["general"] = val
		}
		return out, nil
	case map[string]interface{}:
		for category, pathVal := range val {
			path, ok := pathVal.(string)
			if !ok {
				return nil, fmt.Errorf("wordlists.%s: expected string path, got %T", category, pathVal)
			}
			out[strings.ToLower(category)] = path
		}
		return out, nil
	default:
		return nil, fmt.Errorf("wordlists: expected string or mapping, got %T", raw)
	}
}

// WordlistPath resolves a category hint to a configured path, falling back
// to the general list for unknown hints.
func (s Settings) WordlistPath(hint string) (string, bool) {
	if path, ok := s.Wordlists[strings.ToLower(hint)]; ok {
		return path, true
	}
	path, ok := s.Wordlists["general"]
	return path, ok
}
