// Package config parses the brandkit.yaml configuration file and the YAML
// brand seed format consumed by `brandkit brand import`.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// YAMLConfig represents the top-level brandkit configuration file.
type YAMLConfig struct {
	Server  ServerConfig  `yaml:"server"`
	Auth    AuthConfig    `yaml:"auth"`
	MCP     MCPConfig     `yaml:"mcp"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig controls the management HTTP server behavior.
type ServerConfig struct {
	Host            string     `yaml:"host"`
	Port            int        `yaml:"port"`
	ShutdownTimeout string     `yaml:"shutdown_timeout"`
	RateLimit       int        `yaml:"rate_limit_per_minute"`
	CORS            CORSConfig `yaml:"cors"`
}

// CORSConfig controls cross-origin resource sharing settings.
type CORSConfig struct {
	Origins []string `yaml:"origins"`
}

// AuthConfig controls credential settings.
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

// MCPConfig controls the MCP tool server.
type MCPConfig struct {
	Transport      string `yaml:"transport"` // stdio or http
	HTTPAddr       string `yaml:"http_addr"`
	DefaultBrandID string `yaml:"default_brand_id"`
	StaticAPIKey   string `yaml:"static_api_key"` // stdio fallback credential
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// LoadYAML reads and parses a YAML configuration file. Environment variables
// referenced as ${VAR_NAME} in the file are expanded before parsing.
func LoadYAML(path string) (*YAMLConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	content := os.ExpandEnv(string(data))

	var cfg YAMLConfig
	if err := yaml.Unmarshal([]byte(content), &cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	return &cfg, nil
}

// DefaultYAML returns a YAMLConfig pre-filled with sensible defaults.
func DefaultYAML() *YAMLConfig {
	return &YAMLConfig{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ShutdownTimeout: "30s",
			RateLimit:       300,
			CORS: CORSConfig{
				Origins: []string{"*"},
			},
		},
		MCP: MCPConfig{
			Transport: "stdio",
			HTTPAddr:  ":8081",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// WriteDefault writes the default configuration to a YAML file.
func WriteDefault(path string) error {
	data, err := yaml.Marshal(DefaultYAML())
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ---------------------------------------------------------------------------
// Brand seed files
// ---------------------------------------------------------------------------

// SeedFile is the YAML format accepted by `brandkit brand import`: a list of
// brands with their assets, loaded in one pass.
type SeedFile struct {
	Brands []BrandSeed `yaml:"brands"`
}

// BrandSeed defines one brand and its assets in a seed file.
type BrandSeed struct {
	Name            string        `yaml:"name"`
	Pitch           string        `yaml:"pitch"`
	Concept         string        `yaml:"concept"`
	DesirableCues   string        `yaml:"desirable_cues"`
	UndesirableCues string        `yaml:"undesirable_cues"`
	FontPrimary     string        `yaml:"font_primary"`
	FontSecondary   string        `yaml:"font_secondary"`
	Logos           []LogoSeed    `yaml:"logos"`
	Taglines        []TaglineSeed `yaml:"taglines"`
	Palette         []string      `yaml:"palette"`
}

// LogoSeed is one logo asset in a seed file.
type LogoSeed struct {
	URL    string `yaml:"url"`
	Format string `yaml:"format"`
}

// TaglineSeed is one tagline in a seed file.
type TaglineSeed struct {
	Text    string `yaml:"text"`
	Primary bool   `yaml:"primary"`
	Liked   bool   `yaml:"liked"`
}

// LoadSeedFile reads and validates a brand seed file. Every brand must have
// a name; palette entries must be hex strings.
func LoadSeedFile(path string) (*SeedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}

	var seed SeedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	if len(seed.Brands) == 0 {
		return nil, fmt.Errorf("seed file %s contains no brands", path)
	}
	for i, b := range seed.Brands {
		if b.Name == "" {
			return nil, fmt.Errorf("seed file brand %d has no name", i)
		}
		for _, c := range b.Palette {
			if len(c) == 0 || c[0] != '#' {
				return nil, fmt.Errorf("brand %q: palette color %q is not a hex string", b.Name, c)
			}
		}
	}
	return &seed, nil
}
