// Package config provides XML-based configuration management.
package config

import (
	"encoding/xml"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// FileName is the configuration file looked up next to the executable.
const FileName = "StatementRenamer.config"

// AppConfig represents the root XML configuration structure
type AppConfig struct {
	XMLName xml.Name `xml:"StatementRenamer"`

	// Server configuration
	Server ServerConfig `xml:"Server"`

	// Processing configuration
	Processing ProcessingConfig `xml:"Processing"`

	// Naming configuration
	Naming NamingConfig `xml:"Naming"`

	// Security configuration
	Security SecurityConfig `xml:"Security"`

	// Advanced options
	Advanced AdvancedConfig `xml:"Advanced"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port               int     `xml:"Port"`
	BindAddress        string  `xml:"BindAddress"`
	EnableCORS         bool    `xml:"EnableCORS"`
	AllowOrigins       string  `xml:"AllowOrigins"`
	ReadTimeout        int     `xml:"ReadTimeoutSeconds"`
	WriteTimeout       int     `xml:"WriteTimeoutSeconds"`
	IdleTimeout        int     `xml:"IdleTimeoutSeconds"`
	BodyLimit          string  `xml:"BodyLimit"`
	RateLimitPerSecond float64 `xml:"RateLimitPerSecond"`
	RateLimitBurst     int     `xml:"RateLimitBurst"`
}

// ProcessingConfig contains parsing and batch session settings
type ProcessingConfig struct {
	MaxConcurrentParses    int  `xml:"MaxConcurrentParses"`
	SessionTimeoutMinutes  int  `xml:"SessionTimeoutMinutes"`
	CleanupIntervalMinutes int  `xml:"CleanupIntervalMinutes"`
	EnableCompression      bool `xml:"EnableCompression"`
	CompressionLevel       int  `xml:"CompressionLevel"`
}

// NamingConfig selects the document-type mapping used by the statement strategy
type NamingConfig struct {
	DocTypesFile    string `xml:"DocTypesFile"` // empty means the built-in mapping
	DefaultStrategy string `xml:"DefaultStrategy"`
}

// SecurityConfig limits which directories batches may touch
type SecurityConfig struct {
	AllowedRoots    string `xml:"AllowedRoots"` // comma separated, empty allows any directory
	SkipHiddenFiles bool   `xml:"SkipHiddenFiles"`
}

// AdvancedConfig contains advanced/tuning options
type AdvancedConfig struct {
	LogLevel             string `xml:"LogLevel"`
	EnableRequestLogging bool   `xml:"EnableRequestLogging"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:               8089,
			BindAddress:        "127.0.0.1",
			EnableCORS:         true,
			AllowOrigins:       "*",
			ReadTimeout:        30,
			WriteTimeout:       30,
			IdleTimeout:        120,
			BodyLimit:          "50M",
			RateLimitPerSecond: 20,
			RateLimitBurst:     40,
		},
		Processing: ProcessingConfig{
			MaxConcurrentParses:    4,
			SessionTimeoutMinutes:  30,
			CleanupIntervalMinutes: 5,
			EnableCompression:      true,
			CompressionLevel:       5,
		},
		Naming: NamingConfig{
			DefaultStrategy: "statement",
		},
		Security: SecurityConfig{
			SkipHiddenFiles: true,
		},
		Advanced: AdvancedConfig{
			LogLevel:             "info",
			EnableRequestLogging: true,
		},
	}
}

// LoadConfig loads configuration from an XML file, creating it with defaults on first run.
func LoadConfig(configPath string) (*AppConfig, error) {
	config := DefaultConfig()

	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		if err := config.Save(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	} else {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := xml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	// Apply environment variable overrides
	config.applyEnvironmentOverrides()

	// Resolve relative paths
	config.resolvePaths(filepath.Dir(configPath))

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Save saves the configuration to XML file
func (c *AppConfig) Save(configPath string) error {
	output, err := xml.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(xml.Header + "\n<!-- Statement Renamer Configuration -->\n<!-- This file is auto-generated on first run -->\n\n")
	content := append(header, output...)

	if err := os.WriteFile(configPath, content, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// applyEnvironmentOverrides allows environment variables to override config values
func (c *AppConfig) applyEnvironmentOverrides() {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.Advanced.LogLevel = level
	}

	if file := os.Getenv("DOC_TYPES_FILE"); file != "" {
		c.Naming.DocTypesFile = file
	}

	if workers := os.Getenv("MAX_CONCURRENT_PARSES"); workers != "" {
		if n, err := strconv.Atoi(workers); err == nil {
			c.Processing.MaxConcurrentParses = n
		}
	}

	if roots := os.Getenv("ALLOWED_ROOTS"); roots != "" {
		c.Security.AllowedRoots = roots
	}
}

// resolvePaths converts relative paths to absolute based on config file location
func (c *AppConfig) resolvePaths(configDir string) {
	if c.Naming.DocTypesFile != "" && !filepath.IsAbs(c.Naming.DocTypesFile) {
		c.Naming.DocTypesFile = filepath.Join(configDir, c.Naming.DocTypesFile)
	}
}

// Validate rejects settings the server cannot start with.
func (c *AppConfig) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if c.Processing.MaxConcurrentParses < 1 {
		return fmt.Errorf("MaxConcurrentParses must be at least 1, got %d", c.Processing.MaxConcurrentParses)
	}
	if c.Processing.SessionTimeoutMinutes < 1 {
		return fmt.Errorf("SessionTimeoutMinutes must be at least 1, got %d", c.Processing.SessionTimeoutMinutes)
	}
	if c.Processing.CleanupIntervalMinutes < 1 {
		return fmt.Errorf("CleanupIntervalMinutes must be at least 1, got %d", c.Processing.CleanupIntervalMinutes)
	}
	if c.Server.RateLimitPerSecond < 0 {
		return fmt.Errorf("RateLimitPerSecond must not be negative")
	}
	if c.Server.RateLimitPerSecond > 0 && c.Server.RateLimitBurst < 1 {
		return fmt.Errorf("RateLimitBurst must be at least 1 when rate limiting is enabled, got %d", c.Server.RateLimitBurst)
	}
	if strings.TrimSpace(c.Naming.DefaultStrategy) == "" {
		return errors.New("DefaultStrategy is required")
	}
	return nil
}

// ValidateStrategy checks Naming.DefaultStrategy against the registered strategy names.
func (c *AppConfig) ValidateStrategy(available []string) error {
	want := strings.ToLower(strings.TrimSpace(c.Naming.DefaultStrategy))
	for _, name := range available {
		if name == want {
			return nil
		}
	}
	return fmt.Errorf("unknown DefaultStrategy %q (available: %s)", c.Naming.DefaultStrategy, strings.Join(available, ", "))
}

// GetServerAddr returns the server bind address
func (c *AppConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.BindAddress, c.Server.Port)
}

// GetAllowedRoots splits Security.AllowedRoots into cleaned paths.
func (c *AppConfig) GetAllowedRoots() []string {
	var roots []string
	for _, r := range strings.Split(c.Security.AllowedRoots, ",") {
		if r = strings.TrimSpace(r); r != "" {
			roots = append(roots, filepath.Clean(r))
		}
	}
	return roots
}

// GetAllowOrigins splits Server.AllowOrigins, defaulting to "*".
func (c *AppConfig) GetAllowOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.Server.AllowOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}
