// Package config provides XML-based configuration management for air-gapped deployment.
package config

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/labstack/gommon/bytes"

	"github.com/structdraw/backend/internal/models"
	"github.com/structdraw/backend/internal/viewport"
)

// FileName is the configuration file created next to the executable.
const FileName = "StructDrawAnalyzer.config"

// AppConfig represents the root XML configuration structure
type AppConfig struct {
	XMLName xml.Name `xml:"StructDrawAnalyzer"`

	// Server configuration
	Server ServerConfig `xml:"Server"`

	// Storage configuration
	Storage StorageConfig `xml:"Storage"`

	// Element detection
	Analysis AnalysisConfig `xml:"Analysis"`

	// Drawing viewer limits
	Viewport ViewportConfig `xml:"Viewport"`

	// Bill of materials
	Ledger LedgerConfig `xml:"Ledger"`

	// Export defaults
	Export ExportConfig `xml:"Export"`

	// Workspace sessions
	Sessions SessionsConfig `xml:"Sessions"`

	// Advanced options
	Advanced AdvancedConfig `xml:"Advanced"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port         int    `xml:"Port"`
	BindAddress  string `xml:"BindAddress"`
	EnableCORS   bool   `xml:"EnableCORS"`
	AllowOrigins string `xml:"AllowOrigins"`
	ReadTimeout  int    `xml:"ReadTimeoutSeconds"`
	WriteTimeout int    `xml:"WriteTimeoutSeconds"`
	IdleTimeout  int    `xml:"IdleTimeoutSeconds"`
	BodyLimit    string `xml:"BodyLimit"`
}

// StorageConfig contains file storage settings
type StorageConfig struct {
	DataDirectory    string `xml:"DataDirectory"`
	UploadsDirectory string `xml:"UploadsDirectory"`
	HistoryDirectory string `xml:"HistoryDirectory"`
	MaxUploadSize    string `xml:"MaxUploadSize"`
	EnableHistory    bool   `xml:"EnableHistory"`
}

// AnalysisConfig controls the element detector
type AnalysisConfig struct {
	DelayMilliseconds int    `xml:"DelayMilliseconds"`
	FixturePath       string `xml:"FixturePath"` // Empty uses the built-in demo content
}

// ViewportConfig bounds zoom
type ViewportConfig struct {
	MinZoom  float64 `xml:"MinZoom"`
	MaxZoom  float64 `xml:"MaxZoom"`
	ZoomStep float64 `xml:"ZoomStep"`
}

// LedgerConfig contains bill of materials settings
type LedgerConfig struct {
	WeightFormula string `xml:"WeightFormula"` // unit or extended
}

// ExportConfig contains export panel defaults
type ExportConfig struct {
	DefaultFileName string `xml:"DefaultFileName"`
	DefaultFormat   string `xml:"DefaultFormat"`
	CompressPDF     bool   `xml:"CompressPDF"`
}

// SessionsConfig contains workspace lifetime settings
type SessionsConfig struct {
	MaxSessions            int `xml:"MaxSessions"`
	SessionTimeoutMinutes  int `xml:"SessionTimeoutMinutes"`
	CleanupIntervalMinutes int `xml:"CleanupIntervalMinutes"`
}

// AdvancedConfig contains advanced/tuning options
type AdvancedConfig struct {
	EnableRequestLogging    bool `xml:"EnableRequestLogging"`
	EnableCompression       bool `xml:"EnableCompression"`
	CompressionLevel        int  `xml:"CompressionLevel"`
	WebSocketMaxMessageSize int  `xml:"WebSocketMaxMessageSizeKB"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:         8089,
			BindAddress:  "0.0.0.0",
			EnableCORS:   true,
			AllowOrigins: "*",
			ReadTimeout:  30,
			WriteTimeout: 60,
			IdleTimeout:  120,
			BodyLimit:    "64M",
		},
		Storage: StorageConfig{
			DataDirectory:    "./data",
			UploadsDirectory: "./data/uploads",
			HistoryDirectory: "./data/history",
			MaxUploadSize:    "50M",
			EnableHistory:    true,
		},
		Analysis: AnalysisConfig{
			DelayMilliseconds: 2000,
		},
		Viewport: ViewportConfig{
			MinZoom:  0.5,
			MaxZoom:  3.0,
			ZoomStep: 0.1,
		},
		Ledger: LedgerConfig{
			WeightFormula: "unit",
		},
		Export: ExportConfig{
			DefaultFileName: "structural_analysis",
			DefaultFormat:   "excel",
			CompressPDF:     true,
		},
		Sessions: SessionsConfig{
			MaxSessions:            10,
			SessionTimeoutMinutes:  30,
			CleanupIntervalMinutes: 5,
		},
		Advanced: AdvancedConfig{
			EnableRequestLogging:    true,
			EnableCompression:       true,
			CompressionLevel:        5,
			WebSocketMaxMessageSize: 64,
		},
	}
}

// LoadConfig loads configuration from XML file
func LoadConfig(configPath string) (*AppConfig, error) {
	// If file doesn't exist, create default
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		config := DefaultConfig()
		if err := config.Save(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
		config.applyEnvironmentOverrides()
		config.resolvePaths(filepath.Dir(configPath))
		return config, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := xml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Apply environment variable overrides
	config.applyEnvironmentOverrides()

	// Resolve relative paths
	config.resolvePaths(filepath.Dir(configPath))

	return config, nil
}

// Save saves the configuration to XML file
func (c *AppConfig) Save(configPath string) error {
	output, err := xml.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(xml.Header + "\n<!-- Structural Drawing Analyzer Configuration -->\n<!-- This file is auto-generated on first run -->\n\n")
	content := append(header, output...)

	if err := os.WriteFile(configPath, content, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate rejects settings the server cannot start with.
func (c *AppConfig) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid Server/Port: %d", c.Server.Port)
	}
	if _, err := bytes.Parse(c.Storage.MaxUploadSize); err != nil {
		return fmt.Errorf("invalid Storage/MaxUploadSize %q: %w", c.Storage.MaxUploadSize, err)
	}
	if c.Viewport.MinZoom <= 0 || c.Viewport.MaxZoom < c.Viewport.MinZoom {
		return fmt.Errorf("invalid Viewport zoom range [%v, %v]", c.Viewport.MinZoom, c.Viewport.MaxZoom)
	}
	if c.Analysis.DelayMilliseconds < 0 {
		return fmt.Errorf("invalid Analysis/DelayMilliseconds: %d", c.Analysis.DelayMilliseconds)
	}
	return nil
}

// applyEnvironmentOverrides allows environment variables to override config values
func (c *AppConfig) applyEnvironmentOverrides() {
	// PORT override
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}

	// DATA_DIR moves every storage directory under the new root
	if dataDir := os.Getenv("DATA_DIR"); dataDir != "" {
		c.Storage.DataDirectory = dataDir
		c.Storage.UploadsDirectory = filepath.Join(dataDir, "uploads")
		c.Storage.HistoryDirectory = filepath.Join(dataDir, "history")
	}

	if delay := os.Getenv("ANALYSIS_DELAY_MS"); delay != "" {
		if d, err := strconv.Atoi(delay); err == nil && d >= 0 {
			c.Analysis.DelayMilliseconds = d
		}
	}
}

// resolvePaths converts relative paths to absolute based on config file location
func (c *AppConfig) resolvePaths(configDir string) {
	resolve := func(p *string) {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(configDir, *p)
		}
	}
	resolve(&c.Storage.DataDirectory)
	resolve(&c.Storage.UploadsDirectory)
	resolve(&c.Storage.HistoryDirectory)
	resolve(&c.Analysis.FixturePath)
}

// GetDataDir returns the absolute data directory path
func (c *AppConfig) GetDataDir() string {
	return c.Storage.DataDirectory
}

// GetUploadDir returns the absolute uploads directory path
func (c *AppConfig) GetUploadDir() string {
	return c.Storage.UploadsDirectory
}

// GetHistoryDir returns the absolute export history directory path
func (c *AppConfig) GetHistoryDir() string {
	return c.Storage.HistoryDirectory
}

// GetServerAddr returns the server bind address
func (c *AppConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.BindAddress, c.Server.Port)
}

// MaxUploadBytes returns the upload size limit in bytes. 0 means unlimited.
func (c *AppConfig) MaxUploadBytes() int64 {
	n, err := bytes.Parse(c.Storage.MaxUploadSize)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// AnalysisDelay returns the simulated detection delay.
func (c *AppConfig) AnalysisDelay() time.Duration {
	return time.Duration(c.Analysis.DelayMilliseconds) * time.Millisecond
}

// ViewportLimits returns the configured zoom bounds.
func (c *AppConfig) ViewportLimits() viewport.Limits {
	return viewport.Limits{
		MinZoom: c.Viewport.MinZoom,
		MaxZoom: c.Viewport.MaxZoom,
		Step:    c.Viewport.ZoomStep,
	}
}

// ExportDefaults returns the initial export panel state. Every include flag
// starts enabled.
func (c *AppConfig) ExportDefaults() models.ExportConfig {
	defaults := models.DefaultExportConfig()
	if c.Export.DefaultFileName != "" {
		defaults.FileName = c.Export.DefaultFileName
	}
	if c.Export.DefaultFormat != "" {
		defaults.Format = models.ExportFormat(c.Export.DefaultFormat)
	}
	return defaults
}

// EnsureDirectories creates all necessary directories
func (c *AppConfig) EnsureDirectories() error {
	dirs := []string{
		c.Storage.DataDirectory,
		c.Storage.UploadsDirectory,
	}
	if c.Storage.EnableHistory {
		dirs = append(dirs, c.Storage.HistoryDirectory)
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}
