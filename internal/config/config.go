// Package config loads the service configuration from YAML.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the OCR service configuration.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	OCR      OCRConfig      `yaml:"ocr"`
	NER      NERConfig      `yaml:"ner"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
	MaxUploadMB     int `yaml:"max_upload_mb"`
}

// OCRConfig selects and tunes the OCR engine.
type OCRConfig struct {
	Engine        string `yaml:"engine"` // gosseract, cli, none (default: gosseract)
	Language      string `yaml:"language"`
	PageSegMode   int    `yaml:"page_seg_mode"`
	TimeoutSec    int    `yaml:"timeout_sec"`
	TesseractPath string `yaml:"tesseract_path"` // cli engine only
	TessdataDir   string `yaml:"tessdata_dir"`
}

// NERConfig selects the entity-recognition model.
type NERConfig struct {
	Provider   string `yaml:"provider"` // openai, none (default: none)
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	TimeoutSec int    `yaml:"timeout_sec"`
	SkipProbe  bool   `yaml:"skip_probe"`
}

// PipelineConfig tunes the orchestrator.
type PipelineConfig struct {
	BatchWorkers int `yaml:"batch_workers"`
	RawTextLimit int `yaml:"raw_text_limit"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit path.
func LoadFile(configPath string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}
	return Parse(data)
}

// Parse decodes YAML bytes, expands ${VAR} references, applies defaults and validates.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()
	cfg.applyPortOverride()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8000
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 30
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 300
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.HTTP.MaxUploadMB <= 0 {
		c.HTTP.MaxUploadMB = 32
	}
	if c.OCR.Engine == "" {
		c.OCR.Engine = "gosseract"
	}
	if c.OCR.Language == "" {
		c.OCR.Language = "eng"
	}
	if c.OCR.PageSegMode <= 0 {
		c.OCR.PageSegMode = 6
	}
	if c.OCR.TimeoutSec <= 0 {
		c.OCR.TimeoutSec = 60
	}
	if c.OCR.TesseractPath == "" {
		c.OCR.TesseractPath = "tesseract"
	}
	if c.NER.Provider == "" {
		c.NER.Provider = "none"
	}
	if c.NER.Model == "" {
		c.NER.Model = "gpt-4o-mini"
	}
	if c.NER.TimeoutSec <= 0 {
		c.NER.TimeoutSec = 20
	}
	if c.Pipeline.BatchWorkers <= 0 {
		c.Pipeline.BatchWorkers = 4
	}
	if c.Pipeline.RawTextLimit <= 0 {
		c.Pipeline.RawTextLimit = 500
	}
}

// applyPortOverride honours the PORT variable used by container platforms.
func (c *Config) applyPortOverride() {
	if p := os.Getenv("PORT"); p != "" {
		if n, err := strconv.Atoi(p); err == nil {
			c.HTTP.Port = n
		}
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.OCR.Engine {
	case "gosseract", "cli", "none":
	default:
		return fmt.Errorf("ocr.engine must be \"gosseract\", \"cli\" or \"none\", got %q", c.OCR.Engine)
	}
	if c.OCR.PageSegMode > 13 {
		return fmt.Errorf("ocr.page_seg_mode must be between 0 and 13, got %d", c.OCR.PageSegMode)
	}
	switch c.NER.Provider {
	case "openai", "none":
	default:
		return fmt.Errorf("ner.provider must be \"openai\" or \"none\", got %q", c.NER.Provider)
	}
	return nil
}

// OCRTimeout returns the OCR adapter deadline.
func (c *Config) OCRTimeout() time.Duration {
	return time.Duration(c.OCR.TimeoutSec) * time.Second
}

// NERTimeout returns the deadline for a single model call.
func (c *Config) NERTimeout() time.Duration {
	return time.Duration(c.NER.TimeoutSec) * time.Second
}

// MaxUploadBytes returns the multipart memory/size ceiling.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.HTTP.MaxUploadMB) << 20
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// envVarRegex matches ${VAR} and ${VAR:-default}.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1])
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
