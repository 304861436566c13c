package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// SupabaseKeyEnv names the environment variable holding the data platform key. Keys are never read from the
// config file.
const SupabaseKeyEnv = "GRIDSIM_SUPABASE_KEY"

const (
	defaultArchivePath        = "gridsim.sqlite"
	defaultUploadIntervalSecs = 60
	defaultTickIntervalMillis = 1000
	defaultScadaAddr          = "localhost:1502"
	defaultScadaMaxClients    = 5
)

type SupabaseConfig struct {
	Url string `json:"url" yaml:"url"`
	// key is specified via env var
	Schema string `json:"schema" yaml:"schema"`
}

type DataPlatformConfig struct {
	ArchivePath        string         `json:"archivePath" yaml:"archivePath"`
	UploadIntervalSecs int            `json:"uploadIntervalSecs" yaml:"uploadIntervalSecs"`
	Supabase           SupabaseConfig `json:"supabase" yaml:"supabase"`
}

type ScadaConfig struct {
	ListenAddr string `json:"listenAddr" yaml:"listenAddr"`
	MaxClients uint   `json:"maxClients" yaml:"maxClients"`
}

type ServeConfig struct {
	TickIntervalMillis int  `json:"tickIntervalMillis" yaml:"tickIntervalMillis"`
	Archive            bool `json:"archive" yaml:"archive"` // archive the run when it completes
}

type Config struct {
	LogLevel     string             `json:"logLevel" yaml:"logLevel"`
	DataPlatform DataPlatformConfig `json:"dataPlatform" yaml:"dataPlatform"`
	Scada        ScadaConfig        `json:"scada" yaml:"scada"`
	Serve        ServeConfig        `json:"serve" yaml:"serve"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	var c Config
	c.applyDefaults()
	return c
}

// Read loads configuration from a JSON or YAML file, chosen by extension. Unset fields take their defaults.
func Read(path string) (Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	var config Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(content, &config)
	default:
		err = json.Unmarshal(content, &config)
	}
	if err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	config.applyDefaults()
	return config, nil
}

func (c *Config) applyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.DataPlatform.ArchivePath == "" {
		c.DataPlatform.ArchivePath = defaultArchivePath
	}
	if c.DataPlatform.UploadIntervalSecs <= 0 {
		c.DataPlatform.UploadIntervalSecs = defaultUploadIntervalSecs
	}
	if c.Scada.ListenAddr == "" {
		c.Scada.ListenAddr = defaultScadaAddr
	}
	if c.Scada.MaxClients == 0 {
		c.Scada.MaxClients = defaultScadaMaxClients
	}
	if c.Serve.TickIntervalMillis <= 0 {
		c.Serve.TickIntervalMillis = defaultTickIntervalMillis
	}
}

func (c Config) UploadInterval() time.Duration {
	return time.Duration(c.DataPlatform.UploadIntervalSecs) * time.Second
}

func (c Config) TickInterval() time.Duration {
	return time.Duration(c.Serve.TickIntervalMillis) * time.Millisecond
}

// SupabaseKey returns the data platform key from the environment, or an empty string if it is not set.
func SupabaseKey() string {
	return os.Getenv(SupabaseKeyEnv)
}
