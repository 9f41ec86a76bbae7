package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Server   ServerConfig   `mapstructure:"server"`
	AI       AIConfig       `mapstructure:"ai"`
	Admin    AdminConfig    `mapstructure:"admin"`
	Ingest   IngestConfig   `mapstructure:"ingest"`
	UI       UIConfig       `mapstructure:"ui"`
	Keys     KeyConfig      `mapstructure:"keys"`
	Log      LogConfig      `mapstructure:"log"`
}

type DatabaseConfig struct {
	Path        string        `mapstructure:"path"`
	Timeout     time.Duration `mapstructure:"timeout"`
	SearchIndex string        `mapstructure:"search_index"`
}

type ServerConfig struct {
	Listen    string `mapstructure:"listen"`
	BaseURL   string `mapstructure:"base_url"`
	UploadDir string `mapstructure:"upload_dir"`
}

type AIConfig struct {
	Endpoint string        `mapstructure:"endpoint"`
	Model    string        `mapstructure:"model"`
	APIKey   string        `mapstructure:"api_key"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type AdminConfig struct {
	Password string `mapstructure:"password"`
}

type IngestConfig struct {
	HTTPTimeout time.Duration `mapstructure:"http_timeout"`
	UserAgent   string        `mapstructure:"user_agent"`
}

type UIConfig struct {
	Colors  UIColors      `mapstructure:"colors"`
	Article ArticleConfig `mapstructure:"article"`
}

type UIColors struct {
	Primary   string `mapstructure:"primary"`
	Secondary string `mapstructure:"secondary"`
	Accent    string `mapstructure:"accent"`
	Text      string `mapstructure:"text"`
	Muted     string `mapstructure:"muted"`
	Error     string `mapstructure:"error"`
	Success   string `mapstructure:"success"`
	Breaking  string `mapstructure:"breaking"`
}

type ArticleConfig struct {
	MaxExcerptLength int `mapstructure:"max_excerpt_length"`
	WordWrapMaxWidth int `mapstructure:"word_wrap_max_width"`
	WordWrapMinWidth int `mapstructure:"word_wrap_min_width"`
}

type KeyConfig struct {
	Bindings KeyBindings `mapstructure:"bindings"`
}

type KeyBindings struct {
	Quit       string `mapstructure:"quit"`
	Search     string `mapstructure:"search"`
	Bookmark   string `mapstructure:"bookmark"`
	Back       string `mapstructure:"back"`
	NextTab    string `mapstructure:"next_tab"`
	PrevTab    string `mapstructure:"prev_tab"`
	Category   string `mapstructure:"category"`
	OpenImage  string `mapstructure:"open_image"`
	LikeClosed string `mapstructure:"like"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

func defaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()
	dataDir := filepath.Join(homeDir, ".khabar")

	return &Config{
		Database: DatabaseConfig{
			Path:        filepath.Join(dataDir, "khabar.db"),
			Timeout:     1 * time.Second,
			SearchIndex: filepath.Join(dataDir, "index.bleve"),
		},
		Server: ServerConfig{
			Listen:    ":8380",
			BaseURL:   "http://localhost:8380",
			UploadDir: filepath.Join(dataDir, "images"),
		},
		AI: AIConfig{
			Endpoint: "https://ai.gateway.lovable.dev/v1/chat/completions",
			Model:    "google/gemini-3-flash-preview",
			Timeout:  30 * time.Second,
		},
		Admin: AdminConfig{
			Password: "",
		},
		Ingest: IngestConfig{
			HTTPTimeout: 30 * time.Second,
			UserAgent:   "khabar/1.0 (news reader; github.com/khabardesk/khabar)",
		},
		UI: UIConfig{
			Colors: UIColors{
				Primary:   "#FF6B6B",
				Secondary: "#4ECDC4",
				Accent:    "#95E1D3",
				Text:      "#EAEAEA",
				Muted:     "#94A3B8",
				Error:     "#F87171",
				Success:   "#4ADE80",
				Breaking:  "#EF4444",
			},
			Article: ArticleConfig{
				MaxExcerptLength: 150,
				WordWrapMaxWidth: 120,
				WordWrapMinWidth: 40,
			},
		},
		Keys: KeyConfig{
			Bindings: KeyBindings{
				Quit:       "q",
				Search:     "/",
				Bookmark:   "b",
				Back:       "esc",
				NextTab:    "tab",
				PrevTab:    "shift+tab",
				Category:   "c",
				OpenImage:  "o",
				LikeClosed: "l",
			},
		},
		Log: LogConfig{
			Level: "off",
			File:  "",
		},
	}
}

func Load(configPath string) (*Config, error) {
	v := viper.New()

	cfg := defaultConfig()
	v.SetDefault("database", cfg.Database)
	v.SetDefault("server", cfg.Server)
	v.SetDefault("ai", cfg.AI)
	v.SetDefault("admin", cfg.Admin)
	v.SetDefault("ingest", cfg.Ingest)
	v.SetDefault("ui", cfg.UI)
	v.SetDefault("keys", cfg.Keys)
	v.SetDefault("log", cfg.Log)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		homeDir, _ := os.UserHomeDir()
		configDir := filepath.Join(homeDir, ".config", "khabar")

		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(configDir)
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("KHABAR")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	expandPaths(&config)

	return &config, nil
}

// expandPath expands ~ to home directory and converts to absolute path
func expandPath(path string) string {
	if path == "" {
		return path
	}

	if len(path) >= 2 && path[:2] == "~/" {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path[2:])
	}

	if !filepath.IsAbs(path) {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
	}

	return path
}

func expandPaths(cfg *Config) {
	cfg.Database.Path = expandPath(cfg.Database.Path)
	cfg.Database.SearchIndex = expandPath(cfg.Database.SearchIndex)
	cfg.Server.UploadDir = expandPath(cfg.Server.UploadDir)
	if cfg.Log.File != "" {
		cfg.Log.File = expandPath(cfg.Log.File)
	}
}

func Save(config *Config, path string) error {
	v := viper.New()

	// Durations become strings so the TOML stays readable.
	dbCfg := map[string]interface{}{
		"path":         config.Database.Path,
		"timeout":      config.Database.Timeout.String(),
		"search_index": config.Database.SearchIndex,
	}

	aiCfg := map[string]interface{}{
		"endpoint": config.AI.Endpoint,
		"model":    config.AI.Model,
		"api_key":  config.AI.APIKey,
		"timeout":  config.AI.Timeout.String(),
	}

	ingestCfg := map[string]interface{}{
		"http_timeout": config.Ingest.HTTPTimeout.String(),
		"user_agent":   config.Ingest.UserAgent,
	}

	v.Set("database", dbCfg)
	v.Set("server", config.Server)
	v.Set("ai", aiCfg)
	v.Set("admin", config.Admin)
	v.Set("ingest", ingestCfg)
	v.Set("ui", config.UI)
	v.Set("keys", config.Keys)
	v.Set("log", config.Log)

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	return v.WriteConfigAs(path)
}

func GenerateDefaultConfig(path string) error {
	return Save(defaultConfig(), path)
}
