package main

import (
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/khabardesk/khabar/internal/config"
	"github.com/khabardesk/khabar/internal/debuglog"
	"github.com/khabardesk/khabar/internal/search"
	"github.com/khabardesk/khabar/internal/storage"
	"github.com/khabardesk/khabar/internal/tui"
)

// Version is set at build time via -ldflags.
var Version = "dev"

var (
	configPath string
	dbPath     string
	quiet      bool
)

var rootCmd = &cobra.Command{
	Use:   "khabar",
	Short: "Bilingual news desk in your terminal",
	Long:  "khabar publishes and reads bilingual (English/Hindi) news: a terminal reader, an HTTP API, RSS import and AI-assisted editing.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		if !quiet {
			tui.ShowBanner(Version)
		}

		store, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		app := tui.NewApp(store, newSearcher(store, cfg), cfg)
		p := tea.NewProgram(app, tea.WithAltScreen())
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("running reader: %w", err)
		}
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("khabar %s\n", Version)
		fmt.Println("bilingual news desk")
		fmt.Println("github.com/khabardesk/khabar")
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configGenCmd = &cobra.Command{
	Use:   "generate",
	Short: "Write the default config file",
	Run: func(cmd *cobra.Command, args []string) {
		home, _ := os.UserHomeDir()
		configFile := filepath.Join(home, ".config", "khabar", "config.toml")

		if err := config.GenerateDefaultConfig(configFile); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to generate config: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Generated default configuration at: %s\n", configFile)
	},
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if dbPath != "" {
		cfg.Database.Path = dbPath
	}

	level := debuglog.ParseLogLevel(cfg.Log.Level)
	if cfg.Log.File != "" {
		_ = debuglog.Setup(level, cfg.Log.File)
	} else {
		_ = debuglog.Setup(level)
	}

	return cfg, nil
}

func openStore(cfg *config.Config) (*storage.Store, error) {
	store, err := storage.NewStore(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("opening database %s: %w", cfg.Database.Path, err)
	}
	return store, nil
}

// newSearcher prefers the on-disk index and falls back to the in-memory
// scorer when the index cannot be opened.
func newSearcher(store *storage.Store, cfg *config.Config) search.Searcher {
	if cfg.Database.SearchIndex != "" {
		engine, err := search.NewBleveEngine(store, cfg.Database.SearchIndex)
		if err == nil {
			return engine
		}
		debuglog.Warnf("search index unavailable, falling back to scan search: %v", err)
	}
	return search.NewEngine(store)
}

func main() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to configuration file")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "path to database file (overrides config)")
	rootCmd.Flags().BoolVar(&quiet, "quiet", false, "skip startup banner")

	configCmd.AddCommand(configGenCmd)
	rootCmd.AddCommand(versionCmd, configCmd, serveCmd, importCmd, seedCmd, generateCmd, moderateCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
