package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/khabardesk/khabar/internal/admin"
	"github.com/khabardesk/khabar/internal/ai"
	"github.com/khabardesk/khabar/internal/config"
	"github.com/khabardesk/khabar/internal/debuglog"
	"github.com/khabardesk/khabar/internal/images"
	"github.com/khabardesk/khabar/internal/ingest"
	"github.com/khabardesk/khabar/internal/server"
	"github.com/khabardesk/khabar/internal/storage"
)

var (
	importCategory string
	importLanguage string

	generateCategory string
	generateLanguage string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		store, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		imageStore, err := images.NewStore(cfg.Server.UploadDir, cfg.Server.BaseURL)
		if err != nil {
			return fmt.Errorf("preparing upload directory: %w", err)
		}

		srv := server.New(server.Options{
			Store:    store,
			Searcher: newSearcher(store, cfg),
			Admin:    admin.NewService(store, cfg.Admin.Password),
			Gateway:  newGateway(cfg),
			Images:   imageStore,
			Listen:   cfg.Server.Listen,
		})

		errCh := make(chan error, 1)
		go func() { errCh <- srv.Start() }()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-errCh:
			return err
		case sig := <-sigCh:
			debuglog.Infof("received %v, shutting down", sig)
			return srv.Shutdown(context.Background())
		}
	},
}

var importCmd = &cobra.Command{
	Use:   "import <feed-url>",
	Short: "Import an RSS feed as moderation-pending drafts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		store, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		importer := ingest.NewImporter(ingest.Options{
			Timeout:   cfg.Ingest.HTTPTimeout,
			UserAgent: cfg.Ingest.UserAgent,
		})

		drafts, err := importer.Import(cmd.Context(), args[0],
			storage.Category(importCategory), storage.Language(importLanguage))
		if err != nil {
			return err
		}

		if err := store.SaveArticles(drafts); err != nil {
			return fmt.Errorf("saving drafts: %w", err)
		}

		fmt.Printf("Imported %d drafts from %s (pending moderation)\n", len(drafts), args[0])
		return nil
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed [file.toml]",
	Short: "Load sample or file-defined articles",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		store, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		var articles []*storage.Article
		if len(args) == 1 {
			articles, err = storage.LoadSeedFile(args[0])
			if err != nil {
				return err
			}
		} else {
			articles = storage.SampleArticles()
		}

		if err := store.SaveArticles(articles); err != nil {
			return fmt.Errorf("saving articles: %w", err)
		}

		fmt.Printf("Seeded %d articles\n", len(articles))
		return nil
	},
}

var generateCmd = &cobra.Command{
	Use:   "generate <topic>",
	Short: "Generate and publish an article with the AI gateway",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		store, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		topic := args[0]
		for _, extra := range args[1:] {
			topic += " " + extra
		}

		article, err := newGateway(cfg).GenerateArticle(cmd.Context(), topic,
			storage.Category(generateCategory), storage.Language(generateLanguage))
		if err != nil {
			return err
		}

		if err := store.SaveArticle(article); err != nil {
			return fmt.Errorf("saving article: %w", err)
		}

		fmt.Printf("Published %s: %s\n", article.ID, article.Title)
		return nil
	},
}

var moderateCmd = &cobra.Command{
	Use:   "moderate",
	Short: "Run AI moderation over pending submissions",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.Admin.Password == "" {
			return fmt.Errorf("admin password not configured; set [admin] password or KHABAR_ADMIN_PASSWORD")
		}

		store, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		svc := admin.NewService(store, cfg.Admin.Password)
		outcomes, err := svc.ModeratePending(cmd.Context(), cfg.Admin.Password, newGateway(cfg))
		if err != nil {
			return err
		}

		if len(outcomes) == 0 {
			fmt.Println("Nothing pending")
			return nil
		}
		for _, o := range outcomes {
			verdict := "rejected"
			if o.Approved {
				verdict = "approved"
			}
			fmt.Printf("%s %s (%s): %s\n", verdict, o.ArticleID, o.Title, o.Reason)
		}
		return nil
	},
}

func newGateway(cfg *config.Config) *ai.Gateway {
	return ai.NewGateway(ai.Config{
		Endpoint: cfg.AI.Endpoint,
		Model:    cfg.AI.Model,
		APIKey:   cfg.AI.APIKey,
		Timeout:  cfg.AI.Timeout,
	})
}

func init() {
	importCmd.Flags().StringVar(&importCategory, "category", string(storage.CategoryInternational), "category for imported drafts")
	importCmd.Flags().StringVar(&importLanguage, "language", string(storage.LanguageEnglish), "language tag for imported drafts")

	generateCmd.Flags().StringVar(&generateCategory, "category", string(storage.CategoryTechnology), "category for the generated article")
	generateCmd.Flags().StringVar(&generateLanguage, "language", string(storage.LanguageEnglish), "language for the generated article")
}
