// Package server exposes the reader and editorial APIs over HTTP.
package server

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/khabardesk/khabar/internal/admin"
	"github.com/khabardesk/khabar/internal/ai"
	"github.com/khabardesk/khabar/internal/debuglog"
	"github.com/khabardesk/khabar/internal/images"
	"github.com/khabardesk/khabar/internal/search"
	"github.com/khabardesk/khabar/internal/storage"
)

type Server struct {
	echo     *echo.Echo
	store    *storage.Store
	searcher search.Searcher
	admin    *admin.Service
	gateway  *ai.Gateway
	images   *images.Store
	listen   string
}

// Options carries the server's collaborators. Store is required; the rest
// degrade gracefully when nil.
type Options struct {
	Store    *storage.Store
	Searcher search.Searcher
	Admin    *admin.Service
	Gateway  *ai.Gateway
	Images   *images.Store
	Listen   string
}

func New(opts Options) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{echo.GET, echo.POST, echo.OPTIONS},
	}))
	e.Use(middleware.GzipWithConfig(middleware.GzipConfig{Level: 5}))

	s := &Server{
		echo:     e,
		store:    opts.Store,
		searcher: opts.Searcher,
		admin:    opts.Admin,
		gateway:  opts.Gateway,
		images:   opts.Images,
		listen:   opts.Listen,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	v1 := s.echo.Group("/v1")

	v1.GET("/health", s.handleHealth)

	v1.GET("/articles", s.handleListArticles)
	v1.GET("/articles/search", s.handleSearchArticles)
	v1.GET("/articles/:id", s.handleGetArticle)
	v1.POST("/articles/:id/view", s.handleRecordView)
	v1.POST("/articles/:id/like", s.handleLikeArticle)

	v1.GET("/feed", s.handleFeed)
	v1.POST("/submit", s.handleSubmit)

	v1.POST("/admin/verify", s.handleAdminVerify)
	v1.POST("/admin/articles", s.handleAdminArticles)
	v1.POST("/admin/analytics", s.handleAdminAnalytics)

	v1.POST("/ai/generate", s.handleGenerate)
	v1.POST("/ai/moderate", s.handleModerate)

	if s.images != nil {
		v1.POST("/images", s.handleUploadImage)
		s.echo.Static("/images", s.images.Dir())
	}
}

// Handler exposes the routing tree for tests.
func (s *Server) Handler() *echo.Echo { return s.echo }

func (s *Server) Start() error {
	debuglog.Infof("http server listening on %s", s.listen)
	return s.echo.Start(s.listen)
}

func (s *Server) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.echo.Shutdown(shutdownCtx)
}

// notifySaved keeps an index-backed searcher in sync after writes.
func (s *Server) notifySaved(article *storage.Article) {
	if listener, ok := s.searcher.(search.UpdateListener); ok {
		listener.OnArticleSaved(article)
	}
}

func (s *Server) notifyDeleted(id string) {
	if listener, ok := s.searcher.(search.DeleteListener); ok {
		listener.OnArticleDeleted(id)
	}
}
