// Package server exposes the Writegeist backend over HTTP: the project
// document patch surface, chapter ingestion, story search, and chapter audio.
package server

import (
	"context"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"writegeist/pkg/diff"
	"writegeist/pkg/inference"
	"writegeist/pkg/ingest"
	"writegeist/pkg/markdown"
	"writegeist/pkg/search"
	"writegeist/pkg/store"
	"writegeist/pkg/tts"
)

type Server struct {
	Echo       *echo.Echo
	Engine     *markdown.Engine
	Store      *store.Store
	Inferencer inference.Inferencer
	Pipeline   *ingest.Pipeline
	Search     *search.Service
	Queue      *tts.Queue
	History    *diff.History
	Ctx        context.Context
}

// Config carries the wired collaborators. Inferencer and Queue may be nil
// when no inference backend is configured; the endpoints that need them
// answer 501.
type Config struct {
	Inferencer inference.Inferencer
	Store      *store.Store
	Queue      *tts.Queue
	History    *diff.History
}

func NewServer(ctx context.Context, cfg Config) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Logger())
	e.Use(middleware.CORS())

	s := &Server{
		Echo:       e,
		Engine:     markdown.NewEngine(),
		Store:      cfg.Store,
		Inferencer: cfg.Inferencer,
		Search:     search.New(cfg.Store, cfg.Inferencer),
		Queue:      cfg.Queue,
		History:    cfg.History,
		Ctx:        ctx,
	}
	if cfg.Inferencer != nil {
		s.Pipeline = ingest.New(cfg.Inferencer)
	}

	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.Echo.GET("/", s.handleGetRoot)
	s.Echo.POST("/echo", s.handlePostEcho)
	s.Echo.POST("/ask", s.handlePostAsk)

	s.Echo.POST("/ingest_chapter", s.handlePostIngestChapter)
	s.Echo.GET("/chapters", s.handleGetChapters)
	s.Echo.GET("/chapters/:id", s.handleGetChapter)

	s.Echo.POST("/chapters/:id/audio", s.handlePostChapterAudio)
	s.Echo.GET("/audio/:id", s.handleGetAudioJob)
	s.Echo.GET("/audio/:id/file", s.handleGetAudioFile)

	project := s.Echo.Group("/project")
	project.GET("/doc", s.handleGetDoc)
	project.GET("/sections/:name", s.handleGetSection)
	project.POST("/patch", s.handlePostPatch)
	project.POST("/sync", s.handlePostSync)
	project.POST("/normalize", s.handlePostNormalize)
}

func (s *Server) Start(addr string) error {
	return s.Echo.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.Echo.Shutdown(ctx)
}

// loadDocument fetches the project document, seeding the default skeleton on
// first access so every caller sees a well-formed document.
func (s *Server) loadDocument() (string, error) {
	doc, ok, err := s.Store.GetDocument(store.DocKey)
	if err != nil {
		return "", err
	}
	if !ok {
		doc = markdown.DefaultSkeleton()
		if err := s.Store.PutDocument(store.DocKey, doc); err != nil {
			return "", err
		}
	}
	return doc, nil
}
