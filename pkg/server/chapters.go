package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"

	"writegeist/pkg/store"
	"writegeist/pkg/utils"
)

type ingestReq struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}

// POST /ingest_chapter
func (s *Server) handlePostIngestChapter(c echo.Context) error {
	if s.Pipeline == nil {
		return echo.NewHTTPError(http.StatusNotImplemented, "no inference backend configured")
	}

	var req ingestReq
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid json")
	}
	if strings.TrimSpace(req.Text) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "text is required")
	}
	if strings.TrimSpace(req.Title) == "" {
		req.Title = "Untitled"
	}

	result := s.Pipeline.Run(c.Request().Context(), req.Title, req.Text)

	if err := s.Store.InsertChapter(store.Chapter{
		ID:         result.ID,
		Title:      result.Title,
		Text:       result.Text,
		Characters: result.Characters,
		Locations:  result.Locations,
		POV:        result.POV,
		Metadata:   result.Metadata,
	}); err != nil {
		return c.JSON(http.StatusInternalServerError, utils.ErrJSON(err.Error()))
	}

	// Ingestion feeds the project document: characters the writer has not
	// listed yet get appended to the Characters section.
	if err := s.appendNewCharacters(req.Title, result.Characters); err != nil {
		log.Warn("appending characters to project document failed", "chapter", req.Title, "error", err)
	}

	return c.JSON(http.StatusOK, result)
}

func (s *Server) appendNewCharacters(chapterTitle string, characters []string) error {
	if len(characters) == 0 {
		return nil
	}
	doc, err := s.loadDocument()
	if err != nil {
		return err
	}

	body := s.Engine.Section(doc, "Characters")
	seen := map[string]struct{}{}
	for _, line := range strings.Split(body, "\n") {
		name := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "*"))
		if name != "" {
			seen[strings.ToLower(name)] = struct{}{}
		}
	}

	newBody := body
	var added int
	for _, name := range characters {
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		if newBody != "" {
			newBody += "\n"
		}
		newBody += "* " + strings.TrimSpace(name)
		added++
	}
	if added == 0 {
		return nil
	}

	updated := s.Engine.ApplyExternalPatch(doc, "Characters", newBody)
	if err := s.Store.PutDocument(store.DocKey, updated); err != nil {
		return err
	}
	s.recordPatch("Characters", "chapter ingest: "+chapterTitle, doc, updated)
	return nil
}

// GET /chapters
func (s *Server) handleGetChapters(c echo.Context) error {
	chapters, err := s.Store.ListChapters()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, utils.ErrJSON(err.Error()))
	}
	if chapters == nil {
		chapters = []store.Chapter{}
	}
	return c.JSON(http.StatusOK, map[string]any{"chapters": chapters})
}

// GET /chapters/:id
func (s *Server) handleGetChapter(c echo.Context) error {
	ch, err := s.Store.GetChapter(c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "chapter not found")
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, utils.ErrJSON(err.Error()))
	}
	return c.JSON(http.StatusOK, ch)
}
