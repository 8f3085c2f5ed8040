package server

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"

	"writegeist/pkg/diff"
	"writegeist/pkg/markdown"
	"writegeist/pkg/store"
	"writegeist/pkg/utils"
)

// GET /project/doc
func (s *Server) handleGetDoc(c echo.Context) error {
	doc, err := s.loadDocument()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, utils.ErrJSON(err.Error()))
	}
	return c.JSON(http.StatusOK, map[string]string{"markdown": s.Engine.Document(doc)})
}

// GET /project/sections/:name
//
// An absent section is a normal read, answered with an empty body.
func (s *Server) handleGetSection(c echo.Context) error {
	name := c.Param("name")
	if decoded, err := url.PathUnescape(name); err == nil {
		name = decoded
	}
	if strings.TrimSpace(name) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "section name is required")
	}

	doc, err := s.loadDocument()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, utils.ErrJSON(err.Error()))
	}
	return c.JSON(http.StatusOK, map[string]string{
		"section":  name,
		"markdown": s.Engine.Section(doc, name),
	})
}

type patchReq struct {
	Section  string `json:"section"`
	Label    string `json:"label"`
	Markdown string `json:"markdown"`
}

// POST /project/patch
func (s *Server) handlePostPatch(c echo.Context) error {
	var req patchReq
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid json")
	}
	if strings.TrimSpace(req.Section) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "section is required")
	}

	doc, err := s.loadDocument()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, utils.ErrJSON(err.Error()))
	}

	updated := s.Engine.ApplyExternalPatch(doc, req.Section, req.Markdown)
	if err := s.Store.PutDocument(store.DocKey, updated); err != nil {
		return c.JSON(http.StatusInternalServerError, utils.ErrJSON(err.Error()))
	}

	rec := s.recordPatch(req.Section, req.Label, doc, updated)
	return c.JSON(http.StatusOK, map[string]any{
		"markdown": updated,
		"patch_id": rec.ID,
	})
}

type syncReq struct {
	Label    string `json:"label"`
	Markdown string `json:"markdown"`
}

// POST /project/sync
func (s *Server) handlePostSync(c echo.Context) error {
	var req syncReq
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid json")
	}

	doc, err := s.loadDocument()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, utils.ErrJSON(err.Error()))
	}

	updated := s.Engine.ApplyExternalPatch(doc, markdown.FullDocumentSync, req.Markdown)
	if err := s.Store.PutDocument(store.DocKey, updated); err != nil {
		return c.JSON(http.StatusInternalServerError, utils.ErrJSON(err.Error()))
	}

	rec := s.recordPatch(markdown.FullDocumentSync, req.Label, doc, updated)
	return c.JSON(http.StatusOK, map[string]any{
		"markdown": updated,
		"patch_id": rec.ID,
	})
}

// POST /project/normalize
func (s *Server) handlePostNormalize(c echo.Context) error {
	doc, err := s.loadDocument()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, utils.ErrJSON(err.Error()))
	}

	normalized := s.Engine.Document(doc)
	changed := normalized != doc
	if changed {
		if err := s.Store.PutDocument(store.DocKey, normalized); err != nil {
			return c.JSON(http.StatusInternalServerError, utils.ErrJSON(err.Error()))
		}
	}
	return c.JSON(http.StatusOK, map[string]any{
		"markdown": normalized,
		"changed":  changed,
	})
}

// recordPatch writes the patch-history artifact. History is diagnostic; a
// persistence failure is logged and never fails the request.
func (s *Server) recordPatch(section, label, before, after string) diff.Record {
	if s.History == nil {
		return diff.Record{}
	}
	oldBody, newBody := before, after
	if section != markdown.FullDocumentSync {
		oldBody = s.Engine.Section(before, section)
		newBody = s.Engine.Section(after, section)
	}
	rec, err := s.History.Record(section, label, oldBody, newBody)
	if err != nil {
		log.Warn("recording patch history failed", "section", section, "error", err)
	}
	stats := diff.DeltaStats(rec)
	log.Info("patch applied", "section", section, "inserted", stats.Inserted, "deleted", stats.Deleted)

	var rendered strings.Builder
	diff.Render(&rendered, rec)
	log.Debug("patch diff", "section", section, "diff", strings.TrimSuffix(rendered.String(), "\n"))
	return rec
}
