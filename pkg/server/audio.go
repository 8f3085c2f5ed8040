package server

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"writegeist/pkg/store"
	"writegeist/pkg/tts"
	"writegeist/pkg/utils"
)

// POST /chapters/:id/audio
func (s *Server) handlePostChapterAudio(c echo.Context) error {
	if s.Queue == nil {
		return echo.NewHTTPError(http.StatusNotImplemented, "no speech backend configured")
	}

	jobID, _, _, err := s.Queue.Enqueue(c.Param("id"))
	switch {
	case errors.Is(err, store.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "chapter not found")
	case errors.Is(err, tts.ErrGenerationActive):
		return echo.NewHTTPError(http.StatusConflict, "audio generation already in progress for this chapter")
	case err != nil:
		return c.JSON(http.StatusInternalServerError, utils.ErrJSON(err.Error()))
	}

	return c.JSON(http.StatusAccepted, map[string]string{
		"job_id": jobID,
		"status": store.AudioPending,
	})
}

// GET /audio/:id
func (s *Server) handleGetAudioJob(c echo.Context) error {
	job, err := s.Store.GetAudioJob(c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "audio job not found")
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, utils.ErrJSON(err.Error()))
	}
	return c.JSON(http.StatusOK, job)
}

// GET /audio/:id/file
func (s *Server) handleGetAudioFile(c echo.Context) error {
	job, err := s.Store.GetAudioJob(c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "audio job not found")
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, utils.ErrJSON(err.Error()))
	}
	if job.Status != store.AudioComplete {
		return echo.NewHTTPError(http.StatusConflict, "audio not ready: "+job.Status)
	}
	return c.File(job.AudioPath)
}
