package server

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"writegeist/pkg/utils"
)

type echoReq struct {
	Text string `json:"text"`
}

// POST /echo
func (s *Server) handlePostEcho(c echo.Context) error {
	var req echoReq
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid json")
	}
	return c.JSON(http.StatusOK, map[string]string{"echo": req.Text})
}

type askReq struct {
	Question string `json:"question"`
	TopK     int    `json:"top_k"`
}

// POST /ask
func (s *Server) handlePostAsk(c echo.Context) error {
	var req askReq
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid json")
	}
	if strings.TrimSpace(req.Question) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "question is required")
	}

	ans, err := s.Search.Ask(c.Request().Context(), req.Question, req.TopK)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, utils.ErrJSON(err.Error()))
	}
	return c.JSON(http.StatusOK, ans)
}
