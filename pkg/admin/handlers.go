package admin

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/labconn/astm/pkg/store"
)

type handlers struct {
	sessions store.SessionStore
	metrics  *Metrics
}

// Healthz handles GET /healthz.
// @Summary      Health check
// @Description  Reports admin server liveness and the active session count
// @Tags         health
// @Produce      json
// @Success      200  {object}  HealthResponse
// @Router       /healthz [get]
func (h *handlers) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:         "healthy",
		SessionsActive: int(h.metrics.ActiveCount()),
		Timestamp:      time.Now(),
	})
}

// ListSessions handles GET /sessions.
// @Summary      List sessions
// @Description  Returns the most recent ASTM session audit records
// @Tags         sessions
// @Produce      json
// @Param        limit  query     int  false  "Maximum rows to return (default 100)"
// @Success      200    {object}  SessionListResponse
// @Failure      500    {object}  ErrorResponse
// @Router       /sessions [get]
func (h *handlers) ListSessions(c *gin.Context) {
	limit := 100
	if q := c.Query("limit"); q != "" {
		if n, err := strconv.Atoi(q); err == nil {
			limit = n
		}
	}

	rows, err := h.sessions.List(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "store_error", Message: err.Error()})
		return
	}

	out := make([]SessionResponse, 0, len(rows))
	for _, s := range rows {
		out = append(out, toSessionResponse(s))
	}
	c.JSON(http.StatusOK, SessionListResponse{Sessions: out, Count: len(out)})
}

// GetSession handles GET /sessions/:id.
// @Summary      Get a session
// @Description  Returns one session's audit record by ID
// @Tags         sessions
// @Produce      json
// @Param        id   path      string  true  "Session ID"
// @Success      200  {object}  SessionResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /sessions/{id} [get]
func (h *handlers) GetSession(c *gin.Context) {
	id := c.Param("id")
	s, err := h.sessions.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "not_found", Message: "no session with that id"})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "store_error", Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, toSessionResponse(s))
}

func toSessionResponse(s *store.Session) SessionResponse {
	return SessionResponse{
		ID:          s.ID,
		Role:        s.Role,
		PeerAddr:    s.PeerAddr,
		OpenedAt:    s.OpenedAt,
		ClosedAt:    s.ClosedAt,
		Outcome:     string(s.Outcome),
		RecordCount: s.RecordCount,
		RejectCount: s.RejectCount,
		LastError:   s.LastError,
	}
}
