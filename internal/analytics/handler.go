package analytics

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/somacore/roledeck/internal/decks"
	"github.com/somacore/roledeck/internal/shared/server/middleware"
	"github.com/somacore/roledeck/internal/shared/server/respond"
)

type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/decks/:id/analytics", h.report)
}

func (h *Handler) report(c *gin.Context) {
	deckID := c.Param("id")
	c.Set(middleware.DeckIDKey, deckID)
	report, err := h.Svc.DeckReport(c.Request.Context(), middleware.UserIDFromContext(c), deckID)
	if err != nil {
		if errors.Is(err, decks.ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "deck not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load analytics", nil)
		return
	}
	respond.OK(c, report)
}
