package portal

import (
	"embed"
	"errors"
	"html/template"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/somacore/roledeck/internal/shared/metrics"
	"github.com/somacore/roledeck/internal/shared/server/middleware"
	"github.com/somacore/roledeck/internal/shared/server/respond"
)

//go:embed templates/*.html
var templateFS embed.FS

// Templates parses the embedded portal templates for gin's HTML renderer.
func Templates() *template.Template {
	return template.Must(template.New("portal").ParseFS(templateFS, "templates/*.html"))
}

type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches the public portal routes. The tenant router
// rewrites subdomain requests onto these paths.
func (h *Handler) RegisterRoutes(r gin.IRoutes) {
	r.GET("/user/:handle", h.primary)
	r.GET("/user/:handle/t/:company/:slug", h.tailored)
}

func (h *Handler) primary(c *gin.Context) {
	handle := c.Param("handle")
	c.Set(middleware.TenantHandleKey, handle)

	page, deckID, err := h.Svc.Primary(c.Request.Context(), handle, visitorFrom(c))
	h.render(c, page, deckID, err)
}

func (h *Handler) tailored(c *gin.Context) {
	handle := c.Param("handle")
	c.Set(middleware.TenantHandleKey, handle)

	page, deckID, err := h.Svc.Tailored(c.Request.Context(), handle, c.Param("company"), c.Param("slug"), visitorFrom(c))
	h.render(c, page, deckID, err)
}

func (h *Handler) render(c *gin.Context, page Page, deckID string, err error) {
	if deckID != "" {
		c.Set(middleware.DeckIDKey, deckID)
	}
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			metrics.IncPortalNotFound()
			if wantsJSON(c) {
				respond.Error(c, http.StatusNotFound, "not_found", "portal not found", nil)
				return
			}
			c.HTML(http.StatusNotFound, "notfound.html", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load portal", nil)
		return
	}

	if wantsJSON(c) {
		respond.OK(c, page)
		return
	}
	if page.State == StateOffline {
		c.HTML(http.StatusOK, "offline.html", page)
		return
	}
	c.HTML(http.StatusOK, "page.html", page)
}

func visitorFrom(c *gin.Context) Visitor {
	return Visitor{IP: viewerIP(c), UserAgent: c.Request.UserAgent()}
}

// viewerIP takes the first X-Forwarded-For entry, then the connection
// address, then loopback.
func viewerIP(c *gin.Context) string {
	if forwarded := c.GetHeader("X-Forwarded-For"); forwarded != "" {
		if first := strings.TrimSpace(strings.Split(forwarded, ",")[0]); first != "" {
			return first
		}
	}
	if ip := c.ClientIP(); ip != "" {
		return ip
	}
	return "127.0.0.1"
}

func wantsJSON(c *gin.Context) bool {
	if strings.EqualFold(c.Query("format"), "json") {
		return true
	}
	return strings.Contains(c.GetHeader("Accept"), "application/json")
}
