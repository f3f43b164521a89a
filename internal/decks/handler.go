package decks

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/somacore/roledeck/internal/shared/server/middleware"
	"github.com/somacore/roledeck/internal/shared/server/respond"
	"github.com/somacore/roledeck/internal/tenantroute"
	"github.com/somacore/roledeck/internal/tenants"
)

const maxUploadSize = 10 << 20 // 10MB

// TenantLookup resolves the owner's handle for portal links.
type TenantLookup interface {
	GetByID(ctx context.Context, id string) (tenants.Tenant, error)
}

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc        *Service
	Tenants    TenantLookup
	Scheme     string
	RootDomain string
}

func NewHandler(svc *Service, tenantLookup TenantLookup, scheme, rootDomain string) *Handler {
	return &Handler{Svc: svc, Tenants: tenantLookup, Scheme: scheme, RootDomain: rootDomain}
}

// RegisterRoutes attaches deck routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/decks", h.list)
	rg.POST("/decks", h.submit)
	rg.GET("/decks/:id", h.get)
	rg.DELETE("/decks/:id", h.archive)
	rg.POST("/decks/:id/duplicate", h.duplicate)
	rg.POST("/decks/:id/primary", h.setPrimary)
}

func (h *Handler) submit(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)
	if err := c.Request.ParseMultipartForm(maxUploadSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respond.Error(c, http.StatusRequestEntityTooLarge, "payload_too_large", "resume file exceeds 10MB", nil)
			return
		}
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid multipart form", nil)
		return
	}

	in := SubmitInput{
		Company:       c.PostForm("company"),
		Slug:          c.PostForm("slug"),
		CoverLetter:   c.PostForm("cover_letter"),
		IsPublic:      formBool(c.PostForm("is_public")),
		TrackingEmail: c.PostForm("email_alias"),
	}
	if strings.TrimSpace(in.TrackingEmail) == "" {
		in.TrackingEmail = middleware.UserEmailFromContext(c)
	}

	if fileHeader, err := c.FormFile("resume_file"); err == nil {
		file, err := fileHeader.Open()
		if err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
			return
		}
		defer file.Close()
		in.File = file
		in.FileName = fileHeader.Filename
	} else if !errors.Is(err, http.ErrMissingFile) {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}

	deck, err := h.Svc.Submit(c.Request.Context(), userID, in)
	if err != nil {
		writeError(c, err, "failed to create deck")
		return
	}
	c.Set(middleware.DeckIDKey, deck.ID)
	respond.Created(c, h.toResponse(c, deck))
}

func (h *Handler) list(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	items, err := h.Svc.List(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err, "failed to list decks")
		return
	}
	handle := h.handle(c, userID)
	out := make([]DeckResponse, 0, len(items))
	for _, deck := range items {
		out = append(out, toResponse(deck, h.portalURL(handle, deck)))
	}
	respond.OK(c, gin.H{"items": out})
}

func (h *Handler) get(c *gin.Context) {
	deck, err := h.Svc.Get(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("id"))
	if err != nil {
		writeError(c, err, "failed to load deck")
		return
	}
	c.Set(middleware.DeckIDKey, deck.ID)
	respond.OK(c, h.toResponse(c, deck))
}

func (h *Handler) archive(c *gin.Context) {
	id := c.Param("id")
	c.Set(middleware.DeckIDKey, id)
	if err := h.Svc.Archive(c.Request.Context(), middleware.UserIDFromContext(c), id); err != nil {
		writeError(c, err, "failed to archive deck")
		return
	}
	respond.NoContent(c)
}

type duplicateRequest struct {
	Company     *string `json:"company"`
	Slug        *string `json:"slug"`
	CoverLetter *string `json:"coverLetter"`
}

func (h *Handler) duplicate(c *gin.Context) {
	var req duplicateRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
			return
		}
	}
	deck, err := h.Svc.Duplicate(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("id"), DuplicateInput{
		Company:     req.Company,
		Slug:        req.Slug,
		CoverLetter: req.CoverLetter,
	})
	if err != nil {
		writeError(c, err, "failed to duplicate deck")
		return
	}
	c.Set(middleware.DeckIDKey, deck.ID)
	respond.Created(c, h.toResponse(c, deck))
}

func (h *Handler) setPrimary(c *gin.Context) {
	deck, err := h.Svc.SetPrimary(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("id"))
	if err != nil {
		writeError(c, err, "failed to set primary deck")
		return
	}
	c.Set(middleware.DeckIDKey, deck.ID)
	respond.OK(c, h.toResponse(c, deck))
}

func (h *Handler) toResponse(c *gin.Context, deck Deck) DeckResponse {
	return toResponse(deck, h.portalURL(h.handle(c, deck.UserID), deck))
}

func (h *Handler) handle(c *gin.Context, userID string) string {
	if h.Tenants == nil {
		return ""
	}
	tenant, err := h.Tenants.GetByID(c.Request.Context(), userID)
	if err != nil {
		return ""
	}
	return tenant.Handle
}

func (h *Handler) portalURL(handle string, deck Deck) string {
	if handle == "" || h.RootDomain == "" {
		return ""
	}
	if deck.IsPublic {
		return tenantroute.PortalURL(h.Scheme, h.RootDomain, handle, "", "")
	}
	return tenantroute.PortalURL(h.Scheme, h.RootDomain, handle, deck.Company, deck.Slug)
}

func formBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "on", "true", "1":
		return true
	default:
		return false
	}
}

func writeError(c *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "deck not found", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", message, gin.H{"error": err.Error()})
	}
}
