package tenants

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/somacore/roledeck/internal/shared/server/middleware"
	"github.com/somacore/roledeck/internal/shared/server/respond"
	"github.com/somacore/roledeck/internal/tenantroute"
)

type Handler struct {
	Svc        *Service
	Scheme     string
	RootDomain string
}

func NewHandler(svc *Service, scheme, rootDomain string) *Handler {
	return &Handler{Svc: svc, Scheme: scheme, RootDomain: rootDomain}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/me", h.me)
	rg.GET("/profile", h.getProfile)
	rg.PUT("/profile", h.updateProfile)
}

type profileResponse struct {
	Tenant
	PortalURL string `json:"portalUrl,omitempty"`
}

type updateProfileRequest struct {
	FullName *string `json:"fullName"`
	Handle   *string `json:"handle"`
}

func (h *Handler) me(c *gin.Context) {
	tenant, ok := h.load(c)
	if !ok {
		return
	}
	respond.OK(c, gin.H{
		"id":         tenant.ID,
		"email":      tenant.Email,
		"fullName":   tenant.FullName,
		"handle":     tenant.Handle,
		"pictureUrl": tenant.PictureURL,
	})
}

func (h *Handler) getProfile(c *gin.Context) {
	tenant, ok := h.load(c)
	if !ok {
		return
	}
	respond.OK(c, h.toResponse(tenant))
}

func (h *Handler) updateProfile(c *gin.Context) {
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "invalid JSON body", nil)
		return
	}
	tenant, err := h.Svc.UpdateProfile(c.Request.Context(), middleware.UserIDFromContext(c), req.FullName, req.Handle)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, h.toResponse(tenant))
}

func (h *Handler) load(c *gin.Context) (Tenant, bool) {
	if h.Svc == nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "service unavailable", nil)
		return Tenant{}, false
	}
	tenant, err := h.Svc.GetByID(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		writeError(c, err)
		return Tenant{}, false
	}
	return tenant, true
}

func (h *Handler) toResponse(tenant Tenant) profileResponse {
	out := profileResponse{Tenant: tenant}
	if tenant.Handle != "" && h.RootDomain != "" {
		out.PortalURL = tenantroute.PortalURL(h.Scheme, h.RootDomain, tenant.Handle, "", "")
	}
	return out
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "profile not found", nil)
	case errors.Is(err, ErrHandleRequired), errors.Is(err, ErrHandleInvalid), errors.Is(err, ErrHandleReserved), errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "invalid_request", err.Error(), nil)
	case errors.Is(err, ErrHandleTaken):
		respond.Error(c, http.StatusConflict, "handle_taken", err.Error(), nil)
	case errors.Is(err, ErrHandleImmutable):
		respond.Error(c, http.StatusConflict, "handle_immutable", err.Error(), nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load profile", nil)
	}
}
