package server

import (
	"context"
	"errors"
	"io"
	"mime"
	"net/http"
	"os"
	"path"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/somacore/roledeck/internal/shared/server/respond"
	"github.com/somacore/roledeck/internal/shared/storage/object"
)

// FileSource serves objects behind signed download links.
type FileSource interface {
	Verify(storageKey, token string) error
	Open(ctx context.Context, storageKey string) (io.ReadCloser, error)
}

func serveFile(src FileSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := strings.TrimPrefix(c.Param("key"), "/")
		token := c.Query("token")
		if key == "" || token == "" {
			respond.Error(c, http.StatusForbidden, "forbidden", "missing download token", nil)
			return
		}
		if err := src.Verify(key, token); err != nil {
			respond.Error(c, http.StatusForbidden, "forbidden", "invalid or expired download link", nil)
			return
		}

		rc, err := src.Open(c.Request.Context(), key)
		if err != nil {
			switch {
			case errors.Is(err, os.ErrNotExist), errors.Is(err, object.ErrInvalidKey):
				respond.Error(c, http.StatusNotFound, "not_found", "file not found", nil)
			default:
				respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to open file", nil)
			}
			return
		}
		defer rc.Close()

		name := path.Base(key)
		contentType := mime.TypeByExtension(path.Ext(name))
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		c.DataFromReader(http.StatusOK, -1, contentType, rc, map[string]string{
			"Content-Disposition": mime.FormatMediaType("inline", map[string]string{"filename": name}),
		})
	}
}
