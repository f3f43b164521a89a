package portal

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/somacore/roledeck/internal/decks"
)

func newPortalRouter(t *testing.T, f fixture) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.SetHTMLTemplate(Templates())
	NewHandler(f.svc).RegisterRoutes(r)
	return r
}

func TestPortalRendersHTML(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.decks.Create(context.Background(), decks.Deck{
		ID:          "d1",
		UserID:      "u1",
		Company:     "Acme Corp",
		Slug:        "engineer",
		ResumeURL:   "owner/file.pdf",
		ResumeBody:  rawBody(t, "Ada <script>alert(1)</script> resume"),
		CoverLetter: decks.CoverLetterJSON("Hello Acme"),
		CreatedAt:   time.Now(),
	}))
	f.structurer.err = context.DeadlineExceeded
	router := newPortalRouter(t, f)

	req := httptest.NewRequest(http.MethodGet, "/user/ada/t/Acme-Corp/engineer", nil)
	req.Header.Set("X-Forwarded-For", "198.51.100.4, 10.0.0.1")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	require.Contains(t, resp.Header().Get("Content-Type"), "text/html")
	body := resp.Body.String()
	require.Contains(t, body, "Acme Corp Portal")
	require.Contains(t, body, "Hello Acme")
	require.Contains(t, body, "Download PDF")
	require.NotContains(t, body, "<script>alert(1)</script>")
	require.Equal(t, "198.51.100.4", f.views.seen[0].ViewerIP)
}

func TestPortalJSONFormat(t *testing.T) {
	f := newFixture(t)
	formatted, err := json.Marshal(map[string]any{"full_name": "Ada Lovelace", "skills": []string{"Go"}, "experience": []any{}})
	require.NoError(t, err)
	require.NoError(t, f.decks.Create(context.Background(), decks.Deck{
		ID: "d1", UserID: "u1", Slug: "main", IsPublic: true, FormattedResume: formatted, CreatedAt: time.Now(),
	}))
	router := newPortalRouter(t, f)

	for _, tc := range []struct {
		name   string
		path   string
		accept string
	}{
		{name: "query", path: "/user/ada?format=json"},
		{name: "accept header", path: "/user/ada", accept: "application/json"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			if tc.accept != "" {
				req.Header.Set("Accept", tc.accept)
			}
			resp := httptest.NewRecorder()
			router.ServeHTTP(resp, req)

			require.Equal(t, http.StatusOK, resp.Code)
			var page Page
			require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &page))
			require.Equal(t, StateResume, page.State)
			require.True(t, page.Structured)
			require.Equal(t, "Ada Lovelace", page.DisplayName)
			require.Equal(t, []string{"Go"}, page.Skills)
		})
	}
}

func TestPortalOfflinePage(t *testing.T) {
	f := newFixture(t)
	router := newPortalRouter(t, f)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/user/ada", nil))
	require.Equal(t, http.StatusOK, resp.Code)
	require.Contains(t, resp.Body.String(), "Profile Offline")
}

func TestPortalNotFound(t *testing.T) {
	f := newFixture(t)
	router := newPortalRouter(t, f)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/user/nobody", nil))
	require.Equal(t, http.StatusNotFound, resp.Code)
	require.True(t, strings.Contains(resp.Body.String(), "404"))

	req := httptest.NewRequest(http.MethodGet, "/user/ada/t/acme/missing", nil)
	req.Header.Set("Accept", "application/json")
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	require.Equal(t, http.StatusNotFound, resp.Code)
	require.Contains(t, resp.Body.String(), "not_found")
}

func TestViewerIPFallbacks(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		name       string
		forwarded  string
		remoteAddr string
		want       string
	}{
		{name: "forwarded first entry", forwarded: " 203.0.113.9 , 10.0.0.2", remoteAddr: "192.0.2.1:1234", want: "203.0.113.9"},
		{name: "client ip", remoteAddr: "192.0.2.1:1234", want: "192.0.2.1"},
		{name: "loopback default", remoteAddr: "", want: "127.0.0.1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodGet, "/user/ada", nil)
			c.Request.RemoteAddr = tc.remoteAddr
			if tc.forwarded != "" {
				c.Request.Header.Set("X-Forwarded-For", tc.forwarded)
			}
			require.Equal(t, tc.want, viewerIP(c))
		})
	}
}
