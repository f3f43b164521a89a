// Package tenantroute maps tenant subdomains onto the /user/{handle} routes.
package tenantroute

import (
	"net/http"
	"regexp"
	"strings"
)

// Decision is the outcome of Resolve.
type Decision struct {
	Rewrite   bool
	Subdomain string
	Path      string
	RawQuery  string
}

var dottedSegment = regexp.MustCompile(`[\w-]+\.\w+`)

var excludedPrefixes = []string{"/api/", "/static/", "/files/"}

// Excluded reports whether path is never rewritten: API and asset routes,
// the favicon, and any path whose segments look like file names.
func Excluded(path string) bool {
	if path == "/api" || path == "/favicon.ico" {
		return true
	}
	for _, prefix := range excludedPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	for _, segment := range strings.Split(path, "/") {
		if segment != "" && dottedSegment.MatchString(segment) {
			return true
		}
	}
	return false
}

// Resolve decides whether a request for host should be served from a
// tenant's portal. The root domain and its www alias pass through, as do
// hosts outside the root domain. Domain matching ignores case; the
// subdomain keeps the case it arrived with and path is appended unchanged.
func Resolve(rootDomain, host, path, rawQuery string) Decision {
	if strings.EqualFold(host, rootDomain) || strings.EqualFold(host, "www."+rootDomain) {
		return Decision{}
	}
	cut := len(host) - len(rootDomain) - 1
	if cut <= 0 || !strings.EqualFold(host[cut:], "."+rootDomain) {
		return Decision{}
	}
	subdomain := host[:cut]
	return Decision{
		Rewrite:   true,
		Subdomain: subdomain,
		Path:      "/user/" + subdomain + path,
		RawQuery:  rawQuery,
	}
}

// OriginalPathHeader carries the pre-rewrite path to downstream handlers.
const OriginalPathHeader = "X-Original-Path"

// Handler rewrites tenant subdomain requests before next routes them.
// Trailing slashes are dropped from the rewritten path so gin matches the
// portal routes directly instead of redirecting.
func Handler(rootDomain string, next http.Handler) http.Handler {
	rootDomain = strings.TrimSpace(rootDomain)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Header.Del(OriginalPathHeader)
		if rootDomain == "" || Excluded(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}
		decision := Resolve(rootDomain, r.Host, r.URL.Path, r.URL.RawQuery)
		if !decision.Rewrite {
			next.ServeHTTP(w, r)
			return
		}
		r.Header.Set(OriginalPathHeader, r.URL.Path)
		r.URL.Path = strings.TrimRight(decision.Path, "/")
		r.URL.RawPath = ""
		r.URL.RawQuery = decision.RawQuery
		r.RequestURI = r.URL.RequestURI()
		next.ServeHTTP(w, r)
	})
}

// PortalURL returns the public address of a tenant's primary page, or of a
// tailored deck when company and slug are set. Whitespace in company and
// slug becomes hyphens.
func PortalURL(scheme, rootDomain, handle, company, slug string) string {
	if scheme == "" {
		scheme = "https"
	}
	base := scheme + "://" + handle + "." + rootDomain
	if strings.TrimSpace(company) == "" || strings.TrimSpace(slug) == "" {
		return base
	}
	return base + "/t/" + hyphenate(company) + "/" + hyphenate(slug)
}

func hyphenate(s string) string {
	return strings.Join(strings.Fields(s), "-")
}
