package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/netip"
	"net/url"
	"strings"
	"sync"
	"time"
)

// Location is a resolved visitor position.
type Location struct {
	City   string  `json:"city"`
	Region string  `json:"region"`
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
}

// Label formats the location as "city, region".
func (l Location) Label() string {
	return l.City + ", " + l.Region
}

// Locator resolves an IP address. ok is false when the address cannot be
// placed; lookups never fail the caller.
type Locator interface {
	Locate(ctx context.Context, ip string) (Location, bool)
}

// GeoClient queries an ip-api.com compatible endpoint and caches answers
// per address, including misses.
type GeoClient struct {
	BaseURL string
	HTTP    *http.Client

	mu    sync.Mutex
	cache map[string]cachedLocation
}

type cachedLocation struct {
	loc Location
	ok  bool
}

type geoResponse struct {
	Status     string  `json:"status"`
	City       string  `json:"city"`
	RegionName string  `json:"regionName"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
}

func NewGeoClient(baseURL string) *GeoClient {
	return &GeoClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 3 * time.Second},
		cache:   make(map[string]cachedLocation),
	}
}

func (g *GeoClient) Locate(ctx context.Context, ip string) (Location, bool) {
	addr, err := netip.ParseAddr(strings.TrimSpace(ip))
	if err != nil || !addr.IsGlobalUnicast() || addr.IsPrivate() {
		return Location{}, false
	}
	key := addr.String()

	g.mu.Lock()
	if g.cache == nil {
		g.cache = make(map[string]cachedLocation)
	}
	if hit, ok := g.cache[key]; ok {
		g.mu.Unlock()
		return hit.loc, hit.ok
	}
	g.mu.Unlock()

	loc, ok, err := g.fetch(ctx, key)
	if err != nil {
		// Transport errors stay uncached.
		return Location{}, false
	}

	g.mu.Lock()
	g.cache[key] = cachedLocation{loc: loc, ok: ok}
	g.mu.Unlock()
	return loc, ok
}

func (g *GeoClient) fetch(ctx context.Context, ip string) (Location, bool, error) {
	endpoint := fmt.Sprintf("%s/%s?fields=status,city,regionName,lat,lon", g.BaseURL, url.PathEscape(ip))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Location{}, false, err
	}
	client := g.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return Location{}, false, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Location{}, false, fmt.Errorf("geo lookup status %d", resp.StatusCode)
	}

	var body geoResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Location{}, false, err
	}
	if body.Status != "success" {
		return Location{}, false, nil
	}
	return Location{City: body.City, Region: body.RegionName, Lat: body.Lat, Lon: body.Lon}, true, nil
}
