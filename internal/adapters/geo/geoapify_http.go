package geo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"route-planner-service/internal/ports"
	"strings"
	"time"
)

const defaultBaseURL = "https://api.geoapify.com"

// GeoapifyClient implements GeocodeProvider and RouteProvider against the
// Geoapify geocoding and routing APIs. A persistent geocode cache, when
// configured, is consulted before issuing external calls. The client is
// safe for concurrent use and never retries; retry policy lives in the
// orchestrator.
type GeoapifyClient struct {
	session *http.Client
	apiKey  string
	baseURL string
	mode    string
	cache   ports.GeocodeCache
}

func NewGeoapifyClient(apiKey string, cache ports.GeocodeCache, timeout time.Duration) (*GeoapifyClient, error) {
	if apiKey == "" {
		return nil, errors.New("geoapify api key is empty")
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &GeoapifyClient{
		session: &http.Client{Timeout: timeout},
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		mode:    "drive",
		cache:   cache,
	}, nil
}

type httpStatusError struct {
	Code int
	Body string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("Code %d: %s", e.Code, e.Body)
}

func (g *GeoapifyClient) newRequest(ctx context.Context, endpoint string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	q := req.URL.Query()
	q.Set("apiKey", g.apiKey)
	req.URL.RawQuery = q.Encode()
	req.Header.Set("Accept", "application/json")

	return req, nil
}

func (g *GeoapifyClient) do(req *http.Request) (*http.Response, error) {
	resp, err := g.session.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, &httpStatusError{
			Code: resp.StatusCode,
			Body: strings.TrimSpace(string(b)),
		}
	}
	return resp, nil
}

// normalize ensures consistent cache keys by lowercasing and collapsing
// whitespace, matching the resolver's dedup key.
func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
