package federation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/cragnet/cragcache/internal/domain/entities/climbing"
	"github.com/cragnet/cragcache/internal/domain/repositories"
	"github.com/cragnet/cragcache/internal/infrastructure/observability/logging"
	"github.com/cragnet/cragcache/internal/infrastructure/observability/metrics"
	"github.com/cragnet/cragcache/internal/infrastructure/observability/tracing"
)

const maxResponseBytes = 32 << 20

// HTTPClient talks to one backend's JSON API.
type HTTPClient struct {
	backend Backend
	http    *http.Client
	logger  *logging.ChanneledLogger
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

var _ repositories.RemoteClient = (*HTTPClient)(nil)

// HTTPOptions configures the clients built by NewHTTPClientFactory.
type HTTPOptions struct {
	Timeout   time.Duration
	Transport http.RoundTripper
	Logger    *logging.ChanneledLogger
	Metrics   *metrics.Metrics
}

// NewHTTPClient builds a client for backend.
func NewHTTPClient(backend Backend, opts HTTPOptions) *HTTPClient {
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewDiscardLogger()
	}
	backend.BaseURL = strings.TrimRight(backend.BaseURL, "/")
	return &HTTPClient{
		backend: backend,
		http:    &http.Client{Timeout: opts.Timeout, Transport: opts.Transport},
		logger:  opts.Logger,
		metrics: opts.Metrics,
		tracer:  tracing.Tracer(),
	}
}

// NewHTTPClientFactory returns a ClientFactory producing HTTPClients.
func NewHTTPClientFactory(opts HTTPOptions) ClientFactory {
	return func(b Backend) (repositories.RemoteClient, error) {
		if err := b.Validate(); err != nil {
			return nil, err
		}
		return NewHTTPClient(b, opts), nil
	}
}

func (c *HTTPClient) BackendID() string { return c.backend.ID }

// StatusError is returned for non-2xx answers.
type StatusError struct {
	BackendID string
	Path      string
	Status    int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend %s: %s returned status %d", e.BackendID, e.Path, e.Status)
}

func (e *StatusError) Unwrap() error {
	if e.Status == http.StatusNotFound {
		return repositories.ErrRemoteNotFound
	}
	return nil
}

// do performs one request against target, which is either a path under
// the backend's base URL or an absolute URL.
func (c *HTTPClient) do(ctx context.Context, method, target string, body any, header http.Header) (_ []byte, _ string, err error) {
	ctx, span := c.tracer.Start(ctx, "remote "+method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("cragcache.backend_id", c.backend.ID),
			attribute.String("http.request.method", method),
			attribute.String("url.path", target),
		))
	start := time.Now()
	defer func() {
		c.metrics.RemoteFetch(c.backend.ID, time.Since(start), err)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			c.logger.Remote().Warn("Remote call failed", "backendId", c.backend.ID, "method", method,
				"target", target, "duration", time.Since(start), "error", err.Error())
		} else {
			c.logger.Remote().Debug("Remote call", "backendId", c.backend.ID, "method", method,
				"target", target, "duration", time.Since(start))
		}
		span.End()
	}()

	url := target
	absolute := strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://")
	if !absolute {
		url = c.backend.BaseURL + target
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, "", fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, "", fmt.Errorf("build request %s: %w", target, err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if !absolute {
		req.Header.Set("Accept", "application/json")
		if c.backend.AuthToken != "" {
			req.Header.Set("Authorization", "Bearer "+c.backend.AuthToken)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("backend %s: %s %s: %w", c.backend.ID, method, target, err)
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, "", &StatusError{BackendID: c.backend.ID, Path: target, Status: resp.StatusCode}
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("backend %s: read %s: %w", c.backend.ID, target, err)
	}
	if len(data) > maxResponseBytes {
		return nil, "", fmt.Errorf("backend %s: %s response exceeds %d bytes", c.backend.ID, target, maxResponseBytes)
	}
	return data, resp.Header.Get("Content-Type"), nil
}

func getJSON[T any](ctx context.Context, c *HTTPClient, path string) (T, error) {
	var out T
	data, _, err := c.do(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("backend %s: decode %s: %w", c.backend.ID, path, err)
	}
	return out, nil
}

func id(v int64) string { return strconv.FormatInt(v, 10) }

func (c *HTTPClient) FetchSites(ctx context.Context) ([]climbing.Site, error) {
	return getJSON[[]climbing.Site](ctx, c, "/api/sites")
}

func (c *HTTPClient) FetchSite(ctx context.Context, siteID int64) (climbing.Site, error) {
	return getJSON[climbing.Site](ctx, c, "/api/sites/"+id(siteID))
}

func (c *HTTPClient) FetchAreasBySite(ctx context.Context, siteID int64) ([]climbing.Area, error) {
	return getJSON[[]climbing.Area](ctx, c, "/api/sites/"+id(siteID)+"/areas")
}

func (c *HTTPClient) FetchAreas(ctx context.Context) ([]climbing.Area, error) {
	return getJSON[[]climbing.Area](ctx, c, "/api/areas")
}

func (c *HTTPClient) FetchArea(ctx context.Context, areaID int64) (climbing.Area, error) {
	return getJSON[climbing.Area](ctx, c, "/api/areas/"+id(areaID))
}

func (c *HTTPClient) FetchSectorsByArea(ctx context.Context, areaID int64) ([]climbing.Sector, error) {
	return getJSON[[]climbing.Sector](ctx, c, "/api/areas/"+id(areaID)+"/sectors")
}

func (c *HTTPClient) FetchSector(ctx context.Context, sectorID int64) (climbing.Sector, error) {
	return getJSON[climbing.Sector](ctx, c, "/api/sectors/"+id(sectorID))
}

func (c *HTTPClient) FetchLinesBySector(ctx context.Context, sectorID int64) ([]climbing.Line, error) {
	return getJSON[[]climbing.Line](ctx, c, "/api/sectors/"+id(sectorID)+"/lines")
}

func (c *HTTPClient) FetchLine(ctx context.Context, lineID int64) (climbing.Line, error) {
	return getJSON[climbing.Line](ctx, c, "/api/lines/"+id(lineID))
}

func (c *HTTPClient) FetchSchemasBySector(ctx context.Context, sectorID int64) ([]climbing.SectorSchema, error) {
	return getJSON[[]climbing.SectorSchema](ctx, c, "/api/sectors/"+id(sectorID)+"/schemas")
}

func (c *HTTPClient) FetchRoutesBySite(ctx context.Context, siteID int64) ([]climbing.Route, error) {
	return getJSON[[]climbing.Route](ctx, c, "/api/sites/"+id(siteID)+"/routes")
}

func (c *HTTPClient) FetchRoutesBySector(ctx context.Context, sectorID int64) ([]climbing.Route, error) {
	return getJSON[[]climbing.Route](ctx, c, "/api/sectors/"+id(sectorID)+"/routes")
}

func (c *HTTPClient) FetchRoutesByLine(ctx context.Context, lineID int64) ([]climbing.Route, error) {
	return getJSON[[]climbing.Route](ctx, c, "/api/lines/"+id(lineID)+"/routes")
}

func (c *HTTPClient) FetchRoute(ctx context.Context, routeID int64) (climbing.Route, error) {
	return getJSON[climbing.Route](ctx, c, "/api/routes/"+id(routeID))
}

func (c *HTTPClient) FetchContestsBySite(ctx context.Context, siteID int64) ([]climbing.Contest, error) {
	return getJSON[[]climbing.Contest](ctx, c, "/api/sites/"+id(siteID)+"/contests")
}

func (c *HTTPClient) FetchContest(ctx context.Context, contestID int64) (climbing.Contest, error) {
	return getJSON[climbing.Contest](ctx, c, "/api/contests/"+id(contestID))
}

func (c *HTTPClient) FetchContestRankings(ctx context.Context, contestID int64) ([]climbing.ContestRanking, error) {
	return getJSON[[]climbing.ContestRanking](ctx, c, "/api/contests/"+id(contestID)+"/rankings")
}

func (c *HTTPClient) FetchLogsByRoute(ctx context.Context, routeID int64) ([]climbing.Log, error) {
	return getJSON[[]climbing.Log](ctx, c, "/api/routes/"+id(routeID)+"/logs")
}

// PostLog submits log for routeID. clientRef is sent as the idempotency key
// so a retried sync does not create a second log.
func (c *HTTPClient) PostLog(ctx context.Context, routeID int64, log climbing.Log, clientRef string) (climbing.Log, error) {
	path := "/api/routes/" + id(routeID) + "/logs"
	header := http.Header{}
	if clientRef != "" {
		header.Set("Idempotency-Key", clientRef)
	}
	data, _, err := c.do(ctx, http.MethodPost, path, log, header)
	if err != nil {
		return climbing.Log{}, err
	}
	var accepted climbing.Log
	if err := json.Unmarshal(data, &accepted); err != nil {
		return climbing.Log{}, fmt.Errorf("backend %s: decode %s: %w", c.backend.ID, path, err)
	}
	return accepted, nil
}

// FetchAsset downloads raw content. Asset URLs are absolute and may live
// outside the backend, so no credentials are attached.
func (c *HTTPClient) FetchAsset(ctx context.Context, url string) ([]byte, string, error) {
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return nil, "", fmt.Errorf("asset url must be absolute: %q", url)
	}
	return c.do(ctx, http.MethodGet, url, nil, nil)
}
