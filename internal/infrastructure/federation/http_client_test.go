package federation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cragnet/cragcache/internal/domain/entities/climbing"
	"github.com/cragnet/cragcache/internal/domain/repositories"
	"github.com/cragnet/cragcache/internal/infrastructure/observability/metrics"
)

func newBackendServer(t *testing.T, mux *http.ServeMux) (*httptest.Server, *HTTPClient) {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	client := NewHTTPClient(Backend{ID: "alpha", BaseURL: srv.URL + "/", AuthToken: "secret", Enabled: true},
		HTTPOptions{Timeout: time.Second, Metrics: metrics.New()})
	return srv, client
}

func TestFetchRoutesByLine(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/lines/7/routes", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("authorization = %q, want bearer token", got)
		}
		_ = json.NewEncoder(w).Encode([]climbing.Route{{ID: 1, LineID: 7, Name: "Arête"}, {ID: 2, LineID: 7}})
	})
	_, client := newBackendServer(t, mux)

	routes, err := client.FetchRoutesByLine(context.Background(), 7)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(routes) != 2 || routes[0].Name != "Arête" {
		t.Fatalf("routes = %+v", routes)
	}
}

func TestFetchNotFound(t *testing.T) {
	t.Parallel()

	_, client := newBackendServer(t, http.NewServeMux())

	_, err := client.FetchSite(context.Background(), 42)
	if !errors.Is(err, repositories.ErrRemoteNotFound) {
		t.Fatalf("err = %v, want ErrRemoteNotFound", err)
	}
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.Status != http.StatusNotFound {
		t.Fatalf("err = %v, want StatusError 404", err)
	}
}

func TestFetchServerError(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/sites", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	})
	_, client := newBackendServer(t, mux)

	_, err := client.FetchSites(context.Background())
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.Status != http.StatusBadGateway {
		t.Fatalf("err = %v, want StatusError 502", err)
	}
	if errors.Is(err, repositories.ErrRemoteNotFound) {
		t.Fatal("502 must not read as not found")
	}
}

func TestFetchDecodeError(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/areas", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>"))
	})
	_, client := newBackendServer(t, mux)

	if _, err := client.FetchAreas(context.Background()); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestPostLogSendsIdempotencyKey(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/routes/11/logs", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Idempotency-Key"); got != "ref-1" {
			t.Errorf("idempotency key = %q, want ref-1", got)
		}
		var log climbing.Log
		if err := json.NewDecoder(r.Body).Decode(&log); err != nil {
			t.Errorf("decode body: %v", err)
		}
		log.ID = 99
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(log)
	})
	_, client := newBackendServer(t, mux)

	accepted, err := client.PostLog(context.Background(), 11, climbing.Log{RouteID: 11, Style: "redpoint"}, "ref-1")
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	if accepted.ID != 99 || accepted.Style != "redpoint" {
		t.Fatalf("accepted = %+v", accepted)
	}
}

func TestFetchAsset(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /maps/site.svg", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			t.Error("asset requests must not carry credentials")
		}
		w.Header().Set("Content-Type", "image/svg+xml")
		_, _ = w.Write([]byte("<svg/>"))
	})
	srv, client := newBackendServer(t, mux)

	content, contentType, err := client.FetchAsset(context.Background(), srv.URL+"/maps/site.svg")
	if err != nil {
		t.Fatalf("fetch asset: %v", err)
	}
	if string(content) != "<svg/>" || contentType != "image/svg+xml" {
		t.Fatalf("asset = %q %q", content, contentType)
	}
	if _, _, err := client.FetchAsset(context.Background(), "/maps/site.svg"); err == nil {
		t.Fatal("expected relative url to be rejected")
	}
}

func TestFetchHonoursContext(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/sites", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]climbing.Site{})
	})
	_, client := newBackendServer(t, mux)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := client.FetchSites(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
