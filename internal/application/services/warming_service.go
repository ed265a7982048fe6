package services

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cragnet/cragcache/internal/infrastructure/federation"
	"github.com/cragnet/cragcache/internal/infrastructure/observability/logging"
)

// WarmingService preloads the top of each backend's directory so the
// first offline session has something to show.
type WarmingService struct {
	browse      *BrowseService
	registry    *federation.Registry
	logger      *logging.ChanneledLogger
	concurrency int
}

func NewWarmingService(browse *BrowseService, registry *federation.Registry, concurrency int, logger *logging.ChanneledLogger) *WarmingService {
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	if concurrency <= 0 {
		concurrency = 4
	}
	return &WarmingService{browse: browse, registry: registry, logger: logger, concurrency: concurrency}
}

// WarmReport summarises one backend's warming.
type WarmReport struct {
	BackendID string `json:"backendId"`
	Sites     int    `json:"sites"`
	Areas     int    `json:"areas"`
	Fresh     bool   `json:"fresh"`
	Error     string `json:"error,omitempty"`
}

// WarmAllBackends warms every enabled backend. A failing backend does not
// stop the others.
func (w *WarmingService) WarmAllBackends(ctx context.Context) ([]WarmReport, error) {
	start := time.Now()
	var (
		reports []WarmReport
		failed  int
	)
	for _, b := range w.registry.List() {
		if !b.Enabled {
			continue
		}
		report, err := w.WarmBackend(ctx, b.ID)
		if err != nil {
			failed++
			report.Error = err.Error()
			w.logger.Startup().Warn("Backend warming failed", "backendId", b.ID, "error", err.Error())
		}
		reports = append(reports, report)
	}
	w.logger.Startup().Info("Warming completed", "backends", len(reports), "failed", failed, "duration", time.Since(start))
	if failed > 0 {
		return reports, fmt.Errorf("warming failed for %d backends", failed)
	}
	return reports, nil
}

// WarmBackend loads the site list and the areas of every site.
func (w *WarmingService) WarmBackend(ctx context.Context, backendID string) (WarmReport, error) {
	report := WarmReport{BackendID: backendID}

	sites, err := w.browse.Sites(ctx, backendID)
	if err != nil {
		return report, fmt.Errorf("sites: %w", err)
	}
	report.Sites = len(sites.Data)
	report.Fresh = !sites.Stale

	areas := make([]int, len(sites.Data))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.concurrency)
	for i, site := range sites.Data {
		g.Go(func() error {
			res, err := w.browse.AreasBySite(gctx, backendID, site.ID)
			if err != nil {
				return fmt.Errorf("areas of site %d: %w", site.ID, err)
			}
			areas[i] = len(res.Data)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return report, err
	}
	for _, n := range areas {
		report.Areas += n
	}
	w.logger.WithBackend(logging.ChannelStartup, backendID).Info("Backend warmed",
		"sites", report.Sites, "areas", report.Areas, "fresh", report.Fresh)
	return report, nil
}
