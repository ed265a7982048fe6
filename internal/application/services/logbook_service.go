package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/jszwec/csvutil"

	"github.com/cragnet/cragcache/internal/domain/entities/climbing"
	"github.com/cragnet/cragcache/internal/infrastructure/caching"
	"github.com/cragnet/cragcache/internal/infrastructure/caching/interfaces"
	"github.com/cragnet/cragcache/internal/infrastructure/observability/logging"
)

// ErrInvalidLog is returned for logs that cannot be recorded.
var ErrInvalidLog = errors.New("invalid log")

// LogbookService manages the logs the user writes on this device.
type LogbookService struct {
	logbook interfaces.Logbook
	clients ClientProvider
	logger  *logging.ChanneledLogger
}

func NewLogbookService(logbook interfaces.Logbook, clients ClientProvider, logger *logging.ChanneledLogger) *LogbookService {
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	return &LogbookService{logbook: logbook, clients: clients, logger: logger}
}

// AddLog records a log locally. It is sent to the backend by Sync.
func (s *LogbookService) AddLog(ctx context.Context, backendID string, routeID int64, log climbing.Log) (climbing.PendingLog, error) {
	if routeID <= 0 {
		return climbing.PendingLog{}, fmt.Errorf("%w: route ID must be positive", ErrInvalidLog)
	}
	if log.ClimbedAt.IsZero() {
		return climbing.PendingLog{}, fmt.Errorf("%w: climbedAt is required", ErrInvalidLog)
	}
	return s.logbook.AddPendingLog(ctx, backendID, routeID, log)
}

func (s *LogbookService) Pending(ctx context.Context, backendID string) ([]climbing.PendingLog, error) {
	return s.logbook.PendingLogs(ctx, backendID)
}

// SyncReport summarises one Sync run.
type SyncReport struct {
	Synced  int      `json:"synced"`
	Failed  int      `json:"failed"`
	Pending int      `json:"pending"`
	Errors  []string `json:"errors,omitempty"`
}

// Sync posts every pending log of the backend. Accepted logs move to the
// cache; rejected or failed ones stay pending for the next run.
func (s *LogbookService) Sync(ctx context.Context, backendID string) (SyncReport, error) {
	pending, err := s.logbook.PendingLogs(ctx, backendID)
	if err != nil {
		return SyncReport{}, err
	}
	if len(pending) == 0 {
		return SyncReport{}, nil
	}
	client, err := s.clients.Client(ctx, backendID)
	if err != nil {
		return SyncReport{Pending: len(pending)}, err
	}

	log := s.logger.WithBackend(logging.ChannelFederation, backendID)
	var report SyncReport
	for _, p := range pending {
		if err := ctx.Err(); err != nil {
			report.Pending = len(pending) - report.Synced
			return report, err
		}
		accepted, err := client.PostLog(ctx, p.RouteID, p.Log, p.ClientRef)
		if err == nil {
			err = s.logbook.ConfirmPendingLog(ctx, p, accepted)
		}
		if err != nil {
			report.Failed++
			report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", p.ClientRef, err))
			log.Warn("Failed to sync log", "clientRef", p.ClientRef, "error", err.Error())
			continue
		}
		report.Synced++
	}
	report.Pending = len(pending) - report.Synced
	log.Info("Log sync finished", "synced", report.Synced, "failed", report.Failed)
	return report, nil
}

// LogRecord is one row of the CSV export.
type LogRecord struct {
	BackendID string    `csv:"backend_id"`
	RouteID   int64     `csv:"route_id"`
	LogID     int64     `csv:"log_id,omitempty"`
	ClientRef string    `csv:"client_ref,omitempty"`
	Status    string    `csv:"status"`
	ClimbedAt time.Time `csv:"climbed_at"`
	Style     string    `csv:"style,omitempty"`
	Attempts  int       `csv:"attempts,omitempty"`
	Rating    int       `csv:"rating,omitempty"`
	Comment   string    `csv:"comment,omitempty"`
}

// ExportCSV writes the backend's logs as CSV: every pending log, then the
// cached logs of routeIDs and of the routes pending logs point at.
func (s *LogbookService) ExportCSV(ctx context.Context, backendID string, routeIDs []int64, w io.Writer) error {
	pending, err := s.logbook.PendingLogs(ctx, backendID)
	if err != nil {
		return err
	}

	records := make([]LogRecord, 0, len(pending))
	routes := slices.Clone(routeIDs)
	for _, p := range pending {
		records = append(records, LogRecord{
			BackendID: backendID,
			RouteID:   p.RouteID,
			ClientRef: p.ClientRef,
			Status:    "pending",
			ClimbedAt: p.Log.ClimbedAt,
			Style:     p.Log.Style,
			Attempts:  p.Log.Attempts,
			Rating:    p.Log.Rating,
			Comment:   p.Log.Comment,
		})
		routes = append(routes, p.RouteID)
	}
	slices.Sort(routes)
	routes = slices.Compact(routes)

	for _, routeID := range routes {
		logs, err := s.logbook.GetCachedLogsByRouteIgnoreExpiration(ctx, backendID, routeID)
		if errors.Is(err, caching.ErrNeverCached) {
			continue
		}
		if err != nil {
			return fmt.Errorf("export logs of route %d: %w", routeID, err)
		}
		for _, l := range logs {
			records = append(records, LogRecord{
				BackendID: backendID,
				RouteID:   routeID,
				LogID:     l.ID,
				Status:    "synced",
				ClimbedAt: l.ClimbedAt,
				Style:     l.Style,
				Attempts:  l.Attempts,
				Rating:    l.Rating,
				Comment:   l.Comment,
			})
		}
	}

	cw := csv.NewWriter(w)
	enc := csvutil.NewEncoder(cw)
	if len(records) == 0 {
		err = enc.EncodeHeader(LogRecord{})
	} else {
		err = enc.Encode(records)
	}
	if err != nil {
		return fmt.Errorf("encode logbook csv: %w", err)
	}
	cw.Flush()
	return cw.Error()
}
