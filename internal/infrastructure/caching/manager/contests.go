package manager

import (
	"context"
	"fmt"

	"github.com/cragnet/cragcache/internal/domain/entities/climbing"
	"github.com/cragnet/cragcache/internal/domain/freshness"
	"github.com/cragnet/cragcache/internal/infrastructure/messaging"
	"github.com/cragnet/cragcache/internal/infrastructure/persistence/mapping"
	"github.com/cragnet/cragcache/internal/infrastructure/persistence/store"
)

var (
	siteContests    = collection[climbing.Contest]{mapper: mapping.Contests, category: freshness.CategoryContests, sentinel: store.KindSiteContests}
	contestSteps    = collection[climbing.ContestStep]{mapper: mapping.ContestSteps, category: freshness.CategoryContestSteps}
	contestRankings = collection[climbing.ContestRanking]{mapper: mapping.ContestRankings, category: freshness.CategoryContestRankings}
)

func contestScope(backendID string, contestID int64) store.Scope {
	return store.Scope{BackendID: backendID, Column: "contest_id", ParentID: contestID}
}

func (m *Manager) GetCachedContestsBySite(ctx context.Context, backendID string, siteID int64) ([]climbing.Contest, error) {
	return readCollection(ctx, m, siteContests, siteScope(backendID, siteID), false)
}

func (m *Manager) GetCachedContestsBySiteIgnoreExpiration(ctx context.Context, backendID string, siteID int64) ([]climbing.Contest, error) {
	return readCollection(ctx, m, siteContests, siteScope(backendID, siteID), true)
}

// CacheContestsForSite replaces the contests of siteID and records the
// fetch. Steps are not part of the listing and are left untouched.
func (m *Manager) CacheContestsForSite(ctx context.Context, backendID string, siteID int64, contests []climbing.Contest) error {
	forced := make([]climbing.Contest, len(contests))
	for i, c := range contests {
		c.SiteID = siteID
		forced[i] = c
	}
	return writeCollection(ctx, m, siteContests, siteScope(backendID, siteID), forced)
}

// GetCachedContest returns a contest with its cached steps attached.
func (m *Manager) GetCachedContest(ctx context.Context, backendID string, contestID int64) (climbing.Contest, error) {
	return m.readContest(ctx, backendID, contestID, false)
}

func (m *Manager) GetCachedContestIgnoreExpiration(ctx context.Context, backendID string, contestID int64) (climbing.Contest, error) {
	return m.readContest(ctx, backendID, contestID, true)
}

func (m *Manager) readContest(ctx context.Context, backendID string, contestID int64, ignoreExpiration bool) (climbing.Contest, error) {
	contest, err := readOne(ctx, m, mapping.Contests, freshness.CategoryContest, store.EntityKey{ID: contestID, BackendID: backendID}, ignoreExpiration)
	if err != nil {
		return contest, err
	}
	rows, err := m.store.QueryScope(ctx, store.TableContestSteps, contestScope(backendID, contestID))
	if err != nil {
		return climbing.Contest{}, fmt.Errorf("read contest %d steps: %w", contestID, err)
	}
	steps, _, failures := mapping.ContestSteps.FromRows(rows)
	m.logDecodeFailures(store.TableContestSteps.Name, failures)
	if len(steps) > 0 {
		contest.Steps = steps
	}
	return contest, nil
}

// CacheContest stores the contest and replaces its steps in one transaction.
func (m *Manager) CacheContest(ctx context.Context, backendID string, contest climbing.Contest) error {
	now := m.nowMillis()
	row, err := mapping.Contests.ToRow(backendID, contest, now)
	if err != nil {
		return err
	}
	steps := make([]climbing.ContestStep, len(contest.Steps))
	for i, s := range contest.Steps {
		s.ContestID = contest.ID
		steps[i] = s
	}
	stepRows, err := mapping.ContestSteps.ToRows(backendID, steps, now)
	if err != nil {
		return err
	}

	err = m.store.InTx(ctx, func(tx *store.Tx) error {
		if err := tx.Upsert(ctx, store.TableContests, row); err != nil {
			return err
		}
		return tx.ReplaceScope(ctx, store.TableContestSteps, contestScope(backendID, contest.ID), stepRows, nil)
	})
	if err != nil {
		return fmt.Errorf("cache contest %d: %w", contest.ID, err)
	}

	m.metrics.CacheWrite(string(freshness.CategoryContest))
	m.publish(messaging.CacheEvent{
		Type:      messaging.EventWrite,
		Category:  string(freshness.CategoryContest),
		BackendID: backendID,
		ParentID:  contest.SiteID,
		Rows:      1 + len(stepRows),
	})
	return nil
}

func (m *Manager) GetCachedContestSteps(ctx context.Context, backendID string, contestID int64) ([]climbing.ContestStep, error) {
	return readCollection(ctx, m, contestSteps, contestScope(backendID, contestID), false)
}

func (m *Manager) GetCachedContestStepsIgnoreExpiration(ctx context.Context, backendID string, contestID int64) ([]climbing.ContestStep, error) {
	return readCollection(ctx, m, contestSteps, contestScope(backendID, contestID), true)
}

// CacheContestSteps replaces the steps of contestID, forcing their contest id.
func (m *Manager) CacheContestSteps(ctx context.Context, backendID string, contestID int64, steps []climbing.ContestStep) error {
	forced := make([]climbing.ContestStep, len(steps))
	for i, s := range steps {
		s.ContestID = contestID
		forced[i] = s
	}
	return writeCollection(ctx, m, contestSteps, contestScope(backendID, contestID), forced)
}

func (m *Manager) GetCachedContestRankings(ctx context.Context, backendID string, contestID int64) ([]climbing.ContestRanking, error) {
	return readCollection(ctx, m, contestRankings, contestScope(backendID, contestID), false)
}

func (m *Manager) GetCachedContestRankingsIgnoreExpiration(ctx context.Context, backendID string, contestID int64) ([]climbing.ContestRanking, error) {
	return readCollection(ctx, m, contestRankings, contestScope(backendID, contestID), true)
}

// CacheContestRankings replaces the rankings of contestID, forcing their contest id.
func (m *Manager) CacheContestRankings(ctx context.Context, backendID string, contestID int64, rankings []climbing.ContestRanking) error {
	forced := make([]climbing.ContestRanking, len(rankings))
	for i, r := range rankings {
		r.ContestID = contestID
		forced[i] = r
	}
	return writeCollection(ctx, m, contestRankings, contestScope(backendID, contestID), forced)
}
