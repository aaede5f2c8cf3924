package services

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/ad/go-telegram-fitness/internal/models"
)

// MeasurementSource is an external provider of recent activity.
type MeasurementSource interface {
	Name() string
	RecentActivity(ctx context.Context, userID string, since time.Time) (*models.Measurement, error)
}

// SourceResult is the outcome of reading one source: either a measurement or an error.
type SourceResult struct {
	Source      string
	Measurement *models.Measurement
	Err         error
}

type MergeResult struct {
	Delta models.ProgressDelta
	// Attribution maps each merged field to the source that supplied it.
	Attribution map[string]string
}

// MergeMeasurements reduces results, in priority order, to one delta. For each
// field the first successful source with a positive value wins. Fields nobody
// supplied stay nil. An empty merge returns ErrNothingToSync.
func MergeMeasurements(results []SourceResult) (MergeResult, error) {
	merged := MergeResult{Attribution: make(map[string]string)}

	pick := func(field string, get func(*models.Measurement) *float64) *float64 {
		for _, r := range results {
			if r.Err != nil || r.Measurement == nil {
				continue
			}
			if v := get(r.Measurement); v != nil && *v > 0 {
				merged.Attribution[field] = r.Source
				out := *v
				return &out
			}
		}
		return nil
	}

	merged.Delta.Distance = pick("distance", func(m *models.Measurement) *float64 { return m.Distance })
	merged.Delta.Calories = pick("calories", func(m *models.Measurement) *float64 { return m.Calories })
	merged.Delta.Minutes = pick("minutes", func(m *models.Measurement) *float64 { return m.Minutes })

	if merged.Delta.IsEmpty() {
		return merged, ErrNothingToSync
	}
	return merged, nil
}

type SyncReport struct {
	Merge   MergeResult
	Result  ProgressResult
	Skipped []*SourceError
}

// SyncService pulls activity from the configured sources, primary first, and
// feeds the merged delta into the membership's progress.
type SyncService struct {
	membership *MembershipService
	auth       *AuthService
	sources    []MeasurementSource
	locks      *KeyedLock
	now        func() time.Time
}

func NewSyncService(auth *AuthService, membership *MembershipService, sources ...MeasurementSource) *SyncService {
	return &SyncService{
		membership: membership,
		auth:       auth,
		sources:    sources,
		locks:      NewKeyedLock(),
		now:        time.Now,
	}
}

// Sync is serialized per (user, challenge). A report is returned alongside
// ErrNothingToSync so callers can show which sources were skipped.
func (s *SyncService) Sync(ctx context.Context, userID, challengeID string) (*SyncReport, error) {
	report, err := s.sync(ctx, userID, challengeID)
	switch {
	case err == nil:
		syncRuns.WithLabelValues("ok").Inc()
	case errors.Is(err, ErrNothingToSync):
		syncRuns.WithLabelValues("nothing").Inc()
	default:
		syncRuns.WithLabelValues("error").Inc()
	}
	return report, err
}

func (s *SyncService) sync(ctx context.Context, userID, challengeID string) (*SyncReport, error) {
	if _, err := s.auth.CurrentUser(ctx, userID); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(userID + ":" + challengeID)
	defer unlock()

	uc, err := s.membership.FindActive(ctx, userID, challengeID)
	if err != nil {
		return nil, err
	}

	since := uc.SyncCursor()
	startedAt := s.now()
	report := &SyncReport{}

	results := make([]SourceResult, 0, len(s.sources))
	for _, src := range s.sources {
		m, err := src.RecentActivity(ctx, userID, since)
		if err != nil {
			srcErr := &SourceError{Source: src.Name(), Err: err}
			report.Skipped = append(report.Skipped, srcErr)
			sourceFailures.WithLabelValues(src.Name()).Inc()
			log.Printf("[SYNC] Skipping %s for user %s: %v", src.Name(), userID, err)
			results = append(results, SourceResult{Source: src.Name(), Err: srcErr})
			continue
		}
		results = append(results, SourceResult{Source: src.Name(), Measurement: m})
	}

	merged, err := MergeMeasurements(results)
	report.Merge = merged
	if err != nil {
		return report, err
	}

	result, err := s.membership.applyProgress(ctx, userID, challengeID, merged.Delta, "sync", &startedAt)
	if err != nil {
		return report, err
	}
	report.Result = result

	log.Printf("[SYNC] User %s challenge %s synced: %v", userID, challengeID, merged.Attribution)
	return report, nil
}
