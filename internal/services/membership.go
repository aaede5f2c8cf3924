package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/ad/go-telegram-fitness/internal/db"
	"github.com/ad/go-telegram-fitness/internal/models"
	"github.com/google/uuid"
)

const MaxActiveChallenges = 5

// ChallengeView joins a membership record with its catalog entry. Challenge is
// nil when the record points at an id the catalog no longer has.
type ChallengeView struct {
	Record     *models.UserChallenge
	Challenge  *models.Challenge
	Percentage int
}

// MembershipService owns every user's enrollment records. All read-modify-write
// sequences on the membership document run under mu.
type MembershipService struct {
	auth        *AuthService
	catalog     *CatalogService
	memberships *db.MembershipRepository
	mu          sync.Mutex
	now         func() time.Time
}

func NewMembershipService(auth *AuthService, catalog *CatalogService, memberships *db.MembershipRepository) *MembershipService {
	return &MembershipService{
		auth:        auth,
		catalog:     catalog,
		memberships: memberships,
		now:         time.Now,
	}
}

func (s *MembershipService) Join(ctx context.Context, userID, challengeID string) (*models.UserChallenge, error) {
	uc, err := s.join(ctx, userID, challengeID)
	membershipOps.WithLabelValues("join", resultLabel(err)).Inc()
	return uc, err
}

func (s *MembershipService) join(ctx context.Context, userID, challengeID string) (*models.UserChallenge, error) {
	if _, err := s.auth.CurrentUser(ctx, userID); err != nil {
		return nil, err
	}

	challenge, err := s.catalog.Get(ctx, challengeID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.memberships.GetForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load memberships of %s: %w", userID, err)
	}

	active := 0
	for _, r := range records {
		if r.Status.Terminal() {
			continue
		}
		if r.ChallengeID == challengeID {
			return nil, ErrAlreadyJoined
		}
		active++
	}
	if active >= MaxActiveChallenges {
		return nil, ErrActiveLimitExceeded
	}

	uc := NewUserChallenge(userID, challenge, s.now())
	updated := make([]*models.UserChallenge, 0, len(records)+1)
	updated = append(updated, records...)
	updated = append(updated, uc)

	if err := s.memberships.SaveForUser(ctx, userID, updated); err != nil {
		return nil, fmt.Errorf("save membership: %w", err)
	}

	if _, err := s.catalog.AdjustParticipants(ctx, challengeID, 1); err != nil {
		if rbErr := s.memberships.SaveForUser(ctx, userID, records); rbErr != nil {
			log.Printf("[MEMBERSHIP] Failed to roll back join of %s to %s: %v", userID, challengeID, rbErr)
		}
		return nil, err
	}

	log.Printf("[MEMBERSHIP] User %s joined challenge %s", userID, challengeID)
	return uc, nil
}

// NewUserChallenge builds the active record created by a join at now.
func NewUserChallenge(userID string, challenge *models.Challenge, now time.Time) *models.UserChallenge {
	p := models.Progress{TotalDays: challenge.Duration}
	if challenge.Duration > 0 {
		p.CurrentDay = 1
	}
	if v, ok := challenge.Goals.Target(models.GoalWorkouts); ok {
		p.TotalWorkouts = int(v)
	}
	if v, ok := challenge.Goals.Target(models.GoalDistance); ok {
		p.CurrentDistance, p.TotalDistance = models.Float64(0), models.Float64(v)
	}
	if v, ok := challenge.Goals.Target(models.GoalCalories); ok {
		p.CurrentCalories, p.TotalCalories = models.Float64(0), models.Float64(v)
	}
	if v, ok := challenge.Goals.Target(models.GoalMinutes); ok {
		p.CurrentMinutes, p.TotalMinutes = models.Float64(0), models.Float64(v)
	}
	if v, ok := challenge.Goals.Target(models.GoalSessions); ok {
		p.CurrentSessions, p.TotalSessions = models.Int(0), models.Int(int(v))
	}

	name := fmt.Sprintf("%s:%s:%d", userID, challenge.ID, now.UnixNano())
	return &models.UserChallenge{
		ID:          uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)).String(),
		UserID:      userID,
		ChallengeID: challenge.ID,
		Status:      models.StatusActive,
		Progress:    p,
		StartDate:   now,
		EndDate:     now.AddDate(0, 0, challenge.Duration),
		JoinedAt:    now,
	}
}

func (s *MembershipService) Leave(ctx context.Context, userID, challengeID string) error {
	err := s.leave(ctx, userID, challengeID)
	membershipOps.WithLabelValues("leave", resultLabel(err)).Inc()
	return err
}

func (s *MembershipService) leave(ctx context.Context, userID, challengeID string) error {
	if _, err := s.auth.CurrentUser(ctx, userID); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.memberships.GetForUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("load memberships of %s: %w", userID, err)
	}

	idx := findActive(records, challengeID)
	if idx < 0 {
		return ErrNotJoined
	}

	updated := cloneRecords(records)
	updated[idx].Status = models.StatusAbandoned
	updated[idx].EndDate = s.now()

	if err := s.memberships.SaveForUser(ctx, userID, updated); err != nil {
		return fmt.Errorf("save membership: %w", err)
	}

	if _, err := s.catalog.AdjustParticipants(ctx, challengeID, -1); err != nil {
		// A dangling challenge id has no counter to decrement.
		if !errors.Is(err, ErrChallengeNotFound) {
			if rbErr := s.memberships.SaveForUser(ctx, userID, records); rbErr != nil {
				log.Printf("[MEMBERSHIP] Failed to roll back leave of %s from %s: %v", userID, challengeID, rbErr)
			}
			return err
		}
	}

	log.Printf("[MEMBERSHIP] User %s left challenge %s", userID, challengeID)
	return nil
}

func (s *MembershipService) ListAll(ctx context.Context, userID string) ([]*models.UserChallenge, error) {
	records, err := s.memberships.GetForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load memberships of %s: %w", userID, err)
	}
	return records, nil
}

func (s *MembershipService) ListActive(ctx context.Context, userID string) ([]*models.UserChallenge, error) {
	return s.listByStatus(ctx, userID, models.StatusActive)
}

func (s *MembershipService) ListCompleted(ctx context.Context, userID string) ([]*models.UserChallenge, error) {
	return s.listByStatus(ctx, userID, models.StatusCompleted)
}

func (s *MembershipService) listByStatus(ctx context.Context, userID string, status models.ChallengeStatus) ([]*models.UserChallenge, error) {
	records, err := s.ListAll(ctx, userID)
	if err != nil {
		return nil, err
	}
	var result []*models.UserChallenge
	for _, r := range records {
		if r.Status == status {
			result = append(result, r)
		}
	}
	return result, nil
}

// FindActive returns the active record of userID for challengeID or ErrNotJoined.
func (s *MembershipService) FindActive(ctx context.Context, userID, challengeID string) (*models.UserChallenge, error) {
	records, err := s.ListAll(ctx, userID)
	if err != nil {
		return nil, err
	}
	idx := findActive(records, challengeID)
	if idx < 0 {
		return nil, ErrNotJoined
	}
	return records[idx], nil
}

func (s *MembershipService) ActiveViews(ctx context.Context, userID string) ([]ChallengeView, error) {
	active, err := s.ListActive(ctx, userID)
	if err != nil {
		return nil, err
	}
	index, err := s.catalog.ByID(ctx)
	if err != nil {
		return nil, err
	}

	views := make([]ChallengeView, 0, len(active))
	for _, r := range active {
		views = append(views, ChallengeView{
			Record:     r,
			Challenge:  index[r.ChallengeID],
			Percentage: CalculateProgress(r.Progress),
		})
	}
	return views, nil
}

// UpdateProgress applies a manual delta to the active record of userID for challengeID.
func (s *MembershipService) UpdateProgress(ctx context.Context, userID, challengeID string, delta models.ProgressDelta) (ProgressResult, error) {
	if _, err := s.auth.CurrentUser(ctx, userID); err != nil {
		return ProgressResult{}, err
	}
	return s.applyProgress(ctx, userID, challengeID, delta, "manual", nil)
}

// applyProgress runs ApplyDelta against the stored active record and persists
// it. A non-nil syncedAt also advances the record's sync cursor.
func (s *MembershipService) applyProgress(ctx context.Context, userID, challengeID string, delta models.ProgressDelta, origin string, syncedAt *time.Time) (ProgressResult, error) {
	if err := ValidateDelta(delta); err != nil {
		return ProgressResult{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.memberships.GetForUser(ctx, userID)
	if err != nil {
		return ProgressResult{}, fmt.Errorf("load memberships of %s: %w", userID, err)
	}

	idx := findActive(records, challengeID)
	if idx < 0 {
		return ProgressResult{}, ErrNotJoined
	}

	updated := cloneRecords(records)
	result, err := ApplyDelta(updated[idx], delta, s.now())
	if err != nil {
		return ProgressResult{}, err
	}
	if syncedAt != nil {
		stamp := *syncedAt
		updated[idx].LastSyncedAt = &stamp
	}

	if err := s.memberships.SaveForUser(ctx, userID, updated); err != nil {
		return ProgressResult{}, fmt.Errorf("save progress: %w", err)
	}

	progressUpdates.WithLabelValues(origin).Inc()
	if result.Completed {
		challengeCompletions.Inc()
		log.Printf("[MEMBERSHIP] User %s completed challenge %s", userID, challengeID)
	}
	return result, nil
}

func findActive(records []*models.UserChallenge, challengeID string) int {
	for i, r := range records {
		if r.ChallengeID == challengeID && !r.Status.Terminal() {
			return i
		}
	}
	return -1
}

// cloneRecords copies the slice and its records so a failed write leaves the
// caller's view untouched.
func cloneRecords(records []*models.UserChallenge) []*models.UserChallenge {
	out := make([]*models.UserChallenge, len(records))
	for i, r := range records {
		c := *r
		c.Progress = r.Progress.Clone()
		out[i] = &c
	}
	return out
}
