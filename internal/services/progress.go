package services

import (
	"fmt"
	"math"
	"time"

	"github.com/ad/go-telegram-fitness/internal/models"
)

// CalculateProgress returns the completion percentage of p: the unweighted
// mean of current/total*100 over every tracked pair, rounded half up and
// clamped to [0, 100]. Individual ratios are not clamped.
func CalculateProgress(p models.Progress) int {
	var sum float64
	criteria := 0
	for _, kind := range models.GoalKinds {
		current, total := p.Pair(kind)
		if total <= 0 {
			continue
		}
		sum += current / total * 100
		criteria++
	}
	if criteria == 0 {
		return 0
	}

	pct := math.Floor(sum/float64(criteria) + 0.5)
	switch {
	case math.IsNaN(pct), pct < 0:
		return 0
	case pct > 100:
		return 100
	}
	return int(pct)
}

type ProgressResult struct {
	Progress   models.Progress
	Percentage int
	Status     models.ChallengeStatus
	Completed  bool
}

// ValidateDelta rejects negative or non-finite values.
func ValidateDelta(delta models.ProgressDelta) error {
	for _, v := range []*float64{delta.Distance, delta.Calories, delta.Minutes} {
		if v != nil && (*v < 0 || math.IsNaN(*v) || math.IsInf(*v, 0)) {
			return ErrInvalidDelta
		}
	}
	if delta.Sessions != nil && *delta.Sessions < 0 {
		return ErrInvalidDelta
	}
	return nil
}

// ApplyDelta accumulates delta into uc and runs the completion transition.
// Nothing is changed when the delta is invalid, would push a running total out
// of range, or uc is terminal.
func ApplyDelta(uc *models.UserChallenge, delta models.ProgressDelta, now time.Time) (ProgressResult, error) {
	if uc.Status.Terminal() {
		return ProgressResult{}, ErrNotJoined
	}
	if err := ValidateDelta(delta); err != nil {
		return ProgressResult{}, err
	}

	p := uc.Progress.Clone()
	var ok bool
	if delta.Distance != nil {
		if p.CurrentDistance, ok = addFloat(p.CurrentDistance, *delta.Distance); !ok {
			return ProgressResult{}, fmt.Errorf("%w: distance total out of range", ErrInvalidDelta)
		}
	}
	if delta.Calories != nil {
		if p.CurrentCalories, ok = addFloat(p.CurrentCalories, *delta.Calories); !ok {
			return ProgressResult{}, fmt.Errorf("%w: calories total out of range", ErrInvalidDelta)
		}
	}
	if delta.Minutes != nil {
		if p.CurrentMinutes, ok = addFloat(p.CurrentMinutes, *delta.Minutes); !ok {
			return ProgressResult{}, fmt.Errorf("%w: minutes total out of range", ErrInvalidDelta)
		}
	}
	if delta.Sessions != nil {
		if p.CurrentSessions, ok = addInt(p.CurrentSessions, *delta.Sessions); !ok {
			return ProgressResult{}, fmt.Errorf("%w: sessions total out of range", ErrInvalidDelta)
		}
	}
	if delta.WorkoutCompleted {
		p.CompletedWorkouts++
		if p.CurrentDay < p.TotalDays {
			p.CurrentDay++
		}
	}

	uc.Progress = p
	pct := CalculateProgress(p)
	completed := false
	if pct >= 100 && uc.Status == models.StatusActive {
		uc.Status = models.StatusCompleted
		completedAt := now
		uc.CompletedAt = &completedAt
		completed = true
	}

	return ProgressResult{
		Progress:   p.Clone(),
		Percentage: pct,
		Status:     uc.Status,
		Completed:  completed,
	}, nil
}

// addFloat reports false when the sum is no longer finite.
func addFloat(current *float64, delta float64) (*float64, bool) {
	v := delta
	if current != nil {
		v += *current
	}
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return current, false
	}
	return &v, true
}

// addInt reports false when the sum would overflow int.
func addInt(current *int, delta int) (*int, bool) {
	v := delta
	if current != nil {
		if *current > math.MaxInt-delta {
			return current, false
		}
		v += *current
	}
	return &v, true
}
