package providers

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strconv"
	"time"

	"github.com/ad/go-telegram-fitness/internal/models"
)

const (
	defaultStravaURL = "https://www.strava.com"
	stravaPageSize   = 50
)

// Strava reads athlete activities from the Strava v3 API.
type Strava struct {
	client *client
}

func NewStrava(cfg Config, tokens TokenStore) *Strava {
	return &Strava{client: newClient(models.ProviderStrava, defaultStravaURL, cfg, tokens)}
}

func (s *Strava) Name() string {
	return string(models.ProviderStrava)
}

type stravaActivity struct {
	Distance   float64 `json:"distance"`
	MovingTime int     `json:"moving_time"`
	Calories   float64 `json:"calories"`
	Kilojoules float64 `json:"kilojoules"`
}

// RecentActivity sums every activity started after since, reading pages until
// a short one. Distance arrives in metres and moving time in seconds. When
// calories are missing, kilojoules of work are used as kilocalories.
func (s *Strava) RecentActivity(ctx context.Context, userID string, since time.Time) (*models.Measurement, error) {
	var activities []stravaActivity
	for page := 1; ; page++ {
		if page > maxPages {
			return nil, fmt.Errorf("%w: more than %d pages since %s", ErrTooManyActivities, maxPages, since.Format(time.RFC3339))
		}

		query := url.Values{}
		query.Set("after", strconv.FormatInt(since.Unix(), 10))
		query.Set("per_page", strconv.Itoa(stravaPageSize))
		query.Set("page", strconv.Itoa(page))

		var batch []stravaActivity
		if err := s.client.getJSON(ctx, userID, "/api/v3/athlete/activities", query, &batch); err != nil {
			return nil, err
		}
		activities = append(activities, batch...)
		if len(batch) < stravaPageSize {
			break
		}
	}

	var meters, calories, seconds float64
	for _, a := range activities {
		meters += a.Distance
		seconds += float64(a.MovingTime)
		if a.Calories > 0 {
			calories += a.Calories
		} else {
			calories += a.Kilojoules
		}
	}

	log.Printf("[STRAVA] User %s: %d activities since %s", userID, len(activities), since.Format(time.RFC3339))
	return measurement(meters/1000, calories, seconds/60, len(activities)), nil
}
