package providers

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ad/go-telegram-fitness/internal/models"
)

const (
	defaultFitbitURL = "https://api.fitbit.com"
	fitbitPageSize   = 20
	kmPerMile        = 1.609344
)

// Fitbit reads the activity log list of the authorized user.
type Fitbit struct {
	client *client
}

func NewFitbit(cfg Config, tokens TokenStore) *Fitbit {
	return &Fitbit{client: newClient(models.ProviderFitbit, defaultFitbitURL, cfg, tokens)}
}

func (f *Fitbit) Name() string {
	return string(models.ProviderFitbit)
}

type fitbitActivity struct {
	Distance       float64 `json:"distance"`
	DistanceUnit   string  `json:"distanceUnit"`
	Calories       float64 `json:"calories"`
	ActiveDuration int64   `json:"activeDuration"`
}

type fitbitActivityList struct {
	Activities []fitbitActivity `json:"activities"`
}

// RecentActivity sums every logged activity after since, oldest first, moving
// the offset until a short page. Active duration arrives in milliseconds.
func (f *Fitbit) RecentActivity(ctx context.Context, userID string, since time.Time) (*models.Measurement, error) {
	var activities []fitbitActivity
	for page := 0; ; page++ {
		if page >= maxPages {
			return nil, fmt.Errorf("%w: more than %d pages since %s", ErrTooManyActivities, maxPages, since.Format(time.RFC3339))
		}

		query := url.Values{}
		query.Set("afterDate", since.UTC().Format("2006-01-02T15:04:05"))
		query.Set("sort", "asc")
		query.Set("offset", strconv.Itoa(page*fitbitPageSize))
		query.Set("limit", strconv.Itoa(fitbitPageSize))

		var list fitbitActivityList
		if err := f.client.getJSON(ctx, userID, "/1/user/-/activities/list.json", query, &list); err != nil {
			return nil, err
		}
		activities = append(activities, list.Activities...)
		if len(list.Activities) < fitbitPageSize {
			break
		}
	}

	var km, calories, millis float64
	for _, a := range activities {
		d := a.Distance
		if strings.EqualFold(a.DistanceUnit, "mile") {
			d *= kmPerMile
		}
		km += d
		calories += a.Calories
		millis += float64(a.ActiveDuration)
	}

	log.Printf("[FITBIT] User %s: %d activities since %s", userID, len(activities), since.Format(time.RFC3339))
	return measurement(km, calories, millis/60000, len(activities)), nil
}
