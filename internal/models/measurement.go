package models

import "time"

// Measurement is activity observed by an external provider since a cursor.
// Distance is kilometres, Calories kilocalories, Minutes active minutes.
type Measurement struct {
	Distance   *float64
	Calories   *float64
	Minutes    *float64
	Activities int
}

func (m *Measurement) IsEmpty() bool {
	return m == nil || (!positive(m.Distance) && !positive(m.Calories) && !positive(m.Minutes))
}

func positive(p *float64) bool {
	return p != nil && *p > 0
}

type Provider string

const (
	ProviderStrava Provider = "strava"
	ProviderFitbit Provider = "fitbit"
)

func (p Provider) Valid() bool {
	return p == ProviderStrava || p == ProviderFitbit
}

// Connection is a user's stored access token for one provider.
type Connection struct {
	Provider    Provider  `json:"provider"`
	AccessToken string    `json:"accessToken"`
	ConnectedAt time.Time `json:"connectedAt"`
}
