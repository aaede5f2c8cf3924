package services

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/ad/go-telegram-fitness/internal/models"
)

func FormatBold(text string) string {
	return fmt.Sprintf("<b>%s</b>", html.EscapeString(text))
}

func FormatCode(text string) string {
	return fmt.Sprintf("<code>%s</code>", html.EscapeString(text))
}

// FormatTimeAgo formats t relative to now, e.g. "3 days ago".
func FormatTimeAgo(t time.Time, now time.Time) string {
	diff := now.Sub(t)

	days := int(diff.Hours()) / 24
	hours := int(diff.Hours()) % 24
	minutes := int(diff.Minutes()) % 60

	switch {
	case days > 0:
		return plural(days, "day") + " ago"
	case hours > 0:
		return plural(hours, "hour") + " ago"
	case minutes > 0:
		return plural(minutes, "minute") + " ago"
	}
	return "just now"
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

func FormatDate(t time.Time) string {
	return t.Format("2 Jan 2006")
}

// ProgressBar renders pct as ten blocks.
func ProgressBar(pct int) string {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	filled := pct / 10
	return strings.Repeat("▰", filled) + strings.Repeat("▱", 10-filled)
}

func formatNumber(v float64) string {
	s := fmt.Sprintf("%.1f", v)
	return strings.TrimSuffix(s, ".0")
}

func goalLabel(kind models.GoalKind) (string, string) {
	switch kind {
	case models.GoalDistance:
		return "Distance", "km"
	case models.GoalWorkouts:
		return "Workouts", ""
	case models.GoalCalories:
		return "Calories", "kcal"
	case models.GoalMinutes:
		return "Minutes", "min"
	case models.GoalSessions:
		return "Sessions", ""
	}
	return string(kind), ""
}

func withUnit(v float64, unit string) string {
	if unit == "" {
		return formatNumber(v)
	}
	return formatNumber(v) + " " + unit
}

func FormatChallengeList(challenges []*models.Challenge) string {
	if len(challenges) == 0 {
		return "No challenges found."
	}

	var sb strings.Builder
	sb.WriteString(FormatBold("Challenges") + "\n\n")
	for _, c := range challenges {
		sb.WriteString(fmt.Sprintf("%s %s\n", FormatCode(c.ID), FormatBold(c.Title)))
		sb.WriteString(fmt.Sprintf("%s · %s · %d days · %d participants\n\n",
			c.Category, c.Difficulty, c.Duration, c.Participants))
	}
	sb.WriteString(html.EscapeString("Use /challenge <id> for details."))
	return sb.String()
}

func FormatChallenge(c *models.Challenge) string {
	var sb strings.Builder
	sb.WriteString(FormatBold(c.Title) + "\n")
	sb.WriteString(html.EscapeString(c.Description) + "\n\n")
	sb.WriteString(fmt.Sprintf("Category: %s\nDifficulty: %s\nDuration: %d days\n", c.Category, c.Difficulty, c.Duration))

	sb.WriteString("\nGoals:\n")
	for _, kind := range c.Goals.Kinds() {
		target, _ := c.Goals.Target(kind)
		label, unit := goalLabel(kind)
		sb.WriteString(fmt.Sprintf("• %s: %s\n", label, withUnit(target, unit)))
	}

	sb.WriteString(fmt.Sprintf("\nReward: %d points", c.Rewards.Points))
	if c.Rewards.Badge != "" {
		sb.WriteString(fmt.Sprintf(", badge %s", FormatBold(c.Rewards.Badge)))
	}
	sb.WriteString(fmt.Sprintf("\nParticipants: %d\n\n/join %s", c.Participants, c.ID))
	return sb.String()
}

// FormatProgress lists every tracked pair plus the day counter.
func FormatProgress(p models.Progress) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Day %d of %d\n", p.CurrentDay, p.TotalDays))
	for _, kind := range models.GoalKinds {
		current, total := p.Pair(kind)
		if total <= 0 {
			continue
		}
		label, unit := goalLabel(kind)
		sb.WriteString(fmt.Sprintf("• %s: %s / %s\n", label, formatNumber(current), withUnit(total, unit)))
	}
	return sb.String()
}

func FormatActiveViews(views []ChallengeView, now time.Time) string {
	if len(views) == 0 {
		return "You have no active challenges. Browse them with /challenges."
	}

	var sb strings.Builder
	sb.WriteString(FormatBold("Your active challenges") + "\n\n")
	for _, v := range views {
		title := "Unknown challenge"
		if v.Challenge != nil {
			title = v.Challenge.Title
		}
		sb.WriteString(fmt.Sprintf("%s %s\n", FormatCode(v.Record.ChallengeID), FormatBold(title)))
		sb.WriteString(fmt.Sprintf("%s %d%%\n", ProgressBar(v.Percentage), v.Percentage))
		sb.WriteString(FormatProgress(v.Record.Progress))
		sb.WriteString(fmt.Sprintf("Joined %s", FormatTimeAgo(v.Record.JoinedAt, now)))
		if v.Record.LastSyncedAt != nil {
			sb.WriteString(fmt.Sprintf(", synced %s", FormatTimeAgo(*v.Record.LastSyncedAt, now)))
		}
		sb.WriteString("\n\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func FormatProgressResult(result ProgressResult) string {
	var sb strings.Builder
	if result.Completed {
		sb.WriteString("🏆 Challenge completed!\n\n")
	} else {
		sb.WriteString("✅ Progress saved\n\n")
	}
	sb.WriteString(fmt.Sprintf("%s %d%%\n", ProgressBar(result.Percentage), result.Percentage))
	sb.WriteString(FormatProgress(result.Progress))
	return strings.TrimRight(sb.String(), "\n")
}

func FormatSyncReport(report *SyncReport) string {
	var sb strings.Builder
	sb.WriteString("🔄 Synced\n")
	for _, field := range []string{"distance", "calories", "minutes"} {
		if src, ok := report.Merge.Attribution[field]; ok {
			sb.WriteString(fmt.Sprintf("• %s from %s\n", field, src))
		}
	}
	for _, skipped := range report.Skipped {
		sb.WriteString(fmt.Sprintf("• %s skipped\n", skipped.Source))
	}
	sb.WriteString("\n")
	sb.WriteString(FormatProgressResult(report.Result))
	return sb.String()
}

func FormatStats(stats *UserStats) string {
	return fmt.Sprintf("%s\n\nActive: %d\nCompleted: %d\nAbandoned: %d\nPoints: %d\nAverage progress: %d%%",
		FormatBold("Your stats"), stats.Active, stats.Completed, stats.Abandoned, stats.Points, stats.AverageProgress)
}
