package handlers

import (
	"context"
	"fmt"
	"html"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/ad/go-telegram-fitness/internal/db"
	"github.com/ad/go-telegram-fitness/internal/models"
	"github.com/ad/go-telegram-fitness/internal/services"
	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
)

const helpText = `Commands:
/challenges [category|difficulty|text] - browse challenges
/challenge <id> - challenge details
/join <id> - join a challenge
/leave <id> - leave a challenge
/my - your active challenges
/log <id> [distance=km] [calories=kcal] [minutes=min] [sessions=n] [workout] - log progress
/connect <strava|fitbit> <token> - connect a tracker
/sync <id> - pull activity from connected trackers
/stats - your summary
/logout - log out`

type BotHandler struct {
	errorManager *services.ErrorManager
	msgManager   *services.MessageManager
	auth         *services.AuthService
	catalog      *services.CatalogService
	membership   *services.MembershipService
	syncService  *services.SyncService
	stats        *services.StatsService
	connections  *db.ConnectionRepository
	now          func() time.Time
}

func NewBotHandler(
	errorManager *services.ErrorManager,
	msgManager *services.MessageManager,
	auth *services.AuthService,
	catalog *services.CatalogService,
	membership *services.MembershipService,
	syncService *services.SyncService,
	stats *services.StatsService,
	connections *db.ConnectionRepository,
) *BotHandler {
	return &BotHandler{
		errorManager: errorManager,
		msgManager:   msgManager,
		auth:         auth,
		catalog:      catalog,
		membership:   membership,
		syncService:  syncService,
		stats:        stats,
		connections:  connections,
		now:          time.Now,
	}
}

func (h *BotHandler) HandleUpdate(ctx context.Context, b *bot.Bot, update *tgmodels.Update) {
	defer h.recoverPanic(ctx, update)

	if update.Message != nil {
		h.handleMessage(ctx, update.Message)
	}
}

func (h *BotHandler) recoverPanic(ctx context.Context, update *tgmodels.Update) {
	if r := recover(); r != nil {
		log.Printf("[HANDLER] Recovered panic: %v", r)
		h.errorManager.NotifyAdmin(ctx, r, update)
	}
}

func (h *BotHandler) handleMessage(ctx context.Context, msg *tgmodels.Message) {
	if msg.From == nil || !strings.HasPrefix(msg.Text, "/") {
		return
	}

	fields := strings.Fields(msg.Text)
	// Commands may arrive as /cmd@botname in groups.
	command := strings.SplitN(fields[0], "@", 2)[0]
	args := fields[1:]
	userID := strconv.FormatInt(msg.From.ID, 10)
	chatID := msg.Chat.ID

	switch command {
	case "/start":
		h.handleStart(ctx, chatID, msg.From)
	case "/help":
		h.sendHTML(ctx, chatID, html.EscapeString(helpText))
	case "/logout":
		h.reply(ctx, chatID, h.auth.Logout(ctx, userID), "Logged out. Send /start to log in again.")
	case "/challenges":
		h.handleChallenges(ctx, chatID, args)
	case "/challenge":
		h.handleChallenge(ctx, chatID, args)
	case "/join":
		h.handleJoin(ctx, chatID, userID, args)
	case "/leave":
		h.handleLeave(ctx, chatID, userID, args)
	case "/my":
		h.handleMy(ctx, chatID, userID)
	case "/log":
		h.handleLog(ctx, chatID, userID, args)
	case "/sync":
		h.handleSync(ctx, chatID, userID, args)
	case "/connect":
		h.handleConnect(ctx, chatID, userID, args)
	case "/stats":
		h.handleStats(ctx, chatID, userID)
	default:
		h.sendHTML(ctx, chatID, "Unknown command.\n\n"+html.EscapeString(helpText))
	}
}

func (h *BotHandler) handleStart(ctx context.Context, chatID int64, from *tgmodels.User) {
	user := &models.User{
		ID:       strconv.FormatInt(from.ID, 10),
		Name:     strings.TrimSpace(from.FirstName + " " + from.LastName),
		Username: from.Username,
	}
	if err := h.auth.Login(ctx, user); err != nil {
		h.replyError(ctx, chatID, err)
		return
	}
	h.sendHTML(ctx, chatID, fmt.Sprintf("Welcome, %s!\n\n%s", services.FormatBold(user.Name), html.EscapeString(helpText)))
}

func (h *BotHandler) handleChallenges(ctx context.Context, chatID int64, args []string) {
	filter := services.CatalogFilter{}
	if len(args) > 0 {
		arg := strings.ToLower(args[0])
		switch {
		case models.Category(arg).Valid():
			filter.Category = models.Category(arg)
		case models.Difficulty(arg).Valid():
			filter.Difficulty = models.Difficulty(arg)
		default:
			filter.Search = strings.Join(args, " ")
		}
	}

	challenges, err := h.catalog.List(ctx, filter)
	if err != nil {
		h.replyError(ctx, chatID, err)
		return
	}
	h.sendHTML(ctx, chatID, services.FormatChallengeList(challenges))
}

func (h *BotHandler) handleChallenge(ctx context.Context, chatID int64, args []string) {
	if len(args) != 1 {
		h.sendUsage(ctx, chatID, "/challenge <id>")
		return
	}
	c, err := h.catalog.Get(ctx, args[0])
	if err != nil {
		h.replyError(ctx, chatID, err)
		return
	}
	h.sendHTML(ctx, chatID, services.FormatChallenge(c))
}

func (h *BotHandler) handleJoin(ctx context.Context, chatID int64, userID string, args []string) {
	if len(args) != 1 {
		h.sendUsage(ctx, chatID, "/join <id>")
		return
	}
	uc, err := h.membership.Join(ctx, userID, args[0])
	if err != nil {
		h.replyError(ctx, chatID, err)
		return
	}
	h.msgManager.SendResult(ctx, chatID, services.OK(fmt.Sprintf(
		"Joined! Ends %s. Log progress with /log %s workout", services.FormatDate(uc.EndDate), uc.ChallengeID)))
}

func (h *BotHandler) handleLeave(ctx context.Context, chatID int64, userID string, args []string) {
	if len(args) != 1 {
		h.sendUsage(ctx, chatID, "/leave <id>")
		return
	}
	h.reply(ctx, chatID, h.membership.Leave(ctx, userID, args[0]), "You left the challenge")
}

func (h *BotHandler) handleMy(ctx context.Context, chatID int64, userID string) {
	if _, err := h.auth.CurrentUser(ctx, userID); err != nil {
		h.replyError(ctx, chatID, err)
		return
	}
	views, err := h.membership.ActiveViews(ctx, userID)
	if err != nil {
		h.replyError(ctx, chatID, err)
		return
	}
	h.sendHTML(ctx, chatID, services.FormatActiveViews(views, h.now()))
}

func (h *BotHandler) handleLog(ctx context.Context, chatID int64, userID string, args []string) {
	if len(args) < 2 {
		h.sendUsage(ctx, chatID, "/log <id> [distance=km] [calories=kcal] [minutes=min] [sessions=n] [workout]")
		return
	}
	delta, err := ParseDelta(args[1:])
	if err != nil {
		h.replyError(ctx, chatID, err)
		return
	}
	result, err := h.membership.UpdateProgress(ctx, userID, args[0], delta)
	if err != nil {
		h.replyError(ctx, chatID, err)
		return
	}
	h.sendHTML(ctx, chatID, services.FormatProgressResult(result))
}

func (h *BotHandler) handleSync(ctx context.Context, chatID int64, userID string, args []string) {
	if len(args) != 1 {
		h.sendUsage(ctx, chatID, "/sync <id>")
		return
	}
	report, err := h.syncService.Sync(ctx, userID, args[0])
	if err != nil {
		h.replyError(ctx, chatID, err)
		return
	}
	h.sendHTML(ctx, chatID, services.FormatSyncReport(report))
}

func (h *BotHandler) handleConnect(ctx context.Context, chatID int64, userID string, args []string) {
	if len(args) != 2 {
		h.sendUsage(ctx, chatID, "/connect <strava|fitbit> <token>")
		return
	}
	if _, err := h.auth.CurrentUser(ctx, userID); err != nil {
		h.replyError(ctx, chatID, err)
		return
	}

	provider := models.Provider(strings.ToLower(args[0]))
	if !provider.Valid() {
		h.replyError(ctx, chatID, services.ErrUnknownProvider)
		return
	}

	err := h.connections.Save(ctx, userID, &models.Connection{
		Provider:    provider,
		AccessToken: args[1],
		ConnectedAt: h.now(),
	})
	h.reply(ctx, chatID, err, fmt.Sprintf("%s connected", provider))
}

func (h *BotHandler) handleStats(ctx context.Context, chatID int64, userID string) {
	if _, err := h.auth.CurrentUser(ctx, userID); err != nil {
		h.replyError(ctx, chatID, err)
		return
	}
	stats, err := h.stats.ForUser(ctx, userID)
	if err != nil {
		h.replyError(ctx, chatID, err)
		return
	}
	h.sendHTML(ctx, chatID, services.FormatStats(stats))
}

// ParseDelta reads key=value tokens and the bare "workout" flag.
func ParseDelta(tokens []string) (models.ProgressDelta, error) {
	var delta models.ProgressDelta
	for _, token := range tokens {
		if strings.EqualFold(token, "workout") {
			delta.WorkoutCompleted = true
			continue
		}

		key, value, ok := strings.Cut(token, "=")
		if !ok {
			return delta, fmt.Errorf("%w: unexpected %q", services.ErrInvalidDelta, token)
		}

		switch strings.ToLower(key) {
		case "sessions":
			n, err := strconv.Atoi(value)
			if err != nil {
				return delta, fmt.Errorf("%w: sessions=%q", services.ErrInvalidDelta, value)
			}
			delta.Sessions = &n
		case "distance", "calories", "minutes":
			v, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return delta, fmt.Errorf("%w: %s=%q", services.ErrInvalidDelta, key, value)
			}
			switch strings.ToLower(key) {
			case "distance":
				delta.Distance = &v
			case "calories":
				delta.Calories = &v
			default:
				delta.Minutes = &v
			}
		default:
			return delta, fmt.Errorf("%w: unknown field %q", services.ErrInvalidDelta, key)
		}
	}

	if delta.IsEmpty() {
		return delta, fmt.Errorf("%w: nothing to log", services.ErrInvalidDelta)
	}
	return delta, services.ValidateDelta(delta)
}

func (h *BotHandler) reply(ctx context.Context, chatID int64, err error, success string) {
	if err != nil {
		h.replyError(ctx, chatID, err)
		return
	}
	h.msgManager.SendResult(ctx, chatID, services.OK(success))
}

func (h *BotHandler) replyError(ctx context.Context, chatID int64, err error) {
	log.Printf("[HANDLER] Chat %d: %v", chatID, err)
	h.msgManager.SendResult(ctx, chatID, services.ResultFromError(err))
}

func (h *BotHandler) sendUsage(ctx context.Context, chatID int64, usage string) {
	h.msgManager.SendResult(ctx, chatID, services.Result{Message: "Usage: " + usage})
}

func (h *BotHandler) sendHTML(ctx context.Context, chatID int64, text string) {
	if err := h.msgManager.SendHTML(ctx, chatID, text); err != nil {
		log.Printf("[HANDLER] Failed to send message to %d: %v", chatID, err)
	}
}
