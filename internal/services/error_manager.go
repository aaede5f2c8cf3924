package services

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// Sender is the part of *bot.Bot used for outgoing messages.
type Sender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

type ErrorManager struct {
	sender  Sender
	adminID int64
}

func NewErrorManager(sender Sender, adminID int64) *ErrorManager {
	return &ErrorManager{
		sender:  sender,
		adminID: adminID,
	}
}

func describeUser(update *models.Update) string {
	if update == nil || update.Message == nil || update.Message.From == nil {
		return "unknown"
	}
	from := update.Message.From
	info := fmt.Sprintf("[%d]", from.ID)
	if from.FirstName != "" {
		info = from.FirstName + " " + info
	}
	if from.Username != "" {
		info = info + " @" + from.Username
	}
	return info
}

func (e *ErrorManager) send(ctx context.Context, msg string) {
	if e.adminID == 0 {
		return
	}
	if len(msg) > 4000 {
		msg = msg[:4000] + "\n... (truncated)"
	}
	_, _ = e.sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: e.adminID,
		Text:   msg,
	})
}

func (e *ErrorManager) NotifyAdmin(ctx context.Context, panicValue interface{}, update *models.Update) {
	command := "unknown"
	if update != nil && update.Message != nil {
		command = update.Message.Text
	}

	e.send(ctx, fmt.Sprintf("🚨 Panic in handler\nUser: %s\nCommand: %s\nError: %v\n\nStack trace:\n%s",
		describeUser(update), command, panicValue, string(debug.Stack())))
}

func (e *ErrorManager) NotifyAdminWithCurl(ctx context.Context, chatID int64, request interface{}, err error) {
	e.send(ctx, fmt.Sprintf("❌ Failed to send message\nUser: [%d]\nError: %v\n\nCurl:\n%s",
		chatID, err, buildCurlCommand(request)))
}

func buildCurlCommand(request interface{}) string {
	jsonData, err := json.MarshalIndent(request, "", "  ")
	if err != nil {
		return fmt.Sprintf("# Failed to serialize request: %v", err)
	}

	return fmt.Sprintf("curl -X POST 'https://api.telegram.org/bot[BOT_TOKEN]/sendMessage' \\\n  -H 'Content-Type: application/json' \\\n  -d '%s'",
		string(jsonData))
}
