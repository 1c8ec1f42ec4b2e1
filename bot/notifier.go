package bot

import "attendance-report/internal/services"

// Notifier adapts an optional *Bot to services.BotNotifier. Without a bot it drops messages.
type Notifier struct {
	bot *Bot
}

// NewNotifier creates a new bot notifier; b may be nil
func NewNotifier(b *Bot) *Notifier {
	return &Notifier{bot: b}
}

// Attach sets the bot once it is running. Call before serving requests.
func (n *Notifier) Attach(b *Bot) {
	n.bot = b
}

// SendNotification sends a notification to the admin chat
func (n *Notifier) SendNotification(message string) {
	if n == nil || n.bot == nil {
		return
	}
	n.bot.SendNotification(message)
}

// Ensure Notifier implements the BotNotifier interface
var _ services.BotNotifier = (*Notifier)(nil)
