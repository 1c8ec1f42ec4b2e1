// Package bot runs the Telegram front end: admin notifications and attendance lookups
package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"attendance-report/internal/models"
	"attendance-report/internal/rules"
	"attendance-report/internal/services"
)

// Lookup is the part of the attendance service the bot reads from
type Lookup interface {
	LateOn(ctx context.Context, date models.Date) ([]services.Violation, error)
	Query(ctx context.Context, q services.Query) (*services.QueryResult, error)
}

// Bot wraps the Telegram API client
type Bot struct {
	api          *tgbotapi.BotAPI
	targetChatID int64
	lookup       Lookup
	logger       *zap.Logger
	now          func() time.Time
}

// New authorizes against Telegram. authorizedChatID receives admin notifications; empty disables them.
func New(token, authorizedChatID string, lookup Lookup, logger *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	api.Debug = false
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Info("telegram bot authorized", zap.String("account", api.Self.UserName))

	b := &Bot{api: api, lookup: lookup, logger: logger, now: time.Now}
	if authorizedChatID != "" {
		id, err := strconv.ParseInt(authorizedChatID, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse AUTHORIZED_CHAT_ID: %w", err)
		}
		b.targetChatID = id
	}
	return b, nil
}

// StartPolling starts the update loop; it stops when ctx is done
func (b *Bot) StartPolling(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	go func() {
		for update := range updates {
			if update.Message == nil || !update.Message.IsCommand() {
				continue
			}

			msg := tgbotapi.NewMessage(update.Message.Chat.ID, "")
			msg.ParseMode = tgbotapi.ModeMarkdown
			msg.Text = b.handleCommand(ctx, update.Message.Chat.ID, update.Message.Command(), update.Message.CommandArguments())

			if _, err := b.api.Send(msg); err != nil {
				b.logger.Warn("bot send failed", zap.Int64("chat_id", msg.ChatID), zap.Error(err))
			}
		}
	}()
}

func (b *Bot) handleCommand(ctx context.Context, chatID int64, command, args string) string {
	switch command {
	case "start":
		return "🏢 *Hệ thống chấm công*\n\n" +
			"*Lệnh:*\n" +
			"/late DD/MM/YYYY - Danh sách đi trễ / về sớm\n" +
			"/summary - Tổng quan dữ liệu\n" +
			"/getid - Chat ID"

	case "getid":
		return fmt.Sprintf("Chat ID: `%d`", chatID)

	case "late":
		return b.handleLate(ctx, args)

	case "summary":
		return b.handleSummary(ctx)

	default:
		return "Không rõ lệnh, dùng /start"
	}
}

func (b *Bot) handleLate(ctx context.Context, args string) string {
	date := models.DateOf(b.now())
	if arg := strings.TrimSpace(args); arg != "" {
		d, err := models.ParseDate(arg)
		if err != nil {
			return "Cú pháp: `/late DD/MM/YYYY`"
		}
		date = d
	}

	violations, err := b.lookup.LateOn(ctx, date)
	if err != nil {
		b.logger.Error("late lookup failed", zap.String("date", date.String()), zap.Error(err))
		return fmt.Sprintf("❌ Lỗi: %v", err)
	}
	return FormatViolations(date, violations)
}

func (b *Bot) handleSummary(ctx context.Context) string {
	res, err := b.lookup.Query(ctx, services.Query{})
	if err != nil {
		return fmt.Sprintf("❌ Lỗi: %v", err)
	}
	return fmt.Sprintf("📊 *Tổng quan*\nBản ghi: `%d`\nBộ phận: `%d`\nNgày mới nhất: `%s`",
		res.Summary.Total, res.Summary.Departments, res.Summary.LatestDate)
}

// FormatViolations renders the late/early list for one day
func FormatViolations(date models.Date, violations []services.Violation) string {
	if len(violations) == 0 {
		return fmt.Sprintf("✅ Không có ai đi trễ / về sớm ngày %s", date)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "⚠️ *Đi trễ / về sớm ngày %s (%s)*\n", date, dayLabel(date))
	for _, v := range violations {
		var flagged []string
		for _, s := range models.Slots {
			st := v.Statuses[s]
			if !st.Flagged() {
				continue
			}
			label := "trễ"
			if st == rules.StatusEarly {
				label = "sớm"
			}
			flagged = append(flagged, fmt.Sprintf("%s %s (%s)", s, v.Record.Slot(s), label))
		}
		fmt.Fprintf(&sb, "\n👤 %s - %s\n   %s", v.Record.EmployeeName, v.Record.Department, strings.Join(flagged, ", "))
	}
	return sb.String()
}

func dayLabel(d models.Date) string {
	name := services.WeekdayName(d)
	if d.Weekday() == time.Sunday {
		return name
	}
	return "Thứ " + name
}

// SendNotification sends message to admin
func (b *Bot) SendNotification(message string) {
	if b == nil || b.targetChatID == 0 {
		return
	}
	msg := tgbotapi.NewMessage(b.targetChatID, message)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Warn("failed to send notification", zap.Error(err))
	}
}
