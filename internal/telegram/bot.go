// Package telegram exposes expense entry and reports as Telegram bot
// commands.
package telegram

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"zoexpense/internal/core"
	"zoexpense/internal/export"
	"zoexpense/internal/log"
	"zoexpense/internal/services"
)

const helpText = `Commands:
/add <amount> <category> <title> - record an expense
/today - today's expenses by category
/report [period] - summary and chart (last_7_days, last_30_days, last_3_months, this_year)
/currencies - supported currencies
/help - this message`

// Sender is the part of tgbotapi.BotAPI the bot needs.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Bot struct {
	sender   Sender
	expenses *services.ExpenseService
	reports  *services.ReportService
	chart    export.Renderer
	logger   *log.Logger
	now      func() time.Time
}

func New(sender Sender, expenses *services.ExpenseService, reports *services.ReportService, logger *log.Logger) *Bot {
	return &Bot{
		sender:   sender,
		expenses: expenses,
		reports:  reports,
		chart:    export.NewChartRenderer(),
		logger:   logger.WithComponent(log.ComponentBot),
		now:      time.Now,
	}
}

// Run long-polls api until ctx is done.
func (b *Bot) Run(ctx context.Context, api *tgbotapi.BotAPI) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := api.GetUpdatesChan(u)
	b.logger.InfoContext(ctx, "Telegram bot started", "account", api.Self.UserName)

	for {
		select {
		case <-ctx.Done():
			api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return errors.New("telegram update channel closed")
			}
			b.HandleUpdate(ctx, update)
		}
	}
}

// HandleUpdate answers one update. Failures are reported to the chat and
// logged, never returned.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.Chat == nil {
		return
	}
	chatID := msg.Chat.ID
	logger := b.logger.With(log.FieldChatID, chatID)

	if !msg.IsCommand() {
		b.reply(ctx, chatID, "Send /help to see what I can do.")
		return
	}

	var err error
	switch msg.Command() {
	case "add":
		err = b.add(ctx, chatID, msg.CommandArguments())
	case "today":
		err = b.today(ctx, chatID)
	case "report":
		err = b.report(ctx, chatID, msg.CommandArguments())
	case "currencies":
		b.reply(ctx, chatID, currenciesText(b.expenses.Currency()))
	case "help", "start":
		b.reply(ctx, chatID, helpText)
	default:
		b.reply(ctx, chatID, "Unknown command. "+helpText)
	}

	if err != nil {
		if services.IsValidationError(err) {
			b.reply(ctx, chatID, "Sorry: "+err.Error())
			return
		}
		logger.Fields(ctx, slog.LevelError, "Command failed", log.NewFields().
			WithOperation(msg.Command()).
			WithError(err).
			WithErrorType(log.ErrorTypeInternal))
		b.reply(ctx, chatID, "Something went wrong, please try again.")
	}
}

// add parses "<amount> <category> <title...>". The category is matched
// loosely; unmatched names are filed under Other.
func (b *Bot) add(ctx context.Context, chatID int64, args string) error {
	fields := strings.Fields(args)
	if len(fields) < 2 {
		b.reply(ctx, chatID, "Usage: /add <amount> <category> <title>\nExample: /add 250 food Lunch")
		return nil
	}

	category, matched := core.MatchCategory(fields[1])
	title := strings.Join(fields[2:], " ")
	if title == "" {
		title = category.String()
	}

	e, err := b.expenses.CreateExpense(ctx, services.CreateExpenseInput{
		Title:    title,
		Amount:   fields[0],
		Category: category,
	})
	if err != nil {
		return err
	}

	text := fmt.Sprintf("Recorded %s: %s (%s)", e.Title, core.Format(e.Amount, b.expenses.Currency()), e.Category)
	if !matched {
		text += fmt.Sprintf("\nI did not recognise %q, so it is filed under Other.", fields[1])
	}
	b.reply(ctx, chatID, text)
	return nil
}

func (b *Bot) today(ctx context.Context, chatID int64) error {
	date := b.expenses.Today()
	summary, err := b.expenses.DaySummary(ctx, date, services.GroupByCategory, core.NewestFirst)
	if err != nil {
		return err
	}
	if summary.Count == 0 {
		b.reply(ctx, chatID, "Nothing recorded today ("+date+").")
		return nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Today (%s): %s in %d expenses\n", date, summary.Formatted, summary.Count)
	for _, g := range summary.Groups {
		fmt.Fprintf(&sb, "\n%s: %s\n", g.Key, g.Formatted)
		for _, item := range g.Items {
			fmt.Fprintf(&sb, "  %s %s\n", item.Title, item.Amount)
		}
	}
	b.reply(ctx, chatID, strings.TrimRight(sb.String(), "\n"))
	return nil
}

func (b *Bot) report(ctx context.Context, chatID int64, args string) error {
	period := core.Last7Days
	if arg := strings.TrimSpace(args); arg != "" {
		p, err := core.ParsePeriod(arg)
		if err != nil {
			return err
		}
		period = p
	}

	r, err := b.reports.ReportForPeriod(ctx, period)
	if err != nil {
		return err
	}
	b.reply(ctx, chatID, reportText(r))

	var buf bytes.Buffer
	doc := export.NewDocument(r, b.now())
	if err := b.chart.Render(&buf, doc); err != nil {
		if errors.Is(err, export.ErrEmptyReport) {
			return nil
		}
		return fmt.Errorf("render chart: %w", err)
	}
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{
		Name:  export.FileName(r.Window.Label, b.chart.Extension(), doc.GeneratedAt),
		Bytes: buf.Bytes(),
	})
	photo.Caption = "Expenses by category, " + r.Window.Label
	if _, err := b.sender.Send(photo); err != nil {
		return fmt.Errorf("send chart: %w", err)
	}
	return nil
}

func reportText(r core.Report) string {
	cur := core.CurrencyOrDefault(r.Currency)
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (%s to %s)\nTotal: %s in %d expenses\n", r.Window.Label, r.Window.Start, r.Window.End, core.Format(r.TotalAmount, cur), r.TotalCount)
	if len(r.Categories) > 0 {
		sb.WriteString("\nBy category:\n")
		for _, c := range r.Categories {
			fmt.Fprintf(&sb, "  %s: %s (%s)\n", c.Category, core.Format(c.Amount, cur), core.Percent(c.Percentage))
		}
	}
	if len(r.Recent) > 0 {
		sb.WriteString("\nRecent:\n")
		for _, e := range r.Recent {
			fmt.Fprintf(&sb, "  %s - %s\n", e.Title, e.Subtitle)
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

func currenciesText(def core.Currency) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Default: %s (%s)\n\n", def.Code, def.Name)
	for _, c := range core.Currencies() {
		fmt.Fprintf(&sb, "%s %s %s\n", c.Code, c.Symbol, c.Name)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (b *Bot) reply(ctx context.Context, chatID int64, text string) {
	if _, err := b.sender.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		b.logger.WarnContext(ctx, "Cannot send message", log.FieldChatID, chatID, log.FieldError, err)
	}
}
