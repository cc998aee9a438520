package bot

import (
	"context"
	"fmt"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/robfig/cron/v3"
	"gitlab.com/yelinaung/club-ledger/internal/format"
	"gitlab.com/yelinaung/club-ledger/internal/logger"
	"gitlab.com/yelinaung/club-ledger/internal/period"
)

const (
	// ReminderTimeout is the maximum time a single reminder run can take.
	ReminderTimeout = 2 * time.Minute
	// CacheWarmTimeout bounds one cache warm run.
	CacheWarmTimeout = time.Minute
)

// startJobs schedules the dues reminder and the cache warm. Jobs run with
// ctx and stop when the returned scheduler is stopped.
func (b *Bot) startJobs(ctx context.Context) (*cron.Cron, error) {
	c := b.newScheduler()

	if b.cfg.DuesReminderEnabled {
		if _, err := c.AddFunc(b.cfg.DuesReminderSchedule, func() { b.sendDuesReminders(ctx, b.bot) }); err != nil {
			return nil, fmt.Errorf("failed to schedule dues reminder: %w", err)
		}
		logger.Log.Info().Str("schedule", b.cfg.DuesReminderSchedule).Msg("Dues reminder scheduled")
	} else {
		logger.Log.Info().Msg("Dues reminder is disabled")
	}

	if _, err := c.AddFunc(b.cfg.CacheWarmSchedule, func() { b.warmPaymentCache(ctx) }); err != nil {
		return nil, fmt.Errorf("failed to schedule cache warm: %w", err)
	}

	c.Start()
	return c, nil
}

// sendDuesReminders messages every linked member with no paid row in the
// current month. It returns the number of reminders sent.
func (b *Bot) sendDuesReminders(ctx context.Context, tg TelegramAPI) int {
	ctx, cancel := context.WithTimeout(ctx, ReminderTimeout)
	defer cancel()

	per, err := period.Parse(period.Current(b.localNow()))
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to resolve current period")
		return 0
	}

	unpaid, err := b.payments.GetUnpaidMembers(ctx, per.Key(), per.Year)
	if err != nil {
		logger.Log.Error().Err(err).Str("period", per.Key()).Msg("Failed to fetch members for dues reminder")
		return 0
	}

	sent := 0
	for _, m := range unpaid {
		if m.TelegramUserID == nil {
			continue
		}

		text := fmt.Sprintf(
			"Olá, %s! Sua mensalidade de %s ainda consta como %s.\n\nSe já pagou, fale com a diretoria.",
			escapeHTML(m.Name), per.Label(), format.PaymentStatusLabel(false))

		_, err := tg.SendMessage(ctx, &tgbot.SendMessageParams{
			ChatID:    *m.TelegramUserID,
			Text:      text,
			ParseMode: models.ParseModeHTML,
		})
		if err != nil {
			logger.Log.Warn().Err(err).Str("member_hash", logger.HashMemberID(m.ID)).Msg("Failed to send dues reminder")
			continue
		}
		sent++
	}

	logger.Log.Info().Str("period", per.Key()).Int("sent", sent).Msg("Dues reminders sent")
	return sent
}

// warmPaymentCache loads the current month's payment status so the first
// report of the day is served from the cache.
func (b *Bot) warmPaymentCache(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, CacheWarmTimeout)
	defer cancel()

	sel := period.Current(b.localNow())
	widget := b.newReport().PaymentStatus
	result := widget.Load(ctx, sel)
	widget.WaitForRefresh()

	if result.Err != nil {
		logger.Log.Warn().Err(result.Err).Str("period", sel.Month).Msg("Payment status cache warm failed")
		return
	}
	logger.Log.Debug().Str("period", sel.Month).Bool("stale", result.Stale).Msg("Payment status cache warmed")
}
