// Package bot provides the Telegram bot for club administrators and members.
package bot

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	"github.com/jackc/pgx/v5"
	"github.com/robfig/cron/v3"
	"gitlab.com/yelinaung/club-ledger/internal/config"
	"gitlab.com/yelinaung/club-ledger/internal/gemini"
	"gitlab.com/yelinaung/club-ledger/internal/logger"
	"gitlab.com/yelinaung/club-ledger/internal/models"
	"gitlab.com/yelinaung/club-ledger/internal/report"
	"gitlab.com/yelinaung/club-ledger/internal/repository"
)

// pollTimeout is the long-poll timeout passed to the Telegram client.
const pollTimeout = time.Minute

// Deps are the services the bot is built on.
type Deps struct {
	Members       *repository.MemberRepository
	Payments      *repository.PaymentRepository
	Expenses      *repository.ExpenseRepository
	Categories    *repository.CategoryRepository
	Announcements *repository.AnnouncementRepository
	PaymentCache  *report.PaymentCache
	// Gemini is optional. Without it new entries are left uncategorized
	// unless a #category is given.
	Gemini *gemini.Client
	// HTTPClient is optional and replaces the Telegram client's transport.
	HTTPClient *http.Client
}

// Bot wraps the Telegram bot with application dependencies.
type Bot struct {
	bot *bot.Bot
	cfg *config.Config

	members       memberStore
	payments      paymentStore
	expenses      expenseStore
	categories    categoryStore
	announcements announcementStore
	suggester     categorySuggester
	paymentCache  *report.PaymentCache

	newReport func() *report.Report360
	sessions  *sessionStore
	now       func() time.Time
}

// New creates a new Bot instance.
func New(cfg *config.Config, deps Deps) (*Bot, error) {
	b := &Bot{
		cfg:           cfg,
		members:       deps.Members,
		payments:      deps.Payments,
		expenses:      deps.Expenses,
		categories:    deps.Categories,
		announcements: deps.Announcements,
		paymentCache:  deps.PaymentCache,
		now:           time.Now,
	}
	if deps.Gemini != nil {
		b.suggester = deps.Gemini
	}
	b.newReport = func() *report.Report360 {
		return report.NewReport360(deps.Members, deps.Payments, deps.Expenses, deps.Categories, deps.PaymentCache)
	}
	b.sessions = newSessionStore(b.newReport, b.localNow)

	opts := []bot.Option{
		bot.WithMiddlewares(logUpdateMiddleware),
		bot.WithDefaultHandler(b.defaultHandler),
	}
	if deps.HTTPClient != nil {
		opts = append(opts, bot.WithHTTPClient(pollTimeout, deps.HTTPClient))
	}

	telegramBot, err := bot.New(cfg.TelegramBotToken, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	b.bot = telegramBot
	b.registerHandlers()

	return b, nil
}

// Start runs the scheduled jobs and polls for updates until ctx is done.
func (b *Bot) Start(ctx context.Context) {
	scheduler, err := b.startJobs(ctx)
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to schedule jobs")
	} else {
		defer func() { <-scheduler.Stop().Done() }()
	}

	logger.Log.Info().Msg("Bot started polling")
	b.bot.Start(ctx)
}

func (b *Bot) localNow() time.Time {
	return b.now().In(b.cfg.Location())
}

// registerHandlers sets up command handlers.
func (b *Bot) registerHandlers() {
	public := func(h handlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, tgBot *bot.Bot, update *tgmodels.Update) { h(ctx, tgBot, update) }
	}

	commands := []struct {
		pattern string
		handler bot.HandlerFunc
	}{
		{"/start", public(b.handleStartCore)},
		{"/help", public(b.handleHelpCore)},
		{"/period", b.adminOnly(b.handlePeriodCore)},
		{"/year", b.adminOnly(b.handleYearCore)},
		{"/report", b.adminOnly(b.handleReportCore)},
		{"/chart", b.adminOnly(b.handleChartCore)},
		{"/export", b.adminOnly(b.handleExportCore)},
		{"/refresh", b.adminOnly(b.handleRefreshCore)},
		{"/members", b.adminOnly(b.handleMembersCore)},
		{"/warn", b.adminOnly(b.handleWarnCore)},
		{"/link", b.adminOnly(b.handleLinkCore)},
		{"/setstatus", b.adminOnly(b.handleSetStatusCore)},
		{"/history", b.adminOnly(b.handleHistoryCore)},
		{"/pay", b.adminOnly(b.handlePayCore)},
		{"/unpaid", b.adminOnly(b.handleUnpaidCore)},
		{"/expense", b.adminOnly(b.handleExpenseCore)},
		{"/income", b.adminOnly(b.handleIncomeCore)},
		{"/announce", b.adminOnly(b.handleAnnounceCore)},
		{"/inbox", b.membersOnly(b.handleInboxCore)},
		{"/read", b.membersOnly(b.handleReadCore)},
		{"/mystatus", b.membersOnly(b.handleMyStatusCore)},
	}
	for _, c := range commands {
		b.bot.RegisterHandler(bot.HandlerTypeMessageText, c.pattern, bot.MatchTypePrefix, c.handler)
	}
}

// handlerFunc is a handler that talks to Telegram through TelegramAPI so it
// can be exercised with mocks.MockBot.
type handlerFunc func(ctx context.Context, tg TelegramAPI, update *tgmodels.Update)

// memberHandlerFunc additionally receives the member linked to the sender.
type memberHandlerFunc func(ctx context.Context, tg TelegramAPI, update *tgmodels.Update, member *models.Member)

func (b *Bot) adminOnly(h handlerFunc) bot.HandlerFunc {
	return func(ctx context.Context, tgBot *bot.Bot, update *tgmodels.Update) {
		b.requireAdmin(ctx, tgBot, update, h)
	}
}

func (b *Bot) membersOnly(h memberHandlerFunc) bot.HandlerFunc {
	return func(ctx context.Context, tgBot *bot.Bot, update *tgmodels.Update) {
		b.requireMember(ctx, tgBot, update, h)
	}
}

// requireAdmin runs h only for configured administrators.
func (b *Bot) requireAdmin(ctx context.Context, tg TelegramAPI, update *tgmodels.Update, h handlerFunc) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	from := update.Message.From
	if !b.cfg.IsAdmin(from.ID, from.Username) {
		logger.Log.Warn().
			Str("user_hash", logger.HashUserID(from.ID)).
			Msg("Blocked non-admin user")
		b.reply(ctx, tg, update.Message.Chat.ID, "⛔ Este comando é restrito à diretoria.")
		return
	}

	h(ctx, tg, update)
}

// requireMember resolves the sender's member record and runs h with it.
func (b *Bot) requireMember(ctx context.Context, tg TelegramAPI, update *tgmodels.Update, h memberHandlerFunc) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	chatID := update.Message.Chat.ID
	member, err := b.members.GetByTelegramUserID(ctx, update.Message.From.ID)
	if errors.Is(err, pgx.ErrNoRows) {
		b.reply(ctx, tg, chatID, "⛔ Sua conta do Telegram não está vinculada a nenhum sócio. Procure a diretoria.")
		return
	}
	if err != nil {
		logger.Log.Error().Err(err).
			Str("user_hash", logger.HashUserID(update.Message.From.ID)).
			Msg("Failed to resolve member")
		b.reply(ctx, tg, chatID, msgGenericFailure)
		return
	}

	h(ctx, tg, update, member)
}

// logUpdateMiddleware logs each incoming message with hashed identifiers.
func logUpdateMiddleware(next bot.HandlerFunc) bot.HandlerFunc {
	return func(ctx context.Context, tgBot *bot.Bot, update *tgmodels.Update) {
		if msg := update.Message; msg != nil && msg.From != nil {
			logger.Log.Info().
				Str("user_hash", logger.HashUserID(msg.From.ID)).
				Str("chat_hash", logger.HashChatID(msg.Chat.ID)).
				Str("command", commandName(msg.Text)).
				Msg("User input")
		}
		next(ctx, tgBot, update)
	}
}

// defaultHandler answers anything that is not a known command.
func (b *Bot) defaultHandler(ctx context.Context, tgBot *bot.Bot, update *tgmodels.Update) {
	if update.Message == nil {
		return
	}
	b.reply(ctx, tgBot, update.Message.Chat.ID, "Não entendi. Use /help para ver os comandos disponíveis.")
}

// commandName returns the leading "/command" of text without any @botname.
func commandName(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return ""
	}
	name, _, _ := strings.Cut(text, " ")
	name, _, _ = strings.Cut(name, "@")
	return name
}

// newScheduler returns a cron scheduler in the configured time zone.
func (b *Bot) newScheduler() *cron.Cron {
	return cron.New(cron.WithLocation(b.cfg.Location()))
}
