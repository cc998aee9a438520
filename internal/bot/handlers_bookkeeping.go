package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-telegram/bot/models"
	"github.com/jackc/pgx/v5"
	"gitlab.com/yelinaung/club-ledger/internal/format"
	"gitlab.com/yelinaung/club-ledger/internal/logger"
	appmodels "gitlab.com/yelinaung/club-ledger/internal/models"
)

// minSuggestionConfidence is the lowest Gemini confidence accepted.
const minSuggestionConfidence = 0.5

func (b *Bot) handleExpenseCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	b.handleEntryCore(ctx, tg, update, "/expense", appmodels.ExpenseTypeDespesa)
}

func (b *Bot) handleIncomeCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	b.handleEntryCore(ctx, tg, update, "/income", appmodels.ExpenseTypeReceita)
}

// handleEntryCore records an expense or revenue entry dated today.
func (b *Bot) handleEntryCore(
	ctx context.Context,
	tg TelegramAPI,
	update *models.Update,
	command string,
	entryType appmodels.ExpenseType,
) {
	if update.Message == nil {
		return
	}

	chatID := update.Message.Chat.ID
	parsed := ParseEntry(extractCommandArgs(update.Message.Text, command))
	if parsed == nil || parsed.Description == "" {
		b.reply(ctx, tg, chatID, fmt.Sprintf(
			"❌ Formato inválido.\n\nUso: <code>%s 150,00 Conta de luz #Energia</code>", command))
		return
	}

	category, ok := b.resolveCategory(ctx, tg, chatID, parsed, entryType)
	if !ok {
		return
	}

	now := b.localNow()
	expense := &appmodels.Expense{
		Amount:      parsed.Amount,
		Date:        time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC),
		Type:        entryType,
		Description: parsed.Description,
	}
	if category != nil {
		expense.CategoryID = &category.ID
		expense.Category = category
	}

	if err := b.expenses.Create(ctx, expense); err != nil {
		logger.Log.Error().Err(err).Str("type", string(entryType)).Msg("Failed to create entry")
		b.reply(ctx, tg, chatID, msgGenericFailure)
		return
	}

	categoryText := "Sem categoria"
	if category != nil {
		categoryText = escapeHTML(category.Name)
	}
	logger.Log.Info().
		Str("expense_id", expense.ID.String()).
		Str("type", string(entryType)).
		Str("amount", expense.Amount.String()).
		Msg("Entry recorded")

	b.reply(ctx, tg, chatID, fmt.Sprintf("✅ <b>%s registrada</b>\n\n💰 %s\n📝 %s\n📁 %s\n📅 %s",
		format.ExpenseTypeLabel(entryType),
		format.Currency(expense.Amount),
		escapeHTML(expense.Description),
		categoryText,
		format.Date(expense.Date)))
}

// resolveCategory returns the explicitly named category, or asks Gemini for
// one when no category was given. A nil category with ok=true means the
// entry is stored uncategorized.
func (b *Bot) resolveCategory(
	ctx context.Context,
	tg TelegramAPI,
	chatID int64,
	parsed *ParsedEntry,
	entryType appmodels.ExpenseType,
) (*appmodels.ExpenseCategory, bool) {
	if parsed.CategoryName != "" {
		cat, err := b.categories.GetByName(ctx, parsed.CategoryName)
		if errors.Is(err, pgx.ErrNoRows) {
			b.reply(ctx, tg, chatID, fmt.Sprintf("❌ Categoria <b>%s</b> não encontrada.\n\n%s",
				escapeHTML(parsed.CategoryName), b.categoryList(ctx)))
			return nil, false
		}
		if err != nil {
			logger.Log.Error().Err(err).Msg("Failed to look up category")
			b.reply(ctx, tg, chatID, msgGenericFailure)
			return nil, false
		}
		return cat, true
	}

	if b.suggester == nil {
		return nil, true
	}

	categories, err := b.categories.GetAll(ctx)
	if err != nil || len(categories) == 0 {
		return nil, true
	}
	names := make([]string, len(categories))
	byName := make(map[string]*appmodels.ExpenseCategory, len(categories))
	for i := range categories {
		names[i] = categories[i].Name
		byName[strings.ToLower(categories[i].Name)] = &categories[i]
	}

	suggestion, err := b.suggester.SuggestCategory(ctx, parsed.Description, entryType, names)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Category suggestion failed")
		return nil, true
	}
	if suggestion.Confidence < minSuggestionConfidence {
		logger.Log.Debug().Float64("confidence", suggestion.Confidence).Msg("Ignoring low-confidence suggestion")
		return nil, true
	}
	return byName[strings.ToLower(suggestion.Category)], true
}

func (b *Bot) categoryList(ctx context.Context) string {
	categories, err := b.categories.GetAll(ctx)
	if err != nil || len(categories) == 0 {
		return ""
	}
	names := make([]string, len(categories))
	for i, c := range categories {
		names[i] = escapeHTML(c.Name)
	}
	return "Categorias: " + strings.Join(names, ", ")
}
