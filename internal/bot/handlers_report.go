package bot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"gitlab.com/yelinaung/club-ledger/internal/export"
	"gitlab.com/yelinaung/club-ledger/internal/format"
	"gitlab.com/yelinaung/club-ledger/internal/logger"
	"gitlab.com/yelinaung/club-ledger/internal/period"
	"gitlab.com/yelinaung/club-ledger/internal/report"
)

// selectedPeriod returns the chat's parsed period, replying with the
// classified error when the selection is unusable.
func (b *Bot) selectedPeriod(ctx context.Context, tg TelegramAPI, chatID int64, sess *session) (period.Period, bool) {
	per, err := period.Parse(sess.selection())
	if err != nil {
		b.reply(ctx, tg, chatID, "❌ "+report.Classify("period", err).Message())
		return period.Period{}, false
	}
	return per, true
}

// handlePeriodCore shows the selected month or selects a new one.
func (b *Bot) handlePeriodCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil {
		return
	}

	chatID := update.Message.Chat.ID
	sess := b.sessions.get(chatID)
	args := extractCommandArgs(update.Message.Text, "/period")

	if args == "" {
		per, ok := b.selectedPeriod(ctx, tg, chatID, sess)
		if !ok {
			return
		}
		var sb strings.Builder
		fmt.Fprintf(&sb, "📅 Período selecionado: <b>%s</b>\n\nMeses de %d:\n", per.Label(), per.Year)
		for _, opt := range period.MonthOptions(per.Year) {
			fmt.Fprintf(&sb, "• <code>%s</code> %s\n", opt.Value, opt.Label)
		}
		sb.WriteString("\nUse <code>/period AAAA-MM</code> para trocar.")
		b.reply(ctx, tg, chatID, sb.String())
		return
	}

	year, _, _ := strings.Cut(args, "-")
	sel := period.Selection{Month: args, Year: year}
	per, err := period.Parse(sel)
	if err != nil {
		b.reply(ctx, tg, chatID, "❌ "+report.Classify("period", err).Message()+"\n\nUso: <code>/period 2024-03</code>")
		return
	}

	sess.setSelection(per.Selection())
	b.reply(ctx, tg, chatID, fmt.Sprintf("✅ Período alterado para <b>%s</b>.", per.Label()))
}

// handleYearCore switches the selected year, keeping the month.
func (b *Bot) handleYearCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil {
		return
	}

	chatID := update.Message.Chat.ID
	sess := b.sessions.get(chatID)
	args := extractCommandArgs(update.Message.Text, "/year")

	if args == "" {
		per, ok := b.selectedPeriod(ctx, tg, chatID, sess)
		if !ok {
			return
		}
		values := make([]string, 0)
		for _, opt := range period.YearOptions(per.Year) {
			values = append(values, opt.Label)
		}
		b.reply(ctx, tg, chatID, fmt.Sprintf(
			"📅 Ano selecionado: <b>%d</b>\n\nAnos disponíveis: %s\n\nUse <code>/year AAAA</code> para trocar.",
			per.Year, strings.Join(values, ", ")))
		return
	}

	sel := period.ChangeYear(sess.selection(), args)
	per, err := period.Parse(sel)
	if err != nil {
		b.reply(ctx, tg, chatID, "❌ "+report.Classify("period", err).Message()+"\n\nUso: <code>/year 2024</code>")
		return
	}

	sess.setSelection(sel)
	b.reply(ctx, tg, chatID, fmt.Sprintf("✅ Período alterado para <b>%s</b>.", per.Label()))
}

// handleReportCore loads the four monthly datasets and renders them as text.
func (b *Bot) handleReportCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil {
		return
	}

	chatID := update.Message.Chat.ID
	sess := b.sessions.get(chatID)
	per, ok := b.selectedPeriod(ctx, tg, chatID, sess)
	if !ok {
		return
	}

	snap := sess.report.Load(ctx, sess.selection())
	b.reply(ctx, tg, chatID, formatSnapshot(snap, per))
}

// handleRefreshCore retries every dataset of the last report.
func (b *Bot) handleRefreshCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil {
		return
	}

	chatID := update.Message.Chat.ID
	sess := b.sessions.get(chatID)
	per, ok := b.selectedPeriod(ctx, tg, chatID, sess)
	if !ok {
		return
	}

	// Retry works on the widgets' last selection.
	if sess.report.Snapshot().Selection != sess.selection() {
		sess.report.Load(ctx, sess.selection())
	}

	if err := sess.report.Retry(ctx); errors.Is(err, report.ErrAllRetriesFailed) {
		msg := msgGenericFailure
		if snapErr := sess.report.Snapshot().Err; snapErr != nil {
			msg = "❌ " + snapErr.Message()
		}
		logger.Log.Warn().Err(err).Str("period", per.Key()).Msg("Report refresh failed")
		b.reply(ctx, tg, chatID, msg)
		return
	}

	b.reply(ctx, tg, chatID, formatSnapshot(sess.report.Snapshot(), per))
}

// handleChartCore sends one pie chart per dataset with data.
func (b *Bot) handleChartCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil {
		return
	}

	chatID := update.Message.Chat.ID
	sess := b.sessions.get(chatID)
	per, ok := b.selectedPeriod(ctx, tg, chatID, sess)
	if !ok {
		return
	}

	snap := sess.report.Load(ctx, sess.selection())
	charts, err := export.SnapshotCharts(snap, per)
	if err != nil {
		logger.Log.Error().Err(err).Str("period", per.Key()).Msg("Failed to generate charts")
		b.reply(ctx, tg, chatID, "❌ Não foi possível gerar os gráficos. Tente novamente.")
		return
	}
	if len(charts) == 0 {
		b.reply(ctx, tg, chatID, fmt.Sprintf("📊 Sem dados para gráficos em %s.", per.Label()))
		return
	}

	for _, c := range charts {
		_, err := tg.SendDocument(ctx, &bot.SendDocumentParams{
			ChatID:    chatID,
			Document:  &models.InputFileUpload{Filename: c.Filename, Data: bytes.NewReader(c.PNG)},
			Caption:   fmt.Sprintf("📊 %s", per.Label()),
			ParseMode: models.ParseModeHTML,
		})
		if err != nil {
			logger.Log.Error().Err(err).Str("file", c.Filename).Msg("Failed to send chart document")
			b.reply(ctx, tg, chatID, "❌ Falha ao enviar o gráfico. Tente novamente.")
			return
		}
	}

	if snap.Err != nil {
		b.reply(ctx, tg, chatID, "⚠️ "+snap.Err.Message())
	}
}

// handleExportCore sends the month as CSV. "/export despesas" exports the
// individual entries instead of the report.
func (b *Bot) handleExportCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil {
		return
	}

	chatID := update.Message.Chat.ID
	sess := b.sessions.get(chatID)
	per, ok := b.selectedPeriod(ctx, tg, chatID, sess)
	if !ok {
		return
	}

	var (
		data     []byte
		filename string
		err      error
	)
	switch strings.ToLower(extractCommandArgs(update.Message.Text, "/export")) {
	case "":
		snap := sess.report.Load(ctx, sess.selection())
		if snap.Err != nil {
			b.reply(ctx, tg, chatID, "❌ "+snap.Err.Message())
			return
		}
		data, err = export.SnapshotCSV(snap)
		filename = export.Filename("relatorio", per, "csv")
	case "despesas":
		expenses, fetchErr := b.expenses.GetByDateRange(ctx, per.Start(), per.End())
		if fetchErr != nil {
			logger.Log.Error().Err(fetchErr).Str("period", per.Key()).Msg("Failed to fetch expenses for export")
			b.reply(ctx, tg, chatID, "❌ "+report.Classify("export", fetchErr).Message())
			return
		}
		data, err = export.ExpensesCSV(expenses)
		filename = export.Filename("despesas", per, "csv")
	default:
		b.reply(ctx, tg, chatID, "Uso: <code>/export</code> ou <code>/export despesas</code>")
		return
	}
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to build CSV")
		b.reply(ctx, tg, chatID, msgGenericFailure)
		return
	}

	_, err = tg.SendDocument(ctx, &bot.SendDocumentParams{
		ChatID:    chatID,
		Document:  &models.InputFileUpload{Filename: filename, Data: bytes.NewReader(data)},
		Caption:   fmt.Sprintf("📄 %s", per.Label()),
		ParseMode: models.ParseModeHTML,
	})
	if err != nil {
		logger.Log.Error().Err(err).Str("file", filename).Msg("Failed to send CSV document")
		b.reply(ctx, tg, chatID, "❌ Falha ao enviar o arquivo. Tente novamente.")
	}
}

func formatSnapshot(snap report.Snapshot, per period.Period) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "📊 <b>Relatório de %s</b>\n", per.Label())

	sb.WriteString("\n<b>Sócios</b>\n")
	writeCounts(&sb, snap.MemberStatus)

	sb.WriteString("\n<b>Mensalidades</b>")
	if snap.PaymentStatusStale {
		sb.WriteString(" <i>(dados em cache, atualizando)</i>")
	}
	sb.WriteString("\n")
	writeCounts(&sb, snap.PaymentStatus)

	sb.WriteString("\n<b>Despesas por categoria</b>\n")
	if len(snap.ExpensesByCategory) == 0 {
		sb.WriteString("Nenhuma despesa no mês.\n")
	}
	for _, bucket := range snap.ExpensesByCategory {
		fmt.Fprintf(&sb, "• %s: %s\n", escapeHTML(bucket.Name), format.Currency(bucket.Value))
	}

	s := snap.Summary
	sb.WriteString("\n<b>Resumo financeiro</b>\n")
	fmt.Fprintf(&sb, "• Receitas: %s\n", format.Currency(s.TotalIncome))
	fmt.Fprintf(&sb, "  • %s: %s\n", report.LabelPaymentsIncome, format.Currency(s.TotalPaymentIncome))
	for _, inc := range s.CategoryIncomes {
		fmt.Fprintf(&sb, "  • %s: %s\n", escapeHTML(inc.Name), format.Currency(inc.Amount))
	}
	fmt.Fprintf(&sb, "• Despesas: %s\n", format.Currency(s.TotalExpenses))
	fmt.Fprintf(&sb, "• Saldo: <b>%s</b>\n", format.Currency(s.Balance))

	if snap.Err != nil {
		fmt.Fprintf(&sb, "\n⚠️ %s\nUse /refresh para tentar novamente.", snap.Err.Message())
	}
	return sb.String()
}

func writeCounts(sb *strings.Builder, buckets []report.Bucket) {
	for _, bucket := range buckets {
		fmt.Fprintf(sb, "• %s: %s\n", escapeHTML(bucket.Name), strconv.FormatInt(bucket.Value.IntPart(), 10))
	}
}
