package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-telegram/bot/models"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/club-ledger/internal/format"
	"gitlab.com/yelinaung/club-ledger/internal/logger"
	appmodels "gitlab.com/yelinaung/club-ledger/internal/models"
	"gitlab.com/yelinaung/club-ledger/internal/period"
	"gitlab.com/yelinaung/club-ledger/internal/report"
)

// handleMembersCore lists the roster with status and warning count.
func (b *Bot) handleMembersCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil {
		return
	}

	chatID := update.Message.Chat.ID
	members, err := b.members.GetAll(ctx)
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to fetch members")
		b.reply(ctx, tg, chatID, "❌ "+report.Classify("members", err).Message())
		return
	}
	if len(members) == 0 {
		b.reply(ctx, tg, chatID, "Nenhum sócio cadastrado.")
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "👥 <b>Sócios (%d)</b>\n\n", len(members))
	for _, m := range members {
		fmt.Fprintf(&sb, "• %s · %s", escapeHTML(m.Name), format.MemberStatusLabel(m.Status))
		if n := len(m.Warnings); n > 0 {
			fmt.Fprintf(&sb, " · ⚠️ %d", n)
		}
		sb.WriteString("\n")
	}
	b.reply(ctx, tg, chatID, sb.String())
}

// handleWarnCore records a warning: /warn <name> ; <text>.
func (b *Bot) handleWarnCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil {
		return
	}

	chatID := update.Message.Chat.ID
	name, text, ok := splitPair(extractCommandArgs(update.Message.Text, "/warn"))
	if !ok {
		b.reply(ctx, tg, chatID, "Uso: <code>/warn Nome do Sócio ; motivo</code>")
		return
	}

	member, found := b.findMember(ctx, tg, chatID, name)
	if !found {
		return
	}

	w := appmodels.Warning{Text: text, Date: b.localNow()}
	if err := b.members.AddWarning(ctx, member.ID, w); err != nil {
		logger.Log.Error().Err(err).Str("member_hash", logger.HashMemberID(member.ID)).Msg("Failed to add warning")
		b.reply(ctx, tg, chatID, msgGenericFailure)
		return
	}

	b.reply(ctx, tg, chatID, fmt.Sprintf("⚠️ Advertência registrada para <b>%s</b> (%d no total).",
		escapeHTML(member.Name), len(member.Warnings)+1))
}

// handlePayCore marks the member's dues paid for the selected month:
// /pay <name> [amount]. An existing unpaid row is updated; otherwise a
// new paid row is created with the given amount.
func (b *Bot) handlePayCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil {
		return
	}

	chatID := update.Message.Chat.ID
	args := extractCommandArgs(update.Message.Text, "/pay")
	name, amount := splitTrailingAmount(args)
	if name == "" {
		b.reply(ctx, tg, chatID, "Uso: <code>/pay Nome do Sócio [valor]</code>")
		return
	}

	sess := b.sessions.get(chatID)
	per, ok := b.selectedPeriod(ctx, tg, chatID, sess)
	if !ok {
		return
	}

	member, found := b.findMember(ctx, tg, chatID, name)
	if !found {
		return
	}

	payments, err := b.payments.GetByPeriod(ctx, per.Key(), per.Year)
	if err != nil {
		logger.Log.Error().Err(err).Str("period", per.Key()).Msg("Failed to fetch payments")
		b.reply(ctx, tg, chatID, "❌ "+report.Classify("payments", err).Message())
		return
	}

	var pending *appmodels.Payment
	for i := range payments {
		p := &payments[i]
		if p.MemberID != member.ID {
			continue
		}
		if p.IsPaid {
			b.reply(ctx, tg, chatID, fmt.Sprintf("✅ %s já está em dia em %s.", escapeHTML(member.Name), per.Label()))
			return
		}
		if pending == nil {
			pending = p
		}
	}

	now := b.localNow()
	switch {
	case pending != nil:
		err = b.payments.MarkPaid(ctx, pending.ID, now, "")
		amount = pending.Amount
	case amount.IsPositive():
		err = b.payments.Create(ctx, &appmodels.Payment{
			MemberID: member.ID,
			Amount:   amount,
			Month:    per.Key(),
			Year:     per.Year,
			IsPaid:   true,
			Date:     &now,
		})
	default:
		b.reply(ctx, tg, chatID, fmt.Sprintf(
			"Nenhuma mensalidade de %s em %s. Informe o valor: <code>/pay %s 50</code>",
			escapeHTML(member.Name), per.Label(), escapeHTML(member.Name)))
		return
	}
	if err != nil {
		logger.Log.Error().Err(err).Str("member_hash", logger.HashMemberID(member.ID)).Msg("Failed to register payment")
		b.reply(ctx, tg, chatID, msgGenericFailure)
		return
	}

	b.invalidatePaymentStatus(ctx, per)
	b.reply(ctx, tg, chatID, fmt.Sprintf("💰 Mensalidade de <b>%s</b> registrada: %s (%s).",
		escapeHTML(member.Name), format.Currency(amount), per.Label()))
}

// handleUnpaidCore lists members without a paid row in the selected month.
func (b *Bot) handleUnpaidCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil {
		return
	}

	chatID := update.Message.Chat.ID
	sess := b.sessions.get(chatID)
	per, ok := b.selectedPeriod(ctx, tg, chatID, sess)
	if !ok {
		return
	}

	unpaid, err := b.payments.GetUnpaidMembers(ctx, per.Key(), per.Year)
	if err != nil {
		logger.Log.Error().Err(err).Str("period", per.Key()).Msg("Failed to fetch unpaid members")
		b.reply(ctx, tg, chatID, "❌ "+report.Classify("payments", err).Message())
		return
	}
	if len(unpaid) == 0 {
		b.reply(ctx, tg, chatID, fmt.Sprintf("🎉 Todos os sócios estão em dia em %s.", per.Label()))
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "📋 <b>Mensalidades pendentes em %s (%d)</b>\n\n", per.Label(), len(unpaid))
	for _, m := range unpaid {
		fmt.Fprintf(&sb, "• %s\n", escapeHTML(m.Name))
	}
	b.reply(ctx, tg, chatID, sb.String())
}

// handleMyStatusCore shows the member's dues for the current month and
// their unread announcements.
func (b *Bot) handleMyStatusCore(ctx context.Context, tg TelegramAPI, update *models.Update, member *appmodels.Member) {
	chatID := update.Message.Chat.ID
	per, err := period.Parse(period.Current(b.localNow()))
	if err != nil {
		b.reply(ctx, tg, chatID, msgGenericFailure)
		return
	}

	payments, err := b.payments.GetByPeriod(ctx, per.Key(), per.Year)
	if err != nil {
		logger.Log.Error().Err(err).Str("member_hash", logger.HashMemberID(member.ID)).Msg("Failed to fetch member payments")
		b.reply(ctx, tg, chatID, "❌ "+report.Classify("payments", err).Message())
		return
	}

	paid := false
	for _, p := range payments {
		if p.MemberID == member.ID && p.IsPaid {
			paid = true
			break
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "👤 <b>%s</b>\n", escapeHTML(member.Name))
	fmt.Fprintf(&sb, "Situação: %s\n", format.MemberStatusLabel(member.Status))
	fmt.Fprintf(&sb, "Mensalidade de %s: %s\n", per.Label(), dueLabel(paid))

	unread, err := b.announcements.UnreadCount(ctx, member.ID)
	if err != nil {
		logger.Log.Warn().Err(err).Str("member_hash", logger.HashMemberID(member.ID)).Msg("Failed to count unread announcements")
	} else if unread > 0 {
		fmt.Fprintf(&sb, "\n📬 Você tem %d aviso(s) não lido(s). Use /inbox.", unread)
	}

	b.reply(ctx, tg, chatID, sb.String())
}

func dueLabel(paid bool) string {
	if paid {
		return "✅ " + format.PaymentStatusLabel(true)
	}
	return "❌ " + format.PaymentStatusLabel(false)
}

// findMember looks a member up by name and replies when it is missing.
func (b *Bot) findMember(ctx context.Context, tg TelegramAPI, chatID int64, name string) (*appmodels.Member, bool) {
	member, err := b.members.GetByName(ctx, name)
	if errors.Is(err, pgx.ErrNoRows) {
		b.reply(ctx, tg, chatID, fmt.Sprintf("❌ Sócio <b>%s</b> não encontrado. Use /members.", escapeHTML(name)))
		return nil, false
	}
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to look up member")
		b.reply(ctx, tg, chatID, "❌ "+report.Classify("members", err).Message())
		return nil, false
	}
	return member, true
}

// invalidatePaymentStatus flags the month's cached counts so the next
// report refetches them.
func (b *Bot) invalidatePaymentStatus(ctx context.Context, per period.Period) {
	if b.paymentCache == nil {
		return
	}
	b.paymentCache.Invalidate(ctx, report.CacheKey(per))
}

// splitPair splits "left ; right", requiring both sides.
func splitPair(args string) (string, string, bool) {
	left, right, ok := strings.Cut(args, ";")
	left, right = strings.TrimSpace(left), strings.TrimSpace(right)
	if !ok || left == "" || right == "" {
		return "", "", false
	}
	return left, right, true
}

// splitTrailingAmount separates "Name With Spaces 50,00" into the name and
// the amount. The amount is zero when the last word is not a number.
func splitTrailingAmount(args string) (string, decimal.Decimal) {
	fields := strings.Fields(args)
	if len(fields) < 2 {
		return strings.Join(fields, " "), decimal.Zero
	}
	amount, ok := parseAmount(fields[len(fields)-1])
	if !ok {
		return strings.Join(fields, " "), decimal.Zero
	}
	return strings.Join(fields[:len(fields)-1], " "), amount
}

// historyLimit caps the rows shown by /history.
const historyLimit = 12

// handleLinkCore links a Telegram account to a member so they can use the
// member commands: /link <name> ; <telegram user id>.
func (b *Bot) handleLinkCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil {
		return
	}

	chatID := update.Message.Chat.ID
	name, rawID, ok := splitPair(extractCommandArgs(update.Message.Text, "/link"))
	userID, err := strconv.ParseInt(rawID, 10, 64)
	if !ok || err != nil || userID <= 0 {
		b.reply(ctx, tg, chatID, "Uso: <code>/link Nome do Sócio ; 123456789</code>")
		return
	}

	member, found := b.findMember(ctx, tg, chatID, name)
	if !found {
		return
	}

	if err := b.members.LinkTelegram(ctx, member.ID, userID); err != nil {
		logger.Log.Error().Err(err).Str("member_hash", logger.HashMemberID(member.ID)).Msg("Failed to link telegram account")
		b.reply(ctx, tg, chatID, msgGenericFailure)
		return
	}

	logger.Log.Info().
		Str("member_hash", logger.HashMemberID(member.ID)).
		Str("user_hash", logger.HashUserID(userID)).
		Msg("Telegram account linked")
	b.reply(ctx, tg, chatID, fmt.Sprintf("🔗 Conta vinculada a <b>%s</b>.", escapeHTML(member.Name)))
}

// handleSetStatusCore changes a member's status:
// /setstatus <name> ; frequentante|afastado.
func (b *Bot) handleSetStatusCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil {
		return
	}

	chatID := update.Message.Chat.ID
	name, rawStatus, ok := splitPair(extractCommandArgs(update.Message.Text, "/setstatus"))
	status := appmodels.MemberStatus(strings.ToLower(rawStatus))
	if !ok || !status.Valid() {
		b.reply(ctx, tg, chatID, "Uso: <code>/setstatus Nome do Sócio ; frequentante|afastado</code>")
		return
	}

	member, found := b.findMember(ctx, tg, chatID, name)
	if !found {
		return
	}
	if member.Status == status {
		b.reply(ctx, tg, chatID, fmt.Sprintf("%s já está como %s.",
			escapeHTML(member.Name), format.MemberStatusLabel(status)))
		return
	}

	if err := b.members.UpdateStatus(ctx, member.ID, status); err != nil {
		logger.Log.Error().Err(err).Str("member_hash", logger.HashMemberID(member.ID)).Msg("Failed to update member status")
		b.reply(ctx, tg, chatID, msgGenericFailure)
		return
	}

	b.reply(ctx, tg, chatID, fmt.Sprintf("✅ <b>%s</b> agora está como %s.",
		escapeHTML(member.Name), format.MemberStatusLabel(status)))
}

// handleHistoryCore shows a member's most recent dues rows: /history <name>.
func (b *Bot) handleHistoryCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil {
		return
	}

	chatID := update.Message.Chat.ID
	name := extractCommandArgs(update.Message.Text, "/history")
	if name == "" {
		b.reply(ctx, tg, chatID, "Uso: <code>/history Nome do Sócio</code>")
		return
	}

	member, found := b.findMember(ctx, tg, chatID, name)
	if !found {
		return
	}

	payments, err := b.payments.GetByMember(ctx, member.ID)
	if err != nil {
		logger.Log.Error().Err(err).Str("member_hash", logger.HashMemberID(member.ID)).Msg("Failed to fetch payment history")
		b.reply(ctx, tg, chatID, "❌ "+report.Classify("payments", err).Message())
		return
	}
	if len(payments) == 0 {
		b.reply(ctx, tg, chatID, fmt.Sprintf("Nenhuma mensalidade registrada para %s.", escapeHTML(member.Name)))
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "🧾 <b>Mensalidades de %s</b>\n\n", escapeHTML(member.Name))
	for i, p := range payments {
		if i == historyLimit {
			fmt.Fprintf(&sb, "… e mais %d.\n", len(payments)-historyLimit)
			break
		}
		label := p.Month
		if per, err := period.Parse(period.Selection{Month: p.Month, Year: strconv.Itoa(p.Year)}); err == nil {
			label = per.Label()
		}
		fmt.Fprintf(&sb, "• %s · %s · %s\n", label, format.Currency(p.Amount), dueLabel(p.IsPaid))
	}
	b.reply(ctx, tg, chatID, sb.String())
}
