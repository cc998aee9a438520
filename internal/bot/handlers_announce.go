package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"gitlab.com/yelinaung/club-ledger/internal/format"
	"gitlab.com/yelinaung/club-ledger/internal/logger"
	appmodels "gitlab.com/yelinaung/club-ledger/internal/models"
)

// handleAnnounceCore publishes an announcement to every member and pushes
// it to members with a linked Telegram account.
func (b *Bot) handleAnnounceCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	chatID := update.Message.Chat.ID
	title, body, ok := splitPair(extractCommandArgs(update.Message.Text, "/announce"))
	if !ok {
		b.reply(ctx, tg, chatID, "Uso: <code>/announce Título ; texto do aviso</code>")
		return
	}

	memberIDs, err := b.members.GetIDs(ctx)
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to fetch member IDs")
		b.reply(ctx, tg, chatID, msgGenericFailure)
		return
	}

	a := &appmodels.Announcement{Title: title, Body: body, AuthorID: update.Message.From.ID}
	if err := b.announcements.Publish(ctx, a, memberIDs); err != nil {
		logger.Log.Error().Err(err).Msg("Failed to publish announcement")
		b.reply(ctx, tg, chatID, msgGenericFailure)
		return
	}

	delivered := b.pushAnnouncement(ctx, tg, a)
	b.reply(ctx, tg, chatID, fmt.Sprintf("📢 Aviso publicado para %d sócio(s), %d notificado(s) no Telegram.",
		len(memberIDs), delivered))
}

// pushAnnouncement notifies linked members and returns how many were reached.
func (b *Bot) pushAnnouncement(ctx context.Context, tg TelegramAPI, a *appmodels.Announcement) int {
	linked, err := b.members.GetLinked(ctx)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Failed to fetch linked members")
		return 0
	}

	text := fmt.Sprintf("📢 <b>%s</b>\n\n%s\n\nUse /inbox para ver seus avisos.", escapeHTML(a.Title), escapeHTML(a.Body))
	delivered := 0
	for _, m := range linked {
		if m.TelegramUserID == nil {
			continue
		}
		_, err := tg.SendMessage(ctx, &bot.SendMessageParams{
			ChatID:    *m.TelegramUserID,
			Text:      text,
			ParseMode: models.ParseModeHTML,
		})
		if err != nil {
			logger.Log.Warn().Err(err).Str("member_hash", logger.HashMemberID(m.ID)).Msg("Failed to push announcement")
			continue
		}
		delivered++
	}
	return delivered
}

// handleInboxCore lists the member's announcements, newest first.
func (b *Bot) handleInboxCore(ctx context.Context, tg TelegramAPI, update *models.Update, member *appmodels.Member) {
	chatID := update.Message.Chat.ID
	inbox, err := b.announcements.ListForMember(ctx, member.ID)
	if err != nil {
		logger.Log.Error().Err(err).Str("member_hash", logger.HashMemberID(member.ID)).Msg("Failed to fetch inbox")
		b.reply(ctx, tg, chatID, msgGenericFailure)
		return
	}
	if len(inbox) == 0 {
		b.reply(ctx, tg, chatID, "📭 Nenhum aviso.")
		return
	}

	var sb strings.Builder
	sb.WriteString("📬 <b>Avisos</b>\n\n")
	for i, rcpt := range inbox {
		marker := "  "
		if !rcpt.IsRead {
			marker = "🆕"
		}
		fmt.Fprintf(&sb, "%s %d. %s <i>(%s)</i>\n", marker, i+1,
			escapeHTML(rcpt.Announcement.Title), format.Date(rcpt.Announcement.CreatedAt))
	}
	sb.WriteString("\nUse <code>/read N</code> para ler.")
	b.reply(ctx, tg, chatID, sb.String())
}

// handleReadCore shows announcement N of the inbox and marks it read.
func (b *Bot) handleReadCore(ctx context.Context, tg TelegramAPI, update *models.Update, member *appmodels.Member) {
	chatID := update.Message.Chat.ID
	n, err := strconv.Atoi(extractCommandArgs(update.Message.Text, "/read"))
	if err != nil || n < 1 {
		b.reply(ctx, tg, chatID, "Uso: <code>/read N</code>, com N da lista de /inbox.")
		return
	}

	inbox, err := b.announcements.ListForMember(ctx, member.ID)
	if err != nil {
		logger.Log.Error().Err(err).Str("member_hash", logger.HashMemberID(member.ID)).Msg("Failed to fetch inbox")
		b.reply(ctx, tg, chatID, msgGenericFailure)
		return
	}
	if n > len(inbox) {
		b.reply(ctx, tg, chatID, fmt.Sprintf("❌ Aviso %d não existe. Você tem %d aviso(s).", n, len(inbox)))
		return
	}

	rcpt := inbox[n-1]
	if !rcpt.IsRead {
		if err := b.announcements.MarkRead(ctx, rcpt.ID); err != nil {
			logger.Log.Warn().Err(err).Msg("Failed to mark announcement read")
		}
	}

	a := rcpt.Announcement
	b.reply(ctx, tg, chatID, fmt.Sprintf("📢 <b>%s</b>\n<i>%s</i>\n\n%s",
		escapeHTML(a.Title), format.Date(a.CreatedAt), escapeHTML(a.Body)))
}
