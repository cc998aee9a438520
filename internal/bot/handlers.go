package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"gitlab.com/yelinaung/club-ledger/internal/logger"
)

const msgGenericFailure = "❌ Não foi possível concluir a operação. Tente novamente."

// reply sends an HTML message to chatID and logs send failures.
func (b *Bot) reply(ctx context.Context, tg TelegramAPI, chatID int64, text string) {
	_, err := tg.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	})
	if err != nil {
		logger.Log.Error().Err(err).Str("chat_hash", logger.HashChatID(chatID)).Msg("Failed to send message")
	}
}

// extractCommandArgs returns the text after command, handling the
// "/command@botname args" form used in groups.
func extractCommandArgs(text, command string) string {
	args := strings.TrimSpace(strings.TrimPrefix(text, command))
	if strings.HasPrefix(args, "@") {
		if spaceIdx := strings.Index(args, " "); spaceIdx != -1 {
			args = strings.TrimSpace(args[spaceIdx:])
		} else {
			args = ""
		}
	}
	return args
}

// escapeHTML escapes HTML special characters for safe interpolation in Telegram HTML messages.
func escapeHTML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}

// formatGreeting returns a greeting suffix with the user's name.
func formatGreeting(firstName string) string {
	if firstName == "" {
		return ""
	}
	return ", " + escapeHTML(firstName)
}

// handleStartCore greets the user.
func (b *Bot) handleStartCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil {
		return
	}

	firstName := ""
	if update.Message.From != nil {
		firstName = update.Message.From.FirstName
	}

	text := fmt.Sprintf(`👋 Olá%s!

Sou o assistente do clube. A diretoria acompanha mensalidades, despesas e relatórios por aqui, e os sócios recebem avisos e consultam sua situação.

Use /help para ver os comandos disponíveis.`, formatGreeting(firstName))

	b.reply(ctx, tg, update.Message.Chat.ID, text)
}

const memberHelp = `<b>Sócios</b>
• /mystatus - Sua mensalidade do mês
• /inbox - Avisos recebidos
• /read &lt;n&gt; - Ler o aviso n`

const adminHelp = `<b>Relatórios</b>
• /period [AAAA-MM] - Ver ou escolher o mês
• /year &lt;AAAA&gt; - Trocar o ano mantendo o mês
• /report - Resumo do mês
• /chart - Gráficos do mês
• /export [despesas] - Exportar CSV
• /refresh - Recarregar os dados

<b>Cadastro</b>
• /members - Lista de sócios
• /warn &lt;nome&gt; ; &lt;texto&gt; - Registrar advertência
• /link &lt;nome&gt; ; &lt;id do Telegram&gt; - Vincular conta do sócio
• /setstatus &lt;nome&gt; ; frequentante|afastado - Alterar situação
• /history &lt;nome&gt; - Histórico de mensalidades
• /pay &lt;nome&gt; [valor] - Registrar mensalidade paga
• /unpaid - Sócios com mensalidade pendente
• /expense &lt;valor&gt; &lt;descrição&gt; [#categoria] - Registrar despesa
• /income &lt;valor&gt; &lt;descrição&gt; [#categoria] - Registrar receita
• /announce &lt;título&gt; ; &lt;texto&gt; - Publicar aviso`

// handleHelpCore lists the commands available to the sender.
func (b *Bot) handleHelpCore(ctx context.Context, tg TelegramAPI, update *models.Update) {
	if update.Message == nil {
		return
	}

	text := "📚 <b>Comandos</b>\n\n" + memberHelp
	if from := update.Message.From; from != nil && b.cfg.IsAdmin(from.ID, from.Username) {
		text += "\n\n" + adminHelp
	}

	b.reply(ctx, tg, update.Message.Chat.ID, text)
}
