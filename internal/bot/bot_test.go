package bot

import (
	"context"
	"testing"

	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/require"
	"gitlab.com/yelinaung/club-ledger/internal/bot/mocks"
	appmodels "gitlab.com/yelinaung/club-ledger/internal/models"
)

func TestRequireAdmin(t *testing.T) {
	t.Parallel()
	b, _ := newTestBot(t)
	ctx := context.Background()

	var called int
	h := func(context.Context, TelegramAPI, *models.Update) { called++ }

	t.Run("admin by id runs handler", func(t *testing.T) {
		mockBot := mocks.NewMockBot()
		b.requireAdmin(ctx, mockBot, mocks.CommandUpdate(testChatID, testAdminID, "/report"), h)
		require.Equal(t, 1, called)
		require.Equal(t, 0, mockBot.SentMessageCount())
	})

	t.Run("admin by username runs handler", func(t *testing.T) {
		mockBot := mocks.NewMockBot()
		update := mocks.NewUpdateBuilder().
			WithMessage(testChatID, 1, "/report").
			WithFrom(1, "Tesoureiro", "Ana").
			Build()
		b.requireAdmin(ctx, mockBot, update, h)
		require.Equal(t, 2, called)
	})

	t.Run("non-admin is blocked", func(t *testing.T) {
		mockBot := mocks.NewMockBot()
		b.requireAdmin(ctx, mockBot, mocks.CommandUpdate(testChatID, 42, "/report"), h)
		require.Equal(t, 2, called)
		require.Contains(t, mockBot.LastSentMessage().Text, "restrito à diretoria")
	})

	t.Run("nil message and sender are ignored", func(t *testing.T) {
		mockBot := mocks.NewMockBot()
		b.requireAdmin(ctx, mockBot, &models.Update{}, h)
		b.requireAdmin(ctx, mockBot, mocks.NewUpdateBuilder().WithMessage(testChatID, 1, "/x").WithoutSender().Build(), h)
		require.Equal(t, 2, called)
		require.Equal(t, 0, mockBot.SentMessageCount())
	})
}

func TestRequireMember(t *testing.T) {
	t.Parallel()
	b, data := newTestBot(t)
	ctx := context.Background()
	linked := data.addMember("Maria Souza", int64Ptr(testMemberID))

	t.Run("linked member is resolved", func(t *testing.T) {
		mockBot := mocks.NewMockBot()
		var got *appmodels.Member
		b.requireMember(ctx, mockBot, mocks.CommandUpdate(testChatID, testMemberID, "/inbox"),
			func(_ context.Context, _ TelegramAPI, _ *models.Update, m *appmodels.Member) { got = m })
		require.NotNil(t, got)
		require.Equal(t, linked.ID, got.ID)
	})

	t.Run("unlinked account is told to contact the board", func(t *testing.T) {
		mockBot := mocks.NewMockBot()
		called := false
		b.requireMember(ctx, mockBot, mocks.CommandUpdate(testChatID, 7, "/inbox"),
			func(context.Context, TelegramAPI, *models.Update, *appmodels.Member) { called = true })
		require.False(t, called)
		require.Contains(t, mockBot.LastSentMessage().Text, "não está vinculada")
	})
}

func TestRequireMember_BackendError(t *testing.T) {
	t.Parallel()
	b, data := newTestBot(t)
	data.readErr = errBackend

	mockBot := mocks.NewMockBot()
	called := false
	b.requireMember(context.Background(), mockBot, mocks.CommandUpdate(testChatID, testMemberID, "/inbox"),
		func(context.Context, TelegramAPI, *models.Update, *appmodels.Member) { called = true })
	require.False(t, called)
	require.Equal(t, msgGenericFailure, mockBot.LastSentMessage().Text)
}

func TestHandleHelpCore(t *testing.T) {
	t.Parallel()
	b, _ := newTestBot(t)
	ctx := context.Background()

	mockBot := mocks.NewMockBot()
	b.handleHelpCore(ctx, mockBot, mocks.CommandUpdate(testChatID, 42, "/help"))
	text := mockBot.LastSentMessage().Text
	require.Contains(t, text, "/mystatus")
	require.NotContains(t, text, "/announce")

	mockBot = mocks.NewMockBot()
	b.handleHelpCore(ctx, mockBot, mocks.CommandUpdate(testChatID, testAdminID, "/help"))
	text = mockBot.LastSentMessage().Text
	require.Contains(t, text, "/mystatus")
	require.Contains(t, text, "/announce")
	require.Equal(t, models.ParseModeHTML, mockBot.LastSentMessage().ParseMode)
}

func TestHandleStartCore(t *testing.T) {
	t.Parallel()
	b, _ := newTestBot(t)

	mockBot := mocks.NewMockBot()
	update := mocks.NewUpdateBuilder().WithMessage(testChatID, 1, "/start").WithFrom(1, "", "<Ana>").Build()
	b.handleStartCore(context.Background(), mockBot, update)
	require.Contains(t, mockBot.LastSentMessage().Text, "Olá, &lt;Ana&gt;!")

	mockBot = mocks.NewMockBot()
	b.handleStartCore(context.Background(), mockBot, &models.Update{})
	require.Equal(t, 0, mockBot.SentMessageCount())
}

func TestCommandName(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"/pay Maria 50":        "/pay",
		"/report@club_bot":     "/report",
		"  /inbox  ":           "/inbox",
		"hello":                "",
		"":                     "",
		"/warn@bot Ana ; late": "/warn",
	}
	for in, want := range tests {
		require.Equal(t, want, commandName(in), in)
	}
}

func TestExtractCommandArgs(t *testing.T) {
	t.Parallel()

	require.Equal(t, "2024-03", extractCommandArgs("/period 2024-03", "/period"))
	require.Equal(t, "2024-03", extractCommandArgs("/period@club_bot 2024-03", "/period"))
	require.Empty(t, extractCommandArgs("/period@club_bot", "/period"))
	require.Empty(t, extractCommandArgs("/period", "/period"))
}

func TestSessionStore(t *testing.T) {
	t.Parallel()
	b, _ := newTestBot(t)

	s1 := b.sessions.get(1)
	require.Equal(t, "2024-03", s1.selection().Month)
	require.Equal(t, "2024", s1.selection().Year)
	require.Same(t, s1, b.sessions.get(1))
	require.NotSame(t, s1, b.sessions.get(2))
	require.NotSame(t, s1.report, b.sessions.get(2).report)
}

func TestEscapeHTML(t *testing.T) {
	t.Parallel()
	require.Equal(t, "a &lt;b&gt; &amp; c", escapeHTML("a <b> & c"))
}
