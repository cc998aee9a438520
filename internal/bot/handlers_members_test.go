package bot

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gitlab.com/yelinaung/club-ledger/internal/bot/mocks"
	"gitlab.com/yelinaung/club-ledger/internal/models"
)

func TestHandleMembersCore(t *testing.T) {
	t.Parallel()

	t.Run("empty roster", func(t *testing.T) {
		b, _ := newTestBot(t)
		require.Equal(t, "Nenhum sócio cadastrado.", lastText(t, run(b.handleMembersCore, "/members")))
	})

	t.Run("lists status and warnings", func(t *testing.T) {
		b, data := newTestBot(t)
		data.addMember("Ana <Presidente>", nil)
		bruno := data.addMember("Bruno", nil)
		require.NoError(t, fakeMembers{data}.AddWarning(context.Background(), bruno.ID, models.Warning{Text: "atraso"}))

		text := lastText(t, run(b.handleMembersCore, "/members"))
		require.Contains(t, text, "Sócios (2)")
		require.Contains(t, text, "• Ana &lt;Presidente&gt; · Frequentante\n")
		require.Contains(t, text, "• Bruno · Frequentante · ⚠️ 1")
	})

	t.Run("backend failure", func(t *testing.T) {
		b, data := newTestBot(t)
		data.readErr = errBackend
		require.Contains(t, lastText(t, run(b.handleMembersCore, "/members")), "❌")
	})
}

func TestHandleWarnCore(t *testing.T) {
	t.Parallel()
	b, data := newTestBot(t)
	ana := data.addMember("Ana Lima", nil)

	text := lastText(t, run(b.handleWarnCore, "/warn ana lima ; faltou à assembleia"))
	require.Contains(t, text, "Advertência registrada para <b>Ana Lima</b> (1 no total)")

	got, err := fakeMembers{data}.GetByName(context.Background(), "Ana Lima")
	require.NoError(t, err)
	require.Len(t, got.Warnings, 1)
	require.Equal(t, "faltou à assembleia", got.Warnings[0].Text)
	require.Equal(t, testNow, got.Warnings[0].Date)
	require.Equal(t, ana.ID, got.ID)

	require.Contains(t, lastText(t, run(b.handleWarnCore, "/warn Ana Lima")), "Uso:")
	require.Contains(t, lastText(t, run(b.handleWarnCore, "/warn Zé ; x")), "não encontrado")
}

func TestHandlePayCore(t *testing.T) {
	t.Parallel()

	t.Run("marks existing unpaid row", func(t *testing.T) {
		b, data := newTestBot(t)
		ana := data.addMember("Ana", nil)
		row := data.addPayment(ana, "2024-03", 2024, false)

		text := lastText(t, run(b.handlePayCore, "/pay Ana"))
		require.Contains(t, text, "R$ 50,00")

		payments, err := fakePayments{data}.GetByPeriod(context.Background(), "2024-03", 2024)
		require.NoError(t, err)
		require.Len(t, payments, 1)
		require.Equal(t, row.ID, payments[0].ID)
		require.True(t, payments[0].IsPaid)
		require.NotNil(t, payments[0].Date)
	})

	t.Run("creates paid row with amount", func(t *testing.T) {
		b, data := newTestBot(t)
		ana := data.addMember("Ana Maria", nil)

		text := lastText(t, run(b.handlePayCore, "/pay Ana Maria 75,50"))
		require.Contains(t, text, "R$ 75,50")

		payments, err := fakePayments{data}.GetByPeriod(context.Background(), "2024-03", 2024)
		require.NoError(t, err)
		require.Len(t, payments, 1)
		require.Equal(t, ana.ID, payments[0].MemberID)
		require.True(t, payments[0].IsPaid)
		require.Equal(t, "75.5", payments[0].Amount.String())
	})

	t.Run("uses the selected period", func(t *testing.T) {
		b, data := newTestBot(t)
		data.addMember("Ana", nil)
		run(b.handlePeriodCore, "/period 2023-12")

		run(b.handlePayCore, "/pay Ana 50")
		payments, err := fakePayments{data}.GetByPeriod(context.Background(), "2023-12", 2023)
		require.NoError(t, err)
		require.Len(t, payments, 1)
	})

	t.Run("asks for amount without a row", func(t *testing.T) {
		b, data := newTestBot(t)
		data.addMember("Ana", nil)

		text := lastText(t, run(b.handlePayCore, "/pay Ana"))
		require.Contains(t, text, "Informe o valor")
		require.Empty(t, data.payments)
	})

	t.Run("already paid", func(t *testing.T) {
		b, data := newTestBot(t)
		ana := data.addMember("Ana", nil)
		data.addPayment(ana, "2024-03", 2024, false)
		data.addPayment(ana, "2024-03", 2024, true)

		require.Contains(t, lastText(t, run(b.handlePayCore, "/pay Ana")), "já está em dia")
	})

	t.Run("usage and unknown member", func(t *testing.T) {
		b, _ := newTestBot(t)
		require.Contains(t, lastText(t, run(b.handlePayCore, "/pay")), "Uso:")
		require.Contains(t, lastText(t, run(b.handlePayCore, "/pay Ninguém 10")), "não encontrado")
	})
}

func TestHandleUnpaidCore(t *testing.T) {
	t.Parallel()
	b, data := newTestBot(t)
	ana := data.addMember("Ana", nil)
	data.addMember("Bruno", nil)
	data.addPayment(ana, "2024-03", 2024, true)

	text := lastText(t, run(b.handleUnpaidCore, "/unpaid"))
	require.Contains(t, text, "Mensalidades pendentes em Março de 2024 (1)")
	require.Contains(t, text, "• Bruno")
	require.NotContains(t, text, "• Ana")

	run(b.handlePayCore, "/pay Bruno 50")
	require.Contains(t, lastText(t, run(b.handleUnpaidCore, "/unpaid")), "Todos os sócios estão em dia")
}

func TestHandleMyStatusCore(t *testing.T) {
	t.Parallel()
	b, data := newTestBot(t)
	maria := data.addMember("Maria", int64Ptr(testMemberID))
	ctx := context.Background()

	mockBot := mocks.NewMockBot()
	b.requireMember(ctx, mockBot, mocks.CommandUpdate(testChatID, testMemberID, "/mystatus"), b.handleMyStatusCore)
	text := lastText(t, mockBot)
	require.Contains(t, text, "<b>Maria</b>")
	require.Contains(t, text, "Mensalidade de Março de 2024: ❌ Pendente")
	require.NotContains(t, text, "aviso")

	data.addPayment(maria, "2024-03", 2024, true)
	require.NoError(t, fakeAnnouncements{data}.Publish(ctx, &models.Announcement{Title: "Festa"}, []uuid.UUID{maria.ID}))

	mockBot = mocks.NewMockBot()
	b.requireMember(ctx, mockBot, mocks.CommandUpdate(testChatID, testMemberID, "/mystatus"), b.handleMyStatusCore)
	text = lastText(t, mockBot)
	require.Contains(t, text, "✅ Pago")
	require.Contains(t, text, "1 aviso(s) não lido(s)")
}

func TestHandleLinkCore(t *testing.T) {
	t.Parallel()
	b, data := newTestBot(t)
	data.addMember("Carla", nil)

	text := lastText(t, run(b.handleLinkCore, "/link carla ; 555001"))
	require.Contains(t, text, "Conta vinculada a <b>Carla</b>")

	got, err := fakeMembers{data}.GetByTelegramUserID(context.Background(), 555001)
	require.NoError(t, err)
	require.Equal(t, "Carla", got.Name)

	require.Contains(t, lastText(t, run(b.handleLinkCore, "/link Carla ; abc")), "Uso:")
	require.Contains(t, lastText(t, run(b.handleLinkCore, "/link Carla ; -4")), "Uso:")
	require.Contains(t, lastText(t, run(b.handleLinkCore, "/link Zé ; 1")), "não encontrado")
}

func TestHandleSetStatusCore(t *testing.T) {
	t.Parallel()
	b, data := newTestBot(t)
	data.addMember("Davi", nil)

	text := lastText(t, run(b.handleSetStatusCore, "/setstatus Davi ; Afastado"))
	require.Contains(t, text, "<b>Davi</b> agora está como Afastado")

	got, err := fakeMembers{data}.GetByName(context.Background(), "Davi")
	require.NoError(t, err)
	require.Equal(t, models.MemberStatusAfastado, got.Status)

	require.Contains(t, lastText(t, run(b.handleSetStatusCore, "/setstatus Davi ; afastado")), "já está como Afastado")
	require.Contains(t, lastText(t, run(b.handleSetStatusCore, "/setstatus Davi ; advertido")), "Uso:")
}

func TestHandleHistoryCore(t *testing.T) {
	t.Parallel()

	t.Run("lists newest first", func(t *testing.T) {
		b, data := newTestBot(t)
		eva := data.addMember("Eva", nil)
		data.addPayment(eva, "2024-02", 2024, true)
		data.addPayment(eva, "2024-03", 2024, false)

		text := lastText(t, run(b.handleHistoryCore, "/history Eva"))
		require.Contains(t, text, "Mensalidades de Eva")
		require.Contains(t, text, "• Março de 2024 · R$ 50,00 · ❌ Pendente")
		require.Contains(t, text, "• Fevereiro de 2024 · R$ 50,00 · ✅ Pago")
		require.Less(t, strings.Index(text, "Março"), strings.Index(text, "Fevereiro"))
	})

	t.Run("truncates long histories", func(t *testing.T) {
		b, data := newTestBot(t)
		eva := data.addMember("Eva", nil)
		for m := 1; m <= historyLimit+2; m++ {
			year := 2023 + (m-1)/12
			month := (m-1)%12 + 1
			data.addPayment(eva, fmt.Sprintf("%d-%02d", year, month), year, true)
		}
		require.Contains(t, lastText(t, run(b.handleHistoryCore, "/history Eva")), "… e mais 2.")
	})

	t.Run("empty history and usage", func(t *testing.T) {
		b, data := newTestBot(t)
		data.addMember("Eva", nil)
		require.Contains(t, lastText(t, run(b.handleHistoryCore, "/history Eva")), "Nenhuma mensalidade registrada")
		require.Contains(t, lastText(t, run(b.handleHistoryCore, "/history")), "Uso:")
	})
}
