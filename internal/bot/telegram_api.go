package bot

import (
	tgbot "github.com/go-telegram/bot"
	"gitlab.com/yelinaung/club-ledger/internal/bot/mocks"
)

// TelegramAPI is an alias to the interface defined in mocks package.
// The interface is defined in mocks to avoid import cycles.
type TelegramAPI = mocks.TelegramAPI

var _ TelegramAPI = (*tgbot.Bot)(nil)
