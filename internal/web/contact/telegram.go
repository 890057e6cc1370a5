package contact

import (
	"context"
	"fmt"

	"github.com/Laisky/errors/v2"
	tb "gopkg.in/telebot.v3"

	"github.com/Laisky/laisky-portfolio/internal/web/portfolio/dto"
)

// Notifier is told about every new contact message
type Notifier interface {
	Notify(ctx context.Context, form dto.ContactForm) error
}

// Telegram sends new messages to one chat
type Telegram struct {
	bot  *tb.Bot
	chat *tb.Chat
}

// NewTelegram creates a notifier posting to chatID. api may be empty for
// the default bot api server.
func NewTelegram(token string, chatID int64, api string) (*Telegram, error) {
	if token == "" || chatID == 0 {
		return nil, errors.New("telegram token and chat id are required")
	}

	bot, err := tb.NewBot(tb.Settings{
		Token: token,
		URL:   api,
		// only sends, never polls
		Offline: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "new telegram bot")
	}

	return &Telegram{bot: bot, chat: &tb.Chat{ID: chatID}}, nil
}

// Notify implements Notifier
func (t *Telegram) Notify(_ context.Context, form dto.ContactForm) error {
	text := fmt.Sprintf("New message from %s <%s>\nSubject: %s\n\n%s",
		form.Name, form.Email, form.Subject, form.Message)
	if _, err := t.bot.Send(t.chat, text); err != nil {
		return errors.Wrap(err, "send telegram message")
	}
	return nil
}
