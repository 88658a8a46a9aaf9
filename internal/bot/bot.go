// Package bot implements the Telegram command layer on top of the wallet and
// link services. It owns message parsing and formatting; all money and
// linking semantics live below it.
package bot

import (
	"fmt"
	"time"

	tele "gopkg.in/telebot.v3"

	"github.com/mzotov/famwallet/internal/service"
)

// Bot wraps the Telegram connection and the services it fronts.
type Bot struct {
	tele    *tele.Bot
	wallets *service.WalletService
	links   *service.LinkService
	pending *pendingInputs
}

// New connects to the Telegram API and registers all command handlers.
func New(token string, wallets *service.WalletService, links *service.LinkService) (*Bot, error) {
	b, err := tele.NewBot(tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Telegram: %w", err)
	}

	bot := &Bot{
		tele:    b,
		wallets: wallets,
		links:   links,
		pending: newPendingInputs(),
	}
	bot.registerHandlers()
	return bot, nil
}

func (b *Bot) registerHandlers() {
	b.tele.Handle("/start", b.handleStart)
	b.tele.Handle("/help", b.handleHelp)
	b.tele.Handle("/balance", b.handleBalance)
	b.tele.Handle("/history", b.handleHistory)
	b.tele.Handle("/income", b.handleIncome)
	b.tele.Handle("/expense", b.handleExpense)
	b.tele.Handle("/cancel", b.handleCancel)
	b.tele.Handle("/family", b.handleFamily)
	b.tele.Handle("/invite", b.handleInvite)
	b.tele.Handle("/revoke", b.handleRevoke)
	b.tele.Handle("/join", b.handleJoin)
	b.tele.Handle(tele.OnText, b.handleText)
}

// Start begins long-polling. It blocks until Stop is called.
func (b *Bot) Start() {
	b.tele.Start()
}

// Stop shuts down the poller.
func (b *Bot) Stop() {
	b.tele.Stop()
}

// Notify sends a plain message to a person by their Telegram ID.
// It satisfies the reminder scheduler's notifier contract.
func (b *Bot) Notify(personID int64, message string) error {
	_, err := b.tele.Send(tele.ChatID(personID), message, tele.ModeHTML)
	return err
}

// displayName picks the best available name for a Telegram user,
// falling back to the numeric ID.
func displayName(u *tele.User) string {
	switch {
	case u.FirstName != "":
		return u.FirstName
	case u.Username != "":
		return u.Username
	default:
		return fmt.Sprintf("Member %d", u.ID)
	}
}
