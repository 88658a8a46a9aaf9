package bot

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	tele "gopkg.in/telebot.v3"

	"github.com/mzotov/famwallet/internal/models"
)

// handlerTimeout bounds every storage round-trip made from a handler.
const handlerTimeout = 10 * time.Second

func handlerContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), handlerTimeout)
}

func (b *Bot) handleStart(c tele.Context) error {
	ctx, cancel := handlerContext()
	defer cancel()

	name := displayName(c.Sender())
	_, group, err := b.wallets.Start(ctx, c.Sender().ID, name)
	if err != nil {
		return b.internalError(c, err)
	}
	return c.Send(formatWelcome(name, group), tele.ModeHTML)
}

func (b *Bot) handleHelp(c tele.Context) error {
	return c.Send(formatHelp())
}

func (b *Bot) handleBalance(c tele.Context) error {
	ctx, cancel := handlerContext()
	defer cancel()

	group, err := b.wallets.Balance(ctx, c.Sender().ID, displayName(c.Sender()))
	if err != nil {
		return b.internalError(c, err)
	}
	return c.Send(formatBalance(group), tele.ModeHTML)
}

func (b *Bot) handleHistory(c tele.Context) error {
	ctx, cancel := handlerContext()
	defer cancel()

	entries, group, err := b.wallets.History(ctx, c.Sender().ID, displayName(c.Sender()), 10)
	if err != nil {
		return b.internalError(c, err)
	}
	return c.Send(formatHistory(entries, group), tele.ModeHTML)
}

func (b *Bot) handleIncome(c tele.Context) error {
	b.pending.set(c.Chat().ID, pendingIncome)
	return c.Send("💵 How much came in?\n\nFor example: 5000 or 1500.50\nSend /cancel to abort.")
}

func (b *Bot) handleExpense(c tele.Context) error {
	b.pending.set(c.Chat().ID, pendingExpense)
	return c.Send("💸 How much did you spend?\n\nFor example: 350 or 1299.99\nSend /cancel to abort.")
}

func (b *Bot) handleCancel(c tele.Context) error {
	if !b.pending.clear(c.Chat().ID) {
		return c.Send("Nothing to cancel 🤷")
	}
	return c.Send("❌ Cancelled.")
}

// handleText finishes an /income or /expense dialogue; any other plain text
// gets a gentle pointer to /help.
func (b *Bot) handleText(c tele.Context) error {
	kind := b.pending.take(c.Chat().ID)
	if kind == pendingNone {
		return c.Send("I didn't catch that. Try /help for the list of commands.")
	}

	amount, err := parseAmount(c.Text())
	if err != nil {
		// Keep the dialogue open so the user can retry.
		b.pending.set(c.Chat().ID, kind)
		switch {
		case errors.Is(err, errAmountNotPos):
			return c.Send("❌ The amount must be greater than zero. Try again:")
		case errors.Is(err, errAmountTooLarge):
			return c.Send("❌ That amount is too large. Try again:")
		default:
			return c.Send("❌ I can't read that as a number. Something like 1000 or 1500.50, please:")
		}
	}

	ctx, cancel := handlerContext()
	defer cancel()

	name := displayName(c.Sender())
	switch kind {
	case pendingIncome:
		entry, group, err := b.wallets.RecordIncome(ctx, c.Sender().ID, name, amount, "income")
		if err != nil {
			return b.internalError(c, err)
		}
		return c.Send(formatEntrySaved(entry, group), tele.ModeHTML)
	case pendingExpense:
		entry, group, err := b.wallets.RecordExpense(ctx, c.Sender().ID, name, amount, "expense")
		if err != nil {
			return b.internalError(c, err)
		}
		return c.Send(formatEntrySaved(entry, group), tele.ModeHTML)
	}
	return nil
}

func (b *Bot) handleFamily(c tele.Context) error {
	ctx, cancel := handlerContext()
	defer cancel()

	members, group, err := b.wallets.Members(ctx, c.Sender().ID, displayName(c.Sender()))
	if err != nil {
		return b.internalError(c, err)
	}
	return c.Send(formatFamily(members, group), tele.ModeHTML)
}

func (b *Bot) handleInvite(c tele.Context) error {
	ctx, cancel := handlerContext()
	defer cancel()

	session, err := b.links.Invite(ctx, c.Sender().ID, displayName(c.Sender()))
	if err != nil {
		return b.internalError(c, err)
	}
	return c.Send(formatInvite(session), tele.ModeHTML)
}

func (b *Bot) handleRevoke(c tele.Context) error {
	ctx, cancel := handlerContext()
	defer cancel()

	err := b.links.Revoke(ctx, c.Sender().ID)
	switch {
	case err == nil:
		return c.Send("↩️ Invitation cancelled.")
	case errors.Is(err, models.ErrNoOpenSession):
		return c.Send("You have no open invitation.")
	default:
		return b.internalError(c, err)
	}
}

func (b *Bot) handleJoin(c tele.Context) error {
	code := strings.TrimSpace(c.Message().Payload)
	if code == "" {
		return c.Send("Send the code together with the command, like this:\n/join AB12CD")
	}

	ctx, cancel := handlerContext()
	defer cancel()

	result, err := b.links.Join(ctx, c.Sender().ID, displayName(c.Sender()), code)
	switch {
	case err == nil:
		return c.Send(formatMergeDone(result), tele.ModeHTML)
	case errors.Is(err, models.ErrInvalidCode),
		errors.Is(err, models.ErrCodeExpired),
		errors.Is(err, models.ErrCodeAlreadyUsed),
		errors.Is(err, models.ErrSelfLink):
		return c.Send(formatJoinError(err))
	default:
		return b.internalError(c, err)
	}
}

// internalError logs the failure and tells the user something neutral;
// storage errors are never shown verbatim.
func (b *Bot) internalError(c tele.Context, err error) error {
	slog.Error("handler failed", "person_id", c.Sender().ID, "error", err)
	return c.Send("😔 Something went wrong on my side, please try again later.")
}
