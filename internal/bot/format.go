package bot

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mzotov/famwallet/internal/models"
)

// formatMoney renders an amount with two decimal places and the currency sign.
func formatMoney(d decimal.Decimal) string {
	return d.StringFixed(2) + " ₽"
}

func formatWelcome(name string, group *models.Group) string {
	return fmt.Sprintf(
		"👋 Hi, %s!\n\n"+
			"I keep track of your family wallet.\n\n"+
			"📝 Commands:\n"+
			"/income — record money coming in\n"+
			"/expense — record money going out\n"+
			"/balance — show the current balance\n"+
			"/history — last 10 entries\n"+
			"/family — who shares this wallet\n"+
			"/invite — invite someone to your wallet\n"+
			"/join — join someone else's wallet\n"+
			"/help — full help\n\n"+
			"💰 Current balance: <b>%s</b>",
		name, formatMoney(group.Balance),
	)
}

func formatHelp() string {
	return "ℹ️ How to use the wallet:\n\n" +
		"📥 /income — I will ask for the amount you received.\n" +
		"📤 /expense — I will ask for the amount you spent.\n" +
		"💰 /balance — current wallet balance.\n" +
		"📊 /history — the last 10 entries.\n" +
		"👪 /family — members sharing this wallet.\n" +
		"🔗 /invite — get a short code; whoever sends it to me with /join " +
		"moves their wallet into yours, money and history included.\n" +
		"🚪 /join CODE — merge your wallet into the code owner's wallet.\n" +
		"↩️ /revoke — cancel your open invitation.\n" +
		"❌ /cancel — abort the current dialogue.\n\n" +
		"I also send daily reminders: income in the morning, expenses in the evening."
}

func formatBalance(group *models.Group) string {
	return fmt.Sprintf("💰 Current balance:\n\n<b>%s</b>", formatMoney(group.Balance))
}

func formatEntrySaved(entry *models.LedgerEntry, group *models.Group) string {
	if entry.Income() {
		return fmt.Sprintf(
			"✅ Income recorded!\n\n💵 +%s\n💰 New balance: <b>%s</b>",
			formatMoney(entry.Amount), formatMoney(group.Balance),
		)
	}

	marker := "💰"
	if group.Balance.Sign() < 0 {
		marker = "⚠️"
	}
	return fmt.Sprintf(
		"✅ Expense recorded!\n\n💸 %s\n%s New balance: <b>%s</b>",
		formatMoney(entry.Amount), marker, formatMoney(group.Balance),
	)
}

func formatHistory(entries []models.LedgerEntry, group *models.Group) string {
	if len(entries) == 0 {
		return "📊 The history is empty so far."
	}

	var sb strings.Builder
	sb.WriteString("📊 <b>Recent entries:</b>\n\n")
	for _, e := range entries {
		marker := "💵"
		if !e.Income() {
			marker = "💸"
		}
		fmt.Fprintf(&sb, "%s %s — %s\n   📅 %s\n\n",
			marker, formatMoney(e.Amount), e.AuthorName,
			e.CreatedAt.Format("02.01.2006 15:04"),
		)
	}
	fmt.Fprintf(&sb, "💰 <b>Current balance: %s</b>", formatMoney(group.Balance))
	return sb.String()
}

func formatFamily(members []models.Member, group *models.Group) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "👪 <b>%s</b>\n\n", group.Name)
	for _, m := range members {
		fmt.Fprintf(&sb, "• %s\n", m.Name)
	}
	fmt.Fprintf(&sb, "\n💰 Balance: <b>%s</b>", formatMoney(group.Balance))
	return sb.String()
}

func formatInvite(session *models.LinkingSession) string {
	ttl := time.Until(session.ExpiresAt).Round(time.Minute)
	return fmt.Sprintf(
		"🔗 Your invitation code:\n\n<b>%s</b>\n\n"+
			"Ask the other person to send me:\n/join %s\n\n"+
			"The code works for %s and replaces any code you created earlier.",
		session.Code, session.Code, ttl,
	)
}

func formatMergeDone(result *models.MergeResult) string {
	return fmt.Sprintf(
		"🎉 Wallets merged!\n\n"+
			"You are now part of <b>%s</b> (%d members).\n"+
			"💰 Shared balance: <b>%s</b>",
		result.Group.Name, result.MemberCount, formatMoney(result.Group.Balance),
	)
}

// formatJoinError translates the linking error taxonomy into actionable
// messages. Unknown errors get a generic apology; the details stay in logs.
func formatJoinError(err error) string {
	switch {
	case errors.Is(err, models.ErrInvalidCode):
		return "❌ I don't know this code. Check it and try again, or ask for a fresh invitation."
	case errors.Is(err, models.ErrCodeExpired):
		return "⏰ This code has expired. Ask for a new invitation."
	case errors.Is(err, models.ErrCodeAlreadyUsed):
		return "❌ This code has already been used. Every code works exactly once."
	case errors.Is(err, models.ErrSelfLink):
		return "🤝 That's your own code — you are already in this wallet."
	default:
		return "😔 Something went wrong on my side, please try again later."
	}
}
