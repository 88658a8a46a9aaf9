package bot

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// maxAmount matches the upper bound the dialogue accepts for one entry.
var maxAmount = decimal.NewFromInt(999_999_999)

var (
	errAmountInvalid  = errors.New("amount not recognized")
	errAmountNotPos   = errors.New("amount must be greater than zero")
	errAmountTooLarge = errors.New("amount is too large")
)

// parseAmount turns user input into a positive decimal amount.
// A comma decimal separator is tolerated ("1500,50").
func parseAmount(text string) (decimal.Decimal, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(text), ",", ".")

	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, errAmountInvalid
	}
	if amount.Sign() <= 0 {
		return decimal.Zero, errAmountNotPos
	}
	if amount.GreaterThan(maxAmount) {
		return decimal.Zero, errAmountTooLarge
	}
	return amount, nil
}
