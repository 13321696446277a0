package portfolio

import (
	"strconv"
	"strings"

	"github.com/wonny/valuescreen/internal/contracts"
)

// ParseNotional parses a user-entered portfolio size such as "1,000,000" or "$2500.50"
func ParseNotional(input string) (float64, error) {
	cleaned := strings.NewReplacer("$", "", ",", "", "_", "", " ", "").Replace(strings.TrimSpace(input))
	if cleaned == "" {
		return 0, &contracts.InvalidPortfolioSizeError{Input: input, Reason: "empty input"}
	}

	notional, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, &contracts.InvalidPortfolioSizeError{Input: input, Reason: "not a number"}
	}

	if err := contracts.ValidateNotional(notional); err != nil {
		if ip, ok := err.(*contracts.InvalidPortfolioSizeError); ok {
			ip.Input = input
		}
		return 0, err
	}
	return notional, nil
}
