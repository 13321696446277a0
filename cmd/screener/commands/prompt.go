package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/wonny/valuescreen/internal/contracts"
	"github.com/wonny/valuescreen/internal/portfolio"
)

// defaultPromptAttempts bounds the portfolio size prompt
const defaultPromptAttempts = 5

// promptNotional asks for the portfolio size until a valid value is entered.
// Never falls back to a default: EOF or too many bad inputs is an error.
func promptNotional(in io.Reader, out io.Writer, maxAttempts int) (float64, error) {
	if maxAttempts <= 0 {
		maxAttempts = defaultPromptAttempts
	}

	scanner := bufio.NewScanner(in)
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		fmt.Fprint(out, "Enter the value of your portfolio: ")
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return 0, fmt.Errorf("read portfolio size: %w", err)
			}
			return 0, fmt.Errorf("read portfolio size: %w", io.ErrUnexpectedEOF)
		}

		notional, err := portfolio.ParseNotional(scanner.Text())
		if err == nil {
			return notional, nil
		}

		var sizeErr *contracts.InvalidPortfolioSizeError
		if !errors.As(err, &sizeErr) {
			return 0, err
		}
		lastErr = err
		fmt.Fprintf(out, "❌ %s\n", sizeErr.Error())
	}

	return 0, fmt.Errorf("no valid portfolio size after %d attempts: %w", maxAttempts, lastErr)
}
