package commands

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/valuescreen/internal/contracts"
)

func TestPromptNotional(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		maxAttempts int
		want        float64
		wantErr     bool
		wantPrompts int
	}{
		{
			name:        "valid first try",
			input:       "1000000\n",
			want:        1_000_000,
			wantPrompts: 1,
		},
		{
			name:        "formatted input",
			input:       "$2,500.50\n",
			want:        2500.50,
			wantPrompts: 1,
		},
		{
			name:        "re-prompts after invalid input",
			input:       "abc\n-5\n0\n10000\n",
			want:        10000,
			wantPrompts: 4,
		},
		{
			name:        "gives up after max attempts",
			input:       "abc\nabc\nabc\n",
			maxAttempts: 2,
			wantErr:     true,
			wantPrompts: 2,
		},
		{
			name:        "EOF is an error",
			input:       "",
			wantErr:     true,
			wantPrompts: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			got, err := promptNotional(strings.NewReader(tt.input), &out, tt.maxAttempts)

			if tt.wantErr {
				require.Error(t, err)
				assert.Zero(t, got)
			} else {
				require.NoError(t, err)
				assert.InDelta(t, tt.want, got, 1e-9)
			}
			assert.Equal(t, tt.wantPrompts, strings.Count(out.String(), "Enter the value of your portfolio"))
		})
	}
}

func TestPromptNotional_ErrorTypes(t *testing.T) {
	_, err := promptNotional(strings.NewReader("x\n"), io.Discard, 1)
	var sizeErr *contracts.InvalidPortfolioSizeError
	assert.True(t, errors.As(err, &sizeErr))

	_, err = promptNotional(strings.NewReader(""), io.Discard, 1)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}
