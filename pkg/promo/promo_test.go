package promo_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/storefront/pkg/promo"
)

func TestDefault(t *testing.T) {
	t.Parallel()

	table := promo.Default()
	rate, ok := table.Lookup("welcome10")
	require.True(t, ok)
	assert.True(t, decimal.RequireFromString("0.1").Equal(rate))

	_, ok = table.Lookup("NOPE")
	assert.False(t, ok)
}

func TestNew(t *testing.T) {
	t.Parallel()

	table, err := promo.New(map[string]decimal.Decimal{" spring ": decimal.RequireFromString("0.15")})
	require.NoError(t, err)
	rate, ok := table.Lookup("SPRING")
	require.True(t, ok)
	assert.Equal(t, "0.15", rate.String())

	_, err = promo.New(map[string]decimal.Decimal{"BAD": decimal.RequireFromString("1.5")})
	assert.ErrorIs(t, err, promo.ErrInvalidRate)

	_, err = promo.New(map[string]decimal.Decimal{"  ": decimal.Zero})
	assert.ErrorIs(t, err, promo.ErrEmptyCode)
}

func TestLoadYAML(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		code    string
		want    string
		wantErr error
	}{
		{"fraction", "codes:\n  WELCOME10: 0.10\n", "welcome10", "0.1", nil},
		{"percentage", "codes:\n  spring: 15%\n", "SPRING", "0.15", nil},
		{"quoted", "codes:\n  FREE: \"1\"\n", "free", "1", nil},
		{"out of range", "codes:\n  GREEDY: 120%\n", "", "", promo.ErrInvalidRate},
		{"not a number", "codes:\n  X: lots\n", "", "", promo.ErrDecode},
		{"not yaml", "codes: [", "", "", promo.ErrDecode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := promo.LoadYAML(strings.NewReader(tt.input))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			rate, ok := table.Lookup(tt.code)
			require.True(t, ok)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(rate), "got %s", rate)
		})
	}
}

func TestLoadYAML_Empty(t *testing.T) {
	t.Parallel()

	table, err := promo.LoadYAML(strings.NewReader(""))
	require.NoError(t, err)
	assert.Zero(t, table.Len())
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "promo.yaml")
	require.NoError(t, os.WriteFile(path, []byte("codes:\n  LUNCH: 0.05\n  DINNER: 0.08\n"), 0o600))

	table, err := promo.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, table.Len())
	assert.Contains(t, table.Codes(), "DINNER")

	_, err = promo.LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, promo.ErrDecode)
}

func TestNilTable(t *testing.T) {
	t.Parallel()

	var table *promo.Table
	_, ok := table.Lookup("WELCOME10")
	assert.False(t, ok)
}
