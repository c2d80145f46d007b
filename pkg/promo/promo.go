package promo

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

var (
	// ErrInvalidRate is returned for rates outside [0, 1].
	ErrInvalidRate = errors.New("promo.invalid_rate")

	// ErrEmptyCode is returned for blank codes.
	ErrEmptyCode = errors.New("promo.empty_code")

	// ErrDecode is returned for unreadable promo files.
	ErrDecode = errors.New("promo.decode_failed")
)

// Table maps promo codes to discount fractions. Codes are case-insensitive.
// It is a static convenience lookup; the server never validates the codes.
type Table struct {
	rates map[string]decimal.Decimal
}

// New builds a table from code/rate pairs.
func New(rates map[string]decimal.Decimal) (*Table, error) {
	t := &Table{rates: make(map[string]decimal.Decimal, len(rates))}
	for code, rate := range rates {
		if err := t.add(code, rate); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Default returns the built-in codes.
func Default() *Table {
	return &Table{rates: map[string]decimal.Decimal{
		"WELCOME10": decimal.RequireFromString("0.10"),
		"FEAST20":   decimal.RequireFromString("0.20"),
		"HALFOFF":   decimal.RequireFromString("0.50"),
	}}
}

// Lookup returns the rate for code.
func (t *Table) Lookup(code string) (decimal.Decimal, bool) {
	if t == nil {
		return decimal.Zero, false
	}
	rate, ok := t.rates[normalize(code)]
	return rate, ok
}

// Codes returns a copy of the table.
func (t *Table) Codes() map[string]decimal.Decimal {
	return maps.Clone(t.rates)
}

// Len returns the number of codes.
func (t *Table) Len() int { return len(t.rates) }

func (t *Table) add(code string, rate decimal.Decimal) error {
	code = normalize(code)
	if code == "" {
		return ErrEmptyCode
	}
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("%w: %s=%s", ErrInvalidRate, code, rate)
	}
	t.rates[code] = rate
	return nil
}

type document struct {
	Codes map[string]string `yaml:"codes"`
}

// LoadYAML reads a table from r. Rates are fractions ("0.15") or
// percentages ("15%"):
//
//	codes:
//	  WELCOME10: 0.10
//	  SPRING: 15%
func LoadYAML(r io.Reader) (*Table, error) {
	var doc document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	t := &Table{rates: make(map[string]decimal.Decimal, len(doc.Codes))}
	for code, raw := range doc.Codes {
		rate, err := parseRate(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrDecode, code, err)
		}
		if err := t.add(code, rate); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// LoadFile reads a YAML table from path.
func LoadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	defer f.Close()
	return LoadYAML(f)
}

func parseRate(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if pct, ok := strings.CutSuffix(raw, "%"); ok {
		d, err := decimal.NewFromString(strings.TrimSpace(pct))
		if err != nil {
			return decimal.Zero, err
		}
		return d.Div(decimal.NewFromInt(100)), nil
	}
	return decimal.NewFromString(raw)
}

func normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
