package coerce

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCurrency(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   any
		want string
	}{
		{"$1,234.56", "1234.56"},
		{"", "0"},
		{"-", "0"},
		{nil, "0"},
		{"  $ 5,000.00 ", "5000"},
		{"n/a", "0"},
		{1234.5, "1234.5"},
		{42, "42"},
		{"-12.75", "-12.75"},
		{decimal.RequireFromString("9.99"), "9.99"},
	}
	for _, tc := range cases {
		got := Currency(tc.in)
		if !got.Equal(decimal.RequireFromString(tc.want)) {
			t.Fatalf("Currency(%#v) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestInt(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1234, Int("1,234"))
	assert.Equal(t, 7, Int(7.9))
	assert.Equal(t, -3, Int("-3.2"))
	assert.Equal(t, 0, Int("abc"))
	assert.Equal(t, 0, Int(nil))
	assert.Equal(t, 12, Int(" 12 "))
}

func TestText(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", Text(nil, 10))
	assert.Equal(t, "", Text("   ", 10))
	assert.Equal(t, "", Text("None", 10))
	assert.Equal(t, "", Text("NONE", 10))
	assert.Equal(t, "abc", Text("  abc  ", 10))
	assert.Equal(t, "abcde", Text("abcdefgh", 5))
	assert.Equal(t, "héll", Text("héllo", 4))
	assert.Equal(t, "101", Text(101.0, 10))
	assert.Equal(t, "2026-02-22", Text(time.Date(2026, 2, 22, 13, 0, 0, 0, time.UTC), 20))
}

func TestBool(t *testing.T) {
	t.Parallel()

	for _, v := range []any{"yes", "TRUE", "1", "y", "X", " x ", true, 1.0} {
		if !Bool(v) {
			t.Fatalf("Bool(%#v) = false, want true", v)
		}
	}
	for _, v := range []any{nil, "", "no", "0", "false", "n", false, 2.0} {
		if Bool(v) {
			t.Fatalf("Bool(%#v) = true, want false", v)
		}
	}
}

func TestDate(t *testing.T) {
	t.Parallel()

	want := time.Date(2026, 2, 22, 0, 0, 0, 0, time.UTC)
	for _, in := range []string{
		"02/22/2026",
		"2/22/2026",
		"2026-02-22",
		"02-22-2026",
		"02/22/26",
		"2026-02-22T08:30:00",
		" 2026-02-22 ",
	} {
		got := Date(in)
		require.NotNil(t, got, in)
		require.True(t, got.Equal(want), "%s -> %s", in, got)
	}

	require.Nil(t, Date("not a date"))
	require.Nil(t, Date(""))
	require.Nil(t, Date(nil))
	require.Nil(t, Date(45345.0))

	native := Date(time.Date(2026, 2, 22, 17, 45, 0, 0, time.Local))
	require.NotNil(t, native)
	require.True(t, native.Equal(want))

	require.True(t, DateValue("junk").IsZero())
}

func TestCell_FormulaGuard(t *testing.T) {
	t.Parallel()

	row := Row{"Acme", "=SUM(A1:A3)", nil, 12.5}

	require.Equal(t, "Acme", Cell(row, 0))
	require.Nil(t, Cell(row, 1))
	require.Nil(t, Cell(row, 2))
	require.Equal(t, 12.5, Cell(row, 3))
	require.Nil(t, Cell(row, 4))
	require.Nil(t, Cell(row, -1))
	require.Equal(t, "fallback", CellOr(row, 1, "fallback"))
	require.Equal(t, "fallback", CellOr(row, 9, "fallback"))

	formula := Cell(row, 1)
	require.Equal(t, Cell(row, 2), formula)
	require.True(t, Currency(formula).IsZero())
	require.Equal(t, "", Text(formula, 10))
	require.Nil(t, Date(formula))
	require.Equal(t, 0, Int(formula))
}

func TestUSD(t *testing.T) {
	t.Parallel()

	require.Equal(t, "$1,234.56", USD(decimal.RequireFromString("1234.56")))
	require.Equal(t, "$0.00", USD(decimal.Zero))
}

func TestClassifier_FirstRuleWins(t *testing.T) {
	t.Parallel()

	c := NewClassifier("General",
		Rule{Category: "Site Work", Keywords: []string{"grading", "excavat"}},
		Rule{Category: "Structure", Keywords: []string{"framing", "foundation"}},
	)

	desc := "Foundation excavation and Framing"
	for i := 0; i < 5; i++ {
		require.Equal(t, "Site Work", c.Classify(desc))
	}
	require.Equal(t, "Structure", c.Classify("FRAMING labor"))
	require.Equal(t, "General", c.Classify("permit fees"))
}
