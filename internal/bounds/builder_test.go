package bounds

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/simcheck/internal/simerr"
)

func TestParseUnit(t *testing.T) {
	inf := math.Inf(1)
	tests := []struct {
		unit string
		min  float64
		max  float64
	}{
		{"widgets [?, 100]", -inf, 100},
		{"widgets", -inf, inf},
		{"", -inf, inf},
		{"people [0, ?]", 0, inf},
		{"people [0,?]", 0, inf},
		{"1/day [0.1, 2.5]", 0.1, 2.5},
		{"m [-1e3, 1e3]", -1000, 1000},
		{"widgets [?, ?]", -inf, inf},
		{"widgets [, 5]", -inf, 5},
		{"Dmnl [0, 1, 0.05]", 0, 1},
		{"x [3, 3]", 3, 3},
	}
	for _, tt := range tests {
		t.Run(tt.unit, func(t *testing.T) {
			min, max, err := ParseUnit(tt.unit)
			require.NoError(t, err)
			assert.Equal(t, tt.min, min)
			assert.Equal(t, tt.max, max)
		})
	}
}

func TestParseUnit_Errors(t *testing.T) {
	tests := []struct {
		name string
		unit string
	}{
		{"non numeric token", "widgets [abc, 100]"},
		{"non numeric right side", "widgets [0, lots]"},
		{"single element", "widgets [5]"},
		{"too many elements", "widgets [0, 1, 2, 3]"},
		{"unterminated", "widgets [0, 1"},
		{"min above max", "widgets [10, 1]"},
		{"nan token", "widgets [NaN, 1]"},
		{"non numeric increment", "widgets [0, 1, fast]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ParseUnit(tt.unit)
			require.Error(t, err)
			assert.True(t, simerr.IsParse(err), "got %v", err)
		})
	}
}

func TestBuild(t *testing.T) {
	docs := []VarDoc{
		{Name: "Stock", Comment: "Inventory on hand", Unit: "widgets [?, 100]"},
		{Name: "Flow", Comment: "", Unit: "widgets/day"},
		{Name: "Fraction", Comment: "share", Unit: "Dmnl [0, 1]"},
	}
	original := append([]VarDoc(nil), docs...)

	table, err := Build(docs)
	require.NoError(t, err)
	assert.Equal(t, original, docs, "source docs must not be mutated")
	require.Equal(t, 3, table.Len())

	stock, ok := table.Lookup("Stock")
	require.True(t, ok)
	assert.Equal(t, Entry{
		Name:    "Stock",
		Comment: "Inventory on hand",
		Unit:    "widgets [?, 100]",
		Min:     math.Inf(-1),
		Max:     100,
	}, stock)

	flow, ok := table.Lookup("Flow")
	require.True(t, ok)
	assert.True(t, flow.Unbounded())

	names := []string{}
	for _, e := range table.Entries() {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{"Stock", "Flow", "Fraction"}, names)
}

func TestBuild_ParseErrorNamesVariable(t *testing.T) {
	_, err := Build([]VarDoc{
		{Name: "ok", Unit: "x [0, 1]"},
		{Name: "broken", Unit: "x [zero, 1]"},
	})
	require.Error(t, err)
	assert.True(t, simerr.IsParse(err))
	assert.Contains(t, err.Error(), `"broken"`)
	assert.Contains(t, err.Error(), `"zero"`)
}

func TestBuild_DuplicateName(t *testing.T) {
	_, err := Build([]VarDoc{
		{Name: "stock", Unit: "x"},
		{Name: " stock ", Unit: "x"},
	})
	require.Error(t, err)
	assert.True(t, simerr.IsParse(err))
	assert.Contains(t, err.Error(), "duplicate")
}

func TestTable_LookupNormalizesNames(t *testing.T) {
	table := NewTable()
	// "é" precomposed (U+00E9)
	require.NoError(t, table.Add(Entry{Name: "café", Min: 0, Max: 1}))

	// "e" + combining acute (U+0301)
	e, ok := table.Lookup("café")
	require.True(t, ok)
	assert.Equal(t, 1.0, e.Max)

	_, ok = table.Lookup("tea")
	assert.False(t, ok)
}

func TestTable_KeepsDocumentedName(t *testing.T) {
	// "e" + combining acute (U+0301), padded
	written := " cafe\u0301 "

	table, err := Build([]VarDoc{{Name: written, Unit: "cups [0, 4]"}})
	require.NoError(t, err)

	e, ok := table.Lookup("caf\u00e9")
	require.True(t, ok)
	assert.Equal(t, written, e.Name)
	assert.Equal(t, written, table.Entries()[0].Name)
}

func TestTable_AddRejectsInvertedRange(t *testing.T) {
	err := NewTable().Add(Entry{Name: "x", Min: 2, Max: 1})
	require.Error(t, err)
	assert.True(t, simerr.IsParse(err))
}

func TestFormatBound(t *testing.T) {
	assert.Equal(t, "-inf", FormatBound(math.Inf(-1)))
	assert.Equal(t, "+inf", FormatBound(math.Inf(1)))
	assert.Equal(t, "0.1", FormatBound(0.1))
	assert.Equal(t, "100", FormatBound(100))
}
