package csvsource

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadTable(t *testing.T) {
	input := "\ufeffPOG, Bay ,Peg,UPC,Product Description\n" +
		"P1,1,R01 C01,\"012345678905\",\"Widget, large\"\n" +
		"\n" +
		"P1,2,R02 C05\n"

	tbl, err := readTable(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, 0, tbl.column(pogAliases))
	assert.Equal(t, 1, tbl.column(bayAliases))
	assert.Equal(t, 4, tbl.column(descriptionAliases))
	assert.Equal(t, -1, tbl.column(widthAliases))

	require.Len(t, tbl.rows, 2)
	assert.Equal(t, 2, tbl.rows[0].line)
	assert.Equal(t, "Widget, large", getCol(tbl.rows[0].fields, 4))
	assert.Equal(t, 4, tbl.rows[1].line)

	// Short rows read as empty for the missing cells.
	assert.Equal(t, "", getCol(tbl.rows[1].fields, tbl.column(upcAliases)))
}

func TestReadTable_Empty(t *testing.T) {
	tbl, err := readTable(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, -1, tbl.column(pogAliases))
	assert.Empty(t, tbl.rows)
}

func TestHeaderKey(t *testing.T) {
	tests := map[string]string{
		"POG":                 "pog",
		" Product Description": "productdescription",
		"Store_Number":        "storenumber",
		"Width-In.":           "widthin",
	}
	for in, want := range tests {
		assert.Equal(t, want, headerKey(in), in)
	}
}

func TestGetCol(t *testing.T) {
	record := []string{" a ", "b"}
	assert.Equal(t, "a", getCol(record, 0))
	assert.Equal(t, "", getCol(record, 5))
	assert.Equal(t, "", getCol(record, -1))
}

func TestReadLines(t *testing.T) {
	names, err := readLines(strings.NewReader("\ufeff123.jpg\r\n\n  P1.pdf  \n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"123.jpg", "P1.pdf"}, names)
}

func TestParseOrdinal(t *testing.T) {
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"3", 3, true},
		{" 12 ", 12, true},
		{"3A", 3, true},
		{"", 0, false},
		{"end cap", 0, false},
		{"-2", 0, false},
	}
	for _, tt := range tests {
		got, ok := parseOrdinal(tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
	}
}
