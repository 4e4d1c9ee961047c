package csvsource

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"io"
	"strings"

	"github.com/rotisserie/eris"
)

// Column aliases, compared after headerKey folding.
var (
	pogAliases         = []string{"pog", "planogram", "planogramid", "pogid", "pognumber"}
	bayAliases         = []string{"bay", "bayno", "baynumber", "baynum"}
	pegAliases         = []string{"peg", "pegid", "pegaddress", "peglocation", "location"}
	positionAliases    = []string{"position", "pos", "positionno", "sequence", "seq"}
	upcAliases         = []string{"upc", "upccode", "barcode", "upcnumber"}
	widthAliases       = []string{"width", "widthin", "productwidth", "w"}
	heightAliases      = []string{"height", "heightin", "productheight", "h"}
	descriptionAliases = []string{"productdescription", "description", "desc", "itemdescription", "productname", "name"}
	storeAliases       = []string{"store", "storeid", "storenumber", "storeno", "storenum"}
	productNameAliases = []string{"productname", "productdescription", "description", "itemdescription", "name"}
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// row is one data record with its 1-based line number in the file.
type row struct {
	line   int
	fields []string
}

// table is a parsed CSV file with a folded header index.
type table struct {
	header map[string]int
	rows   []row
}

// headerKey folds a column name for alias lookup: lower case, no spaces,
// underscores, dashes or dots.
func headerKey(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch r {
		case ' ', '_', '-', '.', '\t':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// readTable parses a headered CSV stream. Quoted fields, a leading UTF-8 BOM
// and ragged rows are tolerated; blank lines are skipped. An empty stream
// yields a table with no columns.
func readTable(r io.Reader) (*table, error) {
	br := bufio.NewReader(r)
	if prefix, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(prefix, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	reader := csv.NewReader(br)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	t := &table{header: make(map[string]int)}
	haveHeader := false

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "csv: read row")
		}
		if blank(record) {
			continue
		}

		if !haveHeader {
			for i, name := range record {
				key := headerKey(name)
				if _, dup := t.header[key]; !dup && key != "" {
					t.header[key] = i
				}
			}
			haveHeader = true
			continue
		}

		line, _ := reader.FieldPos(0)
		t.rows = append(t.rows, row{line: line, fields: record})
	}

	return t, nil
}

// column returns the index of the first alias present in the header, or -1.
func (t *table) column(aliases []string) int {
	for _, alias := range aliases {
		if i, ok := t.header[alias]; ok {
			return i
		}
	}
	return -1
}

// getCol returns the trimmed field at idx. Missing columns and short rows
// read as empty.
func getCol(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

func blank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// readLines parses a one-name-per-line listing such as the file index.
func readLines(r io.Reader) ([]string, error) {
	var names []string
	scanner := bufio.NewScanner(r)
	first := true
	for scanner.Scan() {
		line := scanner.Text()
		if first {
			line = strings.TrimPrefix(line, string(utf8BOM))
			first = false
		}
		if line = strings.TrimSpace(line); line != "" {
			names = append(names, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, eris.Wrap(err, "read file index")
	}
	return names, nil
}
