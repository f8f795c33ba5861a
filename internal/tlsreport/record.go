package tlsreport

import (
	"regexp"
	"strconv"
)

// SymbolRecord is one parsed row of the symbol table. The raw line is kept
// so the report can reproduce the row exactly as the dump tool printed it.
type SymbolRecord struct {
	Address uint64
	Size    uint64
	Line    string
}

// Dialect selects which readelf report format rows are parsed as. The two
// formats differ in how strict the leading index token is; callers pick the
// dialect matching the dump variant they invoked.
type Dialect int

const (
	// DialectFull matches rows of a combined --syms --dyn-syms dump, where
	// the index token is any run of word characters before the colon.
	DialectFull Dialect = iota
	// DialectSymtab matches rows of a --syms only dump and requires a
	// plain decimal index.
	DialectSymtab
)

// Row layout: index, value, size, type, then binding/visibility/name
// columns we don't capture but keep in the raw line.
var (
	rowFull   = regexp.MustCompile(`^\s*(\w+):\s+(\w+)\s+(\w+)\s+(\w+)\s+`)
	rowSymtab = regexp.MustCompile(`^\s*(\d+):\s+(\w+)\s+(\w+)\s+(\w+)\s+`)
)

func (d Dialect) rowPattern() *regexp.Regexp {
	if d == DialectSymtab {
		return rowSymtab
	}
	return rowFull
}

const tlsType = "TLS"

// parseRow matches line against the dialect's row pattern. structured
// reports whether the line is a table row at all; rec is non-nil only for
// TLS rows whose address (hex) and size (decimal) tokens parse.
func (d Dialect) parseRow(line string) (rec *SymbolRecord, structured bool) {
	m := d.rowPattern().FindStringSubmatch(line)
	if m == nil {
		return nil, false
	}
	if m[4] != tlsType {
		return nil, true
	}
	addr, err := strconv.ParseUint(m[2], 16, 64)
	if err != nil {
		return nil, true
	}
	size, err := strconv.ParseUint(m[3], 10, 64)
	if err != nil {
		return nil, true
	}
	return &SymbolRecord{Address: addr, Size: size, Line: line}, true
}
