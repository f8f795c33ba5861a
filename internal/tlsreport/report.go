package tlsreport

import (
	"fmt"
	"io"
	"sort"
)

// Strategy picks how the sizes of the retained TLS rows combine into the
// reported total. The two are not numerically equivalent when symbols alias
// or overlap, so the choice is an explicit parameter and never inferred
// from the input.
type Strategy int

const (
	// RangeSpan measures from the lowest TLS address to the end of the
	// highest TLS symbol's storage. Exact duplicate rows collapse and gaps
	// between symbols are counted, which is the size the runtime reserves
	// per thread for a contiguous TLS block.
	RangeSpan Strategy = iota
	// DirectSum adds up every TLS row's size in encounter order, counting
	// aliases as often as the dump lists them.
	DirectSum
)

func ParseStrategy(name string) (Strategy, error) {
	switch name {
	case "span":
		return RangeSpan, nil
	case "sum":
		return DirectSum, nil
	}
	return 0, fmt.Errorf("unknown strategy %q (want span or sum)", name)
}

func (s Strategy) String() string {
	if s == DirectSum {
		return "sum"
	}
	return "span"
}

// Aggregator consumes a symbol-table dump line by line and renders the TLS
// size report. State lives for a single dump; create a fresh one per run.
type Aggregator struct {
	dialect  Dialect
	strategy Strategy

	header  []string
	records []SymbolRecord
	seen    map[SymbolRecord]struct{}
	inTable bool
}

func NewAggregator(dialect Dialect, strategy Strategy) *Aggregator {
	return &Aggregator{
		dialect:  dialect,
		strategy: strategy,
		seen:     make(map[SymbolRecord]struct{}),
	}
}

// Consume classifies every line. Lines before the first structured row are
// banner text and are replayed verbatim by Render; once any row has
// matched, the header is closed for good and later non-matching lines
// carry nothing this report needs.
func (a *Aggregator) Consume(lines []string) {
	for _, line := range lines {
		rec, structured := a.dialect.parseRow(line)
		if !structured {
			if !a.inTable {
				a.header = append(a.header, line)
			}
			continue
		}
		a.inTable = true
		if rec == nil {
			continue
		}
		a.add(*rec)
	}
}

func (a *Aggregator) add(rec SymbolRecord) {
	if a.strategy == RangeSpan {
		if _, dup := a.seen[rec]; dup {
			return
		}
		a.seen[rec] = struct{}{}
	}
	a.records = append(a.records, rec)
}

// rows returns the records in report order: sorted by the full
// (address, size, line) tuple for RangeSpan so ties on address break
// deterministically, encounter order for DirectSum.
func (a *Aggregator) rows() []SymbolRecord {
	if a.strategy != RangeSpan {
		return a.records
	}
	rows := make([]SymbolRecord, len(a.records))
	copy(rows, a.records)
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Address != rows[j].Address {
			return rows[i].Address < rows[j].Address
		}
		if rows[i].Size != rows[j].Size {
			return rows[i].Size < rows[j].Size
		}
		return rows[i].Line < rows[j].Line
	})
	return rows
}

// Total computes the TLS size under the configured strategy. An empty TLS
// set is a valid outcome and totals zero.
func (a *Aggregator) Total() uint64 {
	rows := a.rows()
	if a.strategy == RangeSpan {
		if len(rows) == 0 {
			return 0
		}
		first, last := rows[0], rows[len(rows)-1]
		return (last.Address + last.Size) - first.Address
	}
	var total uint64
	for _, r := range rows {
		total += r.Size
	}
	return total
}

// Render writes the report: queued header lines verbatim, the retained TLS
// rows in strategy order, a blank line, then the total. Nothing follows
// the total line.
func (a *Aggregator) Render(w io.Writer) error {
	for _, line := range a.header {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	for _, rec := range a.rows() {
		if _, err := fmt.Fprintln(w, rec.Line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "\nTotal Thread-Local Storage size: %d bytes\n", a.Total())
	return err
}
