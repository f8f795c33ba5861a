package symdump

import (
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
)

// Dumper produces the textual symbol-table dump of a binary image as an
// ordered sequence of lines.
type Dumper interface {
	DumpLines(elfPath string) ([]string, error)
}

// Variant selects the readelf argument set. The full variant also walks
// the dynamic symbol table, the static variant only .symtab.
type Variant int

const (
	FullSymbols Variant = iota
	StaticSymbols
)

func (v Variant) args() []string {
	if v == StaticSymbols {
		return []string{"-W", "--syms"}
	}
	return []string{"-W", "--syms", "--dyn-syms"}
}

// ReadelfDumper shells out to readelf, or a toolchain-prefixed variant of
// it, and returns stdout split into lines with the surrounding whitespace
// of the whole output trimmed.
type ReadelfDumper struct {
	Tool    string
	Variant Variant
}

func NewReadelfDumper(tool string, variant Variant) *ReadelfDumper {
	if tool == "" {
		tool = "readelf"
	}
	return &ReadelfDumper{Tool: tool, Variant: variant}
}

func (d *ReadelfDumper) DumpLines(elfPath string) ([]string, error) {
	args := append(d.Variant.args(), elfPath)
	slog.Debug("Dumping symbol table", "tool", d.Tool, "args", args)
	out, err := exec.Command(d.Tool, args...).Output()
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", d.Tool, elfPath, err)
	}
	return strings.Split(strings.TrimSpace(string(out)), "\n"), nil
}
