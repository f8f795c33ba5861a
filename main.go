package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mcu-tools/tls-size/internal/buildhook"
	"github.com/mcu-tools/tls-size/internal/symdump"
	"github.com/mcu-tools/tls-size/internal/tlsreport"
)

var (
	strategyName string
	readelfTool  string
)

var rootCmd = &cobra.Command{
	Use:   "tls-size ELF",
	Short: "Report the total Thread-Local Storage size of a firmware image",
	Long: `tls-size dumps the symbol table of a linked firmware image with readelf,
picks out the TLS symbols and reports the total size of the thread-local
storage block.`,
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return report(args[0])
	},
}

var watchCmd = &cobra.Command{
	Use:           "watch ELF",
	Short:         "Re-report the TLS size every time the image is relinked",
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := tlsreport.ParseStrategy(strategyName); err != nil {
			return err
		}
		hook, err := buildhook.New(args[0], 200*time.Millisecond, func(elfPath string) {
			if err := report(elfPath); err != nil {
				slog.Error("Failed to report TLS size", "path", elfPath, "error", err)
			}
		})
		if err != nil {
			return err
		}
		defer hook.Close()

		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
		<-stop
		return nil
	},
}

func report(elfPath string) error {
	strategy, err := tlsreport.ParseStrategy(strategyName)
	if err != nil {
		return err
	}

	// The sum strategy pairs with the static-symbols dump and its stricter
	// row format; span reads the combined static+dynamic dump.
	variant, dialect := symdump.FullSymbols, tlsreport.DialectFull
	if strategy == tlsreport.DirectSum {
		variant, dialect = symdump.StaticSymbols, tlsreport.DialectSymtab
	}

	lines, err := symdump.NewReadelfDumper(readelfTool, variant).DumpLines(elfPath)
	if err != nil {
		return err
	}

	agg := tlsreport.NewAggregator(dialect, strategy)
	agg.Consume(lines)
	return agg.Render(os.Stdout)
}

func main() {
	rootCmd.PersistentFlags().StringVar(&strategyName, "strategy", "span", "aggregation strategy: span (contiguous TLS block) or sum (add up row sizes)")
	rootCmd.PersistentFlags().StringVar(&readelfTool, "readelf", "readelf", "readelf binary to invoke (e.g. xtensa-esp32-elf-readelf)")
	rootCmd.AddCommand(watchCmd)

	if err := rootCmd.Execute(); err != nil {
		slog.Error("Failed to report TLS size", "error", err)
		os.Exit(1)
	}
}
