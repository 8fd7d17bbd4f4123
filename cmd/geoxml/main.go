// Command geoxml loads KML and KMZ documents and reports what they contain.
//
// Usage:
//
//	geoxml inspect [--config geoxml.yaml] [--log-level debug] <file|url>...
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/beetlebugorg/geoxml/pkg/geoxml"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "geoxml",
		Short:         "KML and KMZ document inspector",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newInspectCmd())
	return root
}

// inspectFlags holds the command line overrides of Config.
type inspectFlags struct {
	configPath    string
	logLevel      string
	workers       int
	processStyles bool
	forceArchive  bool
	bbox          []float64
}

func (f *inspectFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.configPath, "config", "", "YAML configuration file")
	fs.StringVar(&f.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	fs.IntVar(&f.workers, "workers", 0, "concurrent fetches and image probes")
	fs.BoolVar(&f.processStyles, "process-styles", false, "size every style icon, including highlight variants")
	fs.BoolVar(&f.forceArchive, "force-archive", false, "treat every source as a KMZ archive")
	fs.Float64SliceVar(&f.bbox, "bbox", nil, "list placemarks within minLon,minLat,maxLon,maxLat")
}

// config loads the file, if any, and applies the flags that were set.
func (f *inspectFlags) config(fs *pflag.FlagSet) (Config, error) {
	cfg := DefaultConfig()
	if f.configPath != "" {
		var err error
		if cfg, err = LoadConfig(f.configPath); err != nil {
			return cfg, err
		}
	}
	if fs.Changed("log-level") {
		cfg.LogLevel = f.logLevel
	}
	if fs.Changed("workers") {
		cfg.Workers = f.workers
	}
	if fs.Changed("process-styles") {
		cfg.ProcessStyles = f.processStyles
	}
	if fs.Changed("force-archive") {
		cfg.ForceArchive = f.forceArchive
	}
	return cfg, cfg.Validate()
}

func (f *inspectFlags) bounds() (geoxml.Bounds, bool, error) {
	if len(f.bbox) == 0 {
		return geoxml.Bounds{}, false, nil
	}
	if len(f.bbox) != 4 {
		return geoxml.Bounds{}, false, errors.Newf("--bbox needs 4 values, got %d", len(f.bbox))
	}
	return geoxml.Bounds{MinLon: f.bbox[0], MinLat: f.bbox[1], MaxLon: f.bbox[2], MaxLat: f.bbox[3]}, true, nil
}

func newInspectCmd() *cobra.Command {
	var flags inspectFlags
	cmd := &cobra.Command{
		Use:   "inspect [flags] <file|url>...",
		Short: "load documents and print a summary",
		Long: `
Load every argument together, following shared-style references and
network links, and print one summary per document.

Local paths are read from disk; http and https URLs are fetched.
`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.config(cmd.Flags())
			if err != nil {
				return err
			}
			bbox, hasBBox, err := flags.bounds()
			if err != nil {
				return err
			}
			log, err := newLogger(cfg.LogLevel)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			urls := make([]string, 0, len(args))
			for _, arg := range args {
				u, err := sourceURL(arg)
				if err != nil {
					return err
				}
				urls = append(urls, u)
			}

			var fetched atomic.Int64
			p := geoxml.NewParser(cfg.Options(log, &fetched))
			defer p.Close()

			set, err := p.Parse(cmd.Context(), urls...)
			if err != nil {
				return errors.Wrap(err, "parse")
			}
			out := cmd.OutOrStdout()
			printSummary(out, set, fetched.Load())
			if hasBBox {
				printInBounds(out, set, bbox)
			}
			if errs := set.Errors(); len(errs) > 0 {
				return errors.Newf("%d of %d documents failed", len(errs), len(set.Documents()))
			}
			return nil
		},
	}
	flags.register(cmd.Flags())
	return cmd
}

// newLogger builds a production logger at level, or a development logger
// when level is debug.
func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, errors.Wrap(err, "log level")
	}
	zc := zap.NewProductionConfig()
	if lvl == zapcore.DebugLevel {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(lvl)
	return zc.Build()
}

func printSummary(w io.Writer, set *geoxml.DocumentSet, fetched int64) {
	docs := set.Documents()
	var placemarks, overlays int
	for _, d := range docs {
		placemarks += len(d.Placemarks)
		overlays += len(d.Overlays)

		fmt.Fprintf(w, "%s\n", d.URL)
		fmt.Fprintf(w, "  state:         %s\n", d.State)
		if d.Failed {
			fmt.Fprintf(w, "  error:         %v\n", d.Err)
			continue
		}
		if d.Archive {
			fmt.Fprintf(w, "  archive:       yes\n")
		}
		fmt.Fprintf(w, "  placemarks:    %s\n", humanize.Comma(int64(len(d.Placemarks))))
		fmt.Fprintf(w, "  overlays:      %s\n", humanize.Comma(int64(len(d.Overlays))))
		fmt.Fprintf(w, "  network links: %s\n", humanize.Comma(int64(len(d.NetworkLinks))))
		fmt.Fprintf(w, "  styles:        %s\n", humanize.Comma(int64(len(d.Styles))))
		if !d.Bounds.IsEmpty() {
			b := d.Bounds
			fmt.Fprintf(w, "  bounds:        [%.4f,%.4f] to [%.4f,%.4f]\n", b.MinLon, b.MinLat, b.MaxLon, b.MaxLat)
		}
	}

	fmt.Fprintf(w, "\n%s documents, %s placemarks, %s overlays, %s read\n",
		humanize.Comma(int64(len(docs))),
		humanize.Comma(int64(placemarks)),
		humanize.Comma(int64(overlays)),
		humanize.Bytes(uint64(fetched)))
}

func printInBounds(w io.Writer, set *geoxml.DocumentSet, b geoxml.Bounds) {
	pms := set.PlacemarksInBounds(b)
	fmt.Fprintf(w, "\n%s placemarks in [%.4f,%.4f] to [%.4f,%.4f]\n",
		humanize.Comma(int64(len(pms))), b.MinLon, b.MinLat, b.MaxLon, b.MaxLat)
	for _, pm := range pms {
		name := pm.Name
		if name == "" {
			name = "(unnamed)"
		}
		fmt.Fprintf(w, "  %s\n", name)
	}
}
