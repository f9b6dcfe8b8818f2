// Command shaderobjcheck runs shader-object validation scenarios.
//
// Usage:
//
//	shaderobjcheck [options] <scenario.hcl|dir>...
//
// Examples:
//
//	shaderobjcheck scenario/testdata                 # Run every .hcl file in a directory
//	shaderobjcheck -list -dup-limit 3 draw.hcl       # Also list reported violations
//	shaderobjcheck -log-level warn -log-format json x.hcl
//
// A scenario passes when every step reports exactly the VUIDs it expects.
// The exit status is 1 when any scenario fails or cannot be run.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"github.com/gookit/color"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/gogpu/shaderobj"
	"github.com/gogpu/shaderobj/diag"
	"github.com/gogpu/shaderobj/scenario"
)

const (
	exitOK    = 0
	exitFail  = 1
	exitUsage = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

type options struct {
	logLevel  string
	logFormat string
	colorMode string
	jobs      int
	list      bool
	dupLimit  int
	filter    string
	paths     []string
}

func parseArgs(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("shaderobjcheck", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: shaderobjcheck [options] <scenario.hcl|dir>...\n\n")
		fmt.Fprintf(stderr, "Runs shader-object validation scenarios and compares reported VUIDs\n")
		fmt.Fprintf(stderr, "with each step's expect list.\n\n")
		fmt.Fprintf(stderr, "Options:\n")
		fs.PrintDefaults()
	}

	o := &options{}
	fs.StringVar(&o.logLevel, "log-level", "error", "log level: debug, info, warn or error")
	fs.StringVar(&o.logFormat, "log-format", "text", "log format: text or json")
	fs.StringVar(&o.colorMode, "color", "auto", "colorize results: auto, always or never")
	fs.IntVar(&o.jobs, "j", runtime.NumCPU(), "number of scenarios run concurrently")
	fs.BoolVar(&o.list, "list", false, "list the violations each scenario reported")
	fs.IntVar(&o.dupLimit, "dup-limit", 0, "with -list, show each VUID at most this many times per scenario (0 = unlimited)")
	fs.StringVar(&o.filter, "filter", "", "with -list, comma-separated VUIDs to hide")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	o.paths = fs.Args()
	if len(o.paths) == 0 {
		fs.Usage()
		return nil, errors.New("no scenario given")
	}

	o.logLevel = strings.ToLower(o.logLevel)
	o.logFormat = strings.ToLower(o.logFormat)
	o.colorMode = strings.ToLower(o.colorMode)
	switch o.logLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("invalid log-level %q: must be debug, info, warn or error", o.logLevel)
	}
	if o.logFormat != "text" && o.logFormat != "json" {
		return nil, fmt.Errorf("invalid log-format %q: must be text or json", o.logFormat)
	}
	switch o.colorMode {
	case "auto", "always", "never":
	default:
		return nil, fmt.Errorf("invalid color %q: must be auto, always or never", o.colorMode)
	}
	if o.jobs < 1 {
		return nil, fmt.Errorf("invalid -j %d: must be at least 1", o.jobs)
	}
	return o, nil
}

func newLogger(level, format string, w io.Writer) *slog.Logger {
	var l slog.Level
	switch level {
	case "debug":
		l = slog.LevelDebug
	case "info":
		l = slog.LevelInfo
	case "warn":
		l = slog.LevelWarn
	default:
		l = slog.LevelError
	}
	opts := &slog.HandlerOptions{Level: l}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// result is the outcome of one scenario file.
type result struct {
	path    string
	report  *scenario.Report
	listed  []diag.Violation
	dropped int
	err     error
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	o, err := parseArgs(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitUsage
	}

	logger := newLogger(o.logLevel, o.logFormat, stderr)
	shaderobj.SetLogger(logger)
	defer shaderobj.SetLogger(nil)

	files, err := collect(o.paths)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFail
	}
	logger.Debug("scenarios collected", "count", len(files), "jobs", o.jobs)

	results := make([]result, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(o.jobs)
	for i, path := range files {
		g.Go(func() error {
			results[i] = runOne(ctx, path, o)
			// Only cancellation stops the other scenarios.
			if errors.Is(results[i].err, context.Canceled) {
				return results[i].err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFail
	}

	p := newPainter(o.colorMode, stdout)
	return printResults(stdout, p, results, o.list)
}

func runOne(ctx context.Context, path string, o *options) result {
	res := result{path: path}
	s, err := scenario.Load(path)
	if err != nil {
		res.err = err
		return res
	}
	var c diag.Collector
	limiter := diag.NewLimiter(&c, diag.LimiterOptions{
		DuplicateLimit: o.dupLimit,
		Filter:         splitList(o.filter),
	})
	res.report, res.err = s.Run(ctx, scenario.WithSink(limiter))
	res.listed = c.Violations()
	res.dropped = limiter.Dropped()
	return res
}

// collect expands directories into the .hcl files they contain.
func collect(paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		matches, err := filepath.Glob(filepath.Join(p, "*.hcl"))
		if err != nil {
			return nil, err
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no .hcl files in %s", p)
		}
		slices.Sort(matches)
		files = append(files, matches...)
	}
	return files, nil
}

func splitList(s string) []string {
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// painter colors result labels when the output supports it.
type painter struct {
	enabled bool
}

func newPainter(mode string, w io.Writer) painter {
	switch mode {
	case "always":
		color.ForceColor()
		return painter{enabled: true}
	case "never":
		return painter{}
	}
	f, ok := w.(*os.File)
	return painter{enabled: ok && term.IsTerminal(int(f.Fd()))}
}

func (p painter) paint(c color.Color, s string) string {
	if !p.enabled {
		return s
	}
	return c.Render(s)
}

func printResults(w io.Writer, p painter, results []result, list bool) int {
	code := exitOK
	passed := 0
	for _, r := range results {
		switch {
		case r.err != nil:
			code = exitFail
			fmt.Fprintf(w, "%s %s: %v\n", p.paint(color.Red, "ERROR"), r.path, r.err)
			continue
		case r.report.Passed():
			passed++
			fmt.Fprintf(w, "%s %s (%d steps)\n", p.paint(color.Green, "PASS"), r.path, len(r.report.Steps))
		default:
			code = exitFail
			failed := r.report.Failed()
			fmt.Fprintf(w, "%s %s (%d/%d steps failed)\n", p.paint(color.Red, "FAIL"), r.path, len(failed), len(r.report.Steps))
			for _, s := range failed {
				fmt.Fprintf(w, "  %s\n    want %v\n    got  %v\n", s.Name, s.Want, s.GotIDs())
			}
		}
		if !list {
			continue
		}
		for _, v := range r.listed {
			fmt.Fprintf(w, "  %s [%s] %s: %s\n", p.paint(color.Yellow, v.ID), v.Category, v.Location, v.Message)
		}
		if r.dropped > 0 {
			fmt.Fprintf(w, "  (%d violations hidden)\n", r.dropped)
		}
	}
	fmt.Fprintf(w, "%d/%d scenarios passed\n", passed, len(results))
	return code
}
