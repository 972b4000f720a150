package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/iconidentify/imgsniff/internal/config"
	"github.com/iconidentify/imgsniff/internal/fetcher"
	"github.com/iconidentify/imgsniff/internal/repository"
	"github.com/iconidentify/imgsniff/internal/service"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "", "Path to config file")
	serial := flag.Bool("serial", false, "Probe URLs one at a time")
	timeout := flag.Duration("timeout", 0, "Per-URL timeout (overrides config)")
	buffer := flag.Int("buffer", 0, "Read buffer size in bytes (overrides config)")
	contentLength := flag.Bool("content-length", false, "Report the Content-Length header")
	asJSON := flag.Bool("json", false, "Print JSON even when stdout is a terminal")
	verbose := flag.Bool("v", false, "Log each probe")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: imgsniff [flags] URL...")
		fmt.Fprintln(os.Stderr, "URLs are read from stdin, one per line, when none are given.")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *showVersion {
		fmt.Printf("imgsniff %s (built %s)\n", Version, BuildTime)
		os.Exit(0)
	}

	// Setup logger
	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if *serial {
		cfg.Fetch.Mode = config.ModeSerial
	}
	if *timeout > 0 {
		cfg.Fetch.Timeout = *timeout
	}
	if *buffer > 0 {
		cfg.Fetch.ReadBufferSize = *buffer
	}
	if *contentLength {
		cfg.Fetch.CaptureContentLength = true
	}
	if err := cfg.Fetch.Validate(); err != nil {
		logger.Error("invalid fetch options", "error", err)
		os.Exit(1)
	}

	urls := flag.Args()
	if len(urls) == 0 {
		urls, err = readURLs(os.Stdin)
		if err != nil {
			logger.Error("failed to read urls", "error", err)
			os.Exit(1)
		}
	}
	if len(urls) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opener := fetcher.NewHTTPOpener(cfg.Fetch)
	defer opener.CloseIdleConnections()

	svc := service.NewProbeService(
		fetcher.New(cfg.Fetch, opener, logger),
		repository.NewInMemoryReportRepository(1),
		repository.NewInMemoryJobRepository(),
		cfg.Fetch,
		cfg.Worker,
		logger,
	)

	start := time.Now()
	report, err := svc.Batch(ctx, urls)
	if err != nil {
		logger.Error("probe failed", "error", err)
		os.Exit(1)
	}
	logger.Debug("batch finished", "urls", report.Summary.Total, "duration", time.Since(start))

	if *asJSON || !term.IsTerminal(int(os.Stdout.Fd())) {
		err = writeJSON(os.Stdout, report.Results)
	} else {
		err = writeTable(os.Stdout, report.Results)
	}
	if err != nil {
		logger.Error("failed to write output", "error", err)
		os.Exit(1)
	}

	if report.Summary.Resolved < report.Summary.Total {
		os.Exit(3)
	}
}

// readURLs reads one URL per line, skipping blanks and # comments.
func readURLs(r io.Reader) ([]string, error) {
	var urls []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := sc.Text()
		if line == "" || line[0] == '#' {
			continue
		}
		urls = append(urls, line)
	}
	return urls, sc.Err()
}
