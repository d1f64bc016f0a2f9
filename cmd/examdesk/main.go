// Command examdesk drives a running exam desk host from the terminal.
//
//	examdesk [-server URL] [-timeout D] <command> [args]
//
// Commands: analyze, library, generate, students, templates, archive,
// settings, clear, log.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SAP-F-2025/exam-desk/internal/bridge"
)

var errUsage = errors.New("usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintln(os.Stderr, "error:", bridge.Message(err))
		}
		os.Exit(1)
	}
}

type app struct {
	bridge  *bridge.HTTPBridge
	timeout time.Duration
	logger  *slog.Logger
	out     io.Writer
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("examdesk", flag.ContinueOnError)
	fs.SetOutput(stderr)
	server := fs.String("server", envOr("EXAMDESK_SERVER", "http://localhost:8080"), "host base URL")
	timeout := fs.Duration("timeout", 2*time.Minute, "timeout of a single command")
	verbose := fs.Bool("v", false, "log bridge traffic")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: examdesk [flags] <analyze|library|generate|students|templates|archive|settings|clear|log> [args]")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return errUsage
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	// No client timeout: event streams stay open for the whole analysis.
	a := &app{
		bridge:  bridge.NewHTTPBridge(*server, &http.Client{}, logger),
		timeout: *timeout,
		logger:  logger,
		out:     stdout,
	}

	cmd, rest := fs.Arg(0), fs.Args()[1:]
	switch cmd {
	case "analyze":
		return a.analyze(ctx, rest)
	case "library":
		return a.library(ctx, rest)
	case "generate":
		return a.generate(ctx, rest)
	case "students":
		return a.students(ctx, rest)
	case "templates":
		return a.templates(ctx, rest)
	case "archive":
		return a.archive(ctx, rest)
	case "settings":
		return a.settings(ctx, rest)
	case "clear":
		return a.clear(ctx, rest)
	case "log":
		return a.log(ctx, rest)
	}
	fs.Usage()
	return errUsage
}

func (a *app) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, a.timeout)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
