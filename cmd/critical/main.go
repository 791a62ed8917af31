package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/critical"
	"github.com/fwojciec/critical/fs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// File system documents and stylesheets are read from and written to.
	// Tests replace it with an in-memory one.
	FileSystem critical.FileSystem
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{
		FileSystem: fs.NewFileSystem(),
	}
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:        ctx,
		Stdout:     stdout,
		Stderr:     stderr,
		FileSystem: m.FileSystem,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("critical"),
		kong.Description("Inline the critical CSS of HTML documents."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Configuration(yamlConfig),
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'critical --help' to see available commands")
	}

	cmd := args[0]
	if cmd == "help" || cmd == "--help" || cmd == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	logger, err := newLogger(cli.Log, stderr)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Close()
	deps.Logger = logger.Logger
	deps.LogLevel = critical.LogLevel(cli.Log.Level)
	deps.Slog = logger.Slog

	return kongCtx.Run(deps)
}
