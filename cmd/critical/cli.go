package main

import (
	"context"
	"io"
	"log/slog"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/critical"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx        context.Context
	Stdout     io.Writer
	Stderr     io.Writer
	FileSystem critical.FileSystem
	Logger     critical.Logger
	LogLevel   critical.LogLevel
	Slog       *slog.Logger
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Config kong.ConfigFlag `short:"c" help:"YAML file with option defaults"`
	Log    LogFlags        `embed:"" prefix:"log-"`

	Process ProcessCmd `cmd:"" help:"Inline critical CSS into every HTML file of a directory"`
	CSPHash CSPHashCmd `cmd:"" name:"csp-hash" help:"Print the CSP hash of the stylesheet load handler"`
}

// LogFlags configure logging.
type LogFlags struct {
	Level   string `default:"info" enum:"debug,info,warn,error,silent" help:"Minimum level to log (${enum})"`
	Format  string `default:"console" enum:"console,text,json" help:"Log output format (${enum})"`
	File    string `type:"path" help:"Also write logs to this file, rotated by size"`
	NoColor bool   `help:"Disable colored console output"`
}

// OptionFlags mirror critical.Options.
type OptionFlags struct {
	PublicPath            string   `help:"URL prefix stripped from stylesheet hrefs"`
	AdditionalStylesheets []string `help:"Glob patterns of stylesheets inlined into every document"`
	ExternalThreshold     int      `help:"Inline whole stylesheets smaller than this many bytes"`
	Exclude               string   `help:"Regular expression of stylesheet hrefs to leave alone"`
	Whitelist             []string `help:"Selectors never dropped; wrap in slashes for a regular expression"`

	Internal bool `default:"true" negatable:"" help:"Process style elements"`
	External bool `default:"true" negatable:"" help:"Process linked stylesheets"`
	Merge    bool `default:"true" negatable:"" help:"Merge style elements into one"`

	AsyncLoad        bool `default:"true" negatable:"" help:"Load deferred stylesheets without blocking rendering"`
	Preload          bool `help:"Add preload links for deferred stylesheets"`
	NoscriptFallback bool `help:"Add a noscript copy of deferred links"`

	FontFace  bool `help:"Inline used @font-face rules"`
	Keyframes bool `default:"true" negatable:"" help:"Inline used @keyframes rules"`

	PruneSource         bool   `help:"Remove inlined rules from stylesheet files"`
	AutoRemoveStyleTags bool   `help:"Remove inlined styles once their stylesheet loaded"`
	EventHandlers       string `default:"attr" enum:"attr,script" help:"How load handlers are attached (${enum})"`
	MinifyCSS           bool   `name:"minify-css" help:"Minify inlined CSS"`
}

// ProcessCmd is the "process" subcommand.
type ProcessCmd struct {
	Dir         string `arg:"" type:"path" help:"Build output directory"`
	MetricsFile string `type:"path" help:"Write Prometheus metrics to this textfile"`

	OptionFlags `embed:""`
}

// CSPHashCmd is the "csp-hash" subcommand.
type CSPHashCmd struct {
	OptionFlags `embed:""`
}
