package main

import (
	"fmt"

	"github.com/fwojciec/critical"
	"github.com/fwojciec/critical/engine"
)

// Run executes the csp-hash command.
func (c *CSPHashCmd) Run(deps *Dependencies) error {
	opts, err := c.options("")
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", critical.ErrorMessage(err))
		return err
	}
	opts.LogLevel = deps.LogLevel

	e, err := engine.New(opts, engine.Dependencies{FileSystem: deps.FileSystem, Logger: deps.Logger})
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", critical.ErrorMessage(err))
		return err
	}

	hash := e.ScriptCSPHash()
	if hash == "" {
		fmt.Fprintln(deps.Stderr, "No load handler is emitted with these options.")
		return nil
	}
	fmt.Fprintf(deps.Stdout, "'sha256-%s'\n", hash)
	return nil
}
