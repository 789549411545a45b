// crmctl administers a client directory database: migrations, administrators
// and bearer tokens.
//
// Usage:
//
//	crmctl [--json] <command> [subcommand] [flags]
package main

import (
	"fmt"
	"os"

	"clientDirectory/internal/cli"
	"clientDirectory/internal/config"
	"clientDirectory/internal/logging"
)

// version is set through ldflags at build time.
var version = "dev"

func main() {
	logger, err := logging.New(config.LogConfig{Level: "warn", Format: "console"})
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
	root := cli.NewRootCmd(cli.Env{LoadConfig: config.LoadWithDefaults, Logger: logger}, version)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
