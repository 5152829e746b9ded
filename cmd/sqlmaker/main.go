// Command sqlmaker renders SQL from YAML query documents.
//
// The CLI supports:
//   - render: print the SQL and binds of each document
//   - check: prepare each rendered statement against a live database
//   - repl: build statements one line at a time and run them
//
// Configuration comes from flags, SQLMAKER_* environment variables
// (SQLMAKER_DRIVER, SQLMAKER_QUOTE_CHAR, ...) and an optional --config
// file. DATABASE_URL is used when no DSN is given. --soft-delete and
// --opa-url/--opa-policy add row filters to every statement.
//
// Usage:
//
//	sqlmaker --driver mysql render queries.yaml
//	echo 'select: {table: users, where: {id: 1}}' | sqlmaker --driver postgres render
package main

import (
	"context"
	"io"
	"os"
	"os/signal"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes the command line and returns the process exit code.
func run(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) int {
	root := newRootCmd()
	root.SetArgs(args)
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)
	if err := root.ExecuteContext(ctx); err != nil {
		return reportError(errOut, err)
	}
	return exitSuccess
}
