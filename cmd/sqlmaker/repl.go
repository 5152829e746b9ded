package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ergochat/readline"
	"github.com/spf13/cobra"
)

func newReplCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Build and run statements interactively",
		Long: `Start an interactive session. Each line is either a command (type
'help') or a one-line YAML query document, which becomes the current
statement. With a DSN configured the session connects on start.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := a.maker(); err != nil {
				return err
			}
			sess, err := NewSession(cmd.Context(), *a.cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
			if err != nil {
				return configError("starting session", err)
			}
			defer sess.close()

			rl, err := readline.NewFromConfig(&readline.Config{
				Prompt:          "sqlmaker> ",
				HistoryFile:     historyPath(),
				HistoryLimit:    500,
				AutoComplete:    &replCompleter{sess: sess},
				InterruptPrompt: "^C",
				EOFPrompt:       "exit",
			})
			if err != nil {
				return fmt.Errorf("readline init: %w", err)
			}
			defer func() { _ = rl.Close() }()

			if a.cfg.DSN != "" {
				if err := sess.Execute("connect"); err != nil {
					_, _ = fmt.Fprintf(sess.errOut, "  Note: connect failed: %v\n", err)
				}
			}

			_, _ = fmt.Fprintln(sess.out, "sqlmaker REPL: type 'help' for commands, 'exit' to quit")
			return loop(sess, rl.ReadLine)
		},
	}
}

// loop feeds lines to the session until EOF or exit. Errors from a line
// are printed and do not end the session.
func loop(sess *Session, readLine func() (string, error)) error {
	for {
		line, err := readLine()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "exit", "quit":
			return nil
		}
		if err := sess.Execute(line); err != nil {
			_, _ = fmt.Fprintf(sess.errOut, "  Error: %v\n", err)
		}
	}
}

func historyPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".sqlmaker_history")
}
