package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newCheckCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check [file...]",
		Short: "Prepare each rendered statement against a database",
		Long: `Render every YAML document and ask the database to prepare it, which
checks syntax and referenced tables and columns without running anything.
Placeholders are rewritten into the driver's native form first.`,
		Example: `  sqlmaker --driver postgres --dsn postgres://localhost/app check queries.yaml
  DATABASE_URL=file:app.db sqlmaker --driver sqlite check queries.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			mk, err := a.maker()
			if err != nil {
				return err
			}
			if a.cfg.DSN == "" {
				return configError("check needs a database", fmt.Errorf("set --dsn, SQLMAKER_DSN or DATABASE_URL"))
			}
			stmts, err := renderInputs(cmd, mk, args)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			conn, err := connect(ctx, mk.Dialect().Name, a.cfg.DSN, cmd.ErrOrStderr())
			if err != nil {
				return dbConnectError("connecting to "+sanitizeDSN(a.cfg.DSN), err)
			}
			defer func() { _ = conn.close() }()

			out := cmd.OutOrStdout()
			failed := 0
			for i, st := range stmts {
				label := fmt.Sprintf("%d: %s", i+1, firstLine(st.sql))
				if !st.executable() {
					_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "  Note: skipped %s (not a statement)\n", label)
					continue
				}
				if err := conn.prepare(ctx, mk.Rebind(st.sql)); err != nil {
					failed++
					_, _ = fmt.Fprintf(out, "FAIL %s\n  %v\n", label, err)
					continue
				}
				_, _ = fmt.Fprintf(out, "ok   %s\n", label)
			}
			if failed > 0 {
				return queryError(fmt.Sprintf("%d of %d statements failed", failed, len(stmts)), nil)
			}
			return nil
		},
	}
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
