package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/bawdo/sqlmaker"
	"github.com/bawdo/sqlmaker/internal/quoting"
)

func newRenderCmd(a *app) *cobra.Command {
	var native bool
	cmd := &cobra.Command{
		Use:   "render [file...]",
		Short: "Print the SQL and binds of each query document",
		Long: `Render every YAML document in the given files (or standard input when
no file or "-" is given) and print its SQL followed by its binds.`,
		Example: `  # Render a file of queries for MySQL
  sqlmaker --driver mysql render queries.yaml

  # Render from standard input with PostgreSQL placeholders
  echo 'select: {table: users, where: {id: 1}}' | sqlmaker --driver postgres render --native`,
		RunE: func(cmd *cobra.Command, args []string) error {
			mk, err := a.maker()
			if err != nil {
				return err
			}
			stmts, err := renderInputs(cmd, mk, args)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for i, st := range stmts {
				if i > 0 {
					_, _ = fmt.Fprintln(out)
				}
				if native {
					st.sql = mk.Rebind(st.sql)
				}
				if err := printStatement(out, st); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&native, "native", false, "rewrite ? placeholders into the driver's native form")
	return cmd
}

// renderInputs reads and renders every document of every input.
func renderInputs(cmd *cobra.Command, mk *sqlmaker.Maker, args []string) ([]statement, error) {
	if len(args) == 0 {
		args = []string{"-"}
	}
	var stmts []statement
	for _, name := range args {
		docs, err := readInput(cmd.InOrStdin(), name)
		if err != nil {
			return nil, queryError("reading "+name, err)
		}
		for _, doc := range docs {
			st, err := render(mk, doc)
			if err != nil {
				return nil, queryError(name, err)
			}
			stmts = append(stmts, st)
		}
	}
	return stmts, nil
}

func readInput(stdin io.Reader, name string) ([]*yaml.Node, error) {
	if name == "-" {
		return readDocuments(stdin)
	}
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return readDocuments(f)
}

// printStatement writes the SQL terminated by ";" and, when there are
// binds, a comment listing them as SQL literals.
func printStatement(w io.Writer, st statement) error {
	if _, err := fmt.Fprintf(w, "%s;\n", st.sql); err != nil {
		return err
	}
	if len(st.binds) == 0 {
		return nil
	}
	lits, err := formatBinds(st.binds)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "-- binds: %s\n", lits)
	return err
}

func formatBinds(binds []any) (string, error) {
	lits := make([]string, len(binds))
	for i, b := range binds {
		lit, err := quoting.Value(b)
		if err != nil {
			return "", err
		}
		lits[i] = lit
	}
	return strings.Join(lits, ", "), nil
}
