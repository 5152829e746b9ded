package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bawdo/sqlmaker"
)

// app is the state shared by the sub-commands.
type app struct {
	v       *viper.Viper
	cfg     *config
	cfgFile string
}

// flagKeys maps persistent flag names to config keys.
var flagKeys = map[string]string{
	"driver":      "driver",
	"quote-char":  "quote_char",
	"name-sep":    "name_sep",
	"new-line":    "new_line",
	"strict":      "strict",
	"auto-bind":   "auto_bind",
	"dsn":         "dsn",
	"soft-delete": "soft_delete",
	"opa-url":     "opa_url",
	"opa-policy":  "opa_policy",
}

func newRootCmd() *cobra.Command {
	a := &app{v: newViper()}

	root := &cobra.Command{
		Use:   "sqlmaker",
		Short: "Render SQL from YAML query documents",
		Long: `sqlmaker - SQL builder

Each YAML document names one statement (select, insert, update, delete,
where, or a set operation such as union) and its parts. Mapping order is
kept, so conditions render in the order they are written.`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" {
				return nil
			}
			cfg, err := loadConfig(a.v, a.cfgFile)
			if err != nil {
				return configError("loading configuration", err)
			}
			a.cfg = cfg
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (YAML, TOML or JSON)")
	pf.String("driver", "", "database driver: mysql, postgres, sqlite, oracle, ...")
	pf.String("quote-char", "", "identifier quote character (default: driver's)")
	pf.String("name-sep", "", `qualified name separator (default ".")`)
	pf.String("new-line", "", `clause separator; \n and \t are expanded (default "\n")`)
	pf.Bool("strict", false, "accept only expression nodes as condition values")
	pf.Bool("auto-bind", false, "inline bind values as SQL literals")
	pf.String("dsn", "", "database DSN (default: $DATABASE_URL)")
	pf.String("soft-delete", "", `enable soft-delete filtering, e.g. "deleted_at" or "users.deleted_at,posts.removed_at"`)
	pf.String("opa-url", "", "OPA server whose Compile API filters rows")
	pf.String("opa-policy", "", `OPA rule the rows must satisfy, e.g. "authz.allow"`)
	for name, key := range flagKeys {
		_ = a.v.BindPFlag(key, pf.Lookup(name))
	}

	root.AddCommand(newRenderCmd(a), newCheckCmd(a), newReplCmd(a))
	return root
}

// maker builds a Maker from the loaded configuration.
func (a *app) maker() (*sqlmaker.Maker, error) {
	mk, err := a.cfg.maker(a.cfg.Driver)
	if err != nil {
		return nil, configError("configuring sqlmaker", err)
	}
	return mk, nil
}
