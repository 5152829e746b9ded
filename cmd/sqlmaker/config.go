package main

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/bawdo/sqlmaker"
	"github.com/bawdo/sqlmaker/plugins/opa"
)

// config holds the CLI settings after flags, environment and the config
// file have been merged (in that order of precedence).
type config struct {
	Driver     string `mapstructure:"driver"`
	QuoteChar  string `mapstructure:"quote_char"`
	NameSep    string `mapstructure:"name_sep"`
	NewLine    string `mapstructure:"new_line"`
	Strict     bool   `mapstructure:"strict"`
	AutoBind   bool   `mapstructure:"auto_bind"`
	DSN        string `mapstructure:"dsn"`
	SoftDelete string `mapstructure:"soft_delete"`

	// OPA row filtering. OPAInput can only come from the config file.
	OPAURL    string         `mapstructure:"opa_url"`
	OPAPolicy string         `mapstructure:"opa_policy"`
	OPAInput  map[string]any `mapstructure:"opa_input"`

	// quoteSet is true when quote_char was given explicitly, since an
	// empty quote char (no quoting) is a valid setting.
	quoteSet bool
}

// escapes lets flags and env vars spell new lines and tabs.
var escapes = strings.NewReplacer(`\n`, "\n", `\t`, "\t")

// newViper wires environment lookups: SQLMAKER_DRIVER,
// SQLMAKER_QUOTE_CHAR, ... and DATABASE_URL as a fallback for the DSN.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("SQLMAKER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("dsn", "SQLMAKER_DSN", "DATABASE_URL")
	return v
}

// loadConfig reads configFile (if any) and unmarshals the merged settings.
func loadConfig(v *viper.Viper, configFile string) (*config, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}
	var cfg config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	cfg.quoteSet = v.IsSet("quote_char")
	cfg.Driver = strings.TrimSpace(cfg.Driver)
	return &cfg, nil
}

// options turns the settings into Maker options.
func (c *config) options() []sqlmaker.Option {
	var opts []sqlmaker.Option
	if c.quoteSet {
		opts = append(opts, sqlmaker.WithQuoteChar(c.QuoteChar))
	}
	if c.NameSep != "" {
		opts = append(opts, sqlmaker.WithNameSep(c.NameSep))
	}
	if c.NewLine != "" {
		opts = append(opts, sqlmaker.WithNewLine(escapes.Replace(c.NewLine)))
	}
	return append(opts, sqlmaker.WithStrict(c.Strict), sqlmaker.WithAutoBind(c.AutoBind))
}

// maker builds a Maker for driver with the configured settings and
// plugins.
func (c *config) maker(driver string) (*sqlmaker.Maker, error) {
	if driver == "" {
		return nil, fmt.Errorf("%w: set --driver or SQLMAKER_DRIVER", sqlmaker.ErrConfiguration)
	}
	mk, err := sqlmaker.New(driver, c.options()...)
	if err != nil {
		return nil, err
	}
	if c.SoftDelete != "" {
		sd, _, err := parseSoftDelete(c.SoftDelete)
		if err != nil {
			return nil, err
		}
		mk.Use(sd)
	}
	if c.OPAURL != "" {
		if c.OPAPolicy == "" {
			return nil, fmt.Errorf("%w: opa_url needs opa_policy", sqlmaker.ErrConfiguration)
		}
		mk.Use(opa.NewFromServer(c.OPAURL, c.OPAPolicy, c.OPAInput))
	}
	return mk, nil
}
