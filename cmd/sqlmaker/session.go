package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/bawdo/sqlmaker"
	"github.com/bawdo/sqlmaker/dialects"
)

var errNoStatement = errors.New("no statement yet (enter a query document first)")

// Session holds the REPL state: the settings, the optional soft-delete
// filter, the last statement document and an optional connection.
type Session struct {
	ctx        context.Context
	cfg        config
	mk         *sqlmaker.Maker
	softDelete string
	sdEnabled  bool
	doc        *yaml.Node
	last       *statement
	conn       *dbConn
	lastDSN    string
	out        io.Writer
	errOut     io.Writer
	commands   []commandEntry
}

// NewSession creates a session from the loaded configuration.
func NewSession(ctx context.Context, cfg config, out, errOut io.Writer) (*Session, error) {
	s := &Session{
		ctx:        ctx,
		cfg:        cfg,
		softDelete: cfg.SoftDelete,
		sdEnabled:  cfg.SoftDelete != "",
		lastDSN:    cfg.DSN,
		out:        out,
		errOut:     errOut,
	}
	if err := s.rebuild(); err != nil {
		return nil, err
	}
	s.initCommands()
	return s, nil
}

// rebuild recreates the Maker after a settings change and re-renders
// the current document with it. A failed re-render keeps the new
// settings and clears the current statement.
func (s *Session) rebuild() error {
	mk, err := s.newMaker()
	if err != nil {
		return err
	}
	s.mk = mk
	if s.doc == nil {
		return nil
	}
	st, err := render(mk, s.doc)
	if err != nil {
		s.last = nil
		return fmt.Errorf("current statement: %w", err)
	}
	s.last = &st
	return nil
}

func (s *Session) newMaker() (*sqlmaker.Maker, error) {
	cfg := s.cfg
	cfg.SoftDelete = ""
	if s.sdEnabled {
		cfg.SoftDelete = s.softDelete
		if cfg.SoftDelete == "" {
			cfg.SoftDelete = "deleted_at"
		}
	}
	return cfg.maker(cfg.Driver)
}

// Execute runs one REPL line: a command, or otherwise a one-line query
// document that becomes the current statement.
func (s *Session) Execute(line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	lower := strings.ToLower(line)

	for _, cmd := range s.commands {
		if strings.HasSuffix(cmd.prefix, " ") {
			if strings.HasPrefix(lower, cmd.prefix) {
				return cmd.handler(strings.TrimSpace(line[len(cmd.prefix):]))
			}
		} else if lower == cmd.prefix {
			return cmd.handler("")
		}
	}

	if !strings.Contains(line, ":") {
		word := strings.Fields(line)[0]
		return fmt.Errorf("unknown command: %s (type 'help' for commands)", word)
	}
	return s.setDocument(line)
}

func (s *Session) setDocument(line string) error {
	doc, err := parseLine(line)
	if err != nil {
		return err
	}
	st, err := render(s.mk, doc)
	if err != nil {
		return err
	}
	s.doc, s.last = doc, &st
	return printStatement(s.out, st)
}

// --- Command handlers ---

func (s *Session) cmdSQL() error {
	if s.last == nil {
		return errNoStatement
	}
	return printStatement(s.out, *s.last)
}

func (s *Session) cmdDriver(args string) error {
	if args == "" {
		d := s.mk.Dialect()
		_, _ = fmt.Fprintf(s.out, "  Driver: %s (dialect %s, quote %q)\n", s.mk.Driver(), d.Name, s.mk.QuoteChar())
		return nil
	}
	prev := s.cfg.Driver
	s.cfg.Driver = strings.Fields(args)[0]
	if _, err := s.newMaker(); err != nil {
		s.cfg.Driver = prev
		return err
	}
	_, _ = fmt.Fprintf(s.out, "  Driver set to %s\n", s.cfg.Driver)
	err := s.rebuild()
	if s.conn != nil && s.conn.engine != s.mk.Dialect().Name {
		_, _ = fmt.Fprintf(s.errOut, "  Note: connected to %s but driver is %s\n", s.conn.engine, s.mk.Dialect().Name)
	}
	return err
}

// parseSwitch reads "on"/"off"; no argument toggles.
func parseSwitch(args string, current bool) (bool, error) {
	switch strings.ToLower(args) {
	case "":
		return !current, nil
	case "on", "true", "yes":
		return true, nil
	case "off", "false", "no":
		return false, nil
	}
	return false, fmt.Errorf("expected on or off, got %q", args)
}

func (s *Session) cmdStrict(args string) error {
	on, err := parseSwitch(args, s.cfg.Strict)
	if err != nil {
		return err
	}
	s.cfg.Strict = on
	_, _ = fmt.Fprintf(s.out, "  Strict mode %s\n", onOff(on))
	return s.rebuild()
}

func (s *Session) cmdAutoBind(args string) error {
	on, err := parseSwitch(args, s.cfg.AutoBind)
	if err != nil {
		return err
	}
	s.cfg.AutoBind = on
	_, _ = fmt.Fprintf(s.out, "  Auto-bind %s\n", onOff(on))
	return s.rebuild()
}

func (s *Session) cmdSoftDelete(args string) error {
	if strings.EqualFold(args, "off") {
		s.sdEnabled = false
		_, _ = fmt.Fprintln(s.out, "  Soft-delete disabled")
		return s.rebuild()
	}
	_, desc, err := parseSoftDelete(args)
	if err != nil {
		return err
	}
	s.softDelete, s.sdEnabled = args, true
	_, _ = fmt.Fprintf(s.out, "  Soft-delete enabled (%s)\n", desc)
	return s.rebuild()
}

func (s *Session) cmdConnect(args string) error {
	if s.conn != nil {
		return fmt.Errorf("already connected to %s (use 'disconnect' first)", sanitizeDSN(s.conn.dsn))
	}
	dsn := args
	if dsn == "" {
		dsn = s.lastDSN
	}
	if dsn == "" {
		return errors.New("usage: connect <dsn>")
	}
	conn, err := connect(s.ctx, s.mk.Dialect().Name, dsn, s.errOut)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	s.conn, s.lastDSN = conn, dsn
	_, _ = fmt.Fprintf(s.out, "  Connected to %s (%s)\n", sanitizeDSN(dsn), conn.engine)
	return nil
}

func (s *Session) cmdDisconnect() error {
	if s.conn == nil {
		return errors.New("not connected")
	}
	dsn := sanitizeDSN(s.conn.dsn)
	if err := s.conn.close(); err != nil {
		return fmt.Errorf("disconnect: %w", err)
	}
	s.conn = nil
	_, _ = fmt.Fprintf(s.out, "  Disconnected from %s\n", dsn)
	return nil
}

// connected returns the current statement, ready to send, and the
// connection.
func (s *Session) connected() (statement, error) {
	if s.conn == nil {
		return statement{}, errors.New("not connected (use 'connect <dsn>' first)")
	}
	if s.last == nil {
		return statement{}, errNoStatement
	}
	if !s.last.executable() {
		return statement{}, fmt.Errorf("a %s document cannot be sent to the database", s.last.kind)
	}
	st := *s.last
	st.sql = s.mk.Rebind(st.sql)
	return st, nil
}

func (s *Session) cmdCheck() error {
	st, err := s.connected()
	if err != nil {
		return err
	}
	if err := s.conn.prepare(s.ctx, st.sql); err != nil {
		return err
	}
	_, _ = fmt.Fprintln(s.out, "  ok")
	return nil
}

// cmdRun executes the current statement with its binds as parameters.
func (s *Session) cmdRun() error {
	st, err := s.connected()
	if err != nil {
		return err
	}
	var result string
	if st.returnsRows() {
		result, err = s.conn.run(s.ctx, st.sql, st.binds)
	} else {
		result, err = s.conn.exec(s.ctx, st.sql, st.binds)
	}
	if err != nil {
		return err
	}
	_, _ = fmt.Fprint(s.out, result)
	return nil
}

func (s *Session) cmdTables() error {
	if s.conn == nil {
		return errors.New("not connected")
	}
	if len(s.conn.tables) == 0 {
		_, _ = fmt.Fprintln(s.out, "  (no tables)")
		return nil
	}
	for _, t := range s.conn.tables {
		_, _ = fmt.Fprintf(s.out, "  %s\n", t)
	}
	return nil
}

func (s *Session) cmdStatus() {
	_, _ = fmt.Fprintf(s.out, "  Driver:      %s\n", s.mk.Driver())
	_, _ = fmt.Fprintf(s.out, "  Strict:      %s\n", onOff(s.mk.Strict()))
	_, _ = fmt.Fprintf(s.out, "  Auto-bind:   %s\n", onOff(s.mk.AutoBind()))
	sd := "off"
	if s.sdEnabled {
		_, desc, _ := parseSoftDelete(s.softDelete)
		sd = desc
	}
	_, _ = fmt.Fprintf(s.out, "  Soft-delete: %s\n", sd)
	if s.cfg.OPAURL != "" {
		_, _ = fmt.Fprintf(s.out, "  OPA:         %s (%s)\n", s.cfg.OPAURL, s.cfg.OPAPolicy)
	}
	conn := "not connected"
	if s.conn != nil {
		conn = sanitizeDSN(s.conn.dsn)
	}
	_, _ = fmt.Fprintf(s.out, "  Database:    %s\n", conn)
}

func (s *Session) cmdHelp() {
	_, _ = fmt.Fprintln(s.out, `
  Query documents (one line of YAML):
    select: {table: users, fields: [id, name], where: {id: 1}, limit: 10}
    insert: {table: users, values: {name: john, created_on: !raw "NOW()"}}
    update: {table: users, set: {name: jane}, where: {id: 1}}
    delete: {table: users, where: {id: 1}}
    where: {name: john, age: {">": 18}}
    union: [{select: {table: a}}, {select: {table: b}}]

  Settings:
    driver [name]             Show or set the driver
    strict [on|off]           Toggle strict mode
    autobind [on|off]         Toggle inline binding
    softdelete [args]         Enable soft-delete (column, column on tables, table.column,...)
    softdelete off            Disable soft-delete
    status                    Show the current settings

  Database:
    connect [dsn]             Connect (defaults to the last or configured DSN)
    disconnect                Close the connection
    tables                    List tables
    check                     Prepare the current statement
    run                       Execute the current statement

  Other:
    sql                       Show the current statement
    help                      Show this help
    exit, quit                Leave the REPL`)
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}

func (s *Session) close() {
	if s.conn != nil {
		_ = s.conn.close()
		s.conn = nil
	}
}

// driverNames lists the driver names offered for completion.
func driverNames() []string {
	names := []string{dialects.MySQL.Name, dialects.Postgres.Name, dialects.SQLite.Name, dialects.Oracle.Name}
	sort.Strings(names)
	return names
}
