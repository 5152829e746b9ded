package main

import (
	"sort"
	"strings"
)

// commandEntry maps a REPL prefix to its handler and optional
// tab-completer. A prefix ending in a space takes arguments; any other
// prefix must match the whole line.
type commandEntry struct {
	prefix    string
	handler   func(args string) error
	completer func(args string) (completionContext, string)
	hidden    bool
}

// initCommands builds the command registry and sorts by prefix length descending.
func (s *Session) initCommands() {
	s.commands = []commandEntry{
		{prefix: "sql", handler: func(_ string) error { return s.cmdSQL() }},
		{prefix: "help", handler: func(_ string) error { s.cmdHelp(); return nil }},
		{prefix: "status", handler: func(_ string) error { s.cmdStatus(); return nil }},

		{prefix: "driver ", handler: s.cmdDriver, completer: completeWith(contextDriver)},
		{prefix: "driver", handler: s.cmdDriver},
		{prefix: "strict ", handler: s.cmdStrict, completer: completeWith(contextSwitch)},
		{prefix: "strict", handler: s.cmdStrict},
		{prefix: "autobind ", handler: s.cmdAutoBind, completer: completeWith(contextSwitch)},
		{prefix: "autobind", handler: s.cmdAutoBind},
		{prefix: "softdelete ", handler: s.cmdSoftDelete, completer: completeWith(contextSoftDelete)},
		{prefix: "softdelete", handler: s.cmdSoftDelete},

		{prefix: "connect ", handler: s.cmdConnect},
		{prefix: "connect", handler: s.cmdConnect},
		{prefix: "disconnect", handler: func(_ string) error { return s.cmdDisconnect() }},
		{prefix: "tables", handler: func(_ string) error { return s.cmdTables() }},
		{prefix: "check", handler: func(_ string) error { return s.cmdCheck() }},
		{prefix: "run", handler: func(_ string) error { return s.cmdRun() }},
		{prefix: "exec", handler: func(_ string) error { return s.cmdRun() }, hidden: true},
	}
	sort.SliceStable(s.commands, func(i, j int) bool {
		return len(s.commands[i].prefix) > len(s.commands[j].prefix)
	})
}

// commandNames returns the visible command words, sorted and deduplicated.
func (s *Session) commandNames() []string {
	seen := map[string]bool{"exit": true, "quit": true}
	names := []string{"exit", "quit"}
	for _, c := range s.commands {
		name := strings.TrimSpace(c.prefix)
		if c.hidden || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// completeWith returns a completer that completes the last argument word
// in ctx.
func completeWith(ctx completionContext) func(string) (completionContext, string) {
	return func(args string) (completionContext, string) {
		return ctx, lastToken(args)
	}
}
