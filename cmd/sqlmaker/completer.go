package main

import (
	"sort"
	"strings"
)

// completionContext describes what kind of completion is appropriate.
type completionContext int

const (
	contextCommand    completionContext = iota // start of line or partial command
	contextDriver                              // after driver
	contextSwitch                              // after strict/autobind
	contextSoftDelete                          // after softdelete
	contextDocument                            // inside a query document
)

var switchValues = []string{"off", "on"}

// documentWords are the keys of query documents.
var documentWords = []string{
	"columns", "delete", "except", "except_all", "fields", "for_update",
	"group_by", "having", "index_hint", "insert", "intersect", "intersect_all",
	"joins", "limit", "offset", "on_duplicate_key_update", "order_by", "prefix",
	"rows", "select", "set", "table", "union", "union_all", "update", "using",
	"values", "where",
}

// replCompleter implements readline's AutoCompleter interface.
type replCompleter struct {
	sess *Session
}

// Do returns completion candidates for the current line/cursor position.
// length is the number of chars from end of line[:pos] that form the prefix being completed.
// newLine contains the suffixes to append for each candidate.
func (c *replCompleter) Do(line []rune, pos int) (newLine [][]rune, length int) {
	ctx, prefix := c.parseContext(string(line[:pos]))

	var candidates []string
	switch ctx {
	case contextCommand:
		candidates = filterPrefix(c.sess.commandNames(), prefix)
	case contextDriver:
		candidates = filterPrefix(driverNames(), prefix)
	case contextSwitch:
		candidates = filterPrefix(switchValues, prefix)
	case contextSoftDelete:
		candidates = filterPrefix(append([]string{"off"}, c.tableNames()...), prefix)
	case contextDocument:
		candidates = filterPrefix(dedup(append(c.tableNames(), documentWords...)), prefix)
	}

	for _, cand := range candidates {
		newLine = append(newLine, []rune(cand[len(prefix):]))
	}
	length = len([]rune(prefix))
	return
}

// parseContext examines the line up to cursor and determines what kind of
// completion is needed and the current prefix being typed.
func (c *replCompleter) parseContext(line string) (completionContext, string) {
	lower := strings.ToLower(line)
	for _, cmd := range c.sess.commands {
		if cmd.completer != nil && strings.HasPrefix(lower, cmd.prefix) {
			return cmd.completer(line[len(cmd.prefix):])
		}
	}
	if strings.ContainsAny(line, ":{[") {
		return contextDocument, lastToken(line)
	}
	return contextCommand, strings.TrimSpace(line)
}

func (c *replCompleter) tableNames() []string {
	if c.sess.conn == nil {
		return nil
	}
	names := append([]string(nil), c.sess.conn.tables...)
	sort.Strings(names)
	return names
}

// filterPrefix returns items that start with prefix.
func filterPrefix(items []string, prefix string) []string {
	var result []string
	for _, item := range items {
		if strings.HasPrefix(item, prefix) {
			result = append(result, item)
		}
	}
	return result
}

// dedup removes duplicate strings, keeping the first occurrence.
func dedup(items []string) []string {
	seen := make(map[string]bool, len(items))
	var result []string
	for _, item := range items {
		if !seen[item] {
			seen[item] = true
			result = append(result, item)
		}
	}
	return result
}

// lastToken returns the text after the last separator.
func lastToken(s string) string {
	if i := strings.LastIndexAny(s, " ,\t{}[]:"); i >= 0 {
		return s[i+1:]
	}
	return s
}
