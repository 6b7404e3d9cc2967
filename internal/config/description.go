// Package config loads the list of CommandDescriptions that seed the
// multiplexer: either from the program's argument vector (delimiter
// syntax) or from a JSON/NDJSON command-description file. This is the
// one ambient concern implemented directly on encoding/json (see
// DESIGN.md) because the wire format and its exact error messages are
// pinned by the external contract this tool is reviewed against, not
// something a third-party JSON/YAML library would change.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"
)

// Indicator is a pair of renderings for the same status: one for
// colour-capable Unicode terminals, one ASCII fallback.
type Indicator struct {
	Unicode string
	ASCII   string
}

// StatusRule is one (regex, indicator) pair. Indicator == nil means "the
// rule clears status_from_rules".
type StatusRule struct {
	Source    string
	Regexp    *regexp.Regexp
	Indicator *Indicator
}

// CommandDescription is the validated, ready-to-run description of one
// child command.
type CommandDescription struct {
	Title         string
	Cwd           string
	Command       []string
	StatusRules   []StatusRule
	DefaultStatus *Indicator
}

// ParseResult is what the CLI entry point needs after argv is examined.
type ParseResult struct {
	Help        bool
	Descriptions []CommandDescription
}

// ParseArgv implements the full §6 argument-vector contract: zero args or
// -h/--help requests help; exactly one argument is a command-description
// file path; two or more treats the first as a delimiter.
func ParseArgv(args []string) (ParseResult, error) {
	if len(args) == 0 {
		return ParseResult{Help: true}, nil
	}
	if args[0] == "-h" || args[0] == "--help" {
		return ParseResult{Help: true}, nil
	}
	if len(args) == 1 {
		descs, err := parseFile(args[0])
		if err != nil {
			return ParseResult{}, err
		}
		return ParseResult{Descriptions: descs}, nil
	}
	return ParseResult{Descriptions: parseDelimited(args[0], args[1:])}, nil
}

// parseDelimited splits rest on delim into runs of non-delimiter
// arguments, discarding empty runs, and turns each run into a command
// with default cwd, no status rules, and a title derived from the
// formatted command.
func parseDelimited(delim string, rest []string) []CommandDescription {
	var descs []CommandDescription
	var cur []string
	flush := func() {
		if len(cur) == 0 {
			return
		}
		cmd := append([]string(nil), cur...)
		descs = append(descs, CommandDescription{
			Title:   FormatCommand(cmd),
			Cwd:     ".",
			Command: cmd,
		})
		cur = nil
	}
	for _, a := range rest {
		if a == delim {
			flush()
			continue
		}
		cur = append(cur, a)
	}
	flush()
	return descs
}

// parseFile reads path and parses it as JSON (content trimmed-starts
// with '[') or NDJSON (starts with '{'); anything else is a fatal parse
// error. A file that cannot be read gets a hint about the delimiter
// syntax.
func parseFile(path string) ([]CommandDescription, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf(
			"Failed to read command descriptions file %q: %v\n\n"+
				"If you intended %q to be a delimiter separating multiple commands, "+
				"pass at least one command after it.", path, err, path)
	}

	trimmed := bytes.TrimSpace(data)
	switch {
	case len(trimmed) == 0:
		return nil, fmt.Errorf("Expected input to start with [ or { but got: (empty file)")
	case trimmed[0] == '[':
		return parseJSONArray(trimmed)
	case trimmed[0] == '{':
		return parseNDJSON(trimmed)
	default:
		return nil, fmt.Errorf("Expected input to start with [ or { but got: %c", trimmed[0])
	}
}

func parseJSONArray(data []byte) ([]CommandDescription, error) {
	var rawItems []json.RawMessage
	if err := json.Unmarshal(data, &rawItems); err != nil {
		return nil, fmt.Errorf("Failed to read command descriptions file as JSON: %v", err)
	}
	descs := make([]CommandDescription, len(rawItems))
	for i, raw := range rawItems {
		d, err := decodeItem(raw)
		if err != nil {
			return nil, fmt.Errorf("Index %d: %v", i, err)
		}
		descs[i] = d
	}
	return descs, nil
}

func parseNDJSON(data []byte) ([]CommandDescription, error) {
	lines := strings.Split(string(data), "\n")
	var descs []CommandDescription
	idx := 0
	for lineNo, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		var raw json.RawMessage
		if err := json.Unmarshal([]byte(trimmed), &raw); err != nil {
			return nil, fmt.Errorf("Failed to read command descriptions file as NDJSON: line %d: %v", lineNo+1, err)
		}
		d, err := decodeItem(raw)
		if err != nil {
			return nil, fmt.Errorf("Index %d: %v", idx, err)
		}
		descs = append(descs, d)
		idx++
	}
	return descs, nil
}

// keyedValue is one key/value pair read off a JSON object in source
// order; decodeObjectKeys preserves that order so status-rule priority
// (§4.3: "the last match in scan order wins") and "first unknown key"
// error reporting are both deterministic, which a plain
// map[string]json.RawMessage cannot guarantee.
type keyedValue struct {
	Key string
	Raw json.RawMessage
}

func decodeObjectKeys(data []byte) ([]keyedValue, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("expected a JSON object")
	}
	var out []keyedValue
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("expected a string key")
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, err
		}
		out = append(out, keyedValue{Key: key, Raw: raw})
	}
	if _, err := dec.Token(); err != nil { // closing '}'
		return nil, err
	}
	return out, nil
}

var knownItemKeys = map[string]bool{
	"title": true, "cwd": true, "command": true, "status": true, "defaultStatus": true,
}

func decodeItem(data []byte) (CommandDescription, error) {
	keys, err := decodeObjectKeys(data)
	if err != nil {
		return CommandDescription{}, err
	}

	d := CommandDescription{Cwd: "."}
	var haveCommand bool

	for _, kv := range keys {
		switch kv.Key {
		case "title":
			if err := json.Unmarshal(kv.Raw, &d.Title); err != nil {
				return CommandDescription{}, fmt.Errorf("title: %v", err)
			}
		case "cwd":
			if err := json.Unmarshal(kv.Raw, &d.Cwd); err != nil {
				return CommandDescription{}, fmt.Errorf("cwd: %v", err)
			}
		case "command":
			var cmd []string
			if err := json.Unmarshal(kv.Raw, &cmd); err != nil {
				return CommandDescription{}, fmt.Errorf("command: %v", err)
			}
			if len(cmd) == 0 {
				return CommandDescription{}, fmt.Errorf("command: Expected a non-empty array")
			}
			d.Command = cmd
			haveCommand = true
		case "status":
			rules, err := decodeStatusRules(kv.Raw)
			if err != nil {
				return CommandDescription{}, err
			}
			d.StatusRules = rules
		case "defaultStatus":
			ind, err := decodeIndicator(kv.Raw)
			if err != nil {
				return CommandDescription{}, fmt.Errorf("defaultStatus: %v", err)
			}
			d.DefaultStatus = ind
		default:
			if !knownItemKeys[kv.Key] {
				return CommandDescription{}, fmt.Errorf("Unknown key: %s", kv.Key)
			}
		}
	}

	if !haveCommand {
		return CommandDescription{}, fmt.Errorf("command: Expected a non-empty array")
	}
	if d.Title == "" {
		d.Title = FormatCommand(d.Command)
	}
	return d, nil
}

func decodeStatusRules(data []byte) ([]StatusRule, error) {
	keys, err := decodeObjectKeys(data)
	if err != nil {
		return nil, fmt.Errorf("status: %v", err)
	}
	rules := make([]StatusRule, 0, len(keys))
	for _, kv := range keys {
		re, err := regexp.Compile(kv.Key)
		if err != nil {
			return nil, fmt.Errorf("status[%q]: This key is not a valid regex: %v", kv.Key, err)
		}
		ind, err := decodeIndicator(kv.Raw)
		if err != nil {
			return nil, fmt.Errorf("status[%q]: %v", kv.Key, err)
		}
		rules = append(rules, StatusRule{Source: kv.Key, Regexp: re, Indicator: ind})
	}
	return rules, nil
}

func decodeIndicator(raw json.RawMessage) (*Indicator, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	var pair [2]string
	if err := json.Unmarshal(raw, &pair); err != nil {
		return nil, fmt.Errorf("Expected null or a [unicode, ascii] pair: %v", err)
	}
	return &Indicator{Unicode: pair[0], ASCII: pair[1]}, nil
}

// quoteSafe matches characters that never require quoting.
var quoteSafe = regexp.MustCompile(`^[A-Za-z0-9._,:/=@%+-]+$`)

// FormatCommand renders argv the way the dashboard's title column and
// the focused-command header do: each argument that contains anything
// outside the safe character set is wrapped in single quotes, with
// literal single quotes inside it rendered as \'.
func FormatCommand(argv []string) string {
	parts := make([]string, len(argv))
	for i, arg := range argv {
		parts[i] = quoteArg(arg)
	}
	return strings.Join(parts, " ")
}

func quoteArg(arg string) string {
	if arg != "" && quoteSafe.MatchString(arg) {
		return arg
	}
	var b strings.Builder
	b.WriteByte('\'')
	for _, r := range arg {
		if r == '\'' {
			b.WriteString(`\'`)
		} else {
			b.WriteRune(r)
		}
	}
	b.WriteByte('\'')
	return b.String()
}
