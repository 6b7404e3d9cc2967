// Package ansiutil classifies and trims raw ANSI byte streams.
//
// Every function here is pure and allocation-light: none of them retain
// state across calls, so a chunk split across PTY reads is always handled
// by calling the relevant function again on the newly available bytes.
// Width measurement and SGR-aware truncation are delegated to
// github.com/charmbracelet/x/ansi, the same primitives library the
// Bubbletea renderers in the retrieval pack use to drive a raw terminal;
// SGR stripping and the predicates the spec pins down exactly
// (not-simple-log, mouse decoding, last-line extraction) are implemented
// here with regexp and strings.
package ansiutil

import (
	"regexp"
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// sgrSeq matches one SGR escape sequence: ESC [ digits (; digits)* m,
// including the bare "ESC [ m" reset form.
var sgrSeq = regexp.MustCompile("\x1b\\[[0-9]*(;[0-9]+)*m")

// StripSGR removes every SGR (colour/style) escape sequence from s.
func StripSGR(s string) string {
	return sgrSeq.ReplaceAllString(s, "")
}

// Truncate returns the longest prefix of s whose printable width is at
// most maxWidth-1, suffixed with "…" when truncation occurred. SGR
// sequences are preserved in the returned prefix but do not count toward
// width. maxWidth <= 1 is a degenerate case the spec leaves
// implementation-defined; we mirror x/ansi's own behaviour rather than
// special-case it (see DESIGN.md open question (a)).
func Truncate(s string, maxWidth int) string {
	if ansi.StringWidth(StripSGR(s)) < maxWidth {
		return s
	}
	return ansi.Truncate(s, maxWidth-1, "") + "…"
}

// csiNonSGR matches any CSI escape sequence (ESC [ ... final-byte),
// including SGR. NotSimpleLog skips the SGR matches and the two sequences
// the spec permits: a device-status report ("6n") and show-cursor
// ("?25h") — both emitted spuriously by some PTY backends at spawn time
// on Windows.
var csiNonSGR = regexp.MustCompile("\x1b\\[[0-9;?<=>]*[a-zA-Z~]")

// NotSimpleLog reports whether chunk contains any CSI escape sequence
// other than SGR, a device-status report, or show-cursor. A chunk that
// ends mid-escape-sequence is judged only on the complete sequences it
// contains; the caller is expected to call this once per chunk, which is
// why is_simple_log can only flip on a *complete* offending sequence (see
// spec §4.1).
func NotSimpleLog(chunk string) bool {
	for _, m := range csiNonSGR.FindAllString(chunk, -1) {
		if sgrSeq.FindString(m) == m {
			continue
		}
		if m == "\x1b[6n" || m == "\x1b[?25h" {
			continue
		}
		return true
	}
	return false
}

// LastLine returns the substring of s after the last '\n' or '\r',
// optionally consuming one leading SGR reset sequence.
func LastLine(s string) string {
	idx := strings.LastIndexAny(s, "\n\r")
	line := s
	if idx >= 0 {
		line = s[idx+1:]
	}
	if m := sgrSeq.FindString(line); m != "" && strings.HasPrefix(line, m) {
		rest := line[len(m):]
		if m == "\x1b[0m" || m == "\x1b[m" {
			line = rest
		}
	}
	return line
}

// MouseKind distinguishes a mouse-down from a mouse-up report.
type MouseKind int

const (
	MouseDown MouseKind = iota
	MouseUp
)

// MouseEvent is a decoded SGR(1006) mouse report.
type MouseEvent struct {
	Kind MouseKind
	X, Y int // zero-based column/row
}

// mouseReport matches an SGR-1006 left-click report: ESC [ < 0 ; x ; y
// (M|m). Per spec §4.1 the button code is the literal "0" (plain left
// click), not a wildcard — scroll-wheel/drag/right-click reports use
// other button codes and are not mouse events this multiplexer acts on.
var mouseReport = regexp.MustCompile(`\x1b\[<0;(\d+);(\d+)([Mm])`)

// ParseMouse recognises an SGR(1006) left-click mouse report anywhere in
// s and returns the decoded event, or ok=false if none is present (which
// includes any non-zero button code).
func ParseMouse(s string) (ev MouseEvent, ok bool) {
	m := mouseReport.FindStringSubmatch(s)
	if m == nil {
		return MouseEvent{}, false
	}
	x := atoiSafe(m[1]) - 1
	y := atoiSafe(m[2]) - 1
	kind := MouseDown
	if m[3] == "m" {
		kind = MouseUp
	}
	return MouseEvent{Kind: kind, X: x, Y: y}, true
}

func atoiSafe(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return n
		}
		n = n*10 + int(r-'0')
	}
	return n
}

// EnableAlternateScreen / DisableAlternateScreen are the two
// alternate-screen sequences the spec
// tracks the relative order of to derive is_on_alternate_screen.
const (
	EnableAlternateScreen  = "\x1b[?1049h"
	DisableAlternateScreen = "\x1b[?1049l"
)

// OnAlternateScreen reports whether, within history, the most recent
// occurrence of EnableAlternateScreen comes after the most recent
// occurrence of DisableAlternateScreen.
func OnAlternateScreen(history string) bool {
	enable := strings.LastIndex(history, EnableAlternateScreen)
	disable := strings.LastIndex(history, DisableAlternateScreen)
	return enable >= 0 && enable > disable
}
