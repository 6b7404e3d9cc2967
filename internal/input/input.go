// Package input maps raw host stdin byte chunks to multiplexer actions,
// per the dashboard/command view key and mouse semantics. It never
// touches a PTY or any global state directly — every recognised
// keystroke becomes an Action value for the Controller to apply, the
// same separation the teacher's internal/app/input.go keeps between
// decoding bytes and mutating the Bubbletea Model.
package input

import (
	"github.com/lydell/run-pty/internal/ansiutil"
	"github.com/lydell/run-pty/internal/labels"
)

// ActionKind enumerates every action the router can produce.
type ActionKind int

const (
	ActionNone ActionKind = iota
	ActionKillAll
	ActionRestartExited
	ActionSwitchToCommand
	ActionMoveSelection
	ActionHideSelection
	ActionMousedown
	ActionSwitchToDashboard
	ActionKillFocused
	ActionStartFocused
	ActionWriteToFocused
	ActionReviveKillingThenWrite
	ActionMouseup
)

// Action is the single decoded result of one input chunk.
type Action struct {
	Kind       ActionKind
	Index      int    // ActionSwitchToCommand / ActionMoveSelection (+1/-1) / ActionMousedown
	HideOnJump bool   // ActionSwitchToCommand: true when triggered by a label byte
	Bytes      []byte // ActionWriteToFocused / ActionReviveKillingThenWrite
}

const (
	byteCtrlC = 0x03
	byteCtrlZ = 0x1a
	byteEsc   = 0x1b
	byteCR    = '\r'
	byteLF    = '\n'
)

var (
	seqUp    = "\x1b[A"
	seqDown  = "\x1b[B"
	seqAltUp = "\x1b\x1bOA" // Alt-up as sent by many terminals: ESC + arrow
	seqAltDn = "\x1b\x1bOB"
)

// labelIndex maps a single byte to its 0-based command index, or -1.
func labelIndex(b byte, count int) int {
	max := count
	if max > len(labels.Alphabet) {
		max = len(labels.Alphabet)
	}
	for i := 0; i < max; i++ {
		if labels.Alphabet[i] == rune(b) {
			return i
		}
	}
	return -1
}

// Dashboard decodes one stdin chunk while the dashboard view is active.
func Dashboard(chunk []byte, commandCount int, selectionVisible bool) Action {
	if ev, ok := ansiutil.ParseMouse(string(chunk)); ok {
		if ev.Kind == ansiutil.MouseDown {
			return Action{Kind: ActionMousedown, Index: ev.Y}
		}
		return Action{Kind: ActionMouseup, Index: ev.Y}
	}

	s := string(chunk)
	switch {
	case len(chunk) == 1 && chunk[0] == byteCtrlC:
		return Action{Kind: ActionKillAll}
	case len(chunk) == 1 && (chunk[0] == byteCR || chunk[0] == 'o'):
		if !selectionVisible {
			return Action{Kind: ActionRestartExited}
		}
		return Action{Kind: ActionSwitchToCommand, Index: -1} // -1: use the current selection index
	case s == seqUp || s == seqAltUp || (len(chunk) == 1 && chunk[0] == 'k'):
		return Action{Kind: ActionMoveSelection, Index: -1}
	case s == seqDown || s == seqAltDn || (len(chunk) == 1 && chunk[0] == 'j'):
		return Action{Kind: ActionMoveSelection, Index: 1}
	case len(chunk) == 1 && chunk[0] == byteEsc:
		return Action{Kind: ActionHideSelection}
	}

	if len(chunk) == 1 {
		if idx := labelIndex(chunk[0], commandCount); idx >= 0 {
			return Action{Kind: ActionSwitchToCommand, Index: idx, HideOnJump: true}
		}
	}

	return Action{Kind: ActionNone}
}

// CommandPhase is the subset of command.Phase this package needs,
// redeclared here to avoid importing the command package purely for an
// int constant (render already sits between the two).
type CommandPhase int

const (
	PhaseRunningOrKilling CommandPhase = iota
	PhaseExited
)

// Focused decodes one stdin chunk while a command view is focused.
func Focused(chunk []byte, phase CommandPhase, wasKilling bool) Action {
	if len(chunk) == 1 && chunk[0] == byteCtrlZ {
		return Action{Kind: ActionSwitchToDashboard}
	}

	if phase == PhaseExited {
		switch {
		case len(chunk) == 1 && chunk[0] == byteCtrlC:
			return Action{Kind: ActionKillAll}
		case len(chunk) == 1 && (chunk[0] == byteCR || chunk[0] == byteLF):
			return Action{Kind: ActionStartFocused}
		default:
			return Action{Kind: ActionNone}
		}
	}

	if len(chunk) == 1 && chunk[0] == byteCtrlC {
		return Action{Kind: ActionKillFocused}
	}

	if wasKilling {
		return Action{Kind: ActionReviveKillingThenWrite, Bytes: chunk}
	}
	return Action{Kind: ActionWriteToFocused, Bytes: chunk}
}
