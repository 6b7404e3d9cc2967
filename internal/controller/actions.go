package controller

import (
	"time"

	"github.com/lydell/run-pty/internal/command"
	"github.com/lydell/run-pty/internal/input"
)

// handleStdin routes one raw stdin chunk through the InputRouter for the
// currently active view and applies the resulting Action.
func (c *Controller) handleStdin(chunk []byte) {
	if c.view == ViewDashboard {
		act := input.Dashboard(chunk, len(c.commands), c.selection.kind != SelectionInvisible)
		c.applyDashboardAction(act)
		return
	}

	cmd := c.commands[c.focusIdx]
	snap := cmd.Snapshot()
	phase := input.PhaseRunningOrKilling
	if snap.Phase == command.PhaseExit {
		phase = input.PhaseExited
	}
	act := input.Focused(chunk, phase, snap.Phase == command.PhaseKilling)
	c.applyFocusedAction(cmd, act)
}

func (c *Controller) applyDashboardAction(act input.Action) {
	switch act.Kind {
	case input.ActionKillAll:
		if code, done := c.killAll(); done {
			c.finishNow(code)
		}
	case input.ActionRestartExited:
		c.restartExited()
	case input.ActionSwitchToCommand:
		idx := act.Index
		if idx < 0 {
			idx = c.selection.index
		}
		c.switchToCommand(idx, act.HideOnJump)
	case input.ActionMoveSelection:
		c.moveSelection(act.Index)
	case input.ActionHideSelection:
		c.hideSelection()
	case input.ActionMousedown:
		if act.Index >= 0 && act.Index < len(c.commands) {
			c.selection = selectionState{kind: SelectionMousedown, index: act.Index}
			c.redraw()
		}
	case input.ActionMouseup:
		if c.selection.kind != SelectionInvisible && c.selection.index == act.Index {
			c.switchToCommand(act.Index, false)
		} else {
			c.hideSelection()
		}
	}
}

func (c *Controller) applyFocusedAction(cmd *command.Command, act input.Action) {
	switch act.Kind {
	case input.ActionSwitchToDashboard:
		c.switchToDashboard()
	case input.ActionKillFocused:
		if err := cmd.Kill(time.Now()); err != nil {
			c.log.Error("kill failed", "error", err)
		}
	case input.ActionStartFocused:
		if err := cmd.Start(); err != nil {
			c.log.Error("restart failed", "error", err)
			return
		}
		c.switchToCommand(cmd.Index, false)
	case input.ActionReviveKillingThenWrite:
		// Command has no transition from Killing back to Running, so the
		// keystroke is only forwarded: the command stays in Killing and
		// its panel keeps showing the Killing text until the child exits.
		cmd.Write(act.Bytes)
	case input.ActionWriteToFocused:
		cmd.Write(act.Bytes)
	}
}

// killAll sets attempted_kill_all, signals every live command, and
// returns to the dashboard. It returns (0, true) only when every
// command was already exited (the "exit" label case), in which case the
// caller should terminate immediately.
func (c *Controller) killAll() (int, bool) {
	c.attemptedKillAll = true
	var live []*command.Command
	for _, cmd := range c.commands {
		if cmd.Phase() != command.PhaseExit {
			live = append(live, cmd)
		}
	}
	if len(live) == 0 {
		c.switchToDashboard()
		return 0, true
	}
	now := time.Now()
	for _, cmd := range live {
		if err := cmd.Kill(now); err != nil {
			c.log.Error("kill failed", "title", cmd.Title, "error", err)
		}
	}
	c.switchToDashboard()
	return 0, false
}

func (c *Controller) restartExited() {
	for _, cmd := range c.commands {
		if cmd.Phase() == command.PhaseExit {
			if err := cmd.Start(); err != nil {
				c.log.Error("restart failed", "title", cmd.Title, "error", err)
			}
		}
	}
	c.attemptedKillAll = false
	c.redraw()
}

func (c *Controller) moveSelection(delta int) {
	n := len(c.commands)
	if n == 0 {
		return
	}
	if c.selection.kind == SelectionInvisible {
		c.selection = selectionState{kind: SelectionKeyboard, index: c.selection.index}
		c.redraw()
		return
	}
	idx := ((c.selection.index+delta)%n + n) % n
	c.selection = selectionState{kind: SelectionKeyboard, index: idx}
	c.redraw()
}

func (c *Controller) hideSelection() {
	c.selection = selectionState{kind: SelectionInvisible, index: c.selection.index}
	c.redraw()
}

func (c *Controller) switchToDashboard() {
	c.erasePanel()
	c.view = ViewDashboard
	c.redraw()
}

func (c *Controller) switchToCommand(index int, hideSelection bool) {
	if index < 0 || index >= len(c.commands) {
		return
	}
	c.view = ViewCommand
	c.focusIdx = index
	if hideSelection {
		c.selection = selectionState{kind: SelectionInvisible, index: index}
	} else {
		c.selection = selectionState{kind: c.selection.kind, index: index}
	}
	c.replayAndDrawFocused(c.commands[index])
}
