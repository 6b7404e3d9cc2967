package controller

import (
	"fmt"

	"github.com/lydell/run-pty/internal/ansiutil"
	"github.com/lydell/run-pty/internal/command"
	"github.com/lydell/run-pty/internal/render"
)

// onData is the on_data handler shared by every command: §4.6 "on child
// data".
func (c *Controller) onData(index int, chunk []byte, changed bool) {
	cmd := c.commands[index]

	if c.view == ViewCommand && c.focusIdx == index {
		c.writeFocusedChunk(cmd, chunk)
		return
	}
	if c.view == ViewDashboard && changed {
		c.redraw()
	}
}

// onExit is the on_exit handler: §4.6 "on child exit".
func (c *Controller) onExit(index int, code int) {
	cmd := c.commands[index]
	if c.view == ViewCommand && c.focusIdx == index {
		c.writeFocusedChunk(cmd, nil)
		return
	}
	if c.view == ViewDashboard {
		c.redraw()
	}
}

func (c *Controller) onResize(rows, cols int) {
	c.rows, c.cols = rows, cols
	for _, cmd := range c.commands {
		if cmd.Phase() == command.PhaseRunning || cmd.Phase() == command.PhaseKilling {
			cmd.Resize(rows, cols)
		}
	}
	if c.view == ViewDashboard {
		c.redraw()
	}
}

// redraw repaints whichever view is currently active, in place (no
// scrollback replay) — used for dashboard updates and focused-panel-only
// refreshes (resize, selection changes, exit/kill-all transitions).
func (c *Controller) redraw() {
	if c.view == ViewDashboard {
		c.redrawDashboard()
		return
	}
	cmd := c.commands[c.focusIdx]
	c.writeFocusedChunk(cmd, nil)
}

func (c *Controller) redrawDashboard() {
	fmt.Fprint(c.stdout, "\x1b[2J\x1b[3J\x1b[H") // clear screen and scrollback, cursor home
	rows := make([]render.Row, len(c.commands))
	snaps := make([]command.Snapshot, len(c.commands))
	for i, cmd := range c.commands {
		snap := cmd.Snapshot()
		snaps[i] = snap
		rows[i] = render.Row{Label: cmd.Label, Snap: snap, Title: cmd.TitleNoSGR}
	}
	sel := render.Selection{Visible: c.selection.kind != SelectionInvisible, Index: c.selection.index}
	out := render.DrawDashboard(rows, c.cols, c.attemptedKillAll, sel)
	fmt.Fprint(c.stdout, out)
}

// replayAndDrawFocused writes a command's full scrollback to stdout
// (entering its view) and then draws the appropriate bottom panel.
func (c *Controller) replayAndDrawFocused(cmd *command.Command) {
	snap := cmd.Snapshot()
	c.stdout.Write(snap.History)
	c.lastLine = ansiutil.LastLine(string(snap.History))
	c.panelLines = 0
	c.drawPanel(cmd, snap)
}

// writeFocusedChunk implements the three-part sandwich from §4.6: erase
// the old panel, emit the chunk (if any), draw the new one.
func (c *Controller) writeFocusedChunk(cmd *command.Command, chunk []byte) {
	c.erasePanel()

	if len(chunk) > 0 {
		c.stdout.Write(chunk)
	}

	snap := cmd.Snapshot()
	c.lastLine = ansiutil.LastLine(string(snap.History))
	c.drawPanel(cmd, snap)
}

func (c *Controller) drawPanel(cmd *command.Command, snap command.Snapshot) {
	switch snap.Phase {
	case command.PhaseExit:
		c.drawExitPanel(cmd, snap)
	case command.PhaseRunning:
		if !snap.IsSimpleLog {
			c.panelLines = 0
			c.lastExtraText = ""
			return
		}
		text := render.RunningText(snap.PID)
		c.writePanel(text)
	case command.PhaseKilling:
		if !snap.IsSimpleLog {
			c.panelLines = 0
			c.lastExtraText = ""
			return
		}
		text := render.KillingText(snap.PID)
		c.writePanel(text)
	}
}

func (c *Controller) drawExitPanel(cmd *command.Command, snap command.Snapshot) {
	if c.lastLine != "" || snap.IsOnAlternateScreen {
		fmt.Fprint(c.stdout, "\n")
	}
	if snap.IsOnAlternateScreen {
		fmt.Fprint(c.stdout, ansiutil.DisableAlternateScreen)
	}
	snaps := make([]command.Snapshot, len(c.commands))
	for i, other := range c.commands {
		snaps[i] = other.Snapshot()
	}
	label := render.KillAllLabel(snaps)
	text := render.ExitText(label, snap.ExitCode)
	c.writePanel(text)
}

func (c *Controller) writePanel(text string) {
	fmt.Fprint(c.stdout, text)
	c.lastExtraText = text
	c.panelLines = countLines(text)
}

// erasePanel moves the cursor back to the top of the previously drawn
// panel and clears those lines, per §4.6's move_back/erase helpers.
func (c *Controller) erasePanel() {
	if c.panelLines <= 0 {
		return
	}
	fmt.Fprint(c.stdout, render.MoveBack(c.panelLines))
	fmt.Fprint(c.stdout, render.Erase(c.panelLines))
	c.panelLines = 0
	c.lastExtraText = ""
}

func countLines(s string) int {
	n := 0
	for _, r := range s {
		if r == '\n' {
			n++
		}
	}
	return n
}
