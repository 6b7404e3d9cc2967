// Package command implements the per-child state machine: spawn, output
// capture, graceful/forced kill, and restart, plus the bounded scrollback
// history and status-rule evaluation that ride along with it.
//
// The PTY plumbing (spawn/read/resize/kill) is adapted directly from the
// teacher's internal/terminal/session.go, which wraps
// github.com/aymanbagabas/go-pty the same way here: one cross-platform
// Pty per running command, a read-loop goroutine pushing chunks into
// history, and a wait-loop goroutine observing the exit code. What
// changes is everything session.go didn't have to do: a bounded byte
// ring instead of a VT100 grid, the simple-log/alternate-screen
// classification, and the Running/Killing/Exit state machine with its
// kill-escalation timers.
package command

import (
	"bytes"
	"fmt"
	"os"
	"regexp"
	"runtime"
	"strconv"
	"sync"
	"time"

	gopty "github.com/aymanbagabas/go-pty"

	"github.com/lydell/run-pty/internal/ansiutil"
	"github.com/lydell/run-pty/internal/config"
	"github.com/lydell/run-pty/internal/labels"
)

// DefaultMaxHistory is the fallback scrollback cap (§3), overridable via
// RUN_PTY_MAX_HISTORY.
const DefaultMaxHistory = 1_000_000

// MaxHistoryFromEnv reads RUN_PTY_MAX_HISTORY, falling back to
// DefaultMaxHistory for a missing or non-positive value.
func MaxHistoryFromEnv() int {
	v := os.Getenv("RUN_PTY_MAX_HISTORY")
	if v == "" {
		return DefaultMaxHistory
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return DefaultMaxHistory
	}
	return n
}

// Phase is the command's lifecycle state. The zero value, PhaseExit,
// doubles as "never started yet" so a freshly constructed Command can be
// started without a separate NotStarted state.
type Phase int

const (
	PhaseExit Phase = iota
	PhaseRunning
	PhaseKilling
)

// killGrace is how long after the first Ctrl-C before the kill is
// considered slow (cosmetic redraw trigger only).
const killGrace = 100 * time.Millisecond

// doublePressWindow is how soon a second kill() call must arrive to
// escalate to a forced kill.
const doublePressWindow = 500 * time.Millisecond

// Command owns one child process's PTY, history, and status.
type Command struct {
	mu sync.Mutex

	Index int
	Label string

	Title                     string
	TitleNoSGR                string
	FormattedCommand          string
	FormattedCommandWithTitle string
	Cwd                       string

	desc       config.CommandDescription
	maxHistory int

	history             []byte
	isSimpleLog         bool
	isOnAlternateScreen bool

	phase         Phase
	slowKill      bool
	lastKillPress time.Time
	exitCode      int

	statusFromRules *config.Indicator

	pty gopty.Pty
	cmd *gopty.Cmd

	killTimer *time.Timer

	// onData/onExit are the Controller's one-shot notification
	// callbacks, injected at construction so Command never needs a
	// back-reference to the Controller (see SPEC_FULL.md design notes).
	// onData's changed flag mirrors PushHistory's return value so the
	// controller never has to evaluate status rules a second time.
	onData func(chunk []byte, changed bool)
	onExit func(code int)

	// renderHeader produces the history_start header bytes; injected so
	// this package does not import the render package (which itself
	// needs Command's public fields to format it).
	renderHeader func(c *Command) []byte

	rows, cols int
}

// New constructs a Command in PhaseExit (i.e. not yet started).
func New(index int, desc config.CommandDescription, maxHistory int, onData func([]byte, bool), onExit func(int), renderHeader func(*Command) []byte) *Command {
	formatted := config.FormatCommand(desc.Command)
	title := desc.Title
	if title == "" {
		title = formatted
	}
	return &Command{
		Index:                     index,
		Label:                     labels.At(index),
		Title:                     title,
		TitleNoSGR:                ansiutil.StripSGR(title),
		FormattedCommand:          formatted,
		FormattedCommandWithTitle: formattedWithTitle(title, formatted),
		Cwd:                       desc.Cwd,
		desc:                      desc,
		maxHistory:                maxHistory,
		onData:                    onData,
		onExit:                    onExit,
		renderHeader:              renderHeader,
		rows:                      24,
		cols:                      80,
	}
}

func formattedWithTitle(title, formatted string) string {
	if title == "" || title == formatted {
		return formatted
	}
	return title + ": " + formatted
}

// Phase reports the current lifecycle state.
func (c *Command) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Snapshot is a consistent, point-in-time copy of the fields the
// renderer needs, taken under the lock.
type Snapshot struct {
	Phase               Phase
	SlowKill            bool
	ExitCode            int
	History             []byte
	IsSimpleLog         bool
	IsOnAlternateScreen bool
	StatusFromRules     *config.Indicator
	PID                 int
}

func (c *Command) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	pid := 0
	if c.cmd != nil && c.cmd.Process != nil {
		pid = c.cmd.Process.Pid
	}
	return Snapshot{
		Phase:               c.phase,
		SlowKill:            c.slowKill,
		ExitCode:            c.exitCode,
		History:             c.history,
		IsSimpleLog:         c.isSimpleLog,
		IsOnAlternateScreen: c.isOnAlternateScreen,
		StatusFromRules:     c.statusFromRules,
		PID:                 pid,
	}
}

// Resize sets the current terminal dimensions, propagating to a live
// PTY immediately.
func (c *Command) Resize(rows, cols int) {
	c.mu.Lock()
	c.rows, c.cols = rows, cols
	pty := c.pty
	running := c.phase == PhaseRunning || c.phase == PhaseKilling
	c.mu.Unlock()
	if running && pty != nil {
		_ = pty.Resize(cols, rows)
	}
}

// Write sends raw keyboard bytes to the child's PTY.
func (c *Command) Write(p []byte) {
	c.mu.Lock()
	pty := c.pty
	running := c.phase == PhaseRunning || c.phase == PhaseKilling
	c.mu.Unlock()
	if running && pty != nil {
		_, _ = pty.Write(p)
	}
}

// Start spawns the PTY. Precondition: Phase() == PhaseExit.
func (c *Command) Start() error {
	c.mu.Lock()
	if c.phase != PhaseExit {
		c.mu.Unlock()
		return fmt.Errorf("command %q: Start called while not exited", c.Title)
	}
	rows, cols := c.rows, c.cols
	c.mu.Unlock()

	argv := c.desc.Command
	fullEnv := append(os.Environ(), "TERM=xterm-256color", "COLORTERM=truecolor")

	p, err := gopty.New()
	if err != nil {
		return err
	}
	if err := p.Resize(cols, rows); err != nil {
		p.Close()
		return err
	}

	cmd := p.Command(argv[0], argv[1:]...)
	cmd.Dir = c.Cwd
	cmd.Env = fullEnv

	if err := cmd.Start(); err != nil {
		p.Close()
		return err
	}

	c.mu.Lock()
	c.pty = p
	c.cmd = cmd
	c.phase = PhaseRunning
	c.slowKill = false
	c.history = append([]byte(nil), c.renderHeader(c)...)
	c.statusFromRules = c.desc.DefaultStatus
	c.isSimpleLog = true
	c.isOnAlternateScreen = false
	headerLines := bytes.Count(c.history, []byte("\n")) + 1
	c.mu.Unlock()

	if runtime.GOOS == "windows" {
		// go-pty's ConPTY backend spuriously needs its cursor position
		// nudged into agreement with the header we just drew.
		_, _ = p.Write([]byte(fmt.Sprintf("\x1b[%d;1R", headerLines)))
	}

	go c.readLoop(p)
	go c.waitLoop(cmd)

	return nil
}

func (c *Command) readLoop(p gopty.Pty) {
	buf := make([]byte, 4096)
	for {
		n, err := p.Read(buf)
		if n > 0 {
			chunk := append([]byte(nil), buf[:n]...)
			changed := c.PushHistory(chunk)
			if c.onData != nil {
				c.onData(chunk, changed)
			}
		}
		if err != nil {
			return
		}
	}
}

func (c *Command) waitLoop(cmd *gopty.Cmd) {
	err := cmd.Wait()
	code := 0
	if err != nil {
		if cmd.ProcessState != nil {
			code = cmd.ProcessState.ExitCode()
		} else {
			code = 1
		}
	}
	c.mu.Lock()
	c.phase = PhaseExit
	c.exitCode = code
	c.pty = nil
	c.cmd = nil
	if c.killTimer != nil {
		c.killTimer.Stop()
		c.killTimer = nil
	}
	c.mu.Unlock()
	if c.onExit != nil {
		c.onExit(code)
	}
}

// splitLinesKeepOpen splits s on \r\n, \n, or \r, returning every
// terminated line plus a final, possibly empty, still-open line.
func splitLinesKeepOpen(s string) []string {
	var lines []string
	start := 0
	i := 0
	for i < len(s) {
		switch s[i] {
		case '\n':
			lines = append(lines, s[start:i])
			i++
			start = i
		case '\r':
			lines = append(lines, s[start:i])
			i++
			if i < len(s) && s[i] == '\n' {
				i++
			}
			start = i
		default:
			i++
		}
	}
	lines = append(lines, s[start:])
	return lines
}

// PushHistory appends chunk to history (subject to the MAX_HISTORY
// cap), evaluates status rules over every line the chunk completes plus
// the still-open current line, and updates is_simple_log. It returns
// true iff status_from_rules changed as a result.
func (c *Command) PushHistory(chunk []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	prior := ansiutil.LastLine(string(c.history))
	changed := c.evaluateStatusLocked(prior + string(chunk))

	c.history = append(c.history, chunk...)
	if len(c.history) > c.maxHistory {
		c.history = c.history[len(c.history)-c.maxHistory:]
	}

	if c.isSimpleLog && ansiutil.NotSimpleLog(string(chunk)) {
		c.isSimpleLog = false
	}
	c.isOnAlternateScreen = ansiutil.OnAlternateScreen(string(c.history))

	return changed
}

// evaluateStatusLocked scans combined (the prior open line plus the new
// chunk) line by line, each line against every rule in source order; the
// last match anywhere in the scan wins (§4.3, SPEC_FULL.md open question
// (b) — intentionally not cached/short-circuited, to keep "last match
// wins" obviously correct over micro-optimising the rescans).
func (c *Command) evaluateStatusLocked(combined string) bool {
	before := c.statusFromRules
	lines := splitLinesKeepOpen(combined)
	for _, line := range lines {
		stripped := ansiutil.StripSGR(line)
		for _, rule := range c.desc.StatusRules {
			if matches(rule.Regexp, stripped) {
				c.statusFromRules = rule.Indicator
			}
		}
	}
	return !sameIndicator(before, c.statusFromRules)
}

func matches(re *regexp.Regexp, s string) bool {
	return re != nil && re.MatchString(s)
}

func sameIndicator(a, b *config.Indicator) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// Kill implements the §4.3 kill() state machine: Running schedules the
// slow-kill timer and writes one Ctrl-C; a repeated call within the
// double-press window escalates to a forced kill; Exit is a programmer
// error (the controller must never call it there).
func (c *Command) Kill(now time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.phase {
	case PhaseExit:
		return fmt.Errorf("command %q: Kill called while already exited", c.Title)

	case PhaseRunning:
		c.phase = PhaseKilling
		c.slowKill = false
		c.lastKillPress = time.Time{}
		pty := c.pty
		c.scheduleSlowKillLocked()
		if pty != nil {
			_, _ = pty.Write([]byte{0x03})
		}
		return nil

	default: // PhaseKilling
		escalate := !c.lastKillPress.IsZero() && now.Sub(c.lastKillPress) < doublePressWindow
		c.lastKillPress = now
		if escalate {
			if c.killTimer != nil {
				c.killTimer.Stop()
				c.killTimer = nil
			}
			if c.cmd != nil && c.cmd.Process != nil {
				_ = c.cmd.Process.Kill()
			}
			return nil
		}
		if c.pty != nil {
			_, _ = c.pty.Write([]byte{0x03})
		}
		return nil
	}
}

// ForceKill immediately SIGKILLs the child if one is running, bypassing
// the graceful Ctrl-C/escalation state machine entirely. Used only by
// the uncaught-fault shutdown path (§4.6, §7), which must not wait for a
// double-press window that will never arrive.
func (c *Command) ForceKill() {
	c.mu.Lock()
	proc := c.cmd
	c.mu.Unlock()
	if proc != nil && proc.Process != nil {
		_ = proc.Process.Kill()
	}
}

func (c *Command) scheduleSlowKillLocked() {
	c.killTimer = time.AfterFunc(killGrace, func() {
		c.mu.Lock()
		stillKilling := c.phase == PhaseKilling
		if stillKilling {
			c.slowKill = true
		}
		c.mu.Unlock()
		if stillKilling && c.onData != nil {
			c.onData(nil, false) // cosmetic redraw only, no new bytes
		}
	})
}
