// Package controller drives the single-threaded event loop that
// multiplexes host stdin, every Command's output/exit notifications,
// terminal resize, OS signals, and the kill-escalation timers into one
// consistent view of the terminal.
//
// The message-dispatch shape (typed events funnelled through a few
// channels and handled by a single select loop) mirrors the teacher's
// Bubbletea Update loop in internal/app/model.go, translated from
// tea.Msg/tea.Cmd into plain channels and callbacks since this
// multiplexer owns the raw terminal directly instead of delegating
// render cycles to the Bubbletea runtime (the redraw here is an
// incremental cursor-up/erase diff of a small status panel, not a
// full-screen View() repaint).
package controller

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/muesli/cancelreader"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/lydell/run-pty/internal/command"
	"github.com/lydell/run-pty/internal/config"
	"github.com/lydell/run-pty/internal/render"
	"github.com/lydell/run-pty/internal/rtlog"
)

// ViewKind distinguishes the dashboard from a focused command.
type ViewKind int

const (
	ViewDashboard ViewKind = iota
	ViewCommand
)

// SelectionKind mirrors the spec's Invisible/Mousedown/Keyboard tagged
// union for the dashboard's highlighted row.
type SelectionKind int

const (
	SelectionInvisible SelectionKind = iota
	SelectionMousedown
	SelectionKeyboard
)

type selectionState struct {
	kind  SelectionKind
	index int
}

// dataEvent and exitEvent are what Command callbacks funnel into the
// loop; they never mutate Controller state themselves.
type dataEvent struct {
	index   int
	chunk   []byte
	changed bool
}

type exitEvent struct {
	index int
	code  int
}

// Controller holds every piece of mutable state the event loop touches,
// all owned by the single goroutine running Run — no locking needed
// inside the loop itself (Command has its own internal lock since its
// callbacks fire from other goroutines).
type Controller struct {
	commands []*command.Command

	view      ViewKind
	focusIdx  int
	selection selectionState

	attemptedKillAll bool
	lastExtraText    string
	lastLine         string
	panelLines       int

	rows, cols int

	stdout io.Writer
	stdin  io.Reader

	dataCh   chan dataEvent
	exitCh   chan exitEvent
	resizeCh chan struct{ rows, cols int }
	sigCh    chan os.Signal
	quitCh   chan int

	log rtlog.Logger

	quitOnce sync.Once
}

// New builds a Controller for the given descriptions, wiring each
// Command's callbacks back into this loop's event channels.
func New(descs []config.CommandDescription, stdout io.Writer, stdin io.Reader, log rtlog.Logger) *Controller {
	c := &Controller{
		stdout:   stdout,
		stdin:    stdin,
		dataCh:   make(chan dataEvent, 64),
		exitCh:   make(chan exitEvent, 16),
		resizeCh: make(chan struct{ rows, cols int }, 4),
		sigCh:    make(chan os.Signal, 4),
		quitCh:   make(chan int, 1),
		log:      log,
		rows:     24,
		cols:     80,
	}

	maxHistory := command.MaxHistoryFromEnv()
	for i, d := range descs {
		idx := i
		cmd := command.New(idx, d, maxHistory, func(chunk []byte, changed bool) {
			c.dataCh <- dataEvent{index: idx, chunk: chunk, changed: changed}
		}, func(code int) {
			c.exitCh <- exitEvent{index: idx, code: code}
		}, func(cmd *command.Command) []byte {
			return render.HistoryStart(cmd.Label, cmd.FormattedCommandWithTitle, cmd.Cwd)
		})
		c.commands = append(c.commands, cmd)
	}

	if len(c.commands) == 1 {
		c.view = ViewCommand
		c.focusIdx = 0
	} else {
		c.view = ViewDashboard
	}

	return c
}

// Run puts stdin in raw mode, starts every command, and drives the
// event loop until shutdown (Ctrl-C-triggered kill-all completing, or a
// fatal signal). It returns the process exit code.
func (c *Controller) Run() int {
	if f, ok := c.stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		oldState, err := term.MakeRaw(int(f.Fd()))
		if err != nil {
			c.log.Error("failed to enter raw mode", "error", err)
		} else {
			defer term.Restore(int(f.Fd()), oldState)
		}
		if w, h, err := term.GetSize(int(f.Fd())); err == nil {
			c.rows, c.cols = h, w
		}
	}

	c.enableMouseAndPaste()
	defer c.disableMouseAndPaste()

	signal.Notify(c.sigCh, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM)
	go c.watchResize()

	for _, cmd := range c.commands {
		if err := cmd.Start(); err != nil {
			c.log.Error("failed to start command", "title", cmd.Title, "error", err)
		}
	}

	// stdin is read through a cancelreader so shutdown can unblock the
	// goroutine's pending Read instead of leaking it for the life of the
	// process — the same reason charmbracelet/bubbletea's driver wraps
	// its input reader the same way.
	cr, err := cancelreader.NewReader(c.stdin)
	if err != nil {
		c.log.Error("failed to wrap stdin in a cancelreader", "error", err)
		cr = nil
	} else {
		defer cr.Close()
	}
	go c.readStdin(cr)

	c.redraw()

	code := c.loop()
	if cr != nil {
		cr.Cancel()
	}
	return code
}

func (c *Controller) readStdin(r cancelreader.CancelReader) {
	var reader io.Reader = c.stdin
	if r != nil {
		reader = r
	}
	buf := make([]byte, 4096)
	for {
		n, err := reader.Read(buf)
		if n > 0 {
			chunk := append([]byte(nil), buf[:n]...)
			c.handleStdin(chunk)
		}
		if err != nil {
			return
		}
	}
}

func (c *Controller) watchResize() {
	sigwinch := make(chan os.Signal, 1)
	notifyWinch(sigwinch)
	lastRows, lastCols := c.rows, c.cols
	for range sigwinch {
		f, ok := c.stdin.(*os.File)
		if !ok {
			continue
		}
		w, h, err := term.GetSize(int(f.Fd()))
		if err != nil || (w == lastCols && h == lastRows) {
			continue
		}
		lastRows, lastCols = h, w
		c.resizeCh <- struct{ rows, cols int }{rows: h, cols: w}
	}
}

// loop is the single select-based event dispatcher; every branch runs
// to completion without blocking, matching the spec's "no event handler
// may block" requirement.
func (c *Controller) loop() int {
	for {
		select {
		case ev := <-c.dataCh:
			c.onData(ev.index, ev.chunk, ev.changed)
			c.maybeFinishAfterKillAll()
		case ev := <-c.exitCh:
			c.onExit(ev.index, ev.code)
			c.maybeFinishAfterKillAll()
		case r := <-c.resizeCh:
			c.onResize(r.rows, r.cols)
		case sig := <-c.sigCh:
			c.log.Info("received signal, killing all", "signal", sig.String())
			c.killAll()
			c.maybeFinishAfterKillAll()
		case code := <-c.quitCh:
			return code
		}
	}
}

// finishNow signals the loop to return code on its next iteration; safe
// to call more than once (only the first call's code is honoured).
func (c *Controller) finishNow(code int) {
	c.quitOnce.Do(func() {
		c.quitCh <- code
	})
}

func (c *Controller) maybeFinishAfterKillAll() {
	if !c.attemptedKillAll {
		return
	}
	for _, cmd := range c.commands {
		if cmd.Phase() != command.PhaseExit {
			return
		}
	}
	c.finishNow(0)
}

// KillAllAndExit sends a forced kill to every live command in parallel
// and blocks (via an errgroup) until every kill has been sent; it does
// not wait for the children to exit. Used only for the
// uncaught-fault fast path (§4.6, §7) where the event loop itself is
// being abandoned and there is no time for the graceful Ctrl-C
// escalation sequence a normal kill-all goes through.
func (c *Controller) KillAllAndExit() {
	var g errgroup.Group
	for _, cmd := range c.commands {
		cmd := cmd
		if cmd.Phase() == command.PhaseExit {
			continue
		}
		g.Go(func() error {
			cmd.ForceKill()
			return nil
		})
	}
	_ = g.Wait()
}

// enableMouseAndPaste turns SGR mouse reporting on and bracketed paste
// off, so pasted text reaches the focused child unwrapped.
func (c *Controller) enableMouseAndPaste() {
	fmt.Fprint(c.stdout, "\x1b[?1006h\x1b[?1000h\x1b[?2004l")
}

func (c *Controller) disableMouseAndPaste() {
	fmt.Fprint(c.stdout, "\x1b[?25h\x1b[?1006l\x1b[?1000l\x1b[?2004l\x1b[0m")
}
