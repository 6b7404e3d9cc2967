// Package render turns Controller and Command state into the byte
// strings written to the host terminal: the dashboard table, the
// focused-command scrollback header, and the three bottom status panels
// (running, killing, exited).
//
// Every function here is a pure string builder, in the same spirit as
// the teacher's internal/ui package (footer.go, styles.go): colours and
// borders come from github.com/charmbracelet/lipgloss styles built once
// at package init, and width accounting goes through
// github.com/charmbracelet/x/ansi plus github.com/unilibs/uniwidth so
// wide/emoji runes are measured the same way the teacher's footer
// right-alignment logic does it.
package render

import (
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/unilibs/uniwidth"

	"github.com/lydell/run-pty/internal/ansiutil"
	"github.com/lydell/run-pty/internal/command"
	"github.com/lydell/run-pty/internal/labels"
)

// NoColor mirrors the NO_COLOR convention (https://no-color.org): any
// non-empty value disables all colour and switches emoji indicators to
// single-character ASCII markers, same as the Windows code path (ConPTY
// consoles historically mis-measure emoji width).
func NoColor() bool {
	return os.Getenv("NO_COLOR") != ""
}

func asciiIcons() bool {
	return NoColor() || runtime.GOOS == "windows"
}

var (
	colorGreen  = lipgloss.Color("2")
	colorYellow = lipgloss.Color("3")
	colorRed    = lipgloss.Color("1")
	colorGray   = lipgloss.Color("8")

	styleRunning  = lipgloss.NewStyle().Foreground(colorGreen)
	styleKilling  = lipgloss.NewStyle().Foreground(colorYellow)
	styleExitOK   = lipgloss.NewStyle().Foreground(colorGray)
	styleExitFail = lipgloss.NewStyle().Foreground(colorRed)
	styleDim      = lipgloss.NewStyle().Foreground(colorGray)
	styleReverse  = lipgloss.NewStyle().Reverse(true)
)

func style(s lipgloss.Style, text string) string {
	if NoColor() {
		return text
	}
	return s.Render(text)
}

// icon returns the bare status glyph for a command; callers that place
// more text after it on the same line must follow it with iconFixup()
// to compensate for double-width emoji rendering, per the spec's
// platform variant.
func icon(snap command.Snapshot) string {
	switch snap.Phase {
	case command.PhaseRunning:
		if asciiIcons() {
			return style(styleRunning, "›") // ›
		}
		return "\U0001F7E2" // 🟢
	case command.PhaseKilling:
		if asciiIcons() {
			return style(styleKilling, "○") // ○
		}
		return "⭕" // ⭕
	default: // PhaseExit
		if snap.ExitCode == 0 || snap.ExitCode == 130 {
			if asciiIcons() {
				return style(styleExitOK, "●") // ●
			}
			return "⚪" // ⚪
		}
		if asciiIcons() {
			return style(styleExitFail, "×") // ×
		}
		return "\U0001F534" // 🔴
	}
}

func iconWidth() int {
	if asciiIcons() {
		return 1
	}
	return 2
}

// iconFixup emits the cursor-column correction §4.4 calls for: a real
// Unix/colour emoji icon occupies iconWidth() columns by this package's
// own layout accounting, but many terminals draw it narrower than that,
// so the cursor is nudged forward by the difference right after the
// glyph to keep whatever follows it aligned. ASCII icons are already
// exactly iconWidth() columns wide and need no correction.
func iconFixup() string {
	if asciiIcons() {
		return ""
	}
	return ansi.CursorForward(iconWidth() - 1)
}

// statusText renders status_from_rules, in its ASCII form when
// asciiIcons() holds, or "" when there is none.
func statusText(snap command.Snapshot) string {
	if snap.StatusFromRules == nil {
		return ""
	}
	if asciiIcons() {
		return snap.StatusFromRules.ASCII
	}
	return snap.StatusFromRules.Unicode
}

func displayWidth(s string) int {
	return uniwidth.StringWidth(ansiutil.StripSGR(s))
}

// Selection mirrors the Controller's selection tagged union, expressed
// here only as what the renderer needs: a visible index, or none.
type Selection struct {
	Visible bool
	Index   int
}

// Row is the data the dashboard needs about one command; Controller owns
// the canonical Command, this is the read-only slice passed to the
// renderer each frame.
type Row struct {
	Label string
	Snap  command.Snapshot
	Title string
}

// DrawDashboardCommandLines renders just the per-command lines (no
// footer) for DrawDashboard. The InputRouter's mouse handling does not
// use these lines: it maps a click to a command by its row alone, without
// checking the line's width.
func DrawDashboardCommandLines(rows []Row, width int, sel Selection) []string {
	statusWidth := 0
	for _, r := range rows {
		if w := displayWidth(statusText(r.Snap)); w > statusWidth {
			statusWidth = w
		}
	}

	lines := make([]string, len(rows))
	for i, r := range rows {
		label := r.Label
		if label == "" {
			label = " "
		}
		st := statusText(r.Snap)
		padded := st + strings.Repeat(" ", statusWidth-displayWidth(st))
		line := fmt.Sprintf("%s  %s%s  %s  %s", label, icon(r.Snap), iconFixup(), padded, r.Title)
		line = ansiutil.Truncate(line, width)

		if sel.Visible && sel.Index == i {
			if NoColor() {
				line = "→ " + line
			} else {
				line = style(styleReverse, line)
			}
		}
		lines[i] = line
	}
	return lines
}

// DrawDashboard renders the full dashboard view: the command table plus
// the contextual footer of key-action hints.
func DrawDashboard(rows []Row, width int, attemptedKillAll bool, sel Selection) string {
	lines := DrawDashboardCommandLines(rows, width, sel)
	body := strings.Join(lines, "\n")

	allExited := true
	anyExited := false
	anyKilling := false
	for _, r := range rows {
		if r.Snap.Phase != command.PhaseExit {
			allExited = false
		} else {
			anyExited = true
		}
		if r.Snap.Phase == command.PhaseKilling {
			anyKilling = true
		}
	}

	if attemptedKillAll && allExited {
		return body + "\n"
	}

	killAllLabel := "kill all"
	switch {
	case allExited:
		killAllLabel = "exit"
	case anyKilling:
		killAllLabel = "kill all (double-press to force)"
	}

	var footer []string
	footer = append(footer, style(styleDim, labels.Summarize(len(rows))+" focus command"))
	footer = append(footer, style(styleDim, "ctrl+c "+killAllLabel))
	footer = append(footer, style(styleDim, "↑/↓ select"))
	footer = append(footer, style(styleDim, "enter open"))
	if anyExited {
		footer = append(footer, style(styleDim, "enter restart exited"))
	}
	if sel.Visible {
		pid := 0
		if sel.Index >= 0 && sel.Index < len(rows) {
			pid = rows[sel.Index].Snap.PID
		}
		footer = append(footer, style(styleDim, fmt.Sprintf("enter focus (pid %d)", pid)))
		footer = append(footer, style(styleDim, "esc unselect"))
	}

	return body + "\n" + strings.Join(footer, "  ") + "\n"
}

// HistoryStart renders the header written to a Command's history
// immediately after start(): a one-line "icon title: command" summary,
// plus a "📂 cwd" line when cwd is neither "." nor the process cwd and
// does not occur anywhere in formattedCommandWithTitle. The bare title is
// not passed in, so a cwd that is a substring of the title or of the
// command also gets no cwd line.
func HistoryStart(label, formattedCommandWithTitle, cwd string) []byte {
	var b strings.Builder
	b.WriteString(icon(command.Snapshot{Phase: command.PhaseRunning})) // a freshly started command is always Running
	b.WriteString(iconFixup())
	b.WriteString(" ")
	b.WriteString(formattedCommandWithTitle)
	b.WriteString("\r\n")

	procCwd, _ := os.Getwd()
	if cwd != "" && cwd != "." && cwd != procCwd && !strings.Contains(formattedCommandWithTitle, cwd) {
		icon := "\U0001F4C2" // 📂
		if asciiIcons() {
			icon = "#"
		}
		b.WriteString(icon)
		b.WriteString(" ")
		b.WriteString(cwd)
		b.WriteString("\r\n")
	}
	return []byte(b.String())
}

const dashboardHint = "ctrl+z dashboard"

// RunningText is the bottom panel for a focused Running command.
func RunningText(pid int) string {
	return fmt.Sprintf("%s running (pid %d)\n%s  ctrl+c kill\n", style(styleRunning, "›"), pid, dashboardHint)
}

// KillingText is the bottom panel for a focused Killing command.
func KillingText(pid int) string {
	return fmt.Sprintf("%s killing (pid %d)\n%s  ctrl+c force kill\n", style(styleKilling, "○"), pid, dashboardHint)
}

// ExitText is the bottom panel for a focused Exit command; killAllLabel
// mirrors the dashboard's current kill-all label so the two views never
// disagree about what Ctrl-C means right now.
func ExitText(killAllLabel string, code int) string {
	marker := style(styleExitOK, "●")
	if code != 0 && code != 130 {
		marker = style(styleExitFail, "×")
	}
	return fmt.Sprintf("%s exit %d\n%s  enter restart  ctrl+c %s\n", marker, code, dashboardHint, killAllLabel)
}

// KillAllLabel computes the dashboard's kill-all footer label for reuse
// by ExitText, so a focused exited command's restart hint always agrees
// with what the dashboard would show right now.
func KillAllLabel(commands []command.Snapshot) string {
	allExited := true
	anyKilling := false
	for _, s := range commands {
		if s.Phase != command.PhaseExit {
			allExited = false
		}
		if s.Phase == command.PhaseKilling {
			anyKilling = true
		}
	}
	switch {
	case allExited:
		return "exit"
	case anyKilling:
		return "kill all (double-press to force)"
	default:
		return "kill all"
	}
}

// MoveBack emits enough cursor-up sequences to return to the top of a
// previously drawn n-line panel.
func MoveBack(n int) string {
	if n <= 0 {
		return ""
	}
	return ansi.CursorUp(n)
}

// Erase clears n lines starting from the cursor's current position,
// moving down one line at a time (the Controller calls MoveBack first).
func Erase(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		b.WriteString("\x1b[2K")
		if i < n-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}
