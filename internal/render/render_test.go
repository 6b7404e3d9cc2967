package render

import (
	"os"
	"strings"
	"testing"

	"github.com/lydell/run-pty/internal/command"
)

func withNoColor(t *testing.T) {
	t.Helper()
	old, had := os.LookupEnv("NO_COLOR")
	os.Setenv("NO_COLOR", "1")
	t.Cleanup(func() {
		if had {
			os.Setenv("NO_COLOR", old)
		} else {
			os.Unsetenv("NO_COLOR")
		}
	})
}

func TestDrawDashboard_TruncatesLongTitles(t *testing.T) {
	withNoColor(t)
	rows := []Row{
		{Label: "1", Snap: command.Snapshot{Phase: command.PhaseRunning}, Title: strings.Repeat("x", 200)},
	}
	out := DrawDashboardCommandLines(rows, 40, Selection{})
	if len(out) != 1 {
		t.Fatalf("got %d lines", len(out))
	}
	if displayWidth(out[0]) > 40 {
		t.Fatalf("line width %d exceeds 40: %q", displayWidth(out[0]), out[0])
	}
}

func TestDrawDashboard_KillAllLabelVariants(t *testing.T) {
	withNoColor(t)
	running := []Row{{Label: "1", Snap: command.Snapshot{Phase: command.PhaseRunning}}}
	out := DrawDashboard(running, 80, false, Selection{})
	if !strings.Contains(out, "kill all") || strings.Contains(out, "double-press") {
		t.Fatalf("expected plain kill-all hint, got %q", out)
	}

	killing := []Row{{Label: "1", Snap: command.Snapshot{Phase: command.PhaseKilling}}}
	out = DrawDashboard(killing, 80, false, Selection{})
	if !strings.Contains(out, "double-press to force") {
		t.Fatalf("expected double-press hint, got %q", out)
	}

	exited := []Row{{Label: "1", Snap: command.Snapshot{Phase: command.PhaseExit}}}
	out = DrawDashboard(exited, 80, false, Selection{})
	if !strings.Contains(out, "ctrl+c exit") {
		t.Fatalf("expected exit hint, got %q", out)
	}
}

func TestDrawDashboard_AttemptedKillAllAndAllExitedOmitsFooter(t *testing.T) {
	withNoColor(t)
	rows := []Row{{Label: "1", Snap: command.Snapshot{Phase: command.PhaseExit}}}
	out := DrawDashboard(rows, 80, true, Selection{})
	if strings.Contains(out, "focus command") {
		t.Fatalf("footer should be suppressed, got %q", out)
	}
	if !strings.HasSuffix(out, "\n") {
		t.Fatalf("expected a single trailing newline, got %q", out)
	}
}

func TestDrawDashboard_SelectionGetsArrowInNoColor(t *testing.T) {
	withNoColor(t)
	rows := []Row{
		{Label: "1", Snap: command.Snapshot{Phase: command.PhaseRunning}, Title: "a"},
		{Label: "2", Snap: command.Snapshot{Phase: command.PhaseRunning}, Title: "b"},
	}
	out := DrawDashboardCommandLines(rows, 80, Selection{Visible: true, Index: 1})
	if !strings.HasPrefix(out[1], "→ ") {
		t.Fatalf("expected arrow prefix on selected row, got %q", out[1])
	}
	if strings.HasPrefix(out[0], "→ ") {
		t.Fatalf("unselected row should not have an arrow, got %q", out[0])
	}
}

func TestHistoryStart_OmitsCwdLineWhenDefault(t *testing.T) {
	withNoColor(t)
	header := HistoryStart("1", "npm start", ".")
	if strings.Contains(string(header), "📂") || strings.Contains(string(header), "#") {
		t.Fatalf("default cwd should not get a cwd line, got %q", header)
	}
}

func TestHistoryStart_IncludesCwdLineWhenCustom(t *testing.T) {
	withNoColor(t)
	header := HistoryStart("1", "npm run build", "frontend")
	if !strings.Contains(string(header), "frontend") {
		t.Fatalf("expected cwd to appear in header, got %q", header)
	}
}

func TestExitText_MarksCleanExitCodesDistinctlyFromFailures(t *testing.T) {
	withNoColor(t)
	clean := ExitText("kill all", 0)
	ctrlC := ExitText("kill all", 130)
	failed := ExitText("kill all", 1)
	if !strings.Contains(clean, "exit 0") || !strings.Contains(ctrlC, "exit 130") || !strings.Contains(failed, "exit 1") {
		t.Fatalf("exit codes missing: %q %q %q", clean, ctrlC, failed)
	}
	if !strings.HasPrefix(clean, "●") || !strings.HasPrefix(ctrlC, "●") || !strings.HasPrefix(failed, "×") {
		t.Fatalf("expected ● for clean exits and × for failures: %q %q %q", clean, ctrlC, failed)
	}
}

func TestKillAllLabel_MatchesDashboard(t *testing.T) {
	snaps := []command.Snapshot{{Phase: command.PhaseRunning}, {Phase: command.PhaseKilling}}
	if got := KillAllLabel(snaps); got != "kill all (double-press to force)" {
		t.Fatalf("got %q", got)
	}
}
