package input

import "testing"

func TestDashboard_CtrlCIsKillAll(t *testing.T) {
	a := Dashboard([]byte{0x03}, 3, false)
	if a.Kind != ActionKillAll {
		t.Fatalf("got %v", a.Kind)
	}
}

func TestDashboard_EnterWithHiddenSelectionRestartsExited(t *testing.T) {
	a := Dashboard([]byte{'\r'}, 3, false)
	if a.Kind != ActionRestartExited {
		t.Fatalf("got %v", a.Kind)
	}
}

func TestDashboard_EnterWithVisibleSelectionSwitches(t *testing.T) {
	a := Dashboard([]byte{'\r'}, 3, true)
	if a.Kind != ActionSwitchToCommand {
		t.Fatalf("got %v", a.Kind)
	}
}

func TestDashboard_ArrowKeysMoveSelection(t *testing.T) {
	up := Dashboard([]byte("\x1b[A"), 3, true)
	if up.Kind != ActionMoveSelection || up.Index != -1 {
		t.Fatalf("up = %+v", up)
	}
	down := Dashboard([]byte("\x1b[B"), 3, true)
	if down.Kind != ActionMoveSelection || down.Index != 1 {
		t.Fatalf("down = %+v", down)
	}
	jk := Dashboard([]byte("j"), 3, true)
	if jk.Kind != ActionMoveSelection || jk.Index != 1 {
		t.Fatalf("j = %+v", jk)
	}
}

func TestDashboard_EscapeHidesSelection(t *testing.T) {
	a := Dashboard([]byte{0x1b}, 3, true)
	if a.Kind != ActionHideSelection {
		t.Fatalf("got %v", a.Kind)
	}
}

func TestDashboard_LabelByteSwitchesAndHides(t *testing.T) {
	a := Dashboard([]byte("2"), 5, false)
	if a.Kind != ActionSwitchToCommand || a.Index != 1 || !a.HideOnJump {
		t.Fatalf("got %+v", a)
	}
}

func TestDashboard_MouseDownThenUp(t *testing.T) {
	down := Dashboard([]byte("\x1b[<0;5;3M"), 5, false)
	if down.Kind != ActionMousedown || down.Index != 2 {
		t.Fatalf("down = %+v", down)
	}
	up := Dashboard([]byte("\x1b[<0;5;3m"), 5, false)
	if up.Kind != ActionMouseup || up.Index != 2 {
		t.Fatalf("up = %+v", up)
	}
}

func TestFocused_CtrlZSwitchesToDashboardRegardlessOfPhase(t *testing.T) {
	a := Focused([]byte{0x1a}, PhaseRunningOrKilling, false)
	if a.Kind != ActionSwitchToDashboard {
		t.Fatalf("got %v", a.Kind)
	}
	a = Focused([]byte{0x1a}, PhaseExited, false)
	if a.Kind != ActionSwitchToDashboard {
		t.Fatalf("got %v", a.Kind)
	}
}

func TestFocused_ExitedEnterStarts(t *testing.T) {
	a := Focused([]byte{'\r'}, PhaseExited, false)
	if a.Kind != ActionStartFocused {
		t.Fatalf("got %v", a.Kind)
	}
}

func TestFocused_ExitedOtherBytesDiscarded(t *testing.T) {
	a := Focused([]byte("x"), PhaseExited, false)
	if a.Kind != ActionNone {
		t.Fatalf("got %v", a.Kind)
	}
}

func TestFocused_RunningCtrlCKills(t *testing.T) {
	a := Focused([]byte{0x03}, PhaseRunningOrKilling, false)
	if a.Kind != ActionKillFocused {
		t.Fatalf("got %v", a.Kind)
	}
}

func TestFocused_KillingAnythingElseRevivesThenWrites(t *testing.T) {
	a := Focused([]byte("x"), PhaseRunningOrKilling, true)
	if a.Kind != ActionReviveKillingThenWrite || string(a.Bytes) != "x" {
		t.Fatalf("got %+v", a)
	}
}

func TestFocused_RunningPassesBytesThrough(t *testing.T) {
	a := Focused([]byte("hello"), PhaseRunningOrKilling, false)
	if a.Kind != ActionWriteToFocused || string(a.Bytes) != "hello" {
		t.Fatalf("got %+v", a)
	}
}
