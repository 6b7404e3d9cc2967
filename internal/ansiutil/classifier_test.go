package ansiutil

import "testing"

func TestStripSGR_RemovesColourCodes(t *testing.T) {
	got := StripSGR("\x1b[31mred\x1b[0m plain \x1b[1;32mbold green\x1b[m")
	want := "red plain bold green"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestStripSGR_Idempotent(t *testing.T) {
	s := "\x1b[31mred\x1b[0m"
	once := StripSGR(s)
	twice := StripSGR(once)
	if once != twice {
		t.Fatalf("StripSGR not idempotent: %q != %q", once, twice)
	}
}

func TestNotSimpleLog_PlainTextAndSGR(t *testing.T) {
	if NotSimpleLog("hello \x1b[31mworld\x1b[0m\n") {
		t.Fatal("plain text with SGR should be a simple log")
	}
}

func TestNotSimpleLog_CursorMove(t *testing.T) {
	if !NotSimpleLog("\x1b[2Aclobber") {
		t.Fatal("cursor-up sequence should mark output as not a simple log")
	}
}

func TestNotSimpleLog_PermitsDeviceStatusReportAndShowCursor(t *testing.T) {
	if NotSimpleLog("\x1b[6n") {
		t.Fatal("device status report must be permitted")
	}
	if NotSimpleLog("\x1b[?25h") {
		t.Fatal("show-cursor must be permitted")
	}
}

func TestNotSimpleLog_RejectsPrivateModeSequenceEndingInM(t *testing.T) {
	if !NotSimpleLog("\x1b[?1049m") {
		t.Fatal("a non-SGR private-mode sequence ending in 'm' must not be exempted as SGR")
	}
}

func TestLastLine_AfterNewline(t *testing.T) {
	got := LastLine("first\nsecond\rthird")
	if got != "third" {
		t.Fatalf("got %q", got)
	}
}

func TestLastLine_ConsumesLeadingReset(t *testing.T) {
	got := LastLine("one\n\x1b[0mtwo")
	if got != "two" {
		t.Fatalf("got %q", got)
	}
}

func TestParseMouse_Down(t *testing.T) {
	ev, ok := ParseMouse("\x1b[<0;10;5M")
	if !ok {
		t.Fatal("expected a mouse event")
	}
	if ev.Kind != MouseDown || ev.X != 9 || ev.Y != 4 {
		t.Fatalf("got %+v", ev)
	}
}

func TestParseMouse_Up(t *testing.T) {
	ev, ok := ParseMouse("\x1b[<0;1;1m")
	if !ok {
		t.Fatal("expected a mouse event")
	}
	if ev.Kind != MouseUp || ev.X != 0 || ev.Y != 0 {
		t.Fatalf("got %+v", ev)
	}
}

func TestParseMouse_None(t *testing.T) {
	if _, ok := ParseMouse("plain text"); ok {
		t.Fatal("expected no mouse event")
	}
}

func TestParseMouse_IgnoresNonZeroButtonCodes(t *testing.T) {
	for _, s := range []string{"\x1b[<64;10;5M", "\x1b[<65;10;5M", "\x1b[<32;10;5M"} {
		if _, ok := ParseMouse(s); ok {
			t.Fatalf("ParseMouse(%q): expected scroll/drag report to be ignored", s)
		}
	}
}

func TestTruncate_RoundTripPreservesStrippedContent(t *testing.T) {
	s := "\x1b[31mhello world this is long\x1b[0m"
	w := 10
	got := Truncate(s, w)
	strippedOnce := StripSGR(got)
	strippedTwice := StripSGR(Truncate(StripSGR(s), w))
	if strippedOnce != strippedTwice {
		t.Fatalf("stripped truncation %q differs from truncated strip %q", strippedOnce, strippedTwice)
	}
}

func TestOnAlternateScreen(t *testing.T) {
	if OnAlternateScreen("plain text") {
		t.Fatal("no alt-screen markers present")
	}
	if !OnAlternateScreen("before" + EnableAlternateScreen + "after") {
		t.Fatal("expected on alternate screen")
	}
	if OnAlternateScreen(EnableAlternateScreen + "mid" + DisableAlternateScreen) {
		t.Fatal("expected not on alternate screen after disable")
	}
}
