//go:build windows

package controller

import (
	"os"
	"time"
)

// notifyWinch has no SIGWINCH equivalent on Windows; ConPTY consoles
// don't deliver a resize signal, so we poll at a human-imperceptible
// interval and let watchResize's rows/cols comparison (term.GetSize)
// suppress spurious redraws when nothing changed.
func notifyWinch(ch chan<- os.Signal) {
	go func() {
		t := time.NewTicker(250 * time.Millisecond)
		defer t.Stop()
		for range t.C {
			select {
			case ch <- os.Interrupt: // any os.Signal value works; never acted on as a real interrupt
			default:
			}
		}
	}()
}
