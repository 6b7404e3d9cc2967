//go:build !windows

package controller

import (
	"os"
	"os/signal"
	"syscall"
)

// notifyWinch wires ch to SIGWINCH, the Unix terminal-resize signal.
func notifyWinch(ch chan<- os.Signal) {
	signal.Notify(ch, syscall.SIGWINCH)
}
