// Command run-pty is the CLI entry point: argument parsing, the stdin-TTY
// precondition, and the uncaught-fault sweep that SIGKILLs every child
// before exiting 1. Everything interactive lives in internal/controller.
package main

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/lydell/run-pty/internal/config"
	"github.com/lydell/run-pty/internal/controller"
	"github.com/lydell/run-pty/internal/rtlog"
)

func main() {
	os.Exit(run())
}

func run() int {
	result, err := config.ParseArgv(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if result.Help {
		printUsage()
		return 0
	}
	if len(result.Descriptions) == 0 {
		return 0
	}

	if !isatty.IsTerminal(os.Stdin.Fd()) {
		fmt.Fprintln(os.Stderr, "run-pty must be run in a terminal (stdin is not a TTY).")
		return 1
	}

	log, closeLog := rtlog.FromEnv()
	defer closeLog()

	ctrl := controller.New(result.Descriptions, os.Stdout, os.Stdin, log)

	defer func() {
		if r := recover(); r != nil {
			log.Error("uncaught panic, killing all children", "panic", fmt.Sprint(r))
			ctrl.KillAllAndExit()
			os.Exit(1)
		}
	}()

	return ctrl.Run()
}

func printUsage() {
	fmt.Print(`run-pty - run several commands concurrently, each in its own PTY

Usage:
  run-pty DELIMITER COMMAND1 [ARGS...] DELIMITER COMMAND2 [ARGS...] ...
  run-pty FILE
  run-pty -h | --help

Examples:
  run-pty % npm start % webpack-dev-server --entry /entry/file
  run-pty run-pty.json
  run-pty run-pty.ndjson

DELIMITER is any single argument repeated between commands (e.g. %). Two
or more args treats the first as that delimiter and splits the remaining
arguments into one command per run between occurrences of it. Exactly one
argument is instead treated as a path to a JSON (starts with "[") or
NDJSON (one JSON object per line, starts with "{") command-description
file; each object has the keys title, cwd, command (required), status
and defaultStatus.

Keyboard shortcuts:
  1-9, a-z, A-Z   switch to the labelled command
  ctrl+z          back to the dashboard
  ctrl+c          kill the focused command (or kill all from the
                  dashboard/an exited command; double-press to force)
  up/down, j/k    move the dashboard selection
  enter, o        open the selected command, or restart all exited
                  commands when nothing is selected
  esc             unselect

Environment variables:
  RUN_PTY_MAX_HISTORY   per-command scrollback cap in bytes (default 1000000)
  NO_COLOR              disable colour and emoji indicators
  RUN_PTY_DEBUG_LOG     write structured NDJSON diagnostics to this file
`)
}
