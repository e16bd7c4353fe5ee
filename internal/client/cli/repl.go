package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn(ctx context.Context) bool
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	WhoAmI(ctx context.Context) error
	Pending(ctx context.Context) error
	Approved(ctx context.Context) error
	Show(ctx context.Context, id int64) error
	Submit(ctx context.Context) error
	Approve(ctx context.Context, id int64) error
	Reject(ctx context.Context, id int64) error
	Advance(ctx context.Context, id int64) error
	Upload(ctx context.Context, id int64, path string) error
	Notifications(ctx context.Context) error
	Dashboard(ctx context.Context) error
	Retry(ctx context.Context) error
}

const (
	helpGuest  = "Available commands: login, help, exit"
	helpSigned = "Available commands: pending, approved, show <id>, submit, approve <id>, reject <id>, " +
		"advance <id>, upload <id> <path>, notifications, dashboard, retry, whoami, logout, help, exit"
)

// runREPL starts a simple read–eval–print loop for the eventdesk CLI.
//
// It reads a line from in, parses the first token as the command and
// dispatches to methods on a. The loop exits on EOF or when the user types
// "exit" or "quit". Commands other than help, login and exit need a
// session.
//
// Any errors returned by command handlers are ignored here; handlers report
// their own errors. This keeps the REPL loop resilient and focused on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func(context.Context) string, in *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("events %s > ", statusFn(ctx)))
		line, err := in.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || strings.TrimSpace(line) == "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn(ctx) {
				printlnFn(helpSigned)
			} else {
				printlnFn(helpGuest)
			}
			continue
		case "login":
			_ = a.Login(ctx)
			continue
		case "exit", "quit":
			printlnFn("Bye!")
			return
		}

		if !a.isLoggedIn(ctx) {
			if isCommand(cmd) {
				printlnFn("Please login first.")
			} else {
				printlnFn("Unknown command:", cmd)
			}
			continue
		}

		switch cmd {
		case "logout":
			_ = a.Logout(ctx)
		case "whoami":
			_ = a.WhoAmI(ctx)
		case "p", "pending":
			_ = a.Pending(ctx)
		case "a", "approved":
			_ = a.Approved(ctx)
		case "submit":
			_ = a.Submit(ctx)
		case "notifications":
			_ = a.Notifications(ctx)
		case "dashboard":
			_ = a.Dashboard(ctx)
		case "retry":
			_ = a.Retry(ctx)

		case "show", "approve", "reject", "advance":
			id, ok := parseID(cmd, args)
			if !ok {
				continue
			}
			switch cmd {
			case "show":
				_ = a.Show(ctx, id)
			case "approve":
				_ = a.Approve(ctx, id)
			case "reject":
				_ = a.Reject(ctx, id)
			case "advance":
				_ = a.Advance(ctx, id)
			}

		case "upload":
			if len(args) < 2 {
				printlnFn("Usage: upload <id> <path>")
				continue
			}
			id, ok := parseID(cmd, args[:1])
			if !ok {
				continue
			}
			_ = a.Upload(ctx, id, strings.Join(args[1:], " "))

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}

var commands = map[string]bool{
	"logout": true, "whoami": true, "p": true, "pending": true, "a": true, "approved": true,
	"show": true, "submit": true, "approve": true, "reject": true, "advance": true,
	"upload": true, "notifications": true, "dashboard": true, "retry": true,
}

func isCommand(cmd string) bool { return commands[cmd] }

func parseID(cmd string, args []string) (int64, bool) {
	if len(args) == 0 {
		printlnFn(fmt.Sprintf("Usage: %s <id>", cmd))
		return 0, false
	}
	id, err := strconv.ParseInt(strings.TrimPrefix(args[0], "#"), 10, 64)
	if err != nil || id <= 0 {
		printlnFn("Invalid event id:", args[0])
		return 0, false
	}
	return id, true
}
