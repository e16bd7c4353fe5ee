package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeExec struct {
	loggedIn bool

	calls []string
}

func (f *fakeExec) record(s string) error {
	f.calls = append(f.calls, s)
	return nil
}

func (f *fakeExec) isLoggedIn(context.Context) bool { return f.loggedIn }
func (f *fakeExec) Login(context.Context) error {
	f.loggedIn = true
	return f.record("login")
}
func (f *fakeExec) Logout(context.Context) error {
	f.loggedIn = false
	return f.record("logout")
}
func (f *fakeExec) WhoAmI(context.Context) error        { return f.record("whoami") }
func (f *fakeExec) Pending(context.Context) error       { return f.record("pending") }
func (f *fakeExec) Approved(context.Context) error      { return f.record("approved") }
func (f *fakeExec) Submit(context.Context) error        { return f.record("submit") }
func (f *fakeExec) Notifications(context.Context) error { return f.record("notifications") }
func (f *fakeExec) Dashboard(context.Context) error     { return f.record("dashboard") }
func (f *fakeExec) Retry(context.Context) error         { return f.record("retry") }
func (f *fakeExec) Show(_ context.Context, id int64) error {
	return f.record(fmt.Sprintf("show %d", id))
}
func (f *fakeExec) Approve(_ context.Context, id int64) error {
	return f.record(fmt.Sprintf("approve %d", id))
}
func (f *fakeExec) Reject(_ context.Context, id int64) error {
	return f.record(fmt.Sprintf("reject %d", id))
}
func (f *fakeExec) Advance(_ context.Context, id int64) error {
	return f.record(fmt.Sprintf("advance %d", id))
}
func (f *fakeExec) Upload(_ context.Context, id int64, path string) error {
	return f.record(fmt.Sprintf("upload %d %s", id, path))
}

func captureOutput(t *testing.T) *[]string {
	t.Helper()
	var lines []string
	orig := printlnFn
	printlnFn = func(a ...any) (int, error) {
		lines = append(lines, fmt.Sprint(a...))
		return 0, nil
	}
	t.Cleanup(func() { printlnFn = orig })
	return &lines
}

func script(lines ...string) *bufio.Reader {
	return bufio.NewReader(strings.NewReader(strings.Join(lines, "\n")))
}

func status(context.Context) string { return "(test)" }

func TestRunREPL_LoginFlowAndCommands(t *testing.T) {
	captureOutput(t)

	exec := &fakeExec{}
	runREPL(context.Background(), exec, status, script(
		"help",
		"pending",
		"login",
		"help",
		"p",
		"approved",
		"show 12",
		"approve #12",
		"reject 13",
		"advance 14",
		"upload 15 /tmp/poster final.png",
		"notifications",
		"dashboard",
		"retry",
		"whoami",
		"foobar",
		"logout",
		"exit",
	))

	assert.Equal(t, []string{
		"login", "pending", "approved", "show 12", "approve 12", "reject 13", "advance 14",
		"upload 15 /tmp/poster final.png", "notifications", "dashboard", "retry", "whoami", "logout",
	}, exec.calls)
}

func TestRunREPL_GuestGate(t *testing.T) {
	out := captureOutput(t)

	exec := &fakeExec{}
	runREPL(context.Background(), exec, status, script("approve 1", "nonsense", "quit"))

	assert.Empty(t, exec.calls)
	assert.Contains(t, *out, "Please login first.")
	assert.Contains(t, *out, "Unknown command:nonsense")
	assert.Contains(t, *out, "Bye!")
}

func TestRunREPL_Usage(t *testing.T) {
	out := captureOutput(t)

	exec := &fakeExec{loggedIn: true}
	runREPL(context.Background(), exec, status, script("show", "approve abc", "reject -3", "upload 4", "quit"))

	assert.Empty(t, exec.calls)
	assert.Contains(t, *out, "Usage: show <id>")
	assert.Contains(t, *out, "Invalid event id:abc")
	assert.Contains(t, *out, "Invalid event id:-3")
	assert.Contains(t, *out, "Usage: upload <id> <path>")
}

func TestRunREPL_EOFRunsLastLine(t *testing.T) {
	captureOutput(t)

	exec := &fakeExec{loggedIn: true}
	runREPL(context.Background(), exec, status, script("whoami"))

	assert.Equal(t, []string{"whoami"}, exec.calls)
}
