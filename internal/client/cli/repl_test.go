package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeExec struct {
	calls []string
	err   error
}

func (f *fakeExec) record(name string, args []string) error {
	f.calls = append(f.calls, strings.TrimSpace(name+" "+strings.Join(args, " ")))
	return f.err
}

func (f *fakeExec) Help(_ context.Context, a []string) error     { return f.record("help", a) }
func (f *fakeExec) Token(_ context.Context, a []string) error    { return f.record("token", a) }
func (f *fakeExec) Reviewer(_ context.Context, a []string) error { return f.record("reviewer", a) }
func (f *fakeExec) Cases(_ context.Context, a []string) error    { return f.record("cases", a) }
func (f *fakeExec) Show(_ context.Context, a []string) error     { return f.record("show", a) }
func (f *fakeExec) New(_ context.Context, a []string) error      { return f.record("new", a) }
func (f *fakeExec) Status(_ context.Context, a []string) error   { return f.record("status", a) }
func (f *fakeExec) Answer(_ context.Context, a []string) error   { return f.record("answer", a) }
func (f *fakeExec) Checklist(_ context.Context, a []string) error {
	return f.record("checklist", a)
}
func (f *fakeExec) Photo(_ context.Context, a []string) error { return f.record("photo", a) }
func (f *fakeExec) Video(_ context.Context, a []string) error { return f.record("video", a) }
func (f *fakeExec) RemoveMedia(_ context.Context, a []string) error {
	return f.record("rm-media", a)
}
func (f *fakeExec) Media(_ context.Context, a []string) error { return f.record("media", a) }
func (f *fakeExec) RetryMedia(_ context.Context, a []string) error {
	return f.record("retry-media", a)
}
func (f *fakeExec) Sync(_ context.Context, a []string) error  { return f.record("sync", a) }
func (f *fakeExec) Pull(_ context.Context, a []string) error  { return f.record("pull", a) }
func (f *fakeExec) Queue(_ context.Context, a []string) error { return f.record("queue", a) }
func (f *fakeExec) Dead(_ context.Context, a []string) error  { return f.record("dead", a) }
func (f *fakeExec) Retry(_ context.Context, a []string) error { return f.record("retry", a) }

func captureOutput(t *testing.T) *[]string {
	t.Helper()
	var lines []string
	orig := printlnFn
	printlnFn = func(a ...any) (int, error) {
		lines = append(lines, strings.TrimSpace(fmt.Sprintln(a...)))
		return 0, nil
	}
	t.Cleanup(func() { printlnFn = orig })
	return &lines
}

func TestRunREPL_DispatchesCommands(t *testing.T) {
	out := captureOutput(t)
	f := &fakeExec{}

	input := strings.Join([]string{
		"help",
		"",
		"cases in_progress",
		"answer c1 q_brakes good needs pads",
		"photo c1 - /tmp/a.jpg",
		"rm-media m1",
		"retry-media m1",
		"sync",
		"frobnicate",
		"exit",
		"cases",
	}, "\n")

	runREPL(context.Background(), f, func() string { return "(offline)" }, rdr(input))

	assert.Equal(t, []string{
		"help",
		"cases in_progress",
		"answer c1 q_brakes good needs pads",
		"photo c1 - /tmp/a.jpg",
		"rm-media m1",
		"retry-media m1",
		"sync",
	}, f.calls)
	assert.Contains(t, *out, "fs (offline)>")
	assert.Contains(t, *out, "Unknown command: frobnicate")
	assert.Equal(t, "Bye!", (*out)[len(*out)-1])
}

func TestRunREPL_PrintsErrorsAndUsage(t *testing.T) {
	out := captureOutput(t)

	runREPL(context.Background(), &fakeExec{err: errUsage}, func() string { return "" }, rdr("show\n"))
	assert.Contains(t, *out, "Usage: show <case>")

	runREPL(context.Background(), &fakeExec{err: errors.New("boom")}, func() string { return "" }, rdr("pull"))
	assert.Contains(t, *out, "Error: boom")
}

func TestRunREPL_StopsOnCancel(t *testing.T) {
	captureOutput(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := &fakeExec{}
	runREPL(ctx, f, func() string { return "" }, rdr("help\n"))
	assert.Empty(t, f.calls)
}
