package cli

import (
	"bufio"
	"context"
	"errors"
	"strings"
	"testing"
)

type fakeExec struct {
	calls []string
	args  []string

	failDelete bool
}

func (f *fakeExec) Paste(ctx context.Context, scanner *bufio.Scanner) error {
	f.calls = append(f.calls, "paste")
	// Consume the pasted block the way the real handler does.
	for scanner.Scan() {
		if strings.TrimSpace(scanner.Text()) == "" {
			break
		}
	}
	return nil
}
func (f *fakeExec) AddFiles(ctx context.Context, paths []string) error {
	f.calls = append(f.calls, "add")
	f.args = paths
	return nil
}
func (f *fakeExec) List(ctx context.Context) error { f.calls = append(f.calls, "list"); return nil }
func (f *fakeExec) More(ctx context.Context) error { f.calls = append(f.calls, "more"); return nil }
func (f *fakeExec) Stats(ctx context.Context) error {
	f.calls = append(f.calls, "stats")
	return nil
}
func (f *fakeExec) Refresh(ctx context.Context) error {
	f.calls = append(f.calls, "refresh")
	return nil
}
func (f *fakeExec) Delete(ctx context.Context, id string) error {
	f.calls = append(f.calls, "del")
	f.args = []string{id}
	if f.failDelete {
		return errors.New("not found")
	}
	return nil
}
func (f *fakeExec) Anonymize(ctx context.Context, id string, value bool) error {
	f.calls = append(f.calls, "anon")
	f.args = []string{id}
	if value {
		f.args = append(f.args, "on")
	} else {
		f.args = append(f.args, "off")
	}
	return nil
}
func (f *fakeExec) Process(ctx context.Context) error {
	f.calls = append(f.calls, "process")
	return nil
}

func muteOutput(t *testing.T) {
	t.Helper()
	origPrint := printlnFn
	printlnFn = func(...any) (int, error) { return 0, nil }
	t.Cleanup(func() { printlnFn = origPrint })
}

func TestRunREPL_DispatchesCommands(t *testing.T) {
	muteOutput(t)

	input := strings.NewReader(strings.Join([]string{
		"help",
		"paste",
		"https://example.com",
		"",
		"add a.pdf b.pdf",
		"list",
		"more",
		"stats",
		"refresh",
		"anon 42 on",
		"process",
		"foobar",
		"exit",
	}, "\n"))

	exec := &fakeExec{}
	sc := bufio.NewScanner(input)

	runREPL(context.Background(), exec, sc)

	want := []string{"paste", "add", "list", "more", "stats", "refresh", "anon", "process"}
	if len(exec.calls) != len(want) {
		t.Fatalf("calls mismatch: got %v, want %v", exec.calls, want)
	}
	for i, c := range exec.calls {
		if c != want[i] {
			t.Fatalf("calls mismatch at %d: got %v, want %v", i, exec.calls, want)
		}
	}
}

func TestRunREPL_UsageErrorsSkipDispatch(t *testing.T) {
	muteOutput(t)

	input := strings.NewReader(strings.Join([]string{
		"add",
		"del",
		"del a b",
		"anon 42",
		"anon 42 maybe",
		"quit",
	}, "\n"))

	exec := &fakeExec{}
	sc := bufio.NewScanner(input)

	runREPL(context.Background(), exec, sc)

	if len(exec.calls) != 0 {
		t.Fatalf("unexpected calls: %v", exec.calls)
	}
}

func TestRunREPL_HandlerErrorsKeepLoopAlive(t *testing.T) {
	muteOutput(t)

	input := strings.NewReader("del 42\nlist\nexit\n")
	exec := &fakeExec{failDelete: true}
	sc := bufio.NewScanner(input)

	runREPL(context.Background(), exec, sc)

	want := []string{"del", "list"}
	if len(exec.calls) != len(want) {
		t.Fatalf("calls mismatch: got %v, want %v", exec.calls, want)
	}
}

func TestRunREPL_ExitsOnEOF(t *testing.T) {
	muteOutput(t)

	input := strings.NewReader("list\n")
	exec := &fakeExec{}
	sc := bufio.NewScanner(input)

	runREPL(context.Background(), exec, sc)

	if len(exec.calls) != 1 || exec.calls[0] != "list" {
		t.Fatalf("unexpected calls: %v", exec.calls)
	}
}
