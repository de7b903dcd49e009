package procman

import (
	"errors"
	"strings"
	"testing"
)

func TestBuilderRejectsEmptyExecutable(t *testing.T) {
	if _, err := NewBuilder("").Build(); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestBuilderRejectsNegativeConsoleBuffer(t *testing.T) {
	_, err := NewBuilder("true").SetConsoleBufferMaxLines(-1).Build()
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestBuilderDefaults(t *testing.T) {
	p, err := NewBuilder("true").Build()
	if err != nil {
		t.Fatal(err)
	}

	if p.consoleBufferMaxLines != defaultConsoleBufferMaxLines {
		t.Errorf("console buffer default = %d, want %d", p.consoleBufferMaxLines, defaultConsoleBufferMaxLines)
	}
	if !p.successExit(0) || p.successExit(1) {
		t.Error("default success checker must accept exactly zero")
	}
	if p.logger == nil || p.dispatcher == nil {
		t.Error("logger and dispatcher must have defaults")
	}
}

func TestBuilderArguments(t *testing.T) {
	p, err := NewBuilder("mysqld", "--no-defaults").
		AddArgument("--port=3306").
		AddArguments("--skip-grant-tables", "--console").
		Build()
	if err != nil {
		t.Fatal(err)
	}

	want := []string{"--no-defaults", "--port=3306", "--skip-grant-tables", "--console"}
	if len(p.args) != len(want) {
		t.Fatalf("args = %v, want %v", p.args, want)
	}
	for i := range want {
		if p.args[i] != want[i] {
			t.Errorf("args[%d] = %q, want %q", i, p.args[i], want[i])
		}
	}
}

func TestBuilderIsolatedFromLaterMutation(t *testing.T) {
	b := NewBuilder("echo", "one")
	p1, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	b.AddArgument("two").Setenv("K", "v2")
	if len(p1.args) != 1 {
		t.Errorf("built process saw later builder mutation: %v", p1.args)
	}
	if _, ok := p1.env["K"]; ok {
		t.Error("built process saw later env mutation")
	}
}

func TestProcLongName(t *testing.T) {
	p, err := NewBuilder("mysqld", "--no-defaults").
		SetWorkingDirectory("/var/lib/mysql").
		Build()
	if err != nil {
		t.Fatal(err)
	}

	long := p.getProcLongName()
	if !strings.Contains(long, "mysqld --no-defaults") {
		t.Errorf("long name missing command line: %q", long)
	}
	if !strings.Contains(long, "/var/lib/mysql") {
		t.Errorf("long name missing working directory: %q", long)
	}
}

func TestEnvironMerge(t *testing.T) {
	if env := environ(nil); env != nil {
		t.Errorf("no overrides should inherit parent env as-is, got %d entries", len(env))
	}

	env := environ(map[string]string{"PROCMAN_TEST_KEY": "value-1"})
	found := false
	for _, kv := range env {
		if kv == "PROCMAN_TEST_KEY=value-1" {
			found = true
		}
	}
	if !found {
		t.Error("override missing from merged environment")
	}
	if len(env) < 2 {
		t.Error("merged environment lost the parent variables")
	}
}

func TestDefaultLogDispatcher(t *testing.T) {
	if level, ok := defaultLogDispatcher(StdOut, "x"); !ok || level.String() != "INFO" {
		t.Errorf("stdout dispatch = (%v, %t), want (INFO, true)", level, ok)
	}
	if level, ok := defaultLogDispatcher(StdErr, "x"); !ok || level.String() != "ERROR" {
		t.Errorf("stderr dispatch = (%v, %t), want (ERROR, true)", level, ok)
	}
}
