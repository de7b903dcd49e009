package procman

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestNewRollingBufferRejectsNonPositiveCapacity(t *testing.T) {
	for _, maxLines := range []int{0, -1, -100} {
		if _, err := NewRollingBuffer(maxLines); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("NewRollingBuffer(%d): expected ErrInvalidArgument, got %v", maxLines, err)
		}
	}
}

func TestRollingBufferKeepsLastLinesInOrder(t *testing.T) {
	for _, maxLines := range []int{1, 3, 10} {
		for additions := 0; additions <= 25; additions++ {
			b, err := NewRollingBuffer(maxLines)
			if err != nil {
				t.Fatalf("NewRollingBuffer(%d): %v", maxLines, err)
			}
			for i := 0; i < additions; i++ {
				b.Add(fmt.Sprintf("line-%d", i))
			}

			want := additions
			if want > maxLines {
				want = maxLines
			}
			if got := b.Len(); got != want {
				t.Fatalf("maxLines=%d additions=%d: Len() = %d, want %d", maxLines, additions, got, want)
			}

			lines := b.Lines()
			if len(lines) != want {
				t.Fatalf("maxLines=%d additions=%d: got %d lines, want %d", maxLines, additions, len(lines), want)
			}
			for i, line := range lines {
				expected := fmt.Sprintf("line-%d", additions-want+i)
				if line != expected {
					t.Fatalf("maxLines=%d additions=%d: lines[%d] = %q, want %q",
						maxLines, additions, i, line, expected)
				}
			}
		}
	}
}

func TestRollingBufferString(t *testing.T) {
	b, err := NewRollingBuffer(3)
	if err != nil {
		t.Fatal(err)
	}

	if got := b.String(); got != "" {
		t.Errorf("empty buffer String() = %q, want empty", got)
	}

	b.Add("one")
	if got := b.String(); got != "one" {
		t.Errorf("String() = %q, want %q", got, "one")
	}

	b.Add("two")
	b.Add("three")
	b.Add("four") // evicts "one"
	want := "two\nthree\nfour"
	if got := b.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	if strings.Count(b.String(), "\n") != 2 {
		t.Errorf("expected 2 newlines in %q", b.String())
	}
}

func TestRollingBufferLinesIsSnapshot(t *testing.T) {
	b, err := NewRollingBuffer(2)
	if err != nil {
		t.Fatal(err)
	}
	b.Add("a")

	snapshot := b.Lines()
	b.Add("b")
	b.Add("c")

	if len(snapshot) != 1 || snapshot[0] != "a" {
		t.Errorf("snapshot mutated by later Add: %v", snapshot)
	}
}
