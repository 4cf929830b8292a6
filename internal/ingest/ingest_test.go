package ingest

import (
	"bytes"
	"strings"
	"testing"
)

func TestReaderNext(t *testing.T) {
	input := "alpha\nbravo\ncharlie\n"
	r := NewReader(strings.NewReader(input))

	var lines []string
	for {
		line, ok, err := r.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if !ok {
			break
		}
		lines = append(lines, string(line))
	}

	want := []string{"alpha", "bravo", "charlie"}
	if len(lines) != len(want) {
		t.Fatalf("got %v, want %v", lines, want)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestReaderNextEmpty(t *testing.T) {
	r := NewReader(strings.NewReader(""))
	_, ok, err := r.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if ok {
		t.Fatal("Next on empty input returned ok=true")
	}
}

func TestEstimateCount(t *testing.T) {
	// 1000 lines of "x\n" each, sampled in full since it's under the cap.
	var buf bytes.Buffer
	for i := 0; i < 1000; i++ {
		buf.WriteString("x\n")
	}
	data := buf.Bytes()

	count, err := EstimateCount(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("EstimateCount: %v", err)
	}
	if count != 1000 {
		t.Fatalf("EstimateCount = %d, want 1000", count)
	}
}

func TestEstimateCountRewinds(t *testing.T) {
	data := []byte("a\nb\nc\n")
	r := bytes.NewReader(data)

	if _, err := EstimateCount(r, int64(len(data))); err != nil {
		t.Fatalf("EstimateCount: %v", err)
	}

	rest := make([]byte, len(data))
	n, err := r.Read(rest)
	if err != nil {
		t.Fatalf("reading after EstimateCount: %v", err)
	}
	if n != len(data) || !bytes.Equal(rest, data) {
		t.Fatalf("reader not rewound: got %q, want %q", rest[:n], data)
	}
}

func TestEstimateCountEmpty(t *testing.T) {
	count, err := EstimateCount(bytes.NewReader(nil), 0)
	if err != nil {
		t.Fatalf("EstimateCount: %v", err)
	}
	if count != 0 {
		t.Fatalf("EstimateCount on empty input = %d, want 0", count)
	}
}
