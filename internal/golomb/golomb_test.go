package golomb

import (
	"bytes"
	"testing"

	"gcstool/internal/bitio"
)

func TestLog2Ceil(t *testing.T) {
	tests := []struct {
		p    uint64
		want uint8
	}{
		{1, 0},
		{2, 1},
		{16, 4},
		{17, 5},
		{19, 5},
		{1 << 24, 24},
	}
	for _, tc := range tests {
		if got := Log2Ceil(tc.p); got != tc.want {
			t.Errorf("Log2Ceil(%d) = %d, want %d", tc.p, got, tc.want)
		}
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		p    uint64
		vals []uint64
	}{
		{"p16 spec example", 16, []uint64{5, 7, 15}},
		{"p1 pure unary", 1, []uint64{0, 1, 2, 10}},
		{"p19 bip158-ish", 19, []uint64{0, 18, 19, 37, 1000}},
		{"non power of two", 1000, []uint64{0, 999, 1000, 500000}},
		{"large quotient spans chunks", 16, []uint64{1000, 100000, 5_000_000}},
		{"zero", 16, []uint64{0}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			enc, err := NewEncoder(bitio.NewWriter(&buf), tc.p)
			if err != nil {
				t.Fatalf("NewEncoder: %v", err)
			}
			for _, v := range tc.vals {
				if _, err := enc.Encode(v); err != nil {
					t.Fatalf("Encode(%d): %v", v, err)
				}
			}
			if _, err := enc.Flush(); err != nil {
				t.Fatalf("Flush: %v", err)
			}

			dec, err := NewDecoder(bitio.NewReader(bytes.NewReader(buf.Bytes())), tc.p)
			if err != nil {
				t.Fatalf("NewDecoder: %v", err)
			}
			for _, want := range tc.vals {
				got, err := dec.Decode()
				if err != nil {
					t.Fatalf("Decode: %v", err)
				}
				if got != want {
					t.Fatalf("Decode() = %d, want %d", got, want)
				}
			}
		})
	}
}

// TestE1PayloadBits checks the worked example's bit-level encoding
// directly: q=0 for every delta at P=16 means each codeword is exactly
// "0" followed by the 4-bit remainder.
func TestE1PayloadBits(t *testing.T) {
	var buf bytes.Buffer
	enc, err := NewEncoder(bitio.NewWriter(&buf), 16)
	if err != nil {
		t.Fatal(err)
	}

	deltas := []uint64{5, 7, 15}
	for _, d := range deltas {
		if _, err := enc.Encode(d); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := enc.Flush(); err != nil {
		t.Fatal(err)
	}

	r := bitio.NewReader(bytes.NewReader(buf.Bytes()))
	wantBits := []struct {
		nbits uint8
		value uint64
	}{
		{5, 0b00101}, // "0" + "0101"
		{5, 0b00111}, // "0" + "0111"
		{5, 0b01111}, // "0" + "1111"
	}
	for _, w := range wantBits {
		got, err := r.ReadBits(w.nbits)
		if err != nil {
			t.Fatal(err)
		}
		if got != w.value {
			t.Fatalf("ReadBits(%d) = %#b, want %#b", w.nbits, got, w.value)
		}
	}
}

func TestInvalidParameter(t *testing.T) {
	var buf bytes.Buffer
	if _, err := NewEncoder(bitio.NewWriter(&buf), 0); err == nil {
		t.Fatal("NewEncoder with p=0 succeeded, want error")
	}
	if _, err := NewDecoder(bitio.NewReader(bytes.NewReader(nil)), 0); err == nil {
		t.Fatal("NewDecoder with p=0 succeeded, want error")
	}
}

func TestUnaryChunkSplitting(t *testing.T) {
	// A quotient comfortably past the 63-bit chunk boundary, at P=1 so
	// the whole value becomes the unary run.
	var buf bytes.Buffer
	enc, err := NewEncoder(bitio.NewWriter(&buf), 1)
	if err != nil {
		t.Fatal(err)
	}
	const val = 200 // > 3*63
	if _, err := enc.Encode(val); err != nil {
		t.Fatalf("Encode(%d): %v", val, err)
	}
	if _, err := enc.Flush(); err != nil {
		t.Fatal(err)
	}

	dec, err := NewDecoder(bitio.NewReader(bytes.NewReader(buf.Bytes())), 1)
	if err != nil {
		t.Fatal(err)
	}
	got, err := dec.Decode()
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got != val {
		t.Fatalf("Decode() = %d, want %d", got, val)
	}
}
