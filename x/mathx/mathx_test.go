package mathx

import "testing"

func TestClampAndBetween(t *testing.T) {
	if got := Clamp(5000, 1, 3600); got != 3600 {
		t.Fatalf("Clamp high = %d", got)
	}
	if got := Clamp(0, 3600, 1); got != 1 {
		t.Fatalf("Clamp swapped bounds = %d", got)
	}
	if !Between[int16](125, 0, 125) || Between[int16](126, 0, 125) || Between[int16](-1, 125, 0) {
		t.Fatal("Between bounds wrong")
	}
}

func TestRoundDiv(t *testing.T) {
	cases := []struct{ a, b, want uint64 }{
		{16_000_000, 1024 * 125, 125},
		{7, 2, 4},
		{5, 0, 0},
	}
	for _, c := range cases {
		if got := RoundDiv(c.a, c.b); got != c.want {
			t.Fatalf("RoundDiv(%d,%d) = %d, want %d", c.a, c.b, got, c.want)
		}
	}
}

func TestMapU16(t *testing.T) {
	cases := []struct{ x, want uint16 }{
		{0, 0},
		{125, 255},
		{62, 126},
		{200, 255}, // input above range maps to outMax
	}
	for _, c := range cases {
		if got := MapU16(c.x, 0, 125, 0, 255); got != c.want {
			t.Fatalf("MapU16(%d) = %d, want %d", c.x, got, c.want)
		}
	}
	if got := MapU16(9, 3, 3, 10, 20); got != 10 {
		t.Fatalf("degenerate input range = %d, want outMin", got)
	}
}
