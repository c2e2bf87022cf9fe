package duration

import (
	"strings"
	"testing"
)

func TestNewReduces(t *testing.T) {
	d := New(6, 16)
	if d.Num() != 3 || d.Den() != 8 {
		t.Fatalf("expected 3/8, got %s", d)
	}
	if got := New(4, 2).String(); got != "2" {
		t.Fatalf("expected whole multiple to print as 2, got %s", got)
	}
	if !New(0, 5).IsZero() {
		t.Fatalf("0/5 should be zero")
	}
}

func TestParse(t *testing.T) {
	d, err := Parse(" 3/16 ")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !d.Equal(New(3, 16)) {
		t.Fatalf("unexpected value %s", d)
	}
	if _, err := Parse("1/0"); err == nil {
		t.Fatalf("expected zero denominator to fail")
	}
	if _, err := Parse("-1/4"); err == nil {
		t.Fatalf("expected negative value to fail")
	}
}

func TestArithmetic(t *testing.T) {
	a := MustParse("3/8")
	b := MustParse("1/4")
	if got := a.Add(b); !got.Equal(New(5, 8)) {
		t.Fatalf("3/8 + 1/4 = %s", got)
	}
	if got := a.Sub(b); !got.Equal(New(1, 8)) {
		t.Fatalf("3/8 - 1/4 = %s", got)
	}
	if !b.Less(a) || a.Cmp(a) != 0 {
		t.Fatalf("comparison is wrong")
	}
	if got := Sum([]Duration{a, b, b}); !got.Equal(New(7, 8)) {
		t.Fatalf("sum = %s", got)
	}
	num, den := a.Ratio(New(1, 16))
	if num != 6 || den != 1 {
		t.Fatalf("3/8 holds 6 sixteenths, got %d/%d", num, den)
	}
}

func TestIsAssignable(t *testing.T) {
	cases := map[string]bool{
		"1/4":   true,
		"3/8":   true,
		"7/16":  true,
		"15/8":  true,
		"3/2":   true,
		"5/8":   false,
		"1/12":  false,
		"2":     false,
		"9/16":  false,
		"15/16": true,
	}
	for text, want := range cases {
		if got := MustParse(text).IsAssignable(); got != want {
			t.Fatalf("IsAssignable(%s) = %v, want %v", text, got, want)
		}
	}
}

func TestDecompose(t *testing.T) {
	parts, err := MustParse("5/8").Decompose()
	if err != nil {
		t.Fatalf("decompose: %v", err)
	}
	if len(parts) != 2 || !parts[0].Equal(New(1, 2)) || !parts[1].Equal(New(1, 8)) {
		t.Fatalf("unexpected parts %v", parts)
	}
	parts, err = MustParse("2").Decompose()
	if err != nil {
		t.Fatalf("decompose: %v", err)
	}
	if !Sum(parts).Equal(New(2, 1)) {
		t.Fatalf("parts must sum to 2, got %v", parts)
	}
	if _, err := MustParse("1/3").Decompose(); err == nil || !strings.Contains(err.Error(), "tuplet") {
		t.Fatalf("expected tuplet error, got %v", err)
	}
}

func TestLilyPondToken(t *testing.T) {
	cases := map[string]string{
		"1/4":  "4",
		"3/8":  "4.",
		"7/16": "4..",
		"1":    "1",
		"3/2":  "1.",
	}
	for text, want := range cases {
		got, err := MustParse(text).LilyPond()
		if err != nil {
			t.Fatalf("token %s: %v", text, err)
		}
		if got != want {
			t.Fatalf("token %s = %q, want %q", text, got, want)
		}
	}
	if _, err := MustParse("5/8").LilyPond(); err == nil {
		t.Fatalf("expected error for non-assignable duration")
	}
}

func TestTimeSignature(t *testing.T) {
	ts, err := ParseTimeSignature("4/8")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if ts.String() != "4/8" {
		t.Fatalf("time signature should not reduce, got %s", ts)
	}
	if !ts.Duration().Equal(New(1, 2)) {
		t.Fatalf("unexpected duration %s", ts.Duration())
	}
	if _, err := ParseTimeSignature("3/6"); err == nil {
		t.Fatalf("expected non power-of-two denominator to fail")
	}
	if _, err := ParseTimeSignatures([]string{"3/8", "x"}); err == nil || !strings.Contains(err.Error(), "time_signatures[1]") {
		t.Fatalf("expected indexed error, got %v", err)
	}
}
