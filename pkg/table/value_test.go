package table

import (
	"encoding/json"
	"math"
	"testing"
)

func TestParseValueSentinels(t *testing.T) {
	for _, s := range []string{"-", "...", "X", "", "  ", " - "} {
		v := ParseValue(s)
		if !v.IsNull() {
			t.Errorf("ParseValue(%q) = %v (%s), want null", s, v, v.Kind())
		}
		if _, ok := v.Numeric(); ok {
			t.Errorf("ParseValue(%q) should not be numeric", s)
		}
	}
}

func TestParseValueNumbers(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"127094745", 127094745},
		{"1,234,567", 1234567},
		{" 42 ", 42},
		{"-3.5", -3.5},
		{"0", 0},
	}
	for _, tt := range tests {
		got, ok := ParseValue(tt.in).Float()
		if !ok || got != tt.want {
			t.Errorf("ParseValue(%q) = %v, %v; want %v", tt.in, got, ok, tt.want)
		}
	}
}

func TestParseValueKeepsDecimals(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"12.5", 12.5},
		{"13.6", 13.6},
		{"1,234.5", 1234.5},
		{"1,234", 1234},
	}
	for _, tt := range tests {
		got, ok := ParseValue(tt.in).Float()
		if !ok || got != tt.want {
			t.Errorf("ParseValue(%q) = %v, %v; want %v", tt.in, got, ok, tt.want)
		}
	}
}

func TestParseValueRejectsText(t *testing.T) {
	for _, s := range []string{"abc", "NaN", "Inf", "12a"} {
		if !ParseValue(s).IsNull() {
			t.Errorf("ParseValue(%q) should be null", s)
		}
	}
}

func TestSentinelsNeverReachSums(t *testing.T) {
	sum := 0.0
	for _, s := range []string{"10", "-", "...", "X", "", "5"} {
		if f, ok := ParseValue(s).Float(); ok {
			sum += f
		}
	}
	if sum != 15 || math.IsNaN(sum) {
		t.Errorf("sum = %v, want 15", sum)
	}
}

func TestValueString(t *testing.T) {
	tests := []struct {
		v    Value
		want string
	}{
		{Null(), ""},
		{Number(2020), "2020"},
		{Number(1.5), "1.5"},
		{String("JP"), "JP"},
	}
	for _, tt := range tests {
		if got := tt.v.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
	if Null().Key() != "null" {
		t.Errorf("Null key = %q", Null().Key())
	}
}

func TestNumberNaNIsNull(t *testing.T) {
	if !Number(math.NaN()).IsNull() {
		t.Error("Number(NaN) should be null")
	}
}

func TestCompare(t *testing.T) {
	if Compare(Number(9), Number(10)) >= 0 {
		t.Error("numbers should compare numerically")
	}
	if Compare(String("9"), Number(10)) <= 0 {
		t.Error("mixed values should compare as strings")
	}
	if Compare(String("a"), String("a")) != 0 {
		t.Error("equal strings should compare equal")
	}
}

func TestValueJSON(t *testing.T) {
	vals := []Value{Null(), Number(3), String("x"), Number(math.Inf(1))}
	b, err := json.Marshal(vals)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `[null,3,"x",null]` {
		t.Errorf("Marshal = %s", b)
	}

	var back []Value
	if err := json.Unmarshal([]byte(`[null,3,"x",true]`), &back); err != nil {
		t.Fatal(err)
	}
	if !back[0].IsNull() || back[1].Kind() != KindNumber || back[2].String() != "x" || back[3].String() != "true" {
		t.Errorf("Unmarshal = %v", back)
	}
}
