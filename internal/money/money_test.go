package money

import (
	"encoding/json"
	"testing"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    Cents
		wantErr bool
	}{
		{name: "two decimal places", in: "12.34", want: 1234},
		{name: "no decimal point", in: "12", want: 1200},
		{name: "one decimal place", in: "12.5", want: 1250},
		{name: "zero", in: "0", want: 0},
		{name: "sub-unit amount", in: "0.05", want: 5},
		{name: "negative", in: "-3.10", want: -310},
		{name: "leading dot", in: ".75", want: 75},
		{name: "whitespace trimmed", in: " 9.99 ", want: 999},
		{name: "empty", in: "", wantErr: true},
		{name: "too many decimals", in: "1.234", wantErr: true},
		{name: "not a number", in: "abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAmount(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseAmount(%q) = %v, want error", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseAmount(%q) failed: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseAmount(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestString(t *testing.T) {
	tests := []struct {
		in   Cents
		want string
	}{
		{1234, "12.34"},
		{1200, "12.00"},
		{5, "0.05"},
		{0, "0.00"},
		{-310, "-3.10"},
	}
	for _, tt := range tests {
		if got := tt.in.String(); got != tt.want {
			t.Errorf("Cents(%d).String() = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestStringRoundTrip(t *testing.T) {
	for _, c := range []Cents{0, 1, 99, 100, 12345, -1, -100} {
		got, err := ParseAmount(c.String())
		if err != nil {
			t.Fatalf("ParseAmount(%q) failed: %v", c.String(), err)
		}
		if got != c {
			t.Errorf("round trip of %d gave %d", c, got)
		}
	}
}

func TestEqual(t *testing.T) {
	if !Equal(100, 101) {
		t.Error("amounts one cent apart should be equal within tolerance")
	}
	if Equal(100, 102) {
		t.Error("amounts two cents apart should not be equal")
	}
	if !IsZero(1) || !IsZero(-1) {
		t.Error("one cent should be zero within tolerance")
	}
	if IsZero(2) {
		t.Error("two cents should not be zero")
	}
}

func TestFromFloat(t *testing.T) {
	if got := FromFloat(12.34); got != 1234 {
		t.Errorf("FromFloat(12.34) = %d, want 1234", got)
	}
	// Classic binary float trap: 0.1 + 0.2
	if got := FromFloat(0.1 + 0.2); got != 30 {
		t.Errorf("FromFloat(0.3) = %d, want 30", got)
	}
}

func TestJSONRoundTrip(t *testing.T) {
	type wrapper struct {
		Amount Cents `json:"amount"`
	}

	data, err := json.Marshal(wrapper{Amount: 1234})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if string(data) != `{"amount":"12.34"}` {
		t.Errorf("marshal gave %s, want decimal string", data)
	}

	var got wrapper
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if got.Amount != 1234 {
		t.Errorf("round trip gave %d, want 1234", got.Amount)
	}

	if err := json.Unmarshal([]byte(`{"amount":12.34}`), &got); err == nil {
		t.Error("bare float should be rejected")
	}
}
