package orderitems

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParsePrice(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{raw: "", want: "0"},
		{raw: "100", want: "100"},
		{raw: " 42.50 ", want: "42.5"},
		{raw: "+7", want: "7"},
		{raw: "-3.5", want: "-3.5"},
		{raw: ".5", want: "0.5"},
		{raw: "1e3", want: "1000"},
		{raw: "2.5E-1", want: "0.25"},
		{raw: "50 SAR", want: "50"},
		{raw: "5.", want: "5"},
		{raw: "1.e5", want: "100000"},
		{raw: "-2.E-1", want: "-0.2"},
		{raw: "3.x", want: "3"},
		{raw: "SAR 50", want: "0"},
		{raw: "abc", want: "0"},
		{raw: "true", want: "0"},
	}

	for _, tc := range tests {
		t.Run(tc.raw, func(t *testing.T) {
			got := ParsePrice(tc.raw)
			if !got.Equal(decimal.RequireFromString(tc.want)) {
				t.Fatalf("ParsePrice(%q) = %s, want %s", tc.raw, got, tc.want)
			}
		})
	}
}

func TestTruthyTextAndParseDetails(t *testing.T) {
	if _, ok := parseDetails("plain name"); ok {
		t.Fatal("plain string must not parse as json")
	}
	details, ok := parseDetails(`{"name":"x","price":0,"size":"","color":null,"flag":true}`)
	if !ok {
		t.Fatal("expected valid json")
	}
	if got := truthyText(details.Get("name")); got != "x" {
		t.Fatalf("name: got %q", got)
	}
	for _, field := range []string{"price", "size", "color", "missing"} {
		if got := truthyText(details.Get(field)); got != "" {
			t.Fatalf("%s: expected empty, got %q", field, got)
		}
	}
	if got := truthyText(details.Get("flag")); got != "true" {
		t.Fatalf("flag: got %q", got)
	}
}
