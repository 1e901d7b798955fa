package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleLines = `[
  {"order_id": "o-1", "quantity": 2, "price": "10", "size": "M", "color": "red", "product_details": "{\"name\":\"Shirt\"}"},
  {"order_id": "o-1", "quantity": "1", "price": "12", "size": "L", "color": "red", "product_details": {"name": "Shirt"}},
  {"order_id": "o-1", "quantity": 1, "price": 5, "product_details": "Cap"},
  {"order_id": "o-2", "quantity": 4, "price": 1, "product_details": null, "products": {"name": "Sock"}}
]`

func tableRows(t *testing.T, out string) [][]string {
	t.Helper()
	var rows [][]string
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		cells := strings.Split(line, "|")
		for i := range cells {
			cells[i] = strings.TrimSpace(cells[i])
		}
		rows = append(rows, cells)
	}
	return rows
}

func TestRun_TableFromStdin(t *testing.T) {
	var out bytes.Buffer
	if err := run([]string{"-order-id=o-1"}, strings.NewReader(sampleLines), &out); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	rows := tableRows(t, out.String())
	want := [][]string{
		{"NAME", "COLOR", "SIZES", "QTY", "UNIT", "TOTAL"},
		{"Shirt", "red", "M×2، L", "3", "10", "30"},
		{"Cap", "-", "-", "1", "5", "5"},
		{"TOTAL", "", "", "4", "", "35"},
	}
	if len(rows) != len(want) {
		t.Fatalf("expected %d rows, got %d:\n%s", len(want), len(rows), out.String())
	}
	for i := range want {
		if strings.Join(rows[i], "|") != strings.Join(want[i], "|") {
			t.Fatalf("row %d: expected %v, got %v", i, want[i], rows[i])
		}
	}
}

func TestRun_JSONFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lines.json")
	if err := os.WriteFile(path, []byte(sampleLines), 0o600); err != nil {
		t.Fatalf("write input: %v", err)
	}

	var out bytes.Buffer
	if err := run([]string{"-json", "-in", path}, nil, &out); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	var got struct {
		Items []struct {
			Name          string      `json:"name"`
			Color         string      `json:"color"`
			TotalQuantity int         `json:"totalQuantity"`
			TotalPrice    json.Number `json:"totalPrice"`
		} `json:"items"`
		LineCount     int         `json:"lineCount"`
		TotalQuantity int         `json:"totalQuantity"`
		TotalPrice    json.Number `json:"totalPrice"`
	}
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out.String())
	}

	if got.LineCount != 4 || len(got.Items) != 3 {
		t.Fatalf("unexpected summary: %+v", got)
	}
	if got.Items[2].Name != "Sock" || got.Items[2].TotalQuantity != 4 {
		t.Fatalf("unexpected third group: %+v", got.Items[2])
	}
	if got.TotalQuantity != 8 || got.TotalPrice.String() != "39" {
		t.Fatalf("unexpected totals: qty=%d price=%s", got.TotalQuantity, got.TotalPrice)
	}
}

func TestRun_PositionalInputAndEmptyArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.json")
	if err := os.WriteFile(path, []byte("[]"), 0o600); err != nil {
		t.Fatalf("write input: %v", err)
	}

	var out bytes.Buffer
	if err := run([]string{"-json", path}, nil, &out); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if !strings.Contains(out.String(), `"items": []`) {
		t.Fatalf("expected empty items array, got %s", out.String())
	}
}

func TestRun_Errors(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		stdin string
	}{
		{name: "not an array", stdin: `{"quantity": 1}`},
		{name: "malformed json", stdin: `[{"quantity": 1}`},
		{name: "element is not an object", stdin: `[1, 2]`},
		{name: "missing file", args: []string{"-in", filepath.Join(os.TempDir(), "storefront-missing-input.json")}},
		{name: "unknown flag", args: []string{"-yaml"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := run(tt.args, strings.NewReader(tt.stdin), &bytes.Buffer{}); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
