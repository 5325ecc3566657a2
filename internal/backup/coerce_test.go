// Stockdesk - Personal Stock Portfolio Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stockdesk

package backup

import (
	"testing"
	"time"

	"github.com/tomtom215/stockdesk/internal/domains"
)

func TestCoerceValue(t *testing.T) {
	integer := domains.Column{Name: "quantity", Type: domains.Integer}
	decimal := domains.Column{Name: "cost", Type: domains.Real}
	text := domains.Column{Name: "name", Type: domains.Text}
	optional := domains.Column{Name: "remark", Type: domains.Text, Nullable: true}

	tests := []struct {
		name    string
		col     domains.Column
		in      any
		want    any
		wantErr bool
	}{
		{"integer from int64", integer, int64(50), int64(50), false},
		{"integer from integral float", integer, float64(100), int64(100), false},
		{"integer from fractional float", integer, 1.5, nil, true},
		{"integer from numeric text", integer, " 42 ", int64(42), false},
		{"integer from float text", integer, "7.0", int64(7), false},
		{"integer from bytes", integer, []byte("9"), int64(9), false},
		{"integer from word", integer, "many", nil, true},
		{"integer from bool", integer, true, int64(1), false},
		{"integer from huge float", integer, 1e30, nil, true},
		{"integer just past int64", integer, 9.3e18, nil, true},
		{"integer at negative bound", integer, -9223372036854775808.0, int64(-9223372036854775808), false},
		{"integer from huge text", integer, "1e30", nil, true},
		{"integer from overflowing digits", integer, "9223372036854775808", nil, true},
		{"integer from nan", integer, "NaN", nil, true},
		{"real from float", decimal, 10.25, 10.25, false},
		{"real from int64", decimal, int64(3), float64(3), false},
		{"real from text", decimal, "12.5", 12.5, false},
		{"real from garbage", decimal, "abc", nil, true},
		{"real from time", decimal, time.Unix(0, 0), nil, true},
		{"text from string", text, "Ping An", "Ping An", false},
		{"text from bytes", text, []byte("blob"), "blob", false},
		{"text from int64", text, int64(600000), "600000", false},
		{"text from float", text, 0.1, "0.1", false},
		{"text from time", text, time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC), nil, true},
		{"null in non-nullable", text, nil, nil, true},
		{"null in nullable", optional, nil, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := coerceValue(tt.col, tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("coerceValue(%v) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("coerceValue(%v) = %#v, want %#v", tt.in, got, tt.want)
			}
		})
	}
}
