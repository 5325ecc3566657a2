// Stockdesk - Personal Stock Portfolio Tracker
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/stockdesk

package backup

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/tomtom215/stockdesk/internal/domains"
)

// int64Bound is 2^63, the first float64 past the int64 range.
const int64Bound = float64(1 << 63)

// coerceValue converts a value scanned from a snapshot into the storage class
// of col. SQLite is dynamically typed, so a column declared REAL may hold
// text in an archive produced by another tool; anything that converts
// losslessly is accepted.
func coerceValue(col domains.Column, v any) (any, error) {
	if v == nil {
		if col.Nullable {
			return nil, nil
		}
		return nil, fmt.Errorf("column %s: NULL in non-nullable %s column", col.Name, col.Type)
	}

	switch col.Type {
	case domains.Integer:
		return coerceInteger(col.Name, v)
	case domains.Real:
		return coerceReal(col.Name, v)
	case domains.Text:
		return coerceText(col.Name, v)
	default:
		return nil, fmt.Errorf("column %s: unsupported type %s", col.Name, col.Type)
	}
}

func coerceInteger(name string, v any) (any, error) {
	switch x := v.(type) {
	case int64:
		return x, nil
	case float64:
		if !isInt64(x) {
			return nil, fmt.Errorf("column %s: %v is not an integer", name, x)
		}
		return int64(x), nil
	case bool:
		if x {
			return int64(1), nil
		}
		return int64(0), nil
	case string:
		return parseInteger(name, x)
	case []byte:
		return parseInteger(name, string(x))
	default:
		return nil, fmt.Errorf("column %s: cannot use %T as INTEGER", name, v)
	}
}

func parseInteger(name, s string) (any, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || !isInt64(f) {
		return nil, fmt.Errorf("column %s: %q is not an integer", name, s)
	}
	return int64(f), nil
}

// isInt64 reports whether f is integral and converts to int64 without wrapping.
func isInt64(f float64) bool {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return false
	}
	return f >= -int64Bound && f < int64Bound
}

func coerceReal(name string, v any) (any, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case int64:
		return float64(x), nil
	case string:
		return parseReal(name, x)
	case []byte:
		return parseReal(name, string(x))
	default:
		return nil, fmt.Errorf("column %s: cannot use %T as REAL", name, v)
	}
}

func parseReal(name, s string) (any, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil, fmt.Errorf("column %s: %q is not a number", name, s)
	}
	return f, nil
}

func coerceText(name string, v any) (any, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case []byte:
		return string(x), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	default:
		return nil, fmt.Errorf("column %s: cannot use %T as TEXT", name, v)
	}
}
