// Package sheet reads and writes attendance spreadsheets and converts their cell encodings
package sheet

import (
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Canonical column names
const (
	FieldNo         = "STT"
	FieldEmployee   = "Tên nhân viên"
	FieldDepartment = "Tên bộ phận"
	FieldDate       = "Ngày"
	FieldS1         = "S1"
	FieldS2         = "S2"
	FieldC1         = "C1"
	FieldC2         = "C2"
)

// SlotFields lists the punch columns in slot order
var SlotFields = [4]string{FieldS1, FieldS2, FieldC1, FieldC2}

// headerAliases maps a normalized header to its canonical column. Never mutated after init.
var headerAliases = map[string]string{
	"stt":           FieldNo,
	"tên nhân viên": FieldEmployee,
	"ten nhan vien": FieldEmployee,
	"tên bộ phận":   FieldDepartment,
	"ten bo phan":   FieldDepartment,
	"ngày":          FieldDate,
	"ngay":          FieldDate,
	"s1":            FieldS1,
	"s2":            FieldS2,
	"c1":            FieldC1,
	"c2":            FieldC2,
}

// HeaderAliases returns a copy of the alias table
func HeaderAliases() map[string]string {
	out := make(map[string]string, len(headerAliases))
	for k, v := range headerAliases {
		out[k] = v
	}
	return out
}

// NormalizeHeader composes diacritics, trims, collapses inner whitespace and lowercases
func NormalizeHeader(h string) string {
	h = norm.NFC.String(h)
	return strings.ToLower(strings.Join(strings.Fields(h), " "))
}

// CanonicalHeader returns the canonical column for a raw header, or the header unchanged when unknown
func CanonicalHeader(h string) string {
	if c, ok := headerAliases[NormalizeHeader(h)]; ok {
		return c
	}
	return h
}

func isSlotField(name string) bool {
	for _, f := range SlotFields {
		if f == name {
			return true
		}
	}
	return false
}

// NormalizeRow rekeys one raw row by canonical column names.
// Unknown headers pass through. A blank punch stays in the row as "" so a present-but-empty
// column can be told apart from a missing one.
func NormalizeRow(raw map[string]any) map[string]any {
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	// Several raw headers can fold to one column; walk them in a fixed order
	sort.Strings(keys)

	out := make(map[string]any, len(raw))
	for _, k := range keys {
		key := CanonicalHeader(k)
		val := raw[k]
		if isSlotField(key) && isBlank(val) {
			val = ""
		}
		if prev, ok := out[key]; ok && !isBlank(prev) && isBlank(val) {
			continue
		}
		out[key] = val
	}
	return out
}

func isBlank(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(x) == ""
	case float64:
		return x == 0
	case float32:
		return x == 0
	case int:
		return x == 0
	case int64:
		return x == 0
	case bool:
		return !x
	}
	return false
}
