package main

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/gosuri/uitable"
	"gopkg.in/yaml.v3"
)

type format string

const (
	formatJSON  format = "json"
	formatYAML  format = "yaml"
	formatTable format = "table"
)

func parseFormat(s string) (format, error) {
	switch f := format(strings.ToLower(strings.TrimSpace(s))); f {
	case formatJSON, formatYAML, formatTable:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want json, yaml or table)", s)
	}
}

// render writes v in the chosen format. Numbers decoded as json.Number keep
// their exact text.
func render(w io.Writer, f format, v any) error {
	switch f {
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case formatTable:
		_, err := fmt.Fprintln(w, table(v))
		return err
	default:
		b, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, "%s\n", b)
		return err
	}
}

// table lays out objects as key/value rows and lists of objects as one row
// per element, with the union of their keys as columns.
func table(v any) string {
	t := uitable.New()
	t.MaxColWidth = 80
	t.Wrap = true

	switch x := v.(type) {
	case map[string]any:
		for _, k := range sortedKeys(x) {
			t.AddRow(k+":", cell(x[k]))
		}
	case []any:
		cols := columns(x)
		if cols == nil {
			for _, e := range x {
				t.AddRow(cell(e))
			}
			break
		}
		header := make([]any, len(cols))
		for i, c := range cols {
			header[i] = strings.ToUpper(c)
		}
		t.AddRow(header...)
		for _, e := range x {
			m := e.(map[string]any)
			row := make([]any, len(cols))
			for i, c := range cols {
				row[i] = cell(m[c])
			}
			t.AddRow(row...)
		}
	default:
		t.AddRow(cell(v))
	}
	return t.String()
}

// columns returns the sorted key union when every element is an object.
func columns(list []any) []string {
	if len(list) == 0 {
		return nil
	}
	seen := map[string]struct{}{}
	for _, e := range list {
		m, ok := e.(map[string]any)
		if !ok {
			return nil
		}
		for k := range m {
			seen[k] = struct{}{}
		}
	}
	cols := make([]string, 0, len(seen))
	for k := range seen {
		cols = append(cols, k)
	}
	slices.Sort(cols)
	return cols
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func cell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	case map[string]any, []any:
		b, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(b)
	default:
		return fmt.Sprint(x)
	}
}
