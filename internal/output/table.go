package output

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
)

const maxCellWidth = 60

var rawMessageType = reflect.TypeOf(json.RawMessage(nil))

// buildTable lays value out as rows: a slice of structs becomes one row per
// element, a struct or map becomes field/value pairs, anything else one cell.
func buildTable(value any) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)

	rv := indirect(reflect.ValueOf(value))
	if !rv.IsValid() {
		t.AppendRow(table.Row{"(empty)"})
		return t
	}

	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if rv.Type() == rawMessageType {
			t.AppendRow(table.Row{cell(rv)})
			return t
		}
		appendSlice(t, rv)
	case reflect.Struct:
		t.AppendHeader(table.Row{"Field", "Value"})
		for i, name := range fieldNames(rv.Type()) {
			if name == "" {
				continue
			}
			t.AppendRow(table.Row{name, cell(rv.Field(i))})
		}
	case reflect.Map:
		t.AppendHeader(table.Row{"Key", "Value"})
		for _, key := range sortedKeys(rv) {
			t.AppendRow(table.Row{fmt.Sprint(key.Interface()), cell(rv.MapIndex(key))})
		}
	default:
		t.AppendRow(table.Row{cell(rv)})
	}
	return t
}

func appendSlice(t table.Writer, rv reflect.Value) {
	if rv.Len() == 0 {
		t.AppendRow(table.Row{"(no results)"})
		return
	}

	elemType := rv.Type().Elem()
	for elemType.Kind() == reflect.Pointer {
		elemType = elemType.Elem()
	}

	if elemType.Kind() != reflect.Struct {
		t.AppendHeader(table.Row{"#", "Value"})
		for i := 0; i < rv.Len(); i++ {
			t.AppendRow(table.Row{i + 1, cell(rv.Index(i))})
		}
		return
	}

	names := fieldNames(elemType)
	header := table.Row{}
	for _, name := range names {
		if name != "" {
			header = append(header, name)
		}
	}
	t.AppendHeader(header)

	for i := 0; i < rv.Len(); i++ {
		elem := indirect(rv.Index(i))
		row := table.Row{}
		for j, name := range names {
			if name == "" {
				continue
			}
			if !elem.IsValid() {
				row = append(row, "")
				continue
			}
			row = append(row, cell(elem.Field(j)))
		}
		t.AppendRow(row)
	}
	t.AppendFooter(table.Row{fmt.Sprintf("%d rows", rv.Len())})
}

// fieldNames returns the json name of each exported field, or "" for skipped ones.
func fieldNames(rt reflect.Type) []string {
	names := make([]string, rt.NumField())
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}
		name := field.Name
		if tag := field.Tag.Get("json"); tag != "" {
			tagName, _, _ := strings.Cut(tag, ",")
			if tagName == "-" {
				continue
			}
			if tagName != "" {
				name = tagName
			}
		}
		names[i] = name
	}
	return names
}

func cell(v reflect.Value) string {
	v = indirect(v)
	if !v.IsValid() {
		return ""
	}

	var text string
	switch {
	case v.Type() == rawMessageType:
		text = string(v.Bytes())
	case v.Kind() == reflect.Slice || v.Kind() == reflect.Map || v.Kind() == reflect.Struct:
		data, err := json.Marshal(v.Interface())
		if err != nil {
			text = fmt.Sprint(v.Interface())
		} else {
			text = string(data)
		}
	default:
		text = fmt.Sprint(v.Interface())
	}

	if len(text) > maxCellWidth {
		text = text[:maxCellWidth-3] + "..."
	}
	return text
}

func indirect(v reflect.Value) reflect.Value {
	for v.IsValid() && (v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	return v
}

func sortedKeys(rv reflect.Value) []reflect.Value {
	keys := rv.MapKeys()
	sort.Slice(keys, func(i, j int) bool {
		return fmt.Sprint(keys[i].Interface()) < fmt.Sprint(keys[j].Interface())
	})
	return keys
}
