package postgres

import (
	"reflect"
	"sync"
)

// ExtractDBColumns lists the "db" tags of T in field order, descending
// into embedded structs. Repositories call it once to build column lists.
func ExtractDBColumns[T any]() []string {
	var zero T
	return columnsOf(reflect.TypeOf(zero))
}

func columnsOf(t reflect.Type) []string {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}

	var cols []string
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Anonymous {
			cols = append(cols, columnsOf(f.Type)...)
			continue
		}
		if tag := f.Tag.Get("db"); tag != "" && tag != "-" {
			cols = append(cols, tag)
		}
	}
	return cols
}

// fieldPath is the index path of one tagged field.
type fieldPath struct {
	column string
	index  []int
}

var pathCache sync.Map // map[reflect.Type][]fieldPath

func pathsOf(t reflect.Type) []fieldPath {
	if cached, ok := pathCache.Load(t); ok {
		return cached.([]fieldPath)
	}

	var paths []fieldPath
	var walk func(t reflect.Type, prefix []int)
	walk = func(t reflect.Type, prefix []int) {
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			idx := append(append([]int(nil), prefix...), i)
			if f.Anonymous && f.Type.Kind() == reflect.Struct {
				walk(f.Type, idx)
				continue
			}
			if tag := f.Tag.Get("db"); tag != "" && tag != "-" {
				paths = append(paths, fieldPath{column: tag, index: idx})
			}
		}
	}
	walk(t, nil)

	pathCache.Store(t, paths)
	return paths
}

// StructToMap converts a struct to column/value pairs using "db" tags.
// The result feeds squirrel's SetMap.
func StructToMap(v any) map[string]any {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}

	paths := pathsOf(rv.Type())
	res := make(map[string]any, len(paths))
	for _, p := range paths {
		res[p.column] = rv.FieldByIndex(p.index).Interface()
	}
	return res
}
