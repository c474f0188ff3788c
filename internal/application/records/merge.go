package records

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"

	"github.com/erp/smarterp/internal/domain/shared"
)

// merge applies fields to a copy of current. Dotted keys address nested
// objects, matching the document store update semantics.
func merge[T any, PT shared.DocumentPtr[T]](current *T, fields shared.Fields) (*T, error) {
	data, err := json.Marshal(current)
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	for key, value := range fields {
		if key == "id" {
			continue
		}
		setPath(doc, strings.Split(key, "."), value)
	}

	data, err = json.Marshal(doc)
	if err != nil {
		return nil, shared.NewValidationError("", "update is not encodable")
	}
	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		field := ""
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			field = typeErr.Field
		}
		return nil, shared.NewValidationError(field, "value has the wrong type")
	}
	PT(&out).SetID(PT(current).GetID())
	return &out, nil
}

func setPath(doc map[string]any, path []string, value any) {
	for _, part := range path[:len(path)-1] {
		next, ok := doc[part].(map[string]any)
		if !ok {
			next = map[string]any{}
			doc[part] = next
		}
		doc = next
	}
	doc[path[len(path)-1]] = value
}

// typedFields rebuilds the update from the merged record, so each value
// keeps its Go type (time.Time, pointers, named strings) rather than the
// shape it had in the request body. A dotted key is widened to its
// top-level field.
func typedFields(record any, fields shared.Fields) (shared.Fields, error) {
	v := reflect.Indirect(reflect.ValueOf(record))
	out := make(shared.Fields, len(fields))
	for key := range fields {
		top, _, _ := strings.Cut(key, ".")
		if top == "id" {
			continue
		}
		fv, ok := fieldByJSONName(v, top)
		if !ok {
			return nil, shared.NewValidationError(top, "unknown field")
		}
		out[top] = fv.Interface()
	}
	return out, nil
}

func fieldByJSONName(v reflect.Value, name string) (reflect.Value, bool) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if sf.Anonymous && sf.Type.Kind() == reflect.Struct {
			if fv, ok := fieldByJSONName(v.Field(i), name); ok {
				return fv, true
			}
			continue
		}
		if !sf.IsExported() {
			continue
		}
		tag, _, _ := strings.Cut(sf.Tag.Get("json"), ",")
		if tag == name {
			return v.Field(i), true
		}
	}
	return reflect.Value{}, false
}
