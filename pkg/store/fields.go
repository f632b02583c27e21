package store

import (
	"fmt"
	"reflect"
	"strings"
)

// applyFields writes fields onto the struct pointed to by dst, matching keys
// against the `firestore` tag names shared by every model.
func applyFields(dst interface{}, fields Fields) error {
	v := reflect.ValueOf(dst)
	if v.Kind() != reflect.Ptr || v.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("applyFields: dst must be a pointer to struct, got %T", dst)
	}
	v = v.Elem()
	t := v.Type()

	index := make(map[string]int, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		name := strings.Split(t.Field(i).Tag.Get("firestore"), ",")[0]
		if name != "" && name != "-" {
			index[name] = i
		}
	}

	for key, value := range fields {
		i, ok := index[key]
		if !ok {
			return fmt.Errorf("unknown field %q on %s", key, t.Name())
		}
		if err := setField(v.Field(i), value); err != nil {
			return fmt.Errorf("field %q: %w", key, err)
		}
	}
	return nil
}

func setField(field reflect.Value, value interface{}) error {
	if value == nil {
		field.Set(reflect.Zero(field.Type()))
		return nil
	}

	rv := reflect.ValueOf(value)
	if rv.Kind() == reflect.Ptr && rv.IsNil() {
		field.Set(reflect.Zero(field.Type()))
		return nil
	}

	switch {
	case rv.Type().AssignableTo(field.Type()):
		field.Set(rv)
	case rv.Type().ConvertibleTo(field.Type()) && rv.Kind() == field.Kind():
		field.Set(rv.Convert(field.Type()))
	case field.Kind() == reflect.Ptr && rv.Kind() == field.Type().Elem().Kind() && rv.Type().ConvertibleTo(field.Type().Elem()):
		p := reflect.New(field.Type().Elem())
		p.Elem().Set(rv.Convert(field.Type().Elem()))
		field.Set(p)
	case rv.Kind() == reflect.Ptr && rv.Elem().Kind() == field.Kind() && rv.Elem().Type().ConvertibleTo(field.Type()):
		field.Set(rv.Elem().Convert(field.Type()))
	default:
		return fmt.Errorf("cannot assign %T to %s", value, field.Type())
	}
	return nil
}
