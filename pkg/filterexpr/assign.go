package filterexpr

import (
	"fmt"
	"math"
	"reflect"
)

func assign(field reflect.Value, value any) error {
	if field.Kind() == reflect.Ptr {
		if field.IsNil() {
			field.Set(reflect.New(field.Type().Elem()))
		}
		return assign(field.Elem(), value)
	}

	switch v := value.(type) {
	case string:
		if field.Kind() != reflect.String {
			return fmt.Errorf("cannot assign string to %s", field.Type())
		}
		field.SetString(v)
	case []string:
		if field.Kind() != reflect.Slice || field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("cannot assign string list to %s", field.Type())
		}
		out := reflect.MakeSlice(field.Type(), len(v), len(v))
		for i, s := range v {
			out.Index(i).SetString(s)
		}
		field.Set(out)
	case float64:
		switch field.Kind() {
		case reflect.Float32, reflect.Float64:
			field.SetFloat(v)
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			if math.Trunc(v) != v {
				return fmt.Errorf("%v is not an integer", v)
			}
			if field.OverflowInt(int64(v)) {
				return fmt.Errorf("%v overflows %s", v, field.Type())
			}
			field.SetInt(int64(v))
		default:
			return fmt.Errorf("cannot assign number to %s", field.Type())
		}
	default:
		return fmt.Errorf("unsupported literal type %T", value)
	}
	return nil
}
