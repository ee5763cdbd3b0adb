package filterexpr

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"
)

type orderParams struct {
	PrimaryKey    string
	PrimaryDesc   bool
	SecondaryKey  string
	SecondaryDesc bool
}

// parseOrderBy accepts up to two "key [asc|desc]" segments separated by commas.
func parseOrderBy(raw string, schema OrderSchema) (orderParams, error) {
	if schema.DefaultKey == "" || schema.FallbackKey == "" {
		return orderParams{}, errors.New("order schema needs default and fallback keys")
	}
	if !slices.Contains(schema.Keys, schema.DefaultKey) || !slices.Contains(schema.Keys, schema.FallbackKey) {
		return orderParams{}, errors.New("order schema keys must include the default and fallback keys")
	}

	var keys []string
	var descs []bool
	for _, seg := range strings.Split(raw, ",") {
		parts := strings.Fields(seg)
		if len(parts) == 0 {
			continue
		}
		if len(parts) > 2 {
			return orderParams{}, fmt.Errorf("invalid order segment %q", strings.TrimSpace(seg))
		}
		key := parts[0]
		if !slices.Contains(schema.Keys, key) {
			return orderParams{}, fmt.Errorf("field %q cannot be used for ordering", key)
		}
		if slices.Contains(keys, key) {
			return orderParams{}, fmt.Errorf("duplicate order key %q", key)
		}
		desc := false
		if len(parts) == 2 {
			switch strings.ToLower(parts[1]) {
			case "asc":
			case "desc":
				desc = true
			default:
				return orderParams{}, fmt.Errorf("invalid direction %q for field %q", parts[1], key)
			}
		}
		keys = append(keys, key)
		descs = append(descs, desc)
	}
	if len(keys) > 2 {
		return orderParams{}, errors.New("order_by supports at most two keys")
	}

	ord := orderParams{PrimaryKey: schema.DefaultKey, PrimaryDesc: schema.DefaultDesc}
	if len(keys) > 0 {
		ord.PrimaryKey, ord.PrimaryDesc = keys[0], descs[0]
	}
	switch {
	case len(keys) == 2:
		ord.SecondaryKey, ord.SecondaryDesc = keys[1], descs[1]
	case ord.PrimaryKey != schema.FallbackKey:
		ord.SecondaryKey = schema.FallbackKey
	default:
		ord.SecondaryKey = schema.DefaultKey
	}
	return ord, nil
}

func (o orderParams) assign(dest reflect.Value) error {
	values := map[string]any{
		"PrimaryKey":    o.PrimaryKey,
		"PrimaryDesc":   o.PrimaryDesc,
		"SecondaryKey":  o.SecondaryKey,
		"SecondaryDesc": o.SecondaryDesc,
	}
	for _, name := range []string{"PrimaryKey", "PrimaryDesc", "SecondaryKey", "SecondaryDesc"} {
		field := dest.FieldByName(name)
		if !field.IsValid() || !field.CanSet() {
			return fmt.Errorf("params struct %s has no settable field %q", dest.Type(), name)
		}
		v := reflect.ValueOf(values[name])
		if !v.Type().ConvertibleTo(field.Type()) {
			return fmt.Errorf("field %q must be %s-compatible", name, v.Type())
		}
		field.Set(v.Convert(field.Type()))
	}
	return nil
}
