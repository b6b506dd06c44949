package asset

import (
	"fmt"
	"math"
)

// The parsed tree uses the generic JSON value vocabulary. Numbers may
// arrive as int64 or float64 depending on their lexical form, so every
// numeric read goes through toFloat.

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	}
	return 0, false
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int64:
		if n > math.MaxInt || n < math.MinInt {
			return 0, false
		}
		return int(n), true
	case int:
		return n, true
	case float64:
		// Range-check before converting; conversion of an out-of-range
		// float is implementation-defined.
		if math.Trunc(n) != n || n >= math.MaxInt || n < math.MinInt {
			return 0, false
		}
		return int(n), true
	}
	return 0, false
}

// pick returns the field from the instance override when present, the
// library entry otherwise. Library defaults first, instance data on top
// is the override order the format specifies.
func pick(lib, inst map[string]any, field string) (any, bool) {
	if inst != nil {
		if v, ok := inst[field]; ok {
			return v, true
		}
	}
	if lib != nil {
		if v, ok := lib[field]; ok {
			return v, true
		}
	}
	return nil, false
}

func requireField(kind Kind, lib, inst map[string]any, field string) (any, error) {
	if v, ok := pick(lib, inst, field); ok {
		return v, nil
	}
	return nil, fmt.Errorf("%w: %s %q", ErrMissingField, kind, field)
}

func requireString(kind Kind, lib, inst map[string]any, field string) (string, error) {
	v, err := requireField(kind, lib, inst, field)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s %q is not a string", ErrBadValue, kind, field)
	}
	return s, nil
}

func requireInt(kind Kind, lib, inst map[string]any, field string) (int, error) {
	v, err := requireField(kind, lib, inst, field)
	if err != nil {
		return 0, err
	}
	n, ok := toInt(v)
	if !ok {
		return 0, fmt.Errorf("%w: %s %q is not an integer", ErrBadValue, kind, field)
	}
	return n, nil
}

func optString(lib, inst map[string]any, field, def string) string {
	if v, ok := pick(lib, inst, field); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

func optFloat(lib, inst map[string]any, field string, def float64) float64 {
	if v, ok := pick(lib, inst, field); ok {
		if f, ok := toFloat(v); ok {
			return f
		}
	}
	return def
}

func optBool(lib, inst map[string]any, field string, def bool) (value, present bool) {
	if v, ok := pick(lib, inst, field); ok {
		if b, ok := v.(bool); ok {
			return b, true
		}
	}
	return def, false
}

func optMap(lib, inst map[string]any, field string) (map[string]any, bool) {
	if v, ok := pick(lib, inst, field); ok {
		if m, ok := v.(map[string]any); ok {
			return m, true
		}
	}
	return nil, false
}

func optList(lib, inst map[string]any, field string) ([]any, bool) {
	if v, ok := pick(lib, inst, field); ok {
		if l, ok := v.([]any); ok {
			return l, true
		}
	}
	return nil, false
}

// valueArray unwraps the format's counted-array idiom:
//
//	{"count": N, "values": [ ... ]}
//
// A declared count that disagrees with the actual length is a structural
// violation.
func valueArray(kind Kind, lib, inst map[string]any, field string, required bool) ([]any, error) {
	v, ok := pick(lib, inst, field)
	if !ok {
		if required {
			return nil, fmt.Errorf("%w: %s %q", ErrMissingField, kind, field)
		}
		return nil, nil
	}

	wrapper, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s %q is not a counted array", ErrBadValue, kind, field)
	}
	values, ok := wrapper["values"].([]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s %q has no values array", ErrMissingField, kind, field)
	}
	if c, ok := wrapper["count"]; ok {
		count, ok := toInt(c)
		if !ok || count != len(values) {
			return nil, fmt.Errorf("%w: %s %q declares count %v but holds %d values",
				ErrMalformedGeometry, kind, field, c, len(values))
		}
	}
	return values, nil
}

// header populates the fields every asset kind shares. The id is the
// one field the format unconditionally requires.
func header(kind Kind, lib, inst map[string]any) (Header, error) {
	id, ok := lib["id"].(string)
	if !ok || id == "" {
		return Header{}, fmt.Errorf("%w: %s %q", ErrMissingField, kind, "id")
	}
	h := Header{
		ID:        id,
		Name:      optString(lib, inst, "name", ""),
		Label:     optString(lib, inst, "label", ""),
		SourceRef: optString(lib, inst, "source", ""),
	}
	if inst != nil {
		h.InstanceID, _ = inst["id"].(string)
	}
	return h, nil
}

// channelFrom reads one channel object ({"id": "x", "value": 0, ...}).
func channelFrom(data map[string]any) Channel {
	ch := Channel{}
	ch.ID, _ = data["id"].(string)
	if f, ok := toFloat(data["value"]); ok {
		ch.Default = f
	}
	ch.Current = ch.Default
	if f, ok := toFloat(data["current_value"]); ok {
		ch.Current = f
	}
	if f, ok := toFloat(data["min"]); ok {
		ch.Min = f
	}
	if f, ok := toFloat(data["max"]); ok {
		ch.Max = f
	}
	if b, ok := data["clamped"].(bool); ok {
		ch.Clamped = b
	}
	return ch
}

// channelVector merges the library and instance variants of one
// three-channel vector property. Channels are matched per axis by id;
// instance values override library values axis by axis.
func channelVector(lib, inst map[string]any, field string, def Vector) ChannelVector {
	v := ChannelVector{
		X: Channel{ID: "x", Default: def.X, Current: def.X},
		Y: Channel{ID: "y", Default: def.Y, Current: def.Y},
		Z: Channel{ID: "z", Default: def.Z, Current: def.Z},
	}
	for _, source := range []map[string]any{lib, inst} {
		if source == nil {
			continue
		}
		axes, ok := source[field].([]any)
		if !ok {
			continue
		}
		for _, raw := range axes {
			data, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			id, _ := data["id"].(string)
			switch id {
			case "x", "X":
				mergeAxis(&v.X, data)
			case "y", "Y":
				mergeAxis(&v.Y, data)
			case "z", "Z":
				mergeAxis(&v.Z, data)
			}
		}
	}
	return v
}

// mergeAxis overlays the fields present in data onto an axis channel,
// leaving absent fields at their prior value.
func mergeAxis(ch *Channel, data map[string]any) {
	if f, ok := toFloat(data["value"]); ok {
		ch.Default = f
		ch.Current = f
	}
	if f, ok := toFloat(data["current_value"]); ok {
		ch.Current = f
	}
	if f, ok := toFloat(data["min"]); ok {
		ch.Min = f
	}
	if f, ok := toFloat(data["max"]); ok {
		ch.Max = f
	}
	if b, ok := data["clamped"].(bool); ok {
		ch.Clamped = b
	}
}
