package transformers

import (
	"fmt"
)

// Options holds per-transformer settings keyed by transformer name, as read
// from the transformers section of the configuration.
type Options map[string]map[string]any

func (o Options) of(name string) settings { return settings{name: name, values: o[name]} }

type settings struct {
	name   string
	values map[string]any
}

func (s settings) string(key, def string) (string, error) {
	v, ok := s.values[key]
	if !ok || v == nil {
		return def, nil
	}
	str, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%s: option %q must be a string, got %T", s.name, key, v)
	}
	return str, nil
}

func (s settings) strings(key string) ([]string, error) {
	v, ok := s.values[key]
	if !ok || v == nil {
		return nil, nil
	}
	switch list := v.(type) {
	case []string:
		return list, nil
	case string:
		return []string{list}, nil
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			str, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%s: option %q must hold strings, got %T", s.name, key, item)
			}
			out = append(out, str)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%s: option %q must be a list of strings, got %T", s.name, key, v)
	}
}
