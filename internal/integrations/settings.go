package integrations

import (
	"fmt"
	"sort"
)

// Settings is the configuration view handed to an integration instance.
// Lookups check the configuration's own values first, then the descriptor's
// defaults, and fail with ErrUnknownSetting otherwise.
type Settings struct {
	values   map[string]any
	defaults map[string]any
}

// NewSettings creates a settings view. Values are copied.
func NewSettings(values, defaults map[string]any) *Settings {
	s := &Settings{
		values:   make(map[string]any, len(values)),
		defaults: defaults,
	}
	for k, v := range values {
		s.values[k] = v
	}
	return s
}

// Get returns the value for key.
func (s *Settings) Get(key string) (any, error) {
	if v, ok := s.values[key]; ok {
		return v, nil
	}
	if v, ok := s.defaults[key]; ok {
		return v, nil
	}
	return nil, fmt.Errorf("%w: the settings key %q was not found in integration", ErrUnknownSetting, key)
}

// Has reports whether key is set or has a default.
func (s *Settings) Has(key string) bool {
	if _, ok := s.values[key]; ok {
		return true
	}
	_, ok := s.defaults[key]
	return ok
}

// String returns a string setting.
func (s *Settings) String(key string) (string, error) {
	v, err := s.Get(key)
	if err != nil {
		return "", err
	}
	str, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %q must be a string, got %T", ErrInvalidSetting, key, v)
	}
	return str, nil
}

// Bool returns a boolean setting.
func (s *Settings) Bool(key string) (bool, error) {
	v, err := s.Get(key)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("%w: %q must be a boolean, got %T", ErrInvalidSetting, key, v)
	}
	return b, nil
}

// Set stores a value on the instance map.
func (s *Settings) Set(key string, value any) {
	s.values[key] = value
}

// Values returns a copy of the values explicitly set on the configuration.
func (s *Settings) Values() map[string]any {
	out := make(map[string]any, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// Effective returns the defaults overlaid with the configuration's own values.
func (s *Settings) Effective() map[string]any {
	out := make(map[string]any, len(s.defaults)+len(s.values))
	for k, v := range s.defaults {
		out[k] = v
	}
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// Keys returns every known key in sorted order.
func (s *Settings) Keys() []string {
	eff := s.Effective()
	keys := make([]string, 0, len(eff))
	for k := range eff {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
