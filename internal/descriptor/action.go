package descriptor

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrInvalidAction marks an action whose command or enabled key could not be
// decoded. The surrounding activity still runs.
var ErrInvalidAction = errors.New("invalid action")

const (
	keyCommand = "command"
	keyEnabled = "enabled"
)

// Params is an open bag of named parameters kept as raw JSON.
type Params map[string]json.RawMessage

// Decode populates v from the bag. Fields absent from the bag keep the values
// v already holds, so callers pre-populate v with defaults.
func (p Params) Decode(v any) error {
	if len(p) == 0 {
		return nil
	}
	payload, err := json.Marshal(map[string]json.RawMessage(p))
	if err != nil {
		return fmt.Errorf("encode params: %w", err)
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("decode params: %w", err)
	}
	return nil
}

// Has reports whether key is present and not null.
func (p Params) Has(key string) bool {
	raw, ok := p[key]
	if !ok {
		return false
	}
	return !bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// String returns the value at key when it is a JSON string.
func (p Params) String(key string) (string, bool) {
	raw, ok := p[key]
	if !ok {
		return "", false
	}
	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		return "", false
	}
	return value, true
}

// Keys returns the parameter names in sorted order.
func (p Params) Keys() []string {
	keys := make([]string, 0, len(p))
	for key := range p {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Merge returns a copy of p with every key from overrides applied on top.
func (p Params) Merge(overrides Params) Params {
	merged := make(Params, len(p)+len(overrides))
	for key, value := range p {
		merged[key] = value
	}
	for key, value := range overrides {
		merged[key] = value
	}
	return merged
}

// Action is one command invocation with its parameter bag. Actions are
// read-only once parsed.
type Action struct {
	Command string
	Enabled *bool
	Params  Params
	// Invalid is set when the action could not be decoded. Handlers count
	// such actions as failed without dispatching them.
	Invalid error
}

// IsEnabled reports whether the action should run. Missing means enabled.
func (a Action) IsEnabled() bool {
	return a.Enabled == nil || *a.Enabled
}

// Decode populates v from the action parameters.
func (a Action) Decode(v any) error {
	return a.Params.Decode(v)
}

// Label renders a short human readable identifier for logs.
func (a Action) Label() string {
	command := strings.TrimSpace(a.Command)
	if command == "" {
		return "(no command)"
	}
	return command
}

// UnmarshalJSON splits the reserved command/enabled keys from the parameters.
// Malformed actions decode without error and carry the problem in Invalid, so
// one bad action never fails the whole pipeline file.
func (a *Action) UnmarshalJSON(data []byte) error {
	*a = Action{}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		a.Invalid = fmt.Errorf("%w: %v", ErrInvalidAction, err)
		return nil
	}
	if value, ok := raw[keyCommand]; ok {
		var command *string
		if err := json.Unmarshal(value, &command); err != nil {
			a.Invalid = fmt.Errorf("%w: command: %v", ErrInvalidAction, err)
		} else if command != nil {
			a.Command = strings.TrimSpace(*command)
		}
		delete(raw, keyCommand)
	}
	if value, ok := raw[keyEnabled]; ok {
		enabled, err := parseEnabled(value)
		if err != nil && a.Invalid == nil {
			a.Invalid = fmt.Errorf("%w: %q enabled: %v", ErrInvalidAction, a.Command, err)
		}
		a.Enabled = enabled
		delete(raw, keyEnabled)
	}
	a.Params = Params(raw)
	return nil
}

// parseEnabled accepts booleans, numbers (zero is false) and the usual
// boolean words. null means unset.
func parseEnabled(raw json.RawMessage) (*bool, error) {
	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, err
	}
	var enabled bool
	switch v := value.(type) {
	case nil:
		return nil, nil
	case bool:
		enabled = v
	case float64:
		enabled = v != 0
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "yes", "on", "1":
			enabled = true
		case "false", "no", "off", "0":
			enabled = false
		default:
			return nil, fmt.Errorf("unrecognized value %q", v)
		}
	default:
		return nil, fmt.Errorf("unsupported type %T", value)
	}
	return &enabled, nil
}

// MarshalJSON flattens the action back into a single object.
func (a Action) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(a.Params)+2)
	for key, value := range a.Params {
		out[key] = value
	}
	command, err := json.Marshal(a.Command)
	if err != nil {
		return nil, err
	}
	out[keyCommand] = command
	if a.Enabled != nil {
		enabled, err := json.Marshal(*a.Enabled)
		if err != nil {
			return nil, err
		}
		out[keyEnabled] = enabled
	}
	return json.Marshal(out)
}

// NewAction builds an action from plain Go values. It is used by tests and by
// callers that assemble pipelines programmatically.
func NewAction(command string, params map[string]any) (Action, error) {
	action := Action{Command: command, Params: make(Params, len(params))}
	for key, value := range params {
		switch key {
		case keyCommand:
			continue
		case keyEnabled:
			enabled, ok := value.(bool)
			if !ok {
				return Action{}, fmt.Errorf("action %q: enabled must be a boolean", command)
			}
			action.Enabled = &enabled
			continue
		}
		raw, err := json.Marshal(value)
		if err != nil {
			return Action{}, fmt.Errorf("action %q param %q: %w", command, key, err)
		}
		action.Params[key] = raw
	}
	return action, nil
}
