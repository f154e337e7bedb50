package descriptor

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidActivity marks an activity whose fields could not be decoded.
var ErrInvalidActivity = errors.New("invalid activity")

const (
	defaultProjectTitle  = "Unnamed Project"
	defaultPipelineTitle = "Unnamed Subproject"
)

// Activity is one named unit of work routed to a handler type.
type Activity struct {
	Name     string   `json:"name,omitempty"`
	Type     string   `json:"type"`
	Defaults Params   `json:"defaults,omitempty"`
	Actions  []Action `json:"actions"`

	// Invalid is set when the activity could not be decoded; the project
	// manager skips it and moves on to the next one.
	Invalid error `json:"-"`
}

// UnmarshalJSON decodes an activity without failing the enclosing pipeline.
// On a decode error the name and type are recovered where possible and the
// error is kept in Invalid.
func (a *Activity) UnmarshalJSON(data []byte) error {
	type plain Activity
	var decoded plain
	if err := json.Unmarshal(data, &decoded); err != nil {
		*a = Activity{Invalid: fmt.Errorf("%w: %v", ErrInvalidActivity, err)}
		var fields Params
		if json.Unmarshal(data, &fields) == nil {
			a.Name, _ = fields.String("name")
			a.Type, _ = fields.String("type")
		}
		return nil
	}
	*a = Activity(decoded)
	return nil
}

// Label returns the activity name or a positional fallback.
func (a Activity) Label(index int) string {
	if name := strings.TrimSpace(a.Name); name != "" {
		return name
	}
	return fmt.Sprintf("Step %d", index+1)
}

// Pipeline is an ordered list of activities loaded from one descriptor file.
type Pipeline struct {
	Title      string     `json:"subproject-title"`
	Activities []Activity `json:"activities"`

	// Source is the file the pipeline was read from.
	Source string `json:"-"`
}

// DisplayTitle returns the pipeline title or a placeholder.
func (p Pipeline) DisplayTitle() string {
	if title := strings.TrimSpace(p.Title); title != "" {
		return title
	}
	return defaultPipelineTitle
}

// PipelineRef points at a pipeline descriptor from a project.
type PipelineRef struct {
	Path    string `json:"path"`
	Enabled *bool  `json:"enabled,omitempty"`
}

// IsEnabled reports whether the reference should run. Missing means enabled.
func (r PipelineRef) IsEnabled() bool {
	return r.Enabled == nil || *r.Enabled
}

// Project is the root run unit.
type Project struct {
	Title     string        `json:"project-title"`
	Pipelines []PipelineRef `json:"pipelines"`

	// Source is the file the project was read from.
	Source string `json:"-"`
}

// DisplayTitle returns the project title or a placeholder.
func (p Project) DisplayTitle() string {
	if title := strings.TrimSpace(p.Title); title != "" {
		return title
	}
	return defaultProjectTitle
}
