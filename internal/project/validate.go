package project

import (
	"context"
	"fmt"
	"strings"

	"mediaflow/internal/artifact"
	"mediaflow/internal/descriptor"
	"mediaflow/internal/handler"
)

// Issue is one problem found while validating a project.
type Issue struct {
	Pipeline string
	Activity string
	Command  string
	Message  string
	// Warning marks issues that would not fail a run, such as a family that
	// cannot be constructed in the current environment.
	Warning bool
}

func (i Issue) String() string {
	parts := make([]string, 0, 3)
	for _, part := range []string{i.Pipeline, i.Activity, i.Command} {
		if strings.TrimSpace(part) != "" {
			parts = append(parts, part)
		}
	}
	location := strings.Join(parts, " / ")
	if location == "" {
		return i.Message
	}
	return location + ": " + i.Message
}

// Validate parses the project and every enabled pipeline, then checks each
// activity type, its defaults, and each action command against the registry
// without executing anything.
func (m *Manager) Validate(ctx context.Context, path string) ([]Issue, error) {
	project, err := descriptor.LoadProject(path)
	if err != nil {
		return nil, fmt.Errorf("load project: %w", err)
	}

	var issues []Issue
	for _, ref := range project.Pipelines {
		if !ref.IsEnabled() {
			continue
		}
		pipeline, err := descriptor.LoadPipeline(ref.Path)
		if err != nil {
			issues = append(issues, Issue{Pipeline: ref.Path, Message: err.Error()})
			continue
		}
		title := pipeline.DisplayTitle()
		for index, activity := range pipeline.Activities {
			issues = append(issues, m.validateActivity(ctx, title, index, activity)...)
		}
	}
	return issues, nil
}

func (m *Manager) validateActivity(ctx context.Context, pipeline string, index int, activity descriptor.Activity) []Issue {
	name := activity.Label(index)
	if activity.Invalid != nil {
		return []Issue{{Pipeline: pipeline, Activity: name, Message: activity.Invalid.Error()}}
	}
	factory, err := m.registry.Lookup(activity.Type)
	if err != nil {
		return []Issue{{Pipeline: pipeline, Activity: name, Message: err.Error()}}
	}

	family, err := m.construct(factory, artifact.NewStore(), m.cfg.Paths.WorkDir)
	if err != nil {
		return []Issue{{Pipeline: pipeline, Activity: name, Message: err.Error(), Warning: true}}
	}

	var issues []Issue
	if err := family.LoadDefaults(ctx, activity.Defaults); err != nil {
		issues = append(issues, Issue{Pipeline: pipeline, Activity: name, Message: "defaults: " + err.Error()})
	}
	commands := family.Commands()
	for actionIndex, action := range activity.Actions {
		if action.Invalid != nil {
			issues = append(issues, Issue{
				Pipeline: pipeline,
				Activity: name,
				Command:  action.Command,
				Message:  fmt.Sprintf("action %d: %v", actionIndex+1, action.Invalid),
			})
			continue
		}
		if !action.IsEnabled() {
			continue
		}
		command := strings.TrimSpace(action.Command)
		if command == "" {
			issues = append(issues, Issue{
				Pipeline: pipeline,
				Activity: name,
				Message:  fmt.Sprintf("action %d has no command", actionIndex+1),
				Warning:  true,
			})
			continue
		}
		if _, ok := commands[command]; !ok {
			issues = append(issues, Issue{
				Pipeline: pipeline,
				Activity: name,
				Command:  command,
				Message:  fmt.Sprintf("%v (known: %s)", handler.ErrUnknownCommand, strings.Join(handler.CommandNames(family), ", ")),
			})
		}
	}
	return issues
}

// Errors returns the issues that would cause a unit to fail at run time.
func Errors(issues []Issue) []Issue {
	var out []Issue
	for _, issue := range issues {
		if !issue.Warning {
			out = append(out, issue)
		}
	}
	return out
}
