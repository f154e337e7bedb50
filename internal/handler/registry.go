package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"mediaflow/internal/artifact"
	"mediaflow/internal/config"
	"mediaflow/internal/services"
)

// ErrUnknownType reports an activity type with no registered factory.
var ErrUnknownType = errors.New("unknown activity type")

// Env carries the shared collaborators handed to every family factory.
type Env struct {
	Store   *artifact.Store
	Logger  *slog.Logger
	Config  *config.Config
	WorkDir string
	Runner  services.CommandRunner
}

// Factory constructs a fresh Family for one activity.
type Factory func(env Env) (Family, error)

// Registry maps activity type strings to factories.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register binds typeName to factory.
func (r *Registry) Register(typeName string, factory Factory) error {
	typeName = strings.TrimSpace(typeName)
	if typeName == "" {
		return errors.New("activity type is required")
	}
	if factory == nil {
		return fmt.Errorf("activity type %q: factory is nil", typeName)
	}
	if _, exists := r.factories[typeName]; exists {
		return fmt.Errorf("activity type %q already registered", typeName)
	}
	r.factories[typeName] = factory
	return nil
}

// MustRegister is Register that panics on error; used for static tables.
func (r *Registry) MustRegister(typeName string, factory Factory) {
	if err := r.Register(typeName, factory); err != nil {
		panic(err)
	}
}

// Lookup returns the factory for typeName.
func (r *Registry) Lookup(typeName string) (Factory, error) {
	factory, ok := r.factories[strings.TrimSpace(typeName)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, typeName)
	}
	return factory, nil
}

// Types returns the registered type names sorted.
func (r *Registry) Types() []string {
	types := make([]string, 0, len(r.factories))
	for name := range r.factories {
		types = append(types, name)
	}
	sort.Strings(types)
	return types
}

// CommandNames returns the sorted command table keys of family.
func CommandNames(family Family) []string {
	commands := family.Commands()
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
