package descriptor

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrDescriptorNotFound indicates the descriptor file does not exist.
var ErrDescriptorNotFound = errors.New("descriptor not found")

// LoadProject reads a project descriptor. Relative pipeline paths are
// resolved against the project file's directory.
func LoadProject(path string) (*Project, error) {
	var project Project
	resolved, err := decodeFile(path, &project)
	if err != nil {
		return nil, err
	}
	project.Source = resolved
	base := filepath.Dir(resolved)
	for i, ref := range project.Pipelines {
		ref.Path = strings.TrimSpace(ref.Path)
		if ref.Path != "" && !filepath.IsAbs(ref.Path) {
			ref.Path = filepath.Join(base, ref.Path)
		}
		project.Pipelines[i] = ref
	}
	return &project, nil
}

// LoadPipeline reads a pipeline descriptor.
func LoadPipeline(path string) (*Pipeline, error) {
	var pipeline Pipeline
	resolved, err := decodeFile(path, &pipeline)
	if err != nil {
		return nil, err
	}
	pipeline.Source = resolved
	return &pipeline, nil
}

// ParsePipeline decodes a JSON pipeline descriptor held in memory.
func ParsePipeline(data []byte) (*Pipeline, error) {
	var pipeline Pipeline
	if err := json.Unmarshal(data, &pipeline); err != nil {
		return nil, fmt.Errorf("parse pipeline: %w", err)
	}
	return &pipeline, nil
}

func decodeFile(path string, v any) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", fmt.Errorf("%w: empty path", ErrDescriptorNotFound)
	}
	resolved, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve %q: %w", path, err)
	}
	data, err := os.ReadFile(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrDescriptorNotFound, resolved)
		}
		return "", fmt.Errorf("read %s: %w", resolved, err)
	}
	if isYAML(resolved) {
		data, err = yamlToJSON(data)
		if err != nil {
			return "", fmt.Errorf("parse %s: %w", resolved, err)
		}
	}
	if err := json.Unmarshal(data, v); err != nil {
		return "", fmt.Errorf("parse %s: %w", resolved, err)
	}
	return resolved, nil
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	default:
		return false
	}
}

func yamlToJSON(data []byte) ([]byte, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return json.Marshal(normalizeYAML(doc))
}

// normalizeYAML converts map[any]any nodes, which encoding/json rejects, into
// string-keyed maps.
func normalizeYAML(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		for key, item := range typed {
			typed[key] = normalizeYAML(item)
		}
		return typed
	case map[any]any:
		out := make(map[string]any, len(typed))
		for key, item := range typed {
			out[fmt.Sprint(key)] = normalizeYAML(item)
		}
		return out
	case []any:
		for i, item := range typed {
			typed[i] = normalizeYAML(item)
		}
		return typed
	default:
		return value
	}
}
