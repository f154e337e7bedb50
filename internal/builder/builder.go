package builder

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"mediaflow/internal/artifact"
	"mediaflow/internal/logging"
)

var (
	// ErrNoSource reports a load with neither a path nor a cache name.
	ErrNoSource = errors.New("no load source specified (file or cache)")
	// ErrNoTarget reports a save with neither a path nor a cache name.
	ErrNoTarget = errors.New("no save target specified (file or cache)")
	// ErrNoArtifact reports an operation on a builder with no current artifact.
	ErrNoArtifact = errors.New("no current artifact")
)

// Codec reads and writes one artifact family from and to files.
type Codec[T any] struct {
	Read  func(path string) (T, error)
	Write func(path string, value T) error
}

// Source selects where Load reads from. Path wins when both are set.
type Source struct {
	Path string
	Name string
}

// Target selects where Save writes to. Both may be set.
type Target struct {
	Path string
	Name string
}

// Base carries the current artifact and the sticky error for one builder.
type Base[T any] struct {
	kind    artifact.Kind
	store   *artifact.Store
	logger  *slog.Logger
	codec   Codec[T]
	current T
	loaded  bool
	err     error
}

// NewBase constructs a Base for kind backed by store.
func NewBase[T any](kind artifact.Kind, store *artifact.Store, logger *slog.Logger, codec Codec[T]) *Base[T] {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Base[T]{kind: kind, store: store, logger: logger, codec: codec}
}

// Kind returns the artifact family handled by the builder.
func (b *Base[T]) Kind() artifact.Kind { return b.kind }

// Logger returns the builder logger.
func (b *Base[T]) Logger() *slog.Logger { return b.logger }

// Store returns the shared artifact store.
func (b *Base[T]) Store() *artifact.Store { return b.store }

// Err returns the first failure recorded on the builder.
func (b *Base[T]) Err() error { return b.err }

// Fail records err unless an earlier failure is already latched.
func (b *Base[T]) Fail(err error) {
	if err != nil && b.err == nil {
		b.err = err
	}
}

// Current returns the current artifact and whether one is set.
func (b *Base[T]) Current() (T, bool) {
	return b.current, b.loaded
}

// Set replaces the current artifact.
func (b *Base[T]) Set(value T) *Base[T] {
	b.current = value
	b.loaded = true
	return b
}

// Ready reports whether operation may run. A missing artifact latches
// ErrNoArtifact.
func (b *Base[T]) Ready(operation string) bool {
	if b.err != nil {
		return false
	}
	if !b.loaded {
		b.logger.Error("no current artifact",
			logging.String("operation", operation),
			logging.String("kind", string(b.kind)),
		)
		b.Fail(fmt.Errorf("%s: %w", operation, ErrNoArtifact))
		return false
	}
	return true
}

// Load resolves the current artifact from src.
func (b *Base[T]) Load(src Source) *Base[T] {
	if b.err != nil {
		return b
	}
	path := strings.TrimSpace(src.Path)
	name := strings.TrimSpace(src.Name)
	switch {
	case path != "":
		value, err := b.ReadFile(path)
		if err != nil {
			b.Fail(err)
			return b
		}
		b.Set(value)
	case name != "":
		value, err := b.FromCache(name)
		if err != nil {
			b.Fail(err)
			return b
		}
		b.Set(value)
	default:
		b.logger.Error("no load source specified",
			logging.String("kind", string(b.kind)),
		)
		b.Fail(ErrNoSource)
	}
	return b
}

// Save writes the current artifact to dst. The file and cache targets are
// independent: a failed file write is reported but the cache entry is still
// stored.
func (b *Base[T]) Save(dst Target) *Base[T] {
	path := strings.TrimSpace(dst.Path)
	name := strings.TrimSpace(dst.Name)
	if path == "" && name == "" {
		b.logger.Error("no save target specified",
			logging.String("kind", string(b.kind)),
		)
		b.Fail(ErrNoTarget)
		return b
	}
	if !b.Ready("save") {
		return b
	}
	if path != "" {
		if err := b.WriteFile(path, b.current); err != nil {
			b.Fail(err)
		}
	}
	if name != "" {
		b.ToCache(name, b.current)
	}
	return b
}

// ReadFile decodes an artifact from path, logging failures.
func (b *Base[T]) ReadFile(path string) (T, error) {
	var zero T
	if b.codec.Read == nil {
		err := fmt.Errorf("%s artifacts cannot be read from files", b.kind)
		b.logger.Error("artifact read unsupported", logging.String(logging.FieldPath, path), logging.Error(err))
		return zero, err
	}
	b.logger.Info("loading artifact from file",
		logging.String("kind", string(b.kind)),
		logging.String(logging.FieldPath, path),
	)
	value, err := b.codec.Read(path)
	if err != nil {
		b.logger.Error("artifact read failed",
			logging.String("kind", string(b.kind)),
			logging.String(logging.FieldPath, path),
			logging.Error(err),
		)
		return zero, fmt.Errorf("read %s %s: %w", b.kind, path, err)
	}
	return value, nil
}

// WriteFile encodes value to path, logging failures.
func (b *Base[T]) WriteFile(path string, value T) error {
	if b.codec.Write == nil {
		err := fmt.Errorf("%s artifacts cannot be written to files", b.kind)
		b.logger.Error("artifact write unsupported", logging.String(logging.FieldPath, path), logging.Error(err))
		return err
	}
	b.logger.Info("saving artifact to file",
		logging.String("kind", string(b.kind)),
		logging.String(logging.FieldPath, path),
	)
	if err := b.codec.Write(path, value); err != nil {
		b.logger.Error("artifact write failed",
			logging.String("kind", string(b.kind)),
			logging.String(logging.FieldPath, path),
			logging.Error(err),
		)
		return fmt.Errorf("write %s %s: %w", b.kind, path, err)
	}
	return nil
}

// FromCache fetches name from the shared store. A miss is logged as a warning.
func (b *Base[T]) FromCache(name string) (T, error) {
	key := artifact.Key(b.kind, name)
	b.logger.Info("loading artifact from cache", logging.String(logging.FieldCacheKey, key))
	value, err := artifact.Lookup[T](b.store, b.kind, name)
	if err != nil {
		b.logger.Warn("artifact cache lookup failed",
			logging.String(logging.FieldCacheKey, key),
			logging.Error(err),
		)
		return value, err
	}
	return value, nil
}

// ToCache stores value under name in the shared store.
func (b *Base[T]) ToCache(name string, value T) {
	key := artifact.Key(b.kind, name)
	b.logger.Info("saving artifact to cache", logging.String(logging.FieldCacheKey, key))
	b.store.Put(b.kind, name, value)
}
