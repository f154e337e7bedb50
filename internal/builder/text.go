package builder

import (
	"errors"
	"os"
	"strings"

	"mediaflow/internal/artifact"
	"mediaflow/internal/fileutil"
	"mediaflow/internal/logging"
)

// ErrNoText reports that no text source was supplied.
var ErrNoText = errors.New("no text source specified")

// TextSource selects text for an operation. Literal text wins over a file
// path, which wins over a cached text artifact.
type TextSource struct {
	Text string
	Path string
	Name string
}

// TextCodec reads and writes UTF-8 text files. Reads trim surrounding space.
var TextCodec = Codec[string]{
	Read: func(path string) (string, error) {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(data)), nil
	},
	Write: func(path string, value string) error {
		return fileutil.WriteFileAtomic(path, []byte(value), 0o644)
	},
}

// ResolveText returns text from src. Any non-empty literal wins, including
// one made only of whitespace. Absence is logged as a warning and reported
// as ErrNoText without latching, so callers decide whether the operation
// needs text.
func (b *Base[T]) ResolveText(src TextSource) (string, error) {
	if src.Text != "" {
		return src.Text, nil
	}
	if path := strings.TrimSpace(src.Path); path != "" {
		b.logger.Info("loading text from file", logging.String(logging.FieldPath, path))
		text, err := TextCodec.Read(path)
		if err != nil {
			b.logger.Error("text read failed", logging.String(logging.FieldPath, path), logging.Error(err))
			return "", err
		}
		return text, nil
	}
	if name := strings.TrimSpace(src.Name); name != "" && b.store != nil {
		return textBase(b).FromCache(name)
	}
	b.logger.Warn("no text source specified",
		logging.String("hint", "set text or input-text-path"),
	)
	return "", ErrNoText
}

// SaveText writes text to a file and/or the text cache, independent of the
// builder's own artifact kind.
func (b *Base[T]) SaveText(text string, dst Target) error {
	path := strings.TrimSpace(dst.Path)
	name := strings.TrimSpace(dst.Name)
	if path == "" && name == "" {
		b.logger.Error("no text save target specified")
		return ErrNoTarget
	}
	var err error
	if path != "" {
		b.logger.Info("saving text to file", logging.String(logging.FieldPath, path))
		if writeErr := TextCodec.Write(path, text); writeErr != nil {
			b.logger.Error("text write failed", logging.String(logging.FieldPath, path), logging.Error(writeErr))
			err = writeErr
		}
	}
	if name != "" {
		textBase(b).ToCache(name, text)
	}
	return err
}

func textBase[T any](b *Base[T]) *Base[string] {
	return &Base[string]{kind: artifact.KindText, store: b.store, logger: b.logger, codec: TextCodec}
}
