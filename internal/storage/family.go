package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"

	"mediaflow/internal/config"
	"mediaflow/internal/descriptor"
	"mediaflow/internal/fileutil"
	"mediaflow/internal/handler"
	"mediaflow/internal/logging"
	"mediaflow/internal/services"
)

// TypeName is the activity type routed to this family.
const TypeName = "storage"

// Family is the object storage command table.
type Family struct {
	objects ObjectStore
	logger  *slog.Logger
	bucket  string
	prefix  string
}

// New is the handler.Factory backed by the configured MinIO endpoint. An
// unconfigured endpoint fails construction so the activity is skipped.
func New(env handler.Env) (handler.Family, error) {
	cfg := envConfig(env)
	client, err := NewClient(cfg.Storage, logging.NewComponentLogger(env.Logger, TypeName))
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, TypeName, "connect", "object storage unavailable", err)
	}
	return newFamily(env, cfg, client), nil
}

// NewFactory returns a factory using objects instead of MinIO.
func NewFactory(objects ObjectStore) handler.Factory {
	return func(env handler.Env) (handler.Family, error) {
		return newFamily(env, envConfig(env), objects), nil
	}
}

func envConfig(env handler.Env) *config.Config {
	if env.Config != nil {
		return env.Config
	}
	defaults := config.Default()
	return &defaults
}

func newFamily(env handler.Env, cfg *config.Config, objects ObjectStore) *Family {
	return &Family{
		objects: objects,
		logger:  logging.NewComponentLogger(env.Logger, TypeName),
		bucket:  cfg.Storage.Bucket,
	}
}

type defaults struct {
	Bucket string `json:"bucket"`
	Prefix string `json:"prefix"`
}

// LoadDefaults applies "bucket" and "prefix".
func (f *Family) LoadDefaults(_ context.Context, params descriptor.Params) error {
	d := defaults{Bucket: f.bucket, Prefix: f.prefix}
	if err := params.Decode(&d); err != nil {
		return err
	}
	if strings.TrimSpace(d.Bucket) == "" {
		return services.Wrap(services.ErrConfiguration, TypeName, "load defaults", "no bucket configured", nil)
	}
	f.bucket = strings.TrimSpace(d.Bucket)
	f.prefix = strings.Trim(strings.TrimSpace(d.Prefix), "/")
	return nil
}

// Commands returns the storage command table.
func (f *Family) Commands() map[string]handler.Command {
	return map[string]handler.Command{
		"upload-file":   handler.CommandFunc(f.uploadFile),
		"download-file": handler.CommandFunc(f.downloadFile),
	}
}

// objectKey joins the activity prefix and key with forward slashes.
func (f *Family) objectKey(key string) string {
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	if f.prefix == "" {
		return key
	}
	return path.Join(f.prefix, key)
}

func (f *Family) bucketFor(override string) string {
	if b := strings.TrimSpace(override); b != "" {
		return b
	}
	return f.bucket
}

type uploadParams struct {
	InputPath   string `json:"input-path"`
	ObjectKey   string `json:"object-key"`
	Bucket      string `json:"bucket"`
	ContentType string `json:"content-type"`
}

func (p *uploadParams) Validate() error {
	if strings.TrimSpace(p.InputPath) == "" {
		return handler.RequireParam("input-path")
	}
	return nil
}

func (f *Family) uploadFile(ctx context.Context, action descriptor.Action) error {
	params, err := handler.DecodeParams(TypeName, action, uploadParams{})
	if err != nil {
		return err
	}
	key := params.ObjectKey
	if strings.TrimSpace(key) == "" {
		key = filepath.Base(params.InputPath)
	}
	key = f.objectKey(key)
	contentType := params.ContentType
	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(params.InputPath))
	}
	bucket := f.bucketFor(params.Bucket)
	logger := logging.WithContext(ctx, f.logger).With(
		logging.String("bucket", bucket),
		logging.String("object_key", key),
	)

	file, err := os.Open(params.InputPath)
	if err != nil {
		return services.Wrap(services.ErrNotFound, TypeName, action.Command, "open upload source", err)
	}
	defer file.Close()
	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("stat upload source: %w", err)
	}

	logger.Info("uploading file", logging.String(logging.FieldPath, params.InputPath), logging.Int64("bytes", info.Size()))
	if err := f.objects.Upload(ctx, bucket, key, file, info.Size(), contentType); err != nil {
		return services.Wrap(services.ErrTransient, TypeName, action.Command, "upload failed", err)
	}
	logger.Info("file uploaded")
	return nil
}

type downloadParams struct {
	ObjectKey  string `json:"object-key"`
	OutputPath string `json:"output-path"`
	Bucket     string `json:"bucket"`
}

func (p *downloadParams) Validate() error {
	if strings.TrimSpace(p.ObjectKey) == "" {
		return handler.RequireParam("object-key")
	}
	if strings.TrimSpace(p.OutputPath) == "" {
		return handler.RequireParam("output-path")
	}
	return nil
}

func (f *Family) downloadFile(ctx context.Context, action descriptor.Action) error {
	params, err := handler.DecodeParams(TypeName, action, downloadParams{})
	if err != nil {
		return err
	}
	key := f.objectKey(params.ObjectKey)
	bucket := f.bucketFor(params.Bucket)
	logger := logging.WithContext(ctx, f.logger).With(
		logging.String("bucket", bucket),
		logging.String("object_key", key),
	)

	logger.Info("downloading file", logging.String(logging.FieldPath, params.OutputPath))
	reader, err := f.objects.Download(ctx, bucket, key)
	if err != nil {
		return services.Wrap(services.ErrNotFound, TypeName, action.Command, "download failed", err)
	}
	defer reader.Close()
	if err := fileutil.WriteAtomicFunc(params.OutputPath, 0o644, func(w io.Writer) error {
		_, err := io.Copy(w, reader)
		return err
	}); err != nil {
		return fmt.Errorf("write %s: %w", params.OutputPath, err)
	}
	logger.Info("file downloaded")
	return nil
}
