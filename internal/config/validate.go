package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/text/language"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateLanguages(); err != nil {
		return err
	}
	if err := c.validateDiffusion(); err != nil {
		return err
	}
	if c.Video.FPS <= 0 {
		return errors.New("video.fps must be positive")
	}
	if err := c.validateStorage(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level %q must be one of debug, info, warn, error", c.Logging.Level)
	}
	return nil
}

func (c *Config) validateLanguages() error {
	tags := map[string]string{
		"speech.language":             c.Speech.Language,
		"translation.source_language": c.Translation.SourceLanguage,
		"translation.target_language": c.Translation.TargetLanguage,
	}
	if c.Transcription.Language != "" {
		tags["transcription.language"] = c.Transcription.Language
	}
	for key, value := range tags {
		if _, err := language.Parse(value); err != nil {
			return fmt.Errorf("%s %q is not a valid language tag: %w", key, value, err)
		}
	}
	return nil
}

func (c *Config) validateDiffusion() error {
	if _, err := url.ParseRequestURI(c.Diffusion.BaseURL); err != nil {
		return fmt.Errorf("diffusion.base_url: %w", err)
	}
	if c.Diffusion.Steps <= 0 {
		return errors.New("diffusion.steps must be positive")
	}
	if c.Diffusion.CFGScale <= 0 {
		return errors.New("diffusion.cfg_scale must be positive")
	}
	if c.Diffusion.Width <= 0 || c.Diffusion.Height <= 0 {
		return errors.New("diffusion.width and diffusion.height must be positive")
	}
	if c.Diffusion.TimeoutSeconds <= 0 {
		return errors.New("diffusion.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateStorage() error {
	if c.Storage.Endpoint == "" {
		return nil
	}
	if strings.Contains(c.Storage.Endpoint, "://") {
		return errors.New("storage.endpoint must be host[:port] without a scheme; use storage.use_ssl for TLS")
	}
	if c.Storage.Bucket == "" {
		return errors.New("storage.bucket must be set when storage.endpoint is configured")
	}
	return nil
}
