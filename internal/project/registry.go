package project

import (
	"mediaflow/internal/handler"
	"mediaflow/internal/imaging"
	"mediaflow/internal/speech"
	"mediaflow/internal/storage"
	"mediaflow/internal/text"
	"mediaflow/internal/translate"
	"mediaflow/internal/video"
)

// DefaultRegistry returns a registry holding every built-in family.
func DefaultRegistry() *handler.Registry {
	registry := handler.NewRegistry()
	registry.MustRegister(text.TypeName, text.New)
	registry.MustRegister(translate.TypeName, translate.New)
	registry.MustRegister(speech.TypeName, speech.New)
	registry.MustRegister(imaging.TypeName, imaging.New)
	registry.MustRegister(video.TypeName, video.New)
	registry.MustRegister(storage.TypeName, storage.New)
	return registry
}
