package artifact_test

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"mediaflow/internal/artifact"
)

func TestKeyFormat(t *testing.T) {
	if got := artifact.Key(artifact.KindAudio, "intro"); got != "audio-intro" {
		t.Fatalf("unexpected key %q", got)
	}
}

func TestStoreRoundTrip(t *testing.T) {
	store := artifact.NewStore()
	store.Put(artifact.KindText, "greeting", "hello")

	value, err := artifact.Lookup[string](store, artifact.KindText, "greeting")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if value != "hello" {
		t.Fatalf("expected hello, got %q", value)
	}
}

func TestStoreOverwrite(t *testing.T) {
	store := artifact.NewStore()
	store.Put(artifact.KindText, "v", "first")
	store.Put(artifact.KindText, "v", "second")

	value, err := artifact.Lookup[string](store, artifact.KindText, "v")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if value != "second" {
		t.Fatalf("expected overwrite, got %q", value)
	}
	if store.Len() != 1 {
		t.Fatalf("expected single entry, got %d", store.Len())
	}
}

func TestStoreMiss(t *testing.T) {
	store := artifact.NewStore()
	_, err := store.Get(artifact.KindImage, "absent")
	if !errors.Is(err, artifact.ErrCacheMiss) {
		t.Fatalf("expected ErrCacheMiss, got %v", err)
	}
}

func TestStoreKindsDoNotCollide(t *testing.T) {
	store := artifact.NewStore()
	store.Put(artifact.KindText, "intro", "words")
	store.Put(artifact.KindAudio, "intro", []byte{1, 2})

	if _, err := artifact.Lookup[string](store, artifact.KindText, "intro"); err != nil {
		t.Fatalf("text lookup: %v", err)
	}
	if keys := store.Keys(); len(keys) != 2 || keys[0] != "audio-intro" || keys[1] != "text-intro" {
		t.Fatalf("unexpected keys %v", keys)
	}
}

func TestLookupTypeMismatch(t *testing.T) {
	store := artifact.NewStore()
	store.Put(artifact.KindText, "n", 42)
	_, err := artifact.Lookup[string](store, artifact.KindText, "n")
	if !errors.Is(err, artifact.ErrKindMismatch) {
		t.Fatalf("expected ErrKindMismatch, got %v", err)
	}
}

func TestStoreConcurrentAccess(t *testing.T) {
	store := artifact.NewStore()
	var wg sync.WaitGroup
	for i := range 16 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := fmt.Sprintf("n%d", i%4)
			store.Put(artifact.KindText, name, name)
			_, _ = store.Get(artifact.KindText, name)
		}(i)
	}
	wg.Wait()
	if store.Len() != 4 {
		t.Fatalf("expected 4 keys, got %d", store.Len())
	}
}
