package audio

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"mediaflow/internal/fileutil"
)

// Defaults used for generated silence.
const (
	DefaultSampleRate = 22050
	DefaultChannels   = 1
	DefaultBitDepth   = 16
)

const wavFormatPCM = 1

// ErrInvalidWAV reports input that is not a decodable PCM WAV stream.
var ErrInvalidWAV = errors.New("invalid wav data")

// Clip is a block of interleaved PCM samples.
type Clip struct {
	SampleRate int
	Channels   int
	BitDepth   int
	Samples    []int
}

// Frames returns the number of sample frames (samples per channel).
func (c *Clip) Frames() int {
	if c == nil || c.Channels <= 0 {
		return 0
	}
	return len(c.Samples) / c.Channels
}

// Duration returns the playback length of the clip.
func (c *Clip) Duration() time.Duration {
	if c == nil || c.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(c.Frames()) / float64(c.SampleRate) * float64(time.Second))
}

// Silence returns a zero-filled clip lasting seconds.
func Silence(seconds float64, sampleRate, channels int) (*Clip, error) {
	if seconds < 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return nil, fmt.Errorf("silence duration must be a non-negative number, got %v", seconds)
	}
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	if channels <= 0 {
		channels = DefaultChannels
	}
	frames := int(math.Round(seconds * float64(sampleRate)))
	return &Clip{
		SampleRate: sampleRate,
		Channels:   channels,
		BitDepth:   DefaultBitDepth,
		Samples:    make([]int, frames*channels),
	}, nil
}

// Decode reads a PCM WAV stream.
func Decode(r io.ReadSeeker) (*Clip, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, ErrInvalidWAV
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decode wav: %w", err)
	}
	if buf == nil || buf.Format == nil {
		return nil, ErrInvalidWAV
	}
	return &Clip{
		SampleRate: int(dec.SampleRate),
		Channels:   int(dec.NumChans),
		BitDepth:   int(dec.BitDepth),
		Samples:    buf.Data,
	}, nil
}

// Read decodes the WAV file at path.
func Read(path string) (*Clip, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open wav: %w", err)
	}
	defer f.Close()
	clip, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return clip, nil
}

// Encode writes the clip as a PCM WAV stream.
func (c *Clip) Encode(w io.WriteSeeker) error {
	if c == nil || c.Channels <= 0 || c.SampleRate <= 0 {
		return errors.New("encode wav: clip format is incomplete")
	}
	bitDepth := c.BitDepth
	if bitDepth <= 0 {
		bitDepth = DefaultBitDepth
	}
	enc := wav.NewEncoder(w, c.SampleRate, bitDepth, c.Channels, wavFormatPCM)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: c.Channels, SampleRate: c.SampleRate},
		Data:           c.Samples,
		SourceBitDepth: bitDepth,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("encode wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finalize wav: %w", err)
	}
	return nil
}

// Write stores the clip at path atomically.
func (c *Clip) Write(path string) error {
	return fileutil.WriteAtomicFunc(path, 0o644, func(w io.Writer) error {
		ws, ok := w.(io.WriteSeeker)
		if !ok {
			return errors.New("encode wav: destination is not seekable")
		}
		return c.Encode(ws)
	})
}
