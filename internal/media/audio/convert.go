package audio

import (
	"errors"
	"fmt"
)

// Convert returns a copy of c resampled to sampleRate, remixed to channels
// and rescaled to bitDepth. Resampling is linear.
func (c *Clip) Convert(sampleRate, channels, bitDepth int) (*Clip, error) {
	if c == nil {
		return nil, errors.New("convert: nil clip")
	}
	if sampleRate <= 0 || channels <= 0 || bitDepth <= 0 {
		return nil, fmt.Errorf("convert: invalid target format %d Hz, %d ch, %d bit", sampleRate, channels, bitDepth)
	}
	if c.Channels <= 0 || c.SampleRate <= 0 {
		return nil, errors.New("convert: source format is incomplete")
	}
	samples := remix(c.Samples, c.Channels, channels)
	samples = resample(samples, channels, c.SampleRate, sampleRate)
	samples = rescale(samples, sourceDepth(c.BitDepth), bitDepth)
	return &Clip{SampleRate: sampleRate, Channels: channels, BitDepth: bitDepth, Samples: samples}, nil
}

func sourceDepth(depth int) int {
	if depth <= 0 {
		return DefaultBitDepth
	}
	return depth
}

// remix averages down to mono or repeats mono across channels. Other layouts
// keep the leading channels and pad with the last one.
func remix(samples []int, from, to int) []int {
	if from == to {
		return append([]int(nil), samples...)
	}
	frames := len(samples) / from
	out := make([]int, frames*to)
	for f := range frames {
		frame := samples[f*from : (f+1)*from]
		if to == 1 {
			sum := 0
			for _, s := range frame {
				sum += s
			}
			out[f] = sum / from
			continue
		}
		for ch := range to {
			src := ch
			if src >= from {
				src = from - 1
			}
			out[f*to+ch] = frame[src]
		}
	}
	return out
}

func resample(samples []int, channels, from, to int) []int {
	if from == to || len(samples) == 0 {
		return samples
	}
	frames := len(samples) / channels
	outFrames := int(int64(frames) * int64(to) / int64(from))
	out := make([]int, outFrames*channels)
	ratio := float64(from) / float64(to)
	for f := range outFrames {
		pos := float64(f) * ratio
		i := int(pos)
		frac := pos - float64(i)
		next := i + 1
		if next >= frames {
			next = frames - 1
		}
		for ch := range channels {
			a := float64(samples[i*channels+ch])
			b := float64(samples[next*channels+ch])
			out[f*channels+ch] = int(a + (b-a)*frac)
		}
	}
	return out
}

func rescale(samples []int, from, to int) []int {
	if from == to {
		return samples
	}
	out := make([]int, len(samples))
	if to > from {
		shift := uint(to - from)
		for i, s := range samples {
			out[i] = s << shift
		}
		return out
	}
	shift := uint(from - to)
	for i, s := range samples {
		out[i] = s >> shift
	}
	return out
}

// Concat joins clips in order, converting each to the format of the first.
// Nil clips are skipped.
func Concat(clips ...*Clip) (*Clip, error) {
	var result *Clip
	for i, clip := range clips {
		if clip == nil {
			continue
		}
		if result == nil {
			result = &Clip{
				SampleRate: clip.SampleRate,
				Channels:   clip.Channels,
				BitDepth:   sourceDepth(clip.BitDepth),
				Samples:    append([]int(nil), clip.Samples...),
			}
			continue
		}
		converted, err := clip.Convert(result.SampleRate, result.Channels, result.BitDepth)
		if err != nil {
			return nil, fmt.Errorf("concat clip %d: %w", i, err)
		}
		result.Samples = append(result.Samples, converted.Samples...)
	}
	if result == nil {
		return nil, errors.New("concat: no clips")
	}
	return result, nil
}

// Gain scales every sample by factor, clipping at the bit depth limits.
func (c *Clip) Gain(factor float64) *Clip {
	out := &Clip{SampleRate: c.SampleRate, Channels: c.Channels, BitDepth: c.BitDepth, Samples: make([]int, len(c.Samples))}
	limit := 1<<(sourceDepth(c.BitDepth)-1) - 1
	for i, s := range c.Samples {
		v := int(float64(s) * factor)
		switch {
		case v > limit:
			v = limit
		case v < -limit-1:
			v = -limit - 1
		}
		out.Samples[i] = v
	}
	return out
}
