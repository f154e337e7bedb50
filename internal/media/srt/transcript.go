package srt

import "strings"

// Word is a recognized word with timing in seconds.
type Word struct {
	Text  string
	Start float64
	End   float64
}

// Segment is a recognized sentence with its words.
type Segment struct {
	Text  string
	Start float64
	End   float64
	Words []Word
}

// FromWords builds one cue per word. Words the aligner could not time
// inherit the previous word's end so the sequence stays monotonic.
func FromWords(words []Word) []Cue {
	cues := make([]Cue, 0, len(words))
	var last float64
	for _, w := range words {
		text := strings.TrimSpace(w.Text)
		if text == "" {
			continue
		}
		start, end := w.Start, w.End
		if start <= 0 && end <= 0 {
			start, end = last, last
		}
		if start < last {
			start = last
		}
		if end < start {
			end = start
		}
		cues = append(cues, Cue{Index: len(cues) + 1, Start: start, End: end, Text: text})
		last = end
	}
	return cues
}

// FromSegments builds one cue per non-empty segment.
func FromSegments(segments []Segment) []Cue {
	cues := make([]Cue, 0, len(segments))
	for _, seg := range segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		end := seg.End
		if end < seg.Start {
			end = seg.Start
		}
		cues = append(cues, Cue{Index: len(cues) + 1, Start: seg.Start, End: end, Text: text})
	}
	return cues
}

// SegmentWords flattens the words of every segment in order.
func SegmentWords(segments []Segment) []Word {
	var words []Word
	for _, seg := range segments {
		words = append(words, seg.Words...)
	}
	return words
}
