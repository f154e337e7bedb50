package srt

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestParseSkipsMalformedBlocks(t *testing.T) {
	data := "\uFEFF1\r\n00:00:01,000 --> 00:00:02,500\r\nHello\r\nthere\r\n\r\n2\r\nnot a timing line\r\nBroken\r\n\r\n3\r\n00:00:03.000 --> 00:00:04.000\r\nWorld\r\n"
	cues := Parse([]byte(data))
	if len(cues) != 2 {
		t.Fatalf("expected 2 cues, got %d: %+v", len(cues), cues)
	}
	if cues[0].Text != "Hello\nthere" || cues[0].Start != 1 || cues[0].End != 2.5 {
		t.Fatalf("unexpected first cue %+v", cues[0])
	}
	if cues[1].Index != 3 || cues[1].Start != 3 {
		t.Fatalf("unexpected second cue %+v", cues[1])
	}
}

func TestParseEmpty(t *testing.T) {
	if cues := Parse([]byte("  \n ")); cues != nil {
		t.Fatalf("expected nil cues, got %+v", cues)
	}
}

func TestFormatTimestamp(t *testing.T) {
	cases := map[float64]string{
		0:       "00:00:00,000",
		1.5:     "00:00:01,500",
		3661.25: "01:01:01,250",
		-4:      "00:00:00,000",
		59.9996: "00:01:00,000",
	}
	for input, want := range cases {
		if got := FormatTimestamp(input); got != want {
			t.Errorf("FormatTimestamp(%v) = %q, want %q", input, got, want)
		}
	}
}

func TestWriteAndRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.srt")
	cues := []Cue{
		{Index: 7, Start: 0.5, End: 1.25, Text: "one"},
		{Index: 9, Start: 1.25, End: 2, Text: "two"},
	}
	if err := Write(path, cues); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(got) != 2 || got[0].Index != 1 || got[1].Index != 2 {
		t.Fatalf("expected renumbered cues, got %+v", got)
	}
	if got[1].Text != "two" || got[1].End != 2 {
		t.Fatalf("unexpected cue %+v", got[1])
	}
}

func TestFromWordsKeepsMonotonicTiming(t *testing.T) {
	words := []Word{
		{Text: " Hello", Start: 0.1, End: 0.4},
		{Text: "", Start: 0.4, End: 0.5},
		{Text: "42", Start: 0, End: 0},
		{Text: "world", Start: 0.3, End: 0.9},
	}
	cues := FromWords(words)
	if len(cues) != 3 {
		t.Fatalf("expected 3 cues, got %d", len(cues))
	}
	if cues[1].Start != 0.4 || cues[1].End != 0.4 {
		t.Fatalf("untimed word should inherit previous end, got %+v", cues[1])
	}
	if cues[2].Start != 0.4 || cues[2].End != 0.9 {
		t.Fatalf("expected start clamped to 0.4, got %+v", cues[2])
	}
	if !strings.Contains(Format(cues), "3\n00:00:00,400 --> 00:00:00,900\nworld\n") {
		t.Fatalf("unexpected rendering:\n%s", Format(cues))
	}
}

func TestFromSegments(t *testing.T) {
	segments := []Segment{
		{Text: " First sentence. ", Start: 0, End: 1.5, Words: []Word{{Text: "First"}, {Text: "sentence."}}},
		{Text: "   ", Start: 1.5, End: 2},
		{Text: "Second.", Start: 2, End: 1},
	}
	cues := FromSegments(segments)
	if len(cues) != 2 {
		t.Fatalf("expected 2 cues, got %d", len(cues))
	}
	if cues[0].Text != "First sentence." || cues[1].End != 2 {
		t.Fatalf("unexpected cues %+v", cues)
	}
	if words := SegmentWords(segments); len(words) != 2 {
		t.Fatalf("expected 2 words, got %d", len(words))
	}
}
