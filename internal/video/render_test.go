package video

import (
	"context"
	"image/color"
	"os"
	"strings"
	"testing"
)

func TestOverlayFiltersFitText(t *testing.T) {
	filters := overlayFilters(Overlay{
		FontSize:     32,
		Font:         "Arial",
		Color:        color.RGBA{R: 255, G: 255, B: 255, A: 255},
		Background:   color.RGBA{A: 255},
		Opacity:      0.5,
		SizeBehavior: SizeFitText,
		X:            10,
		Y:            20,
		Start:        1,
		Stop:         2.5,
	}, "/work/text-0000.txt")
	if len(filters) != 1 {
		t.Fatalf("expected a single drawtext filter, got %v", filters)
	}
	got := filters[0]
	for _, want := range []string{
		"drawtext=textfile='/work/text-0000.txt'",
		"fontsize=32",
		"fontcolor=0xFFFFFF",
		"x=10:y=20",
		"font='Arial'",
		"box=1:boxcolor=0x000000@0.50",
		"enable='between(t,1.000,2.500)'",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("expected %q in %q", want, got)
		}
	}
}

func TestOverlayFiltersFullBackground(t *testing.T) {
	filters := overlayFilters(Overlay{
		FontSize:     24,
		Background:   color.RGBA{R: 0x11, G: 0x22, B: 0x33, A: 255},
		Opacity:      1,
		SizeBehavior: SizeFull,
		Width:        200,
		Stop:         1,
	}, "/t.txt")
	if len(filters) != 2 {
		t.Fatalf("expected drawbox and drawtext, got %v", filters)
	}
	if !strings.HasPrefix(filters[0], "drawbox=x=0:y=0:w=200:h=ih:color=0x112233:t=fill") {
		t.Fatalf("unexpected drawbox filter %q", filters[0])
	}
	if strings.Contains(filters[1], "box=1") {
		t.Fatalf("full-size overlays should not box the text: %q", filters[1])
	}
}

func TestQuoteFilterValueEscapesQuotes(t *testing.T) {
	if got := quoteFilterValue("it's"); got != `'it'\''s'` {
		t.Fatalf("unexpected quoting %q", got)
	}
}

func TestCanvasRoundsUpToEven(t *testing.T) {
	w, h := canvas([]*Clip{{Width: 641, Height: 360}, {Width: 320, Height: 481}})
	if w != 642 || h != 482 {
		t.Fatalf("unexpected canvas %dx%d", w, h)
	}
}

func TestConcatAddsSilenceForMutedClips(t *testing.T) {
	var ffmpegArgs []string
	tools := Tools{
		WorkDir: t.TempDir(),
		Run: func(_ context.Context, name string, args ...string) ([]byte, error) {
			if name == "ffmpeg" {
				ffmpegArgs = args
				return nil, os.WriteFile(args[len(args)-1], []byte("video"), 0o644)
			}
			return []byte(`{"streams":[{"codec_type":"video","width":640,"height":360},{"codec_type":"audio"}],"format":{"duration":"5"}}`), nil
		},
	}
	clips := []*Clip{
		{Path: "/in/a.mp4", Width: 640, Height: 360, Duration: 2, HasAudio: true},
		{Path: "/in/b.mp4", Width: 640, Height: 360, Duration: 3},
	}
	out, err := tools.Concat(context.Background(), clips, Settings{Codec: "libx264", FPS: 30})
	if err != nil {
		t.Fatalf("Concat: %v", err)
	}
	if out.Duration != 5 || !out.HasAudio {
		t.Fatalf("unexpected probed clip %+v", out)
	}
	joined := strings.Join(ffmpegArgs, " ")
	for _, want := range []string{
		"-i /in/a.mp4 -i /in/b.mp4 -f lavfi -t 3.000 -i anullsrc=r=44100:cl=stereo",
		"[0:a]aformat=sample_rates=44100:channel_layouts=stereo[a0]",
		"[2:a]aformat=sample_rates=44100:channel_layouts=stereo[a1]",
		"[v0][a0][v1][a1]concat=n=2:v=1:a=1[v][a]",
		"-c:v libx264",
		"-r 30",
	} {
		if !strings.Contains(joined, want) {
			t.Fatalf("expected %q in ffmpeg args %q", want, joined)
		}
	}
}

func TestBurnWithoutOverlaysKeepsClip(t *testing.T) {
	clip := &Clip{Path: "/in/a.mp4"}
	got, err := Tools{}.Burn(context.Background(), clip, nil, Settings{}, "apply-subtitle")
	if err != nil || got != clip {
		t.Fatalf("expected unchanged clip, got %+v err=%v", got, err)
	}
}

func TestFilterColor(t *testing.T) {
	if got := filterColor(color.RGBA{R: 0xAB, G: 0xCD, B: 0xEF}, 0.25); got != "0xABCDEF@0.25" {
		t.Fatalf("unexpected color %q", got)
	}
	if got := filterColor(color.RGBA{R: 1, G: 2, B: 3}, -1); got != "0x010203@0.00" {
		t.Fatalf("unexpected clamped color %q", got)
	}
}
