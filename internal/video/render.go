package video

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"mediaflow/internal/fileutil"
)

// Overlay size behaviors.
const (
	SizeFitText = "fit-text"
	SizeFull    = "full"
)

const (
	mixSampleRate = "44100"
	mixLayout     = "stereo"
	boxPadding    = 10
	evenScale     = "scale=trunc(iw/2)*2:trunc(ih/2)*2"
)

// Overlay is a text box burned into a clip between Start and Stop seconds.
type Overlay struct {
	Text         string
	Font         string
	FontSize     int
	Color        color.RGBA
	Background   color.RGBA
	Opacity      float64
	SizeBehavior string
	X, Y         int
	// Width and Height size the background for SizeFull; zero means the
	// full frame.
	Width, Height int
	Start, Stop   float64
}

// Still renders imagePath for duration seconds with audioPath as the
// soundtrack.
func (t Tools) Still(ctx context.Context, imagePath, audioPath string, duration float64, s Settings) (*Clip, error) {
	out, err := t.TempFile("clip-*.mp4")
	if err != nil {
		return nil, err
	}
	fps := strconv.Itoa(s.FPS)
	args := []string{
		"-loop", "1", "-framerate", fps, "-i", imagePath,
		"-i", audioPath,
		"-map", "0:v:0", "-map", "1:a:0",
		"-vf", evenScale + ",format=yuv420p",
		"-r", fps,
		"-c:v", s.Codec,
		"-c:a", "aac",
		"-t", formatSeconds(duration),
		"-shortest",
		out,
	}
	if err := t.ffmpeg(ctx, "generate-video", args...); err != nil {
		os.Remove(out)
		return nil, err
	}
	return t.Probe(ctx, out)
}

// Concat joins clips in order on a canvas large enough for the biggest one.
// Clips without audio contribute silence so the soundtrack stays aligned.
func (t Tools) Concat(ctx context.Context, clips []*Clip, s Settings) (*Clip, error) {
	if len(clips) == 0 {
		return nil, errors.New("no clips to concatenate")
	}
	width, height := canvas(clips)
	if width == 0 || height == 0 {
		return nil, errors.New("clips have no usable frame size")
	}
	out, err := t.TempFile("clip-*.mp4")
	if err != nil {
		return nil, err
	}

	args := make([]string, 0, len(clips)*2+16)
	for _, clip := range clips {
		args = append(args, "-i", clip.Path)
	}
	var (
		filters []string
		pairs   strings.Builder
		next    = len(clips)
	)
	for i, clip := range clips {
		filters = append(filters, fmt.Sprintf(
			"[%d:v]scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2,setsar=1,fps=%d,format=yuv420p[v%d]",
			i, width, height, width, height, s.FPS, i,
		))
		audioInput := i
		if !clip.HasAudio {
			args = append(args, "-f", "lavfi", "-t", formatSeconds(clip.Duration), "-i", "anullsrc=r="+mixSampleRate+":cl="+mixLayout)
			audioInput = next
			next++
		}
		filters = append(filters, fmt.Sprintf(
			"[%d:a]aformat=sample_rates=%s:channel_layouts=%s[a%d]",
			audioInput, mixSampleRate, mixLayout, i,
		))
		fmt.Fprintf(&pairs, "[v%d][a%d]", i, i)
	}
	filters = append(filters, fmt.Sprintf("%sconcat=n=%d:v=1:a=1[v][a]", pairs.String(), len(clips)))

	args = append(args,
		"-filter_complex", strings.Join(filters, ";"),
		"-map", "[v]", "-map", "[a]",
		"-c:v", s.Codec,
		"-c:a", "aac",
		"-r", strconv.Itoa(s.FPS),
		out,
	)
	if err := t.ffmpeg(ctx, "combine-videos", args...); err != nil {
		os.Remove(out)
		return nil, err
	}
	return t.Probe(ctx, out)
}

// canvas returns the largest frame among clips, rounded up to even sizes.
func canvas(clips []*Clip) (int, int) {
	var width, height int
	for _, clip := range clips {
		width = max(width, clip.Width)
		height = max(height, clip.Height)
	}
	return width + width%2, height + height%2
}

// Burn draws overlays onto clip and returns the new clip. An empty overlay
// list returns clip unchanged.
func (t Tools) Burn(ctx context.Context, clip *Clip, overlays []Overlay, s Settings, operation string) (*Clip, error) {
	if len(overlays) == 0 {
		return clip, nil
	}
	textDir, err := t.tempDir("overlay-")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(textDir)

	var chain []string
	for i, overlay := range overlays {
		textPath := filepath.Join(textDir, fmt.Sprintf("text-%04d.txt", i))
		if err := fileutil.WriteFileAtomic(textPath, []byte(overlay.Text), 0o644); err != nil {
			return nil, fmt.Errorf("write overlay text: %w", err)
		}
		chain = append(chain, overlayFilters(overlay, textPath)...)
	}

	out, err := t.TempFile("clip-*.mp4")
	if err != nil {
		return nil, err
	}
	args := []string{
		"-i", clip.Path,
		"-vf", strings.Join(chain, ","),
		"-c:v", s.Codec,
		"-pix_fmt", "yuv420p",
	}
	if clip.HasAudio {
		args = append(args, "-c:a", "copy")
	}
	args = append(args, out)
	if err := t.ffmpeg(ctx, operation, args...); err != nil {
		os.Remove(out)
		return nil, err
	}
	return t.Probe(ctx, out)
}

func overlayFilters(o Overlay, textPath string) []string {
	enable := fmt.Sprintf("enable='between(t,%s,%s)'", formatSeconds(o.Start), formatSeconds(o.Stop))
	background := filterColor(o.Background, o.Opacity)
	draw := []string{
		"textfile=" + quoteFilterValue(textPath),
		"fontsize=" + strconv.Itoa(o.FontSize),
		"fontcolor=" + filterColor(o.Color, 1),
		"x=" + strconv.Itoa(o.X),
		"y=" + strconv.Itoa(o.Y),
	}
	if font := strings.TrimSpace(o.Font); font != "" {
		draw = append(draw, "font="+quoteFilterValue(font))
	}

	var filters []string
	if o.SizeBehavior == SizeFull {
		w, h := "iw", "ih"
		if o.Width > 0 {
			w = strconv.Itoa(o.Width)
		}
		if o.Height > 0 {
			h = strconv.Itoa(o.Height)
		}
		filters = append(filters, fmt.Sprintf("drawbox=x=%d:y=%d:w=%s:h=%s:color=%s:t=fill:%s", o.X, o.Y, w, h, background, enable))
	} else {
		draw = append(draw, "box=1", "boxcolor="+background, "boxborderw="+strconv.Itoa(boxPadding))
	}
	draw = append(draw, enable)
	return append(filters, "drawtext="+strings.Join(draw, ":"))
}

// filterColor renders c in FFmpeg's 0xRRGGBB[@alpha] notation.
func filterColor(c color.RGBA, opacity float64) string {
	hex := fmt.Sprintf("0x%02X%02X%02X", c.R, c.G, c.B)
	if opacity >= 1 {
		return hex
	}
	return hex + "@" + strconv.FormatFloat(max(opacity, 0), 'f', 2, 64)
}

func quoteFilterValue(value string) string {
	return "'" + strings.ReplaceAll(value, "'", `'\''`) + "'"
}

// Export writes clip to dest. Matching extensions are copied; anything else
// is transcoded with codec.
func (t Tools) Export(ctx context.Context, clip *Clip, dest, codec string) error {
	if clip == nil {
		return errors.New("no clip to export")
	}
	if strings.EqualFold(filepath.Ext(clip.Path), filepath.Ext(dest)) {
		return fileutil.CopyFile(clip.Path, dest)
	}
	if err := fileutil.EnsureParentDir(dest); err != nil {
		return err
	}
	args := []string{"-i", clip.Path, "-c:v", codec, "-pix_fmt", "yuv420p"}
	if clip.HasAudio {
		args = append(args, "-c:a", "aac")
	}
	args = append(args, dest)
	return t.ffmpeg(ctx, "export", args...)
}
