package worker

import (
	"context"
	"os/exec"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/castforge/studio-backend/internal/models"
	"github.com/castforge/studio-backend/internal/pipeline"
)

const toolOutputLimit = 2000

// MediaInfo is the probed shape of a raw media file. Kind is video when
// any video stream is present, audio otherwise.
type MediaInfo struct {
	Kind       models.TrackKind
	Codec      string
	DurationMs int64
}

// Processor abstracts the media tooling so executors can be tested
// without ffmpeg on the machine.
type Processor interface {
	Probe(ctx context.Context, inputPath string) (*MediaInfo, error)
	ConvertAudio(ctx context.Context, inputPath, outputPath string) error
	ConvertVideo(ctx context.Context, inputPath, outputPath string) error
	MuxCaptions(ctx context.Context, inputPath, captionsPath, outputPath string) error
}

type ffmpegProcessor struct{}

func NewFFmpegProcessor() Processor {
	return &ffmpegProcessor{}
}

func (p *ffmpegProcessor) Probe(ctx context.Context, inputPath string) (*MediaInfo, error) {
	cmd := exec.CommandContext(ctx, "ffprobe", "-v", "error",
		"-show_entries", "stream=codec_name,codec_type", "-of", "csv=p=0", inputPath)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, toolError("ffprobe streams", err, output)
	}

	info := &MediaInfo{Kind: models.TrackKindAudio}
	for _, line := range strings.Split(strings.TrimSpace(string(output)), "\n") {
		parts := strings.Split(strings.TrimRight(strings.TrimSpace(line), ","), ",")
		if len(parts) != 2 {
			continue
		}
		codecName, codecType := parts[0], parts[1]
		switch codecType {
		case "video":
			info.Kind = models.TrackKindVideo
			info.Codec = codecName
		case "audio":
			if info.Kind != models.TrackKindVideo {
				info.Codec = codecName
			}
		}
	}
	if info.Codec == "" {
		return nil, errors.Wrapf(pipeline.ErrToolFailure, "ffprobe: no decodable streams in %s", inputPath)
	}

	cmd = exec.CommandContext(ctx, "ffprobe", "-v", "error",
		"-show_entries", "format=duration", "-of", "csv=p=0", inputPath)
	output, err = cmd.CombinedOutput()
	if err != nil {
		return nil, toolError("ffprobe duration", err, output)
	}
	duration, err := strconv.ParseFloat(strings.TrimSpace(string(output)), 64)
	if err != nil {
		return nil, errors.Wrapf(pipeline.ErrToolFailure, "ffprobe: invalid duration %q", strings.TrimSpace(string(output)))
	}
	info.DurationMs = int64(duration * 1000)

	return info, nil
}

// ConvertAudio normalizes any audio input to 48kHz stereo PCM WAV.
func (p *ffmpegProcessor) ConvertAudio(ctx context.Context, inputPath, outputPath string) error {
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-i", inputPath,
		"-vn",
		"-acodec", "pcm_s16le",
		"-ar", "48000",
		"-ac", "2",
		"-y", outputPath,
	)
	if output, err := cmd.CombinedOutput(); err != nil {
		return toolError("ffmpeg audio convert", err, output)
	}
	return nil
}

// ConvertVideo normalizes any video input to H.264/AAC MP4 capped at
// 30fps, with the moov atom up front for streaming playback.
func (p *ffmpegProcessor) ConvertVideo(ctx context.Context, inputPath, outputPath string) error {
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-i", inputPath,
		"-c:v", "libx264",
		"-preset", "veryfast",
		"-crf", "23",
		"-vf", "fps=fps=30",
		"-c:a", "aac",
		"-b:a", "128k",
		"-movflags", "+faststart",
		"-y", outputPath,
	)
	if output, err := cmd.CombinedOutput(); err != nil {
		return toolError("ffmpeg video convert", err, output)
	}
	return nil
}

// MuxCaptions remuxes the input with a WebVTT file as an embedded
// mov_text subtitle track, without re-encoding audio or video.
func (p *ffmpegProcessor) MuxCaptions(ctx context.Context, inputPath, captionsPath, outputPath string) error {
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-i", inputPath,
		"-i", captionsPath,
		"-c", "copy",
		"-c:s", "mov_text",
		"-metadata:s:s:0", "language=eng",
		"-movflags", "+faststart",
		"-y", outputPath,
	)
	if output, err := cmd.CombinedOutput(); err != nil {
		return toolError("ffmpeg captions mux", err, output)
	}
	return nil
}

func toolError(stage string, err error, output []byte) error {
	snippet := strings.TrimSpace(string(output))
	if len(snippet) > toolOutputLimit {
		snippet = snippet[:toolOutputLimit]
	}
	return errors.Wrapf(pipeline.ErrToolFailure, "%s: %v: %s", stage, err, snippet)
}
