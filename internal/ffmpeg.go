package internal

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// WaveformName is the fixed name of the converted audio inside a run's scratch dir
const WaveformName = "audio.wav"

// Audio handles audio file operations using FFmpeg
type Audio struct {
	cmdRunner CommandRunner
	verbose   bool
}

// NewAudio creates a new audio processor
func NewAudio(cmdRunner CommandRunner, verbose bool) *Audio {
	return &Audio{
		cmdRunner: cmdRunner,
		verbose:   verbose,
	}
}

// ConvertToWAV writes a 16 kHz mono PCM copy of audioFile next to it
func (a *Audio) ConvertToWAV(ctx context.Context, audioFile string) (string, error) {
	output := filepath.Join(filepath.Dir(audioFile), WaveformName)

	if a.verbose {
		fmt.Printf("Converting %s to waveform\n", filepath.Base(audioFile))
	}

	cmdOutput, err := a.cmdRunner.Run(ctx, "ffmpeg",
		"-v", "error",
		"-y",
		"-i", audioFile,
		"-vn",
		"-ac", "1",
		"-ar", "16000",
		"-c:a", "pcm_s16le",
		"-f", "wav",
		output)
	if err != nil {
		return "", fmt.Errorf("ffmpeg failed: %w\nOutput: %s", err, string(cmdOutput))
	}

	info, err := os.Stat(output)
	if err != nil {
		return "", fmt.Errorf("reading waveform: %w", err)
	}
	// a bare RIFF header means there was no audio to decode
	if info.Size() <= 44 {
		return "", fmt.Errorf("waveform is empty: %s", audioFile)
	}

	return output, nil
}

// Duration returns the audio file duration in seconds
func (a *Audio) Duration(ctx context.Context, audioFile string) (float64, error) {
	output, err := a.cmdRunner.Run(ctx, "ffprobe",
		"-i", audioFile,
		"-show_entries", "format=duration",
		"-v", "quiet",
		"-of", "csv=p=0")

	if err != nil {
		return 0, fmt.Errorf("ffprobe failed: %w\nOutput: %s", err, string(output))
	}

	duration, err := strconv.ParseFloat(strings.TrimSpace(string(output)), 64)
	if err != nil {
		return 0, fmt.Errorf("parsing duration: %w", err)
	}

	return duration, nil
}

// ChunksNeeded returns how many pieces a file of size bytes must be cut into to
// stay under limit. Pieces are sized against limit less 5% so the WAV header
// and timestamp rounding never push one over. A limit of zero or less means
// no splitting.
func ChunksNeeded(size, limit int64) int {
	if limit <= 0 || size <= limit {
		return 1
	}
	budget := limit - limit/20
	return int(math.Ceil(float64(size) / float64(budget)))
}

// Split divides an audio file into numChunks pieces of equal duration,
// written next to the source file
func (a *Audio) Split(ctx context.Context, audioFile string, numChunks int) ([]string, error) {
	duration, err := a.Duration(ctx, audioFile)
	if err != nil {
		return nil, fmt.Errorf("getting audio duration: %w", err)
	}

	dir := filepath.Dir(audioFile)
	ext := filepath.Ext(audioFile)
	base := strings.TrimSuffix(filepath.Base(audioFile), ext)

	// fractional seconds keep every piece at duration/numChunks
	chunkDuration := duration / float64(numChunks)
	chunks := make([]string, 0, numChunks)

	for i := range numChunks {
		start := float64(i) * chunkDuration
		output := filepath.Join(dir, fmt.Sprintf("%s_chunk_%d%s", base, i, ext))

		if err := a.Chunk(ctx, audioFile, start, chunkDuration, output); err != nil {
			cleanupFiles(chunks...)
			return nil, fmt.Errorf("creating chunk %d: %w", i, err)
		}
		chunks = append(chunks, output)
	}

	return chunks, nil
}

// Chunk extracts a segment from an audio file
func (a *Audio) Chunk(ctx context.Context, audioFile string, start, duration float64, output string) error {
	cmdOutput, err := a.cmdRunner.Run(ctx, "ffmpeg",
		"-v", "quiet",
		"-i", audioFile,
		"-ss", formatSeconds(start),
		"-t", formatSeconds(duration),
		"-c:a", "copy",
		"-y", output)

	if err != nil {
		return fmt.Errorf("ffmpeg failed: %w\nOutput: %s", err, string(cmdOutput))
	}
	return nil
}

// formatSeconds renders a timestamp with millisecond precision for ffmpeg
func formatSeconds(s float64) string {
	return strconv.FormatFloat(s, 'f', 3, 64)
}
