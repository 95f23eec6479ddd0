package internal

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/lrstanley/go-ytdlp"
)

// AudioBaseName is the fixed file name (without extension) of downloaded audio
const AudioBaseName = "audio"

// AudioFetcher resolves a video URL to an audio-only file on local disk
type AudioFetcher interface {
	// Audio downloads the audio track of videoURL into dir. Metadata comes
	// from the same invocation and may be nil.
	Audio(ctx context.Context, videoURL, dir string) (*FetchedAudio, error)
}

// FetchedAudio is the result of one download
type FetchedAudio struct {
	Path     string
	Metadata *VideoMetadata
}

// VideoMetadata contains the video details offered to the prompt template
type VideoMetadata struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Channel     string  `json:"channel"`
	Uploader    string  `json:"uploader"`
	Duration    float64 `json:"duration"`
}

// VideoFetcher downloads audio with yt-dlp
type VideoFetcher struct {
	audioFormat string
	verbose     bool
}

// NewVideoFetcher creates a yt-dlp backed fetcher
func NewVideoFetcher(verbose bool) *VideoFetcher {
	return &VideoFetcher{
		audioFormat: "mp3",
		verbose:     verbose,
	}
}

// Audio downloads the best audio-only stream into dir as audio.<ext>
func (vf *VideoFetcher) Audio(ctx context.Context, videoURL, dir string) (*FetchedAudio, error) {
	if vf.verbose {
		fmt.Println("Downloading audio...")
	}

	if err := EnsureDirs(dir); err != nil {
		return nil, fmt.Errorf("creating scratch directory: %w", err)
	}

	outputPath := filepath.Join(dir, AudioBaseName+".%(ext)s")

	dl := ytdlp.New().
		Format("bestaudio").         // Audio-only stream, no video
		NoPlaylist().                // A playlist URL resolves to its single video
		DumpJSON().                  // Video info on stdout, read for the title
		NoSimulate().                // ...while still downloading
		ExtractAudio().              // Extract audio from container
		AudioFormat(vf.audioFormat). // Fixed extension for the next stage
		AudioQuality("5").           // Speech does not need more
		Output(outputPath)

	result, err := dl.Run(ctx, videoURL)
	if err != nil {
		stderr := ""
		if result != nil {
			stderr = strings.TrimSpace(result.Stderr)
		}
		return nil, fmt.Errorf("yt-dlp failed: %w\nOutput: %s", err, stderr)
	}

	audioFile := filepath.Join(dir, AudioBaseName+"."+vf.audioFormat)
	if !FileExists(audioFile) {
		// extractor chose another container, take whatever landed in dir
		matches, _ := filepath.Glob(filepath.Join(dir, AudioBaseName+".*"))
		if len(matches) == 0 {
			return nil, fmt.Errorf("no audio file written for %s", videoURL)
		}
		audioFile = matches[0]
	}

	metadata := parseVideoInfo(result.Stdout)

	if vf.verbose {
		fmt.Printf("Audio saved to %s\n", audioFile)
		if metadata != nil {
			fmt.Printf("Title: %s\n", metadata.Title)
			fmt.Printf("Duration: %.2f seconds\n", metadata.Duration)
		}
	}

	return &FetchedAudio{Path: audioFile, Metadata: metadata}, nil
}

// parseVideoInfo reads the first JSON object yt-dlp printed. Missing or
// malformed info yields nil; the title is optional prompt context.
func parseVideoInfo(stdout string) *VideoMetadata {
	scanner := bufio.NewScanner(strings.NewReader(stdout))
	scanner.Buffer(make([]byte, 0, 64*1024), 16<<20)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "{") {
			continue
		}
		var metadata VideoMetadata
		if err := json.Unmarshal([]byte(line), &metadata); err != nil {
			return nil
		}
		return &metadata
	}
	return nil
}
