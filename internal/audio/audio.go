package audio

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/petems/loopviz/internal/config"
	"github.com/rs/zerolog"
)

var (
	// ErrDeviceNotFound means no input device name starts with the configured prefix.
	ErrDeviceNotFound = errors.New("audio: no matching input device")
	// ErrUnsupportedFile means the replay file extension has no decoder.
	ErrUnsupportedFile = errors.New("audio: unsupported file type")
)

// Source delivers fixed-size chunks of interleaved signed 16-bit PCM.
type Source interface {
	// ReadChunk blocks until one chunk is available. The returned slice is
	// owned by the caller.
	ReadChunk() ([]int16, error)
	SampleRate() int
	Channels() int
	Close() error
}

// AudioDevice represents an audio input device
type AudioDevice struct {
	Index    int
	Name     string
	Channels int
	Default  bool
}

// New opens the source described by cfg: file replay when cfg.File is set,
// live PortAudio capture otherwise.
func New(cfg config.AudioConfig, log zerolog.Logger) (Source, error) {
	if cfg.File != "" {
		return OpenFile(cfg.File, cfg.ChunkSize, cfg.Loop)
	}
	return openPortAudio(cfg, log)
}

// OpenFile replays an audio file in chunks of chunkSize frames. Supported
// formats are picked by extension: .wav, .mp3 and .ogg.
func OpenFile(path string, chunkSize int, loop bool) (Source, error) {
	var open decoderFunc
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav", ".wave":
		open = newWAVDecoder
	case ".mp3":
		open = newMP3Decoder
	case ".ogg", ".oga":
		open = newOggDecoder
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFile, path)
	}
	return newFileSource(path, chunkSize, loop, open)
}
