package audio

import (
	"fmt"
	"strings"

	"github.com/gordonklaus/portaudio"
	"github.com/petems/loopviz/internal/config"
	"github.com/rs/zerolog"
)

type portAudioCapture struct {
	stream   *portaudio.Stream
	buffer   []int16
	rate     int
	channels int
}

// openPortAudio initializes PortAudio, selects the input device by prefix and
// starts a blocking-read stream. Everything acquired is released again if a
// later step fails.
func openPortAudio(cfg config.AudioConfig, log zerolog.Logger) (_ Source, err error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize PortAudio: %w", err)
	}
	defer func() {
		if err != nil {
			portaudio.Terminate()
		}
	}()

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate devices: %w", err)
	}

	for _, d := range inputDevices(devices, nil) {
		log.Info().Int("id", d.Index).Str("name", d.Name).Int("channels", d.Channels).Msg("Input device")
	}

	device, err := matchDevice(devices, cfg.Device)
	if err != nil {
		return nil, err
	}
	log.Info().Str("device", device.Name).Int("rate", cfg.SampleRate).Int("channels", cfg.Channels).Msg("Opening capture stream")

	// Interleaved int16, one chunk of frames per Read
	buffer := make([]int16, cfg.ChunkSize*cfg.Channels)
	stream, err := portaudio.OpenStream(portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   device,
			Channels: cfg.Channels,
			Latency:  device.DefaultLowInputLatency,
		},
		SampleRate:      float64(cfg.SampleRate),
		FramesPerBuffer: cfg.ChunkSize,
	}, buffer)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio stream: %w", err)
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		return nil, fmt.Errorf("failed to start audio stream: %w", err)
	}

	return &portAudioCapture{
		stream:   stream,
		buffer:   buffer,
		rate:     cfg.SampleRate,
		channels: cfg.Channels,
	}, nil
}

func (p *portAudioCapture) ReadChunk() ([]int16, error) {
	if err := p.stream.Read(); err != nil {
		return nil, fmt.Errorf("audio read: %w", err)
	}
	chunk := make([]int16, len(p.buffer))
	copy(chunk, p.buffer)
	return chunk, nil
}

func (p *portAudioCapture) SampleRate() int { return p.rate }
func (p *portAudioCapture) Channels() int   { return p.channels }

func (p *portAudioCapture) Close() error {
	var err error
	if p.stream != nil {
		if stopErr := p.stream.Stop(); stopErr != nil {
			err = stopErr
		}
		if closeErr := p.stream.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
		p.stream = nil
	}
	if termErr := portaudio.Terminate(); termErr != nil && err == nil {
		err = termErr
	}
	return err
}

// ListDevices enumerates the input devices PortAudio can see
func ListDevices() ([]AudioDevice, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize PortAudio: %w", err)
	}
	defer portaudio.Terminate()

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	defaultDevice, _ := portaudio.DefaultInputDevice()

	return inputDevices(devices, defaultDevice), nil
}

func inputDevices(devices []*portaudio.DeviceInfo, defaultDevice *portaudio.DeviceInfo) []AudioDevice {
	result := make([]AudioDevice, 0, len(devices))
	for _, d := range devices {
		if d.MaxInputChannels > 0 {
			result = append(result, AudioDevice{
				Index:    d.Index,
				Name:     d.Name,
				Channels: d.MaxInputChannels,
				Default:  d == defaultDevice,
			})
		}
	}
	return result
}

// matchDevice returns the first input device whose name starts with prefix.
// The comparison is case-sensitive.
func matchDevice(devices []*portaudio.DeviceInfo, prefix string) (*portaudio.DeviceInfo, error) {
	for _, d := range devices {
		if d.MaxInputChannels > 0 && strings.HasPrefix(d.Name, prefix) {
			return d, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrDeviceNotFound, prefix)
}
