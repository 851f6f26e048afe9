package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
)

// pcmDecoder yields interleaved 16-bit samples from an opened file.
type pcmDecoder interface {
	// ReadPCM fills dst and returns the number of samples written.
	// (0, io.EOF) or (0, nil) both mean the stream is exhausted.
	ReadPCM(dst []int16) (int, error)
	SampleRate() int
	Channels() int
}

type decoderFunc func(f *os.File) (pcmDecoder, error)

// fileSource replays a decoded file chunk by chunk at the file's own sample
// rate, so a read blocks for about one chunk duration like live capture.
type fileSource struct {
	path   string
	frames int
	loop   bool
	open   decoderFunc

	f   *os.File
	dec pcmDecoder

	now   func() time.Time
	sleep func(time.Duration)
	due   time.Time // earliest time the next chunk may be returned
}

func newFileSource(path string, frames int, loop bool, open decoderFunc) (*fileSource, error) {
	if frames <= 0 {
		return nil, fmt.Errorf("audio: chunk size must be positive, got %d", frames)
	}
	s := &fileSource{
		path:   path,
		frames: frames,
		loop:   loop,
		open:   open,
		now:    time.Now,
		sleep:  time.Sleep,
	}
	if err := s.reopen(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *fileSource) reopen() error {
	if s.f != nil {
		s.f.Close()
		s.f, s.dec = nil, nil
	}

	f, err := os.Open(s.path)
	if err != nil {
		return fmt.Errorf("open %s: %w", s.path, err)
	}
	dec, err := s.open(f)
	if err != nil {
		f.Close()
		return fmt.Errorf("decode %s: %w", s.path, err)
	}
	if dec.Channels() <= 0 {
		f.Close()
		return fmt.Errorf("decode %s: no channels", s.path)
	}

	s.f, s.dec = f, dec
	return nil
}

// ReadChunk returns frames*channels samples. The final chunk of a file is
// zero-padded; after that io.EOF is returned unless the source loops. Every
// call, including those returning io.EOF, waits out the previous chunk.
func (s *fileSource) ReadChunk() ([]int16, error) {
	if s.dec == nil {
		return nil, io.EOF
	}
	s.pace()

	chunk := make([]int16, s.frames*s.dec.Channels())
	filled := 0
	rewound := false
	for filled < len(chunk) {
		n, err := s.dec.ReadPCM(chunk[filled:])
		filled += n
		if n > 0 {
			rewound = false
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
		if n > 0 && err == nil {
			continue
		}

		// Exhausted
		if !s.loop || rewound {
			if filled == 0 {
				return nil, io.EOF
			}
			break
		}
		if err := s.reopen(); err != nil {
			return nil, err
		}
		rewound = true
	}
	return chunk, nil
}

// pace sleeps until the previous chunk has had its playing time. A reader
// that falls behind restarts the schedule rather than bursting to catch up.
func (s *fileSource) pace() {
	rate := s.dec.SampleRate()
	if rate <= 0 {
		return
	}
	now := s.now()
	if s.due.After(now) {
		s.sleep(s.due.Sub(now))
		now = s.due
	}
	s.due = now.Add(time.Duration(s.frames) * time.Second / time.Duration(rate))
}

func (s *fileSource) SampleRate() int {
	if s.dec == nil {
		return 0
	}
	return s.dec.SampleRate()
}

func (s *fileSource) Channels() int {
	if s.dec == nil {
		return 0
	}
	return s.dec.Channels()
}

func (s *fileSource) Close() error {
	if s.f == nil {
		return nil
	}
	err := s.f.Close()
	s.f, s.dec = nil, nil
	return err
}

// --- WAV ---

type wavDecoder struct {
	dec      *wav.Decoder
	buf      *goaudio.IntBuffer
	bitDepth int
	rate     int
	channels int
}

func newWAVDecoder(f *os.File) (pcmDecoder, error) {
	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("invalid WAV file")
	}

	// FwdToPCM positions the reader at the start of PCM data
	if err := dec.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("reading WAV PCM data: %w", err)
	}

	return &wavDecoder{
		dec:      dec,
		buf:      &goaudio.IntBuffer{Format: dec.Format(), SourceBitDepth: int(dec.BitDepth)},
		bitDepth: int(dec.BitDepth),
		rate:     int(dec.SampleRate),
		channels: int(dec.NumChans),
	}, nil
}

func (d *wavDecoder) ReadPCM(dst []int16) (int, error) {
	if cap(d.buf.Data) < len(dst) {
		d.buf.Data = make([]int, len(dst))
	}
	d.buf.Data = d.buf.Data[:len(dst)]

	// PCMBuffer may return fewer samples at the end of the file
	n, err := d.dec.PCMBuffer(d.buf)
	for i := 0; i < n; i++ {
		dst[i] = toInt16(d.buf.Data[i], d.bitDepth)
	}
	return n, err
}

func (d *wavDecoder) SampleRate() int { return d.rate }
func (d *wavDecoder) Channels() int   { return d.channels }

// toInt16 rescales an integer sample of the given bit depth to 16 bits.
// 8-bit WAV data is unsigned.
func toInt16(v, bitDepth int) int16 {
	switch {
	case bitDepth == 8:
		return int16((v - 128) << 8)
	case bitDepth > 16:
		return int16(v >> (bitDepth - 16))
	case bitDepth < 16 && bitDepth > 0:
		return int16(v << (16 - bitDepth))
	default:
		return int16(v)
	}
}

// --- MP3 ---

type mp3Decoder struct {
	dec *mp3.Decoder
	raw []byte
}

func newMP3Decoder(f *os.File) (pcmDecoder, error) {
	dec, err := mp3.NewDecoder(f)
	if err != nil {
		return nil, err
	}
	return &mp3Decoder{dec: dec}, nil
}

// ReadPCM reads go-mp3's 16-bit little-endian stereo stream.
func (d *mp3Decoder) ReadPCM(dst []int16) (int, error) {
	if cap(d.raw) < len(dst)*2 {
		d.raw = make([]byte, len(dst)*2)
	}
	raw := d.raw[:len(dst)*2]

	n, err := io.ReadFull(d.dec, raw)
	if errors.Is(err, io.ErrUnexpectedEOF) {
		err = io.EOF
	}
	samples := n / 2
	for i := 0; i < samples; i++ {
		dst[i] = int16(binary.LittleEndian.Uint16(raw[2*i:]))
	}
	return samples, err
}

func (d *mp3Decoder) SampleRate() int { return d.dec.SampleRate() }
func (d *mp3Decoder) Channels() int   { return 2 }

// --- Ogg Vorbis ---

type oggDecoder struct {
	r   *oggvorbis.Reader
	tmp []float32
}

func newOggDecoder(f *os.File) (pcmDecoder, error) {
	r, err := oggvorbis.NewReader(f)
	if err != nil {
		return nil, err
	}
	return &oggDecoder{r: r}, nil
}

func (d *oggDecoder) ReadPCM(dst []int16) (int, error) {
	if cap(d.tmp) < len(dst) {
		d.tmp = make([]float32, len(dst))
	}
	tmp := d.tmp[:len(dst)]

	n, err := d.r.Read(tmp)
	for i := 0; i < n; i++ {
		dst[i] = floatToInt16(tmp[i])
	}
	return n, err
}

func (d *oggDecoder) SampleRate() int { return d.r.SampleRate() }
func (d *oggDecoder) Channels() int   { return d.r.Channels() }

func floatToInt16(v float32) int16 {
	if v >= 1 {
		return 32767
	}
	if v <= -1 {
		return -32768
	}
	return int16(v * 32767)
}
