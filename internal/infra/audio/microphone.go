//go:build portaudio
// +build portaudio

package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/gordonklaus/portaudio"
)

const (
	framesPerBuffer = 1024
	// Frames below this RMS are treated as silence.
	silenceThreshold = 500.0
	// How long the speaker must stay silent before a clip is cut.
	silenceHang = 900 * time.Millisecond
	maxClip     = 10 * time.Second
)

// MicrophoneSource captures energy-gated clips from the default input device.
type MicrophoneSource struct {
	sampleRate int
	logger     *slog.Logger

	stream *portaudio.Stream
	frames []int16
}

func NewMicrophoneSource(sampleRate int, logger *slog.Logger) *MicrophoneSource {
	return &MicrophoneSource{
		sampleRate: sampleRate,
		logger:     logger,
		frames:     make([]int16, framesPerBuffer),
	}
}

func (m *MicrophoneSource) Name() string {
	return "microphone"
}

func (m *MicrophoneSource) Start(_ context.Context) error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("initializing portaudio: %w", err)
	}

	stream, err := portaudio.OpenDefaultStream(1, 0, float64(m.sampleRate), framesPerBuffer, m.frames)
	if err != nil {
		portaudio.Terminate()
		return fmt.Errorf("opening input stream: %w", err)
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return fmt.Errorf("starting input stream: %w", err)
	}

	m.stream = stream
	m.logger.Info("microphone capturing", "sample_rate", m.sampleRate)
	return nil
}

func (m *MicrophoneSource) Stop() error {
	if m.stream != nil {
		_ = m.stream.Stop()
		_ = m.stream.Close()
		m.stream = nil
	}
	portaudio.Terminate()
	return nil
}

// NextClip blocks until a spoken clip has been captured: recording starts on
// the first loud frame and ends after silenceHang of quiet or maxClip.
func (m *MicrophoneSource) NextClip(ctx context.Context) ([]byte, string, error) {
	var (
		recording  bool
		samples    []int16
		quietSince time.Time
		started    time.Time
	)

	for {
		if ctx.Err() != nil {
			return nil, "", ctx.Err()
		}

		if err := m.stream.Read(); err != nil {
			return nil, "", fmt.Errorf("reading microphone: %w", err)
		}

		loud := rms(m.frames) >= silenceThreshold

		if !recording {
			if !loud {
				continue
			}
			recording = true
			started = time.Now()
			m.logger.Debug("clip started")
		}

		samples = append(samples, m.frames...)

		if loud {
			quietSince = time.Time{}
		} else if quietSince.IsZero() {
			quietSince = time.Now()
		}

		done := (!quietSince.IsZero() && time.Since(quietSince) >= silenceHang) ||
			time.Since(started) >= maxClip
		if done {
			m.logger.Debug("clip finished", "samples", len(samples))
			return encodeWAV(samples, m.sampleRate), "audio/wav", nil
		}
	}
}

func rms(frames []int16) float64 {
	var sum float64
	for _, s := range frames {
		sum += float64(s) * float64(s)
	}
	return math.Sqrt(sum / float64(len(frames)))
}

// encodeWAV wraps mono PCM16 samples in a minimal RIFF header.
func encodeWAV(samples []int16, sampleRate int) []byte {
	dataLen := len(samples) * 2
	buf := &bytes.Buffer{}

	buf.WriteString("RIFF")
	binary.Write(buf, binary.LittleEndian, uint32(36+dataLen))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(buf, binary.LittleEndian, uint32(16))
	binary.Write(buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(buf, binary.LittleEndian, uint16(1)) // mono
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate*2))
	binary.Write(buf, binary.LittleEndian, uint16(2))
	binary.Write(buf, binary.LittleEndian, uint16(16))

	buf.WriteString("data")
	binary.Write(buf, binary.LittleEndian, uint32(dataLen))
	binary.Write(buf, binary.LittleEndian, samples)

	return buf.Bytes()
}
