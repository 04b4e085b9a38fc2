package modem

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WAV format codes.
const (
	wavFormatPCM   = 1
	wavFormatFloat = 3
)

// ErrInvalidWAV is returned for files that are not mono 16-bit PCM or 32-bit
// float WAV.
var ErrInvalidWAV = errors.New("invalid WAV file")

// wavHeader is the canonical 44-byte header of a single-chunk WAV file.
type wavHeader struct {
	ChunkID       [4]byte // "RIFF"
	ChunkSize     uint32  // file size - 8
	Format        [4]byte // "WAVE"
	Subchunk1ID   [4]byte // "fmt "
	Subchunk1Size uint32  // 16
	AudioFormat   uint16  // 3 for IEEE float
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
	Subchunk2ID   [4]byte // "data"
	Subchunk2Size uint32
}

// WriteWAV writes mono 32-bit float samples to path.
func WriteWAV(path string, sampleRate int, samples []float32) error {
	dataSize := uint32(len(samples) * 4)
	header := wavHeader{
		ChunkID:       [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:     36 + dataSize,
		Format:        [4]byte{'W', 'A', 'V', 'E'},
		Subchunk1ID:   [4]byte{'f', 'm', 't', ' '},
		Subchunk1Size: 16,
		AudioFormat:   wavFormatFloat,
		NumChannels:   1,
		SampleRate:    uint32(sampleRate),
		ByteRate:      uint32(sampleRate * 4),
		BlockAlign:    4,
		BitsPerSample: 32,
		Subchunk2ID:   [4]byte{'d', 'a', 't', 'a'},
		Subchunk2Size: dataSize,
	}

	var buf bytes.Buffer
	buf.Grow(44 + int(dataSize))
	if err := binary.Write(&buf, binary.LittleEndian, &header); err != nil {
		return fmt.Errorf("failed to encode WAV header: %w", err)
	}
	if err := binary.Write(&buf, binary.LittleEndian, samples); err != nil {
		return fmt.Errorf("failed to encode WAV samples: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write WAV file: %w", err)
	}
	return nil
}

// ReadWAV reads a mono WAV file (32-bit float or 16-bit PCM) and returns the
// sample rate and samples scaled to [-1, 1].
func ReadWAV(path string) (int, []float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read WAV file: %w", err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read WAV file: %w", err)
	}

	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		return 0, nil, fmt.Errorf("%w: missing RIFF/WAVE header or fmt chunk", ErrInvalidWAV)
	}
	if err := d.FwdToPCM(); err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrInvalidWAV, err)
	}
	if d.NumChans != 1 {
		return 0, nil, fmt.Errorf("%w: %d channels, want mono", ErrInvalidWAV, d.NumChans)
	}
	decode, err := sampleDecoder(d.WavAudioFormat, d.BitDepth)
	if err != nil {
		return 0, nil, err
	}
	if int64(d.PCMSize) > info.Size() {
		return 0, nil, fmt.Errorf("%w: data chunk of %d bytes in a %d byte file", ErrInvalidWAV, d.PCMSize, info.Size())
	}

	samples := make([]float64, 0, d.PCMSize/int(d.BitDepth/8))
	buf := &audio.IntBuffer{Format: d.Format(), Data: make([]int, 4096)}
	for {
		n, err := d.PCMBuffer(buf)
		if err != nil && !errors.Is(err, io.EOF) {
			return 0, nil, fmt.Errorf("%w: %v", ErrInvalidWAV, err)
		}
		if n == 0 {
			break
		}
		for _, v := range buf.Data[:n] {
			samples = append(samples, decode(v))
		}
		if err != nil {
			break
		}
	}
	return int(d.SampleRate), samples, nil
}

// sampleDecoder converts the integers produced by the PCM decoder back to
// floating point. 32-bit float samples arrive as their raw bit patterns.
func sampleDecoder(format, bits uint16) (func(int) float64, error) {
	switch {
	case format == wavFormatFloat && bits == 32:
		return func(v int) float64 { return float64(math.Float32frombits(uint32(v))) }, nil
	case format == wavFormatPCM && bits == 16:
		return func(v int) float64 { return float64(int16(v)) / 32768 }, nil
	}
	return nil, fmt.Errorf("%w: format %d with %d bits per sample", ErrInvalidWAV, format, bits)
}

// ReadSignal reads a signal written by Modulator.Save, undoing its halving.
func ReadSignal(path string) (float64, []float64, error) {
	rate, samples, err := ReadWAV(path)
	if err != nil {
		return 0, nil, err
	}
	for i := range samples {
		samples[i] *= 2
	}
	return float64(rate), samples, nil
}
