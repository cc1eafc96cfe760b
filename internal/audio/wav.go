package audio

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
)

// WAV layout constants for 16-bit mono PCM.
const (
	wavHeaderSize    = 44
	wavFmtChunkSize  = 16
	wavFormatPCM     = 1
	wavChannelsMono  = 1
	wavBitsPerSample = 16
)

// writeWAV writes mono float samples to path as a 16-bit PCM WAV file.
// Samples are clamped to [-1, 1] and scaled to int16.
func writeWAV(path string, sampleRate int, samples []float64) error {
	if sampleRate <= 0 {
		return fmt.Errorf("invalid sample rate %d", sampleRate)
	}

	f, err := os.Create(path) // #nosec G304 -- path is built by the normalizer, not user input
	if err != nil {
		return fmt.Errorf("create wav file: %w", err)
	}

	w := bufio.NewWriter(f)
	if err := writeWAVHeader(w, sampleRate, len(samples)); err != nil {
		_ = f.Close()
		return fmt.Errorf("write wav header: %w", err)
	}

	pcm := make([]int16, len(samples))
	for i, s := range samples {
		pcm[i] = sampleToInt16(s)
	}
	if err := binary.Write(w, binary.LittleEndian, pcm); err != nil {
		_ = f.Close()
		return fmt.Errorf("write wav data: %w", err)
	}

	if err := w.Flush(); err != nil {
		_ = f.Close()
		return fmt.Errorf("flush wav file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close wav file: %w", err)
	}
	return nil
}

// writeWAVHeader writes the RIFF/WAVE header for 16-bit mono PCM data,
// little-endian throughout.
func writeWAVHeader(w io.Writer, sampleRate, sampleCount int) error {
	dataSize := uint32(sampleCount) * (wavBitsPerSample / 8)
	blockAlign := uint16(wavChannelsMono * wavBitsPerSample / 8)
	byteRate := uint32(sampleRate) * uint32(blockAlign)

	fields := []any{
		[]byte("RIFF"),
		uint32(wavHeaderSize-8) + dataSize, // RIFF chunk size: everything after this field.
		[]byte("WAVE"),
		[]byte("fmt "),
		uint32(wavFmtChunkSize),
		uint16(wavFormatPCM),
		uint16(wavChannelsMono),
		uint32(sampleRate),
		byteRate,
		blockAlign,
		uint16(wavBitsPerSample),
		[]byte("data"),
		dataSize,
	}
	for _, field := range fields {
		if err := binary.Write(w, binary.LittleEndian, field); err != nil {
			return err
		}
	}
	return nil
}

// sampleToInt16 clamps a float sample to [-1, 1] and scales it to int16.
func sampleToInt16(v float64) int16 {
	switch {
	case v > 1:
		v = 1
	case v < -1:
		v = -1
	}
	return int16(v * math.MaxInt16)
}
