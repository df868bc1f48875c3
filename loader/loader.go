// Copyright 2018 The ZikiChombo Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

// Package loader implements the controller-side file-loading
// collaborator: Open decodes a WAV file into the planar float32 form
// cmdqueue.DecodedAudio and the sample player expect, normalizing
// integer PCM to [-1, 1]. It runs entirely off the audio thread and is
// free to allocate.
package loader

import (
	"fmt"
	"os"

	"github.com/go-audio/wav"

	"github.com/signalgraph/core/cmdqueue"
)

// IoError wraps a failure opening or reading the underlying file.
type IoError struct {
	Path string
	Err  error
}

func (e *IoError) Error() string { return fmt.Sprintf("loader: %s: %v", e.Path, e.Err) }
func (e *IoError) Unwrap() error { return e.Err }

// UnsupportedError reports a WAV encoding this loader does not decode.
type UnsupportedError struct {
	Path   string
	Detail string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("loader: %s: unsupported WAV encoding: %s", e.Path, e.Detail)
}

// wavFormatFloat is the WAVE_FORMAT_IEEE_FLOAT tag. 32-bit float WAV is
// out of scope here: go-audio/wav hands IEEE-float samples back through
// the same audio.IntBuffer as PCM, and reinterpreting that representation
// reliably would need a wider read of the library than this pass covers
// (see DESIGN.md). PCM 16/24/32-bit integer WAV is fully supported.
const wavFormatFloat = 3

// Open decodes path into planar (channel-major) float32 samples. Supported
// encodings are 16-, 24- and 32-bit PCM integer WAV; anything else,
// including 32-bit IEEE float, returns *UnsupportedError.
func Open(path string) (*cmdqueue.DecodedAudio, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &IoError{Path: path, Err: err}
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, &UnsupportedError{Path: path, Detail: "not a valid WAV file"}
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, &IoError{Path: path, Err: err}
	}
	if dec.WavAudioFormat == wavFormatFloat {
		return nil, &UnsupportedError{Path: path, Detail: "32-bit IEEE float WAV"}
	}

	scale, ok := intScale(buf.SourceBitDepth)
	if !ok {
		return nil, &UnsupportedError{Path: path, Detail: fmt.Sprintf("%d-bit PCM", buf.SourceBitDepth)}
	}

	channels := buf.Format.NumChannels
	if channels < 1 {
		return nil, &UnsupportedError{Path: path, Detail: "zero channels"}
	}
	frames := len(buf.Data) / channels

	planar := make([][]float32, channels)
	for c := range planar {
		planar[c] = make([]float32, frames)
	}
	for i, v := range buf.Data {
		c := i % channels
		fr := i / channels
		if fr >= frames {
			continue
		}
		planar[c][fr] = float32(v) / scale
	}

	return &cmdqueue.DecodedAudio{
		Samples:    planar,
		SampleRate: float64(buf.Format.SampleRate),
		Channels:   channels,
		Frames:     frames,
	}, nil
}

// intScale returns the divisor normalizing a sample of the given PCM
// bit depth to [-1, 1].
func intScale(bitDepth int) (float32, bool) {
	switch bitDepth {
	case 16:
		return float32(0x7fff), true
	case 24:
		return float32(0x7fffff), true
	case 32:
		return float32(0x7fffffff), true
	default:
		return 0, false
	}
}
