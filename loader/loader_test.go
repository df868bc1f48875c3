// Copyright 2018 The ZikiChombo Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/require"
)

func writeWav(t *testing.T, path string, bitDepth, numChans, sampleRate int, interleaved []int) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, bitDepth, numChans, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: numChans, SampleRate: sampleRate},
		Data:           interleaved,
		SourceBitDepth: bitDepth,
	}
	require.NoError(t, enc.Write(buf))
	require.NoError(t, enc.Close())
}

func TestOpen16BitMono(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mono16.wav")
	writeWav(t, path, 16, 1, 44100, []int{0, 16383, -16384, 32767, -32768})

	got, err := Open(path)
	require.NoError(t, err)
	require.Equal(t, 1, got.Channels)
	require.Equal(t, 5, got.Frames)
	require.Equal(t, float64(44100), got.SampleRate)
	require.InDelta(t, 0, got.Samples[0][0], 1e-6)
	require.InDelta(t, 1.0, got.Samples[0][3], 1e-3)
	require.InDelta(t, -1.0, got.Samples[0][4], 1e-3)
}

func TestOpenStereoDeinterleaves(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stereo16.wav")
	// interleaved L,R,L,R: left is all +half scale, right all -half scale.
	writeWav(t, path, 16, 2, 48000, []int{16384, -16384, 16384, -16384})

	got, err := Open(path)
	require.NoError(t, err)
	require.Equal(t, 2, got.Channels)
	require.Equal(t, 2, got.Frames)
	require.InDelta(t, 0.5, got.Samples[0][0], 1e-3)
	require.InDelta(t, -0.5, got.Samples[1][0], 1e-3)
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "does-not-exist.wav"))
	require.Error(t, err)
	var ioErr *IoError
	require.ErrorAs(t, err, &ioErr)
}

func TestOpenNotAWavFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notwav.txt")
	require.NoError(t, os.WriteFile(path, []byte("not a wav file at all, padding to be safe"), 0o644))

	_, err := Open(path)
	require.Error(t, err)
	var unsupported *UnsupportedError
	require.ErrorAs(t, err, &unsupported)
}
