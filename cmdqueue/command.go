// Copyright 2018 The ZikiChombo Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package cmdqueue

// Kind identifies which variant of Command is populated.
type Kind int

const (
	LoadFileCmd Kind = iota
	PlayCmd
	StopCmd
	SeekCmd
	ScrubCmd
	SetActiveCmd
)

// Command is the wire format carried over the controller-to-audio
// queue. Its largest payload is a pointer-sized *AudioHandle, so the
// struct stays small enough to move through the queue by value.
type Command struct {
	Kind    Kind
	Audio   *AudioHandle
	Seconds float64
	Channel int
	Active  bool
}

// LoadFile swaps the player's source. The caller must have Retain()'d
// the handle for this send; the audio side takes ownership of exactly
// one reference.
func LoadFile(h *AudioHandle) Command { return Command{Kind: LoadFileCmd, Audio: h} }

// Play transitions Stopped -> Playing.
func Play() Command { return Command{Kind: PlayCmd} }

// Stop transitions Playing -> Stopped and resets nothing else.
func Stop() Command { return Command{Kind: StopCmd} }

// Seek moves the playhead to round(seconds * sample_rate), clamped to
// the loaded file's length.
func Seek(seconds float64) Command { return Command{Kind: SeekCmd, Seconds: seconds} }

// Scrub is reserved: accepted by the queue and the player's drain loop,
// but the player takes no action on it. See the ScrubCmd case in
// package player's apply method.
func Scrub(seconds float64) Command { return Command{Kind: ScrubCmd, Seconds: seconds} }

// SetActive toggles one output channel's membership in the player's
// activity mask.
func SetActive(channel int, active bool) Command {
	return Command{Kind: SetActiveCmd, Channel: channel, Active: active}
}
