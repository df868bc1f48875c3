// Copyright 2018 The ZikiChombo Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package cmdqueue

import (
	"context"

	"code.hybscloud.com/iox"
	"code.hybscloud.com/lfq"
)

// Reclaimer is the non-audio thread's half of deferred reclamation: the
// audio thread drops handles into it (Release, non-blocking, best
// effort) and a background goroutine drains it, letting the last
// Go-level reference go so the garbage collector can reclaim the
// DecodedAudio. Nothing here runs on the audio thread.
type Reclaimer struct {
	dropped *lfq.SPSC[*AudioHandle]
}

// NewReclaimer creates a Reclaimer with the given capacity. A dropped
// handle that arrives when the queue is full is simply never reclaimed
// promptly. That is a leak only in the sense that collection is delayed,
// never
// a correctness issue, since the audio side already stopped using it.
func NewReclaimer(capacity int) *Reclaimer {
	return &Reclaimer{dropped: lfq.NewSPSC[*AudioHandle](capacity)}
}

// Release decrements h's reference count and, if it reached zero, posts
// h to the reclamation queue. Called from the audio thread; never
// blocks, allocates, or frees.
func (r *Reclaimer) Release(h *AudioHandle) {
	if h == nil {
		return
	}
	if h.release() {
		_ = r.dropped.Enqueue(&h)
	}
}

// Run drains the reclamation queue until ctx is cancelled, sleeping
// between empty polls. It is meant to run on its own goroutine, never
// the audio thread or the controller thread that owns the graph.
func (r *Reclaimer) Run(ctx context.Context) {
	var backoff iox.Backoff
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		h, err := r.dropped.Dequeue()
		if err != nil {
			backoff.Wait()
			continue
		}
		backoff.Reset()
		// Drop the last reference; (*h).data becomes collectible.
		h.data = nil
	}
}
