// Copyright 2018 The ZikiChombo Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

// Package cmdqueue implements the bounded lock-free controller-to-audio
// command channel and the paired reclamation path that lets the
// audio thread drop decoded-audio handles without ever calling into the
// allocator.
package cmdqueue

import (
	"code.hybscloud.com/iox"
	"code.hybscloud.com/lfq"
)

// DefaultCapacity comfortably absorbs controller-side UI burst rates.
const DefaultCapacity = 2048

// Queue is the single-producer (controller), single-consumer (audio
// thread) command channel.
type Queue struct {
	q *lfq.SPSC[Command]
}

// NewQueue creates a Queue with the given capacity, rounded up to a
// power of two by lfq.
func NewQueue(capacity int) *Queue {
	return &Queue{q: lfq.NewSPSC[Command](capacity)}
}

// TryPush attempts one non-blocking enqueue from the controller thread.
// It reports whether the command was accepted; a false return means
// Full, and the caller decides whether to retry.
func (q *Queue) TryPush(cmd Command) bool {
	return q.q.Enqueue(&cmd) == nil
}

// Push retries with a backoff until the command is accepted. The
// controller-side busy-wait is bounded by how fast the audio side
// drains, one queue's worth of callbacks at most.
func (q *Queue) Push(cmd Command) {
	var backoff iox.Backoff
	for !q.TryPush(cmd) {
		backoff.Wait()
	}
}

// Pop is the audio thread's non-blocking, wait-free drain step. It
// reports false when the queue is empty.
func (q *Queue) Pop() (Command, bool) {
	cmd, err := q.q.Dequeue()
	if err != nil {
		return Command{}, false
	}
	return cmd, true
}

// Drain pops every currently queued command and invokes fn on each, in
// FIFO order. Safe to call once per audio callback from the audio
// thread; fn must not block or allocate.
func (q *Queue) Drain(fn func(Command)) {
	for {
		cmd, ok := q.Pop()
		if !ok {
			return
		}
		fn(cmd)
	}
}
