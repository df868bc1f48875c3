// Copyright 2018 The ZikiChombo Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

// Command graphrender is an offline demonstration of the signal-graph
// engine: it builds a one-node graph around the sample player, loads a
// WAV file into it, compiles a Schedule, and renders the whole file to
// another WAV file block by block through the zikichombo.org/sound
// adapter, exercising the loader, player, schedule and adapter
// packages together the way a real host's render/bounce path would.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/rs/zerolog"

	"github.com/signalgraph/core/adapter"
	"github.com/signalgraph/core/chconfig"
	"github.com/signalgraph/core/cmdqueue"
	"github.com/signalgraph/core/graph"
	"github.com/signalgraph/core/loader"
	"github.com/signalgraph/core/player"
	"github.com/signalgraph/core/schedule"
)

const blockSize = 1024

func main() {
	in := flag.String("in", "", "input WAV file")
	out := flag.String("out", "", "output WAV file")
	flag.Parse()
	if *in == "" || *out == "" {
		fmt.Fprintln(os.Stderr, "usage: graphrender -in <file.wav> -out <file.wav>")
		os.Exit(2)
	}

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	if err := run(*in, *out, log); err != nil {
		log.Error().Err(err).Msg("render failed")
		os.Exit(1)
	}
}

func run(inPath, outPath string, log zerolog.Logger) error {
	data, err := loader.Open(inPath)
	if err != nil {
		return fmt.Errorf("load %s: %w", inPath, err)
	}
	log.Info().Int("channels", data.Channels).Int("frames", data.Frames).Msg("decoded input")

	g := graph.New(graph.WithLogger(log))
	node, err := g.AddNode("player")
	if err != nil {
		return err
	}
	outPort, err := g.AddPort(graph.Output, node, "out")
	if err != nil {
		return err
	}
	if err := g.ConfigurePort(graph.Output, node, outPort, chconfig.MultiMono(data.Channels)); err != nil {
		return err
	}

	queue := cmdqueue.NewQueue(cmdqueue.DefaultCapacity)
	reclaimer := cmdqueue.NewReclaimer(64)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go reclaimer.Run(ctx)

	p := player.New(queue, reclaimer)
	handle := cmdqueue.NewAudioHandle(data)
	queue.Push(cmdqueue.LoadFile(handle.Retain()))
	queue.Push(cmdqueue.Play())

	factory := func(graph.NodeHandle) schedule.ProcessFunc { return p.Process }
	sched, err := schedule.Compile(g, node, schedule.ConstLatency(0), factory, schedule.Options{Frames: blockSize, Logger: log})
	if err != nil {
		return fmt.Errorf("compile schedule: %w", err)
	}

	src := adapter.NewSource(sched, data.SampleRate, data.Channels, blockSize)
	defer src.Close()

	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", outPath, err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, int(data.SampleRate), 16, data.Channels, 1)
	defer enc.Close()

	block := make([]float64, data.Channels*blockSize)
	ints := make([]int, data.Channels*blockSize)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: data.Channels, SampleRate: int(data.SampleRate)},
		SourceBitDepth: 16,
	}

	numBlocks := (data.Frames + blockSize - 1) / blockSize
	for i := 0; i < numBlocks; i++ {
		n, err := src.Receive(block)
		if err != nil {
			return fmt.Errorf("render block %d: %w", i, err)
		}
		interleaveScaled(block, ints, data.Channels, n)
		buf.Data = ints[:data.Channels*n]
		if err := enc.Write(buf); err != nil {
			return fmt.Errorf("write block %d: %w", i, err)
		}
	}

	log.Info().Int("blocks", numBlocks).Str("out", outPath).Msg("render complete")
	return nil
}

// interleaveScaled converts n frames of channel-major float64 (as
// produced by adapter.Source.Receive) into interleaved 16-bit PCM ints.
func interleaveScaled(planar []float64, ints []int, channels, n int) {
	for c := 0; c < channels; c++ {
		for f := 0; f < n; f++ {
			v := planar[c*n+f]
			if v > 1 {
				v = 1
			}
			if v < -1 {
				v = -1
			}
			ints[f*channels+c] = int(v * 0x7fff)
		}
	}
}
