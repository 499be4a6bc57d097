// Command graphlapse-bench measures layout throughput on a synthetic
// churning graph: each frame adds and removes nodes so identity tracking and
// temporal stabilization stay on the hot path, the same shape of work a
// live timelapse feed produces.
package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/graphlapse/graphlapse/pkg/engine"
	"github.com/graphlapse/graphlapse/pkg/graphgen"
	"github.com/graphlapse/graphlapse/pkg/placement"
)

func main() {
	nodes := flag.Int("nodes", 2000, "Number of nodes per frame")
	frames := flag.Int("frames", 30, "Number of frames to compute")
	churn := flag.Float64("churn", 0.05, "Fraction of nodes replaced each frame")
	seed := flag.Uint64("seed", 42, "Graph generator seed")
	flag.Parse()

	fmt.Printf("🔥 Graphlapse Layout Benchmark\n")
	fmt.Printf("==============================\n\n")
	fmt.Printf("Configuration:\n")
	fmt.Printf("  Nodes per frame: %d\n", *nodes)
	fmt.Printf("  Frames: %d\n", *frames)
	fmt.Printf("  Churn: %.0f%%\n\n", *churn*100)

	eng := engine.New(nil)

	for _, strategy := range placement.Names() {
		fmt.Printf("📐 Strategy: %s\n", strategy)

		gen := graphgen.NewChurnGenerator(*seed, *nodes, *churn)
		var state []byte
		var total time.Duration
		var coldStart time.Duration

		for i := 0; i < *frames; i++ {
			nodeIDs, adjacency := gen.Frame()

			start := time.Now()
			out, err := eng.ComputeFrame(engine.Input{
				NodeIDs:       nodeIDs,
				Adjacency:     adjacency,
				PreviousState: state,
				Strategy:      strategy,
			})
			if err != nil {
				log.Fatalf("frame %d: %v", i, err)
			}
			elapsed := time.Since(start)

			state = out.Metadata.State
			total += elapsed
			if i == 0 {
				coldStart = elapsed
			}
		}

		warm := total - coldStart
		warmFrames := *frames - 1
		fmt.Printf("  ✅ %d frames in %v\n", *frames, total)
		fmt.Printf("  ⚡ Cold start: %v\n", coldStart)
		if warmFrames > 0 {
			fmt.Printf("  ⚡ Warm frame avg: %v\n", warm/time.Duration(warmFrames))
			fmt.Printf("  🚀 Throughput: %.1f frames/sec warm\n\n",
				float64(warmFrames)/warm.Seconds())
		}
	}
}
