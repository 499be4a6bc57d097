// Command graphlapse computes layouts for a timeline of graph snapshots
// offline. The input file holds an array of frames; each frame's layout is
// computed with the previous frame's state threaded through, exactly as the
// server does per session.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/graphlapse/graphlapse/pkg/engine"
	"github.com/graphlapse/graphlapse/pkg/logging"
	"github.com/graphlapse/graphlapse/pkg/placement"
)

type timelineFrame struct {
	NodeIDs   []string            `json:"nodeIds"`
	Adjacency map[string][]string `json:"adjacencyByNodeId"`
}

type timeline struct {
	Strategy string             `json:"strategy,omitempty"`
	Options  map[string]float64 `json:"strategyConfig,omitempty"`
	Frames   []timelineFrame    `json:"frames"`
}

type frameResult struct {
	Frame    int           `json:"frame"`
	Layout   engine.Layout `json:"layout"`
	Duration string        `json:"duration"`
}

func main() {
	input := flag.String("input", "", "Timeline JSON file (default stdin)")
	output := flag.String("output", "", "Output JSON file (default stdout)")
	strategy := flag.String("strategy", "", "Placement strategy (overrides timeline file)")
	quality := flag.Float64("quality", 0, "Quality multiplier (0 keeps the timeline's setting)")
	stability := flag.Float64("stability", -1, "Stability 0..0.95 (-1 keeps the timeline's setting)")
	verbose := flag.Bool("v", false, "Log per-frame progress to stderr")
	listStrategies := flag.Bool("strategies", false, "List placement strategies and exit")
	flag.Parse()

	if *listStrategies {
		for _, name := range placement.Names() {
			suffix := ""
			if name == placement.DefaultStrategy {
				suffix = " (default)"
			}
			fmt.Printf("%s%s\n", name, suffix)
		}
		return
	}

	tl, err := readTimeline(*input)
	if err != nil {
		log.Fatalf("read timeline: %v", err)
	}
	if *strategy != "" {
		tl.Strategy = *strategy
	}
	if tl.Options == nil {
		tl.Options = make(map[string]float64)
	}
	if *quality > 0 {
		tl.Options["quality"] = *quality
	}
	if *stability >= 0 {
		tl.Options["stability"] = *stability
	}

	var logger logging.Logger
	if *verbose {
		logger = logging.NewJSONLogger(os.Stderr, logging.InfoLevel)
	}
	eng := engine.New(logger)

	results := make([]frameResult, 0, len(tl.Frames))
	var state []byte
	start := time.Now()

	for i, frame := range tl.Frames {
		out, err := eng.ComputeFrame(engine.Input{
			NodeIDs:       frame.NodeIDs,
			Adjacency:     frame.Adjacency,
			PreviousState: state,
			Strategy:      tl.Strategy,
			Options:       tl.Options,
		})
		if err != nil {
			log.Fatalf("frame %d: %v", i, err)
		}
		state = out.Metadata.State
		results = append(results, frameResult{
			Frame:    i,
			Layout:   out.Layout,
			Duration: out.Metadata.Duration.String(),
		})
		if *verbose {
			fmt.Fprintf(os.Stderr, "frame %d: %d nodes, %d communities, %v\n",
				i, out.Metadata.NodeCount, out.Metadata.Communities, out.Metadata.Duration)
		}
	}

	if err := writeResults(*output, results); err != nil {
		log.Fatalf("write output: %v", err)
	}
	if *verbose {
		fmt.Fprintf(os.Stderr, "%d frames in %v\n", len(results), time.Since(start))
	}
}

func readTimeline(path string) (*timeline, error) {
	data, err := readInput(path)
	if err != nil {
		return nil, err
	}

	var tl timeline
	if err := json.Unmarshal(data, &tl); err == nil && len(tl.Frames) > 0 {
		return &tl, nil
	}

	// A bare array of frames is accepted too.
	var frames []timelineFrame
	if err := json.Unmarshal(data, &frames); err != nil {
		return nil, fmt.Errorf("input is neither a timeline object nor a frame array: %w", err)
	}
	return &timeline{Frames: frames}, nil
}

func readInput(path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

func writeResults(path string, results []frameResult) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if path == "" || path == "-" {
		_, err = os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
