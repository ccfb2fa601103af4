// Command smoke exercises the canvas store, resolver and orchestrator end to
// end against a canned provider, without credentials or network access.
package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/cherrymixy/signum/internal/assets"
	"github.com/cherrymixy/signum/internal/canvas"
	"github.com/cherrymixy/signum/internal/config"
	"github.com/cherrymixy/signum/internal/core"
	"github.com/cherrymixy/signum/internal/llm"
	"github.com/cherrymixy/signum/internal/persist"
)

const cannedResponse = `{
	"observation": ["A poster with bold red lettering", {"title": "Layout", "detail": "Centered composition"}],
	"connotation": ["Urgency"],
	"decoding_hypotheses": [{"label": "Sale announcement", "probability": 0.8, "rationale": "Price figures dominate"}],
	"risks": [],
	"edit_suggestions": ["Increase contrast of the footer text"]
}`

type cannedVision struct{}

func (cannedVision) Analyze(ctx context.Context, system, prompt string, img llm.Image) (string, error) {
	fmt.Printf("  provider called with %d image bytes (%s)\n", len(img.Data), img.ContentType)
	return cannedResponse, nil
}

func main() {
	fmt.Println("Starting smoke run...")
	logger := zap.NewNop()

	dir, err := os.MkdirTemp("", "signum-smoke")
	if err != nil {
		fmt.Println("FAILED:", err)
		os.Exit(1)
	}
	defer os.RemoveAll(dir)

	kv, err := persist.NewFileStore(dir + "/state")
	if err != nil {
		fmt.Println("FAILED:", err)
		os.Exit(1)
	}
	gate := persist.NewGate(true, kv, logger)
	store := canvas.NewStore(gate, logger)

	registry, err := assets.NewDirRegistry(dir + "/uploads")
	if err != nil {
		fmt.Println("FAILED:", err)
		os.Exit(1)
	}

	fmt.Println("1. Uploading an image...")
	asset, err := registry.Store("poster.png", []byte("not-really-a-png"))
	if err != nil {
		fmt.Println("FAILED: upload:", err)
		os.Exit(1)
	}
	fmt.Println("PASSED: upload, id =", asset.ID)

	fmt.Println("2. Building the graph...")
	source := canvas.NewSourceNode("source-1", canvas.Position{X: 100, Y: 100})
	source.Source.AssetID = asset.ID
	source.Source.DisplayName = "poster.png"
	sink := canvas.NewSinkNode("sink-1", canvas.Position{X: 400, Y: 100})
	sink.Sink.IntentText = "promote the summer sale"
	sink.Sink.TargetPreset = "general"
	sink.Sink.ContextPreset = "poster"

	if err := store.AddNode(source); err != nil {
		fmt.Println("FAILED: add source:", err)
		os.Exit(1)
	}
	if err := store.AddNode(sink); err != nil {
		fmt.Println("FAILED: add sink:", err)
		os.Exit(1)
	}
	store.AddEdge(canvas.Edge{ID: "e1", Source: "source-1", Target: "sink-1"})
	store.AddEdge(canvas.Edge{ID: "e1-dup", Source: "source-1", Target: "sink-1"})
	if n := len(store.Snapshot().Edges); n != 1 {
		fmt.Println("FAILED: duplicate connect was not idempotent, edges =", n)
		os.Exit(1)
	}
	fmt.Println("PASSED: graph built, duplicate connect ignored")

	fmt.Println("3. Running the analysis...")
	orch := core.NewOrchestrator(store, registry, cannedVision{}, config.PromptConfig{}, logger)
	node, ok := orch.Run(context.Background(), "sink-1")
	if !ok || node.Sink.Status != canvas.StatusCompleted {
		fmt.Println("FAILED: run did not complete:", node.Sink.Status, node.Sink.ErrorMessage)
		os.Exit(1)
	}
	fmt.Printf("PASSED: run completed, %d observations, hypothesis p=%.2f\n",
		len(node.Sink.Result.Observation),
		node.Sink.Result.DecodingHypotheses[0].Probability)

	fmt.Println("4. Reloading from persisted state...")
	store2 := canvas.NewStore(gate, logger)
	snap, restored := gate.Load()
	if !restored {
		fmt.Println("FAILED: no snapshot to restore")
		os.Exit(1)
	}
	store2.Restore(snap)
	got := store2.Snapshot()
	if len(got.Nodes) != 2 || len(got.Edges) != 1 {
		fmt.Println("FAILED: restored state mismatch")
		os.Exit(1)
	}
	fmt.Println("PASSED: restore")

	fmt.Println("All smoke checks passed.")
}
