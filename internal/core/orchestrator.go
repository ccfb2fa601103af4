package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/cherrymixy/signum/internal/analysis"
	"github.com/cherrymixy/signum/internal/assets"
	"github.com/cherrymixy/signum/internal/canvas"
	"github.com/cherrymixy/signum/internal/config"
	"github.com/cherrymixy/signum/internal/llm"
)

// Orchestrator executes analysis runs: one provider call per user trigger,
// with the outcome reduced into sink node state.
type Orchestrator struct {
	store    *canvas.Store
	registry assets.Registry
	vision   llm.VisionClient
	prompts  config.PromptConfig
	log      *zap.Logger
}

func NewOrchestrator(store *canvas.Store, registry assets.Registry, vision llm.VisionClient, prompts config.PromptConfig, log *zap.Logger) *Orchestrator {
	if prompts.System == "" {
		prompts.System = defaultSystemPrompt
	}
	if prompts.UserTemplate == "" {
		prompts.UserTemplate = defaultUserTemplate
	}
	return &Orchestrator{
		store:    store,
		registry: registry,
		vision:   vision,
		prompts:  prompts,
		log:      log,
	}
}

// Run executes one analysis for the given sink node. Every failure, local or
// provider-side, is folded into the node's status and error message; nothing
// propagates to the caller. The returned node is the post-run state. ok is
// false only when the id does not name a sink node at all.
func (o *Orchestrator) Run(ctx context.Context, sinkID string) (canvas.Node, bool) {
	node, found := o.store.Node(sinkID)
	if !found || node.Sink == nil {
		o.log.Warn("run trigger ignored: not a sink node", zap.String("node_id", sinkID))
		return canvas.Node{}, false
	}

	// Preconditions, checked in order, never reach the provider.
	proj, connected := o.store.ResolveUpstream(sinkID)
	if !connected {
		return o.fail(sinkID, analysis.NewRunError(analysis.KindMissingUpstreamAsset, nil)), true
	}

	sink := node.Sink
	if strings.TrimSpace(sink.IntentText) == "" ||
		strings.TrimSpace(sink.TargetPreset) == "" ||
		strings.TrimSpace(sink.ContextPreset) == "" {
		return o.fail(sinkID, analysis.NewRunError(analysis.KindIncompleteParameters, nil)), true
	}

	o.setRunning(sinkID)

	result, runErr := o.Analyze(ctx, proj.AssetID, sink.IntentText, sink.TargetPreset, sink.ContextPreset)
	if runErr != nil {
		return o.fail(sinkID, runErr), true
	}

	o.complete(sinkID, result, canvas.RunParams{
		AssetID:       proj.AssetID,
		IntentText:    sink.IntentText,
		TargetPreset:  sink.TargetPreset,
		ContextPreset: sink.ContextPreset,
	})

	updated, _ := o.store.Node(sinkID)
	return updated, true
}

// Analyze issues exactly one provider request for the given asset and
// parameters and returns the normalized result. Failures come back as
// *analysis.RunError carrying a taxonomy kind.
func (o *Orchestrator) Analyze(ctx context.Context, assetID, intentText, targetPreset, contextPreset string) (*analysis.Result, *analysis.RunError) {
	asset, err := o.registry.Resolve(assetID)
	if err != nil {
		return nil, analysis.NewRunError(analysis.KindUpstreamAssetUnreadable, err)
	}

	prompt := fmt.Sprintf(o.prompts.UserTemplate, intentText, targetPreset, contextPreset)
	raw, err := o.vision.Analyze(ctx, o.prompts.System, prompt, llm.Image{
		Data:        asset.Content,
		ContentType: asset.ContentType,
	})
	if err != nil {
		return nil, analysis.NewRunError(classifyProviderError(err), err)
	}
	if strings.TrimSpace(raw) == "" {
		return nil, analysis.NewRunError(analysis.KindResponseEmpty, nil)
	}

	result, err := analysis.Parse(raw)
	if err != nil {
		return nil, analysis.NewRunError(analysis.KindResponseParse, err)
	}
	return result, nil
}

func classifyProviderError(err error) analysis.Kind {
	switch {
	case errors.Is(err, llm.ErrAuth):
		return analysis.KindProviderAuth
	case errors.Is(err, llm.ErrRateLimited):
		return analysis.KindProviderRateLimited
	case errors.Is(err, llm.ErrContentTooLarge):
		return analysis.KindProviderContentTooLarge
	default:
		return analysis.KindProviderUnknown
	}
}

func (o *Orchestrator) setRunning(sinkID string) {
	running := canvas.StatusRunning
	empty := ""
	o.store.UpdateNode(sinkID, canvas.NodePatch{Sink: &canvas.SinkPatch{
		Status:       &running,
		ErrorMessage: &empty,
	}})
}

func (o *Orchestrator) complete(sinkID string, result *analysis.Result, params canvas.RunParams) {
	completed := canvas.StatusCompleted
	empty := ""
	o.store.UpdateNode(sinkID, canvas.NodePatch{Sink: &canvas.SinkPatch{
		Status:       &completed,
		Result:       result,
		LastRun:      &params,
		ErrorMessage: &empty,
	}})
}

// fail records the run error on the sink. Any partial provider content is
// discarded; a previously stored result stays as it was.
func (o *Orchestrator) fail(sinkID string, runErr *analysis.RunError) canvas.Node {
	if runErr.Kind.Local() {
		o.log.Warn("analysis precondition failed",
			zap.String("node_id", sinkID),
			zap.String("kind", string(runErr.Kind)))
	} else {
		o.log.Error("analysis run failed",
			zap.String("node_id", sinkID),
			zap.String("kind", string(runErr.Kind)),
			zap.Error(runErr))
	}

	failed := canvas.StatusFailed
	msg := runErr.Message
	o.store.UpdateNode(sinkID, canvas.NodePatch{Sink: &canvas.SinkPatch{
		Status:       &failed,
		ErrorMessage: &msg,
	}})

	node, _ := o.store.Node(sinkID)
	return node
}
