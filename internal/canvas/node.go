package canvas

import "github.com/cherrymixy/signum/internal/analysis"

type NodeKind string

const (
	KindSource NodeKind = "source"
	KindSink   NodeKind = "sink"
)

// Position is display-only; the core never interprets it.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// SourceData is the payload of an image source node. Empty until an asset
// is attached.
type SourceData struct {
	AssetID     string `json:"assetId,omitempty"`
	AssetURL    string `json:"assetUrl,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
}

type SinkStatus string

const (
	StatusIdle      SinkStatus = "idle"
	StatusRunning   SinkStatus = "running"
	StatusCompleted SinkStatus = "completed"
	StatusFailed    SinkStatus = "failed"
)

// RunParams echoes what a completed run actually analyzed.
type RunParams struct {
	AssetID       string `json:"assetId"`
	IntentText    string `json:"intentText"`
	TargetPreset  string `json:"targetPreset"`
	ContextPreset string `json:"contextPreset"`
}

// SinkData is the payload of an analysis sink node.
type SinkData struct {
	IntentText    string           `json:"intentText,omitempty"`
	TargetPreset  string           `json:"targetPreset,omitempty"`
	ContextPreset string           `json:"contextPreset,omitempty"`
	Result        *analysis.Result `json:"result,omitempty"`
	LastRun       *RunParams       `json:"lastRun,omitempty"`
	Status        SinkStatus       `json:"status"`
	ErrorMessage  string           `json:"errorMessage,omitempty"`
}

// Node is a canvas node. Kind discriminates the variant: exactly one of
// Source and Sink is non-nil.
type Node struct {
	ID       string      `json:"id"`
	Kind     NodeKind    `json:"kind"`
	Position Position    `json:"position"`
	Source   *SourceData `json:"source,omitempty"`
	Sink     *SinkData   `json:"sink,omitempty"`
}

func NewSourceNode(id string, pos Position) Node {
	return Node{ID: id, Kind: KindSource, Position: pos, Source: &SourceData{}}
}

func NewSinkNode(id string, pos Position) Node {
	return Node{ID: id, Kind: KindSink, Position: pos, Sink: &SinkData{Status: StatusIdle}}
}

func (n Node) clone() Node {
	c := n
	if n.Source != nil {
		src := *n.Source
		c.Source = &src
	}
	if n.Sink != nil {
		sink := *n.Sink
		sink.Result = n.Sink.Result.Clone()
		if n.Sink.LastRun != nil {
			lr := *n.Sink.LastRun
			sink.LastRun = &lr
		}
		c.Sink = &sink
	}
	return c
}

// Edge connects a source node to a target node. Edges are immutable;
// rewiring is modeled as remove-then-add.
type Edge struct {
	ID           string `json:"id"`
	Source       string `json:"source"`
	Target       string `json:"target"`
	SourceHandle string `json:"sourceHandle,omitempty"`
	TargetHandle string `json:"targetHandle,omitempty"`
}

// Snapshot is the full canvas state at one instant, the unit of persistence.
type Snapshot struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

func (s Snapshot) clone() Snapshot {
	c := Snapshot{
		Nodes: make([]Node, len(s.Nodes)),
		Edges: append([]Edge{}, s.Edges...),
	}
	for i, n := range s.Nodes {
		c.Nodes[i] = n.clone()
	}
	return c
}

// SourcePatch is a partial update of SourceData. Nil fields are left
// untouched.
type SourcePatch struct {
	AssetID     *string `json:"assetId,omitempty"`
	AssetURL    *string `json:"assetUrl,omitempty"`
	DisplayName *string `json:"displayName,omitempty"`
}

// SinkPatch is a partial update of SinkData. Nil fields are left untouched;
// clearing a text field means sending a pointer to the empty string.
type SinkPatch struct {
	IntentText    *string          `json:"intentText,omitempty"`
	TargetPreset  *string          `json:"targetPreset,omitempty"`
	ContextPreset *string          `json:"contextPreset,omitempty"`
	Result        *analysis.Result `json:"result,omitempty"`
	LastRun       *RunParams       `json:"lastRun,omitempty"`
	Status        *SinkStatus      `json:"status,omitempty"`
	ErrorMessage  *string          `json:"errorMessage,omitempty"`
}

// NodePatch addresses whichever variant the target node carries. A patch for
// the other variant is ignored, like a patch for an unknown node id.
type NodePatch struct {
	Source *SourcePatch `json:"source,omitempty"`
	Sink   *SinkPatch   `json:"sink,omitempty"`
}

// apply merges the patch into the node. Returns false when the patch does
// not address the node's variant.
func (p NodePatch) apply(n *Node) bool {
	switch n.Kind {
	case KindSource:
		if p.Source == nil {
			return false
		}
		if n.Source == nil {
			n.Source = &SourceData{}
		}
		if p.Source.AssetID != nil {
			n.Source.AssetID = *p.Source.AssetID
		}
		if p.Source.AssetURL != nil {
			n.Source.AssetURL = *p.Source.AssetURL
		}
		if p.Source.DisplayName != nil {
			n.Source.DisplayName = *p.Source.DisplayName
		}
		return true
	case KindSink:
		if p.Sink == nil {
			return false
		}
		if n.Sink == nil {
			n.Sink = &SinkData{Status: StatusIdle}
		}
		if p.Sink.IntentText != nil {
			n.Sink.IntentText = *p.Sink.IntentText
		}
		if p.Sink.TargetPreset != nil {
			n.Sink.TargetPreset = *p.Sink.TargetPreset
		}
		if p.Sink.ContextPreset != nil {
			n.Sink.ContextPreset = *p.Sink.ContextPreset
		}
		if p.Sink.Result != nil {
			n.Sink.Result = p.Sink.Result
		}
		if p.Sink.LastRun != nil {
			n.Sink.LastRun = p.Sink.LastRun
		}
		if p.Sink.Status != nil {
			n.Sink.Status = *p.Sink.Status
		}
		if p.Sink.ErrorMessage != nil {
			n.Sink.ErrorMessage = *p.Sink.ErrorMessage
		}
		return true
	}
	return false
}
