package canvas

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingSaver struct {
	snapshots []Snapshot
}

func (r *recordingSaver) Save(s Snapshot) {
	r.snapshots = append(r.snapshots, s)
}

func ptr[T any](v T) *T { return &v }

func TestAddNodeRejectsDuplicateID(t *testing.T) {
	store := NewStore(nil, zap.NewNop())

	require.NoError(t, store.AddNode(NewSourceNode("n1", Position{X: 1, Y: 2})))
	err := store.AddNode(NewSinkNode("n1", Position{}))

	assert.ErrorIs(t, err, ErrDuplicateID)
	assert.Len(t, store.Snapshot().Nodes, 1)
}

func TestAddEdgeIsIdempotentPerOrderedPair(t *testing.T) {
	store := NewStore(nil, zap.NewNop())

	store.AddEdge(Edge{ID: "e1", Source: "a", Target: "b"})
	store.AddEdge(Edge{ID: "e2", Source: "a", Target: "b"})

	edges := store.Snapshot().Edges
	require.Len(t, edges, 1)
	assert.Equal(t, "e1", edges[0].ID)

	// The reverse direction is a different ordered pair.
	store.AddEdge(Edge{ID: "e3", Source: "b", Target: "a"})
	assert.Len(t, store.Snapshot().Edges, 2)
}

func TestUpdateNodeMergesPartialData(t *testing.T) {
	store := NewStore(nil, zap.NewNop())
	sink := NewSinkNode("s1", Position{})
	sink.Sink.IntentText = "original intent"
	sink.Sink.TargetPreset = "general"
	require.NoError(t, store.AddNode(sink))

	store.UpdateNode("s1", NodePatch{Sink: &SinkPatch{
		ContextPreset: ptr("poster"),
	}})

	got, ok := store.Node("s1")
	require.True(t, ok)
	assert.Equal(t, "original intent", got.Sink.IntentText)
	assert.Equal(t, "general", got.Sink.TargetPreset)
	assert.Equal(t, "poster", got.Sink.ContextPreset)
	assert.Equal(t, StatusIdle, got.Sink.Status)
}

func TestUpdateNodeUnknownIDIsNoOp(t *testing.T) {
	saver := &recordingSaver{}
	store := NewStore(saver, zap.NewNop())
	require.NoError(t, store.AddNode(NewSinkNode("s1", Position{})))
	writes := len(saver.snapshots)

	store.UpdateNode("missing", NodePatch{Sink: &SinkPatch{IntentText: ptr("x")}})

	// No mutation, no persistence write.
	assert.Len(t, saver.snapshots, writes)
	got, _ := store.Node("s1")
	assert.Empty(t, got.Sink.IntentText)
}

func TestUpdateNodeWrongVariantIsNoOp(t *testing.T) {
	store := NewStore(nil, zap.NewNop())
	require.NoError(t, store.AddNode(NewSourceNode("src", Position{})))

	store.UpdateNode("src", NodePatch{Sink: &SinkPatch{IntentText: ptr("x")}})

	got, _ := store.Node("src")
	assert.Nil(t, got.Sink)
	assert.Empty(t, got.Source.AssetID)
}

func TestEveryMutationPersistsPostMutationState(t *testing.T) {
	saver := &recordingSaver{}
	store := NewStore(saver, zap.NewNop())

	require.NoError(t, store.AddNode(NewSourceNode("n1", Position{})))
	store.UpdateNode("n1", NodePatch{Source: &SourcePatch{AssetID: ptr("a1")}})
	store.AddEdge(Edge{ID: "e1", Source: "n1", Target: "n2"})
	store.ReplaceEdges(nil)

	require.Len(t, saver.snapshots, 4)
	assert.Equal(t, "a1", saver.snapshots[1].Nodes[0].Source.AssetID)
	assert.Len(t, saver.snapshots[2].Edges, 1)
	assert.Empty(t, saver.snapshots[3].Edges)
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	store := NewStore(nil, zap.NewNop())
	require.NoError(t, store.AddNode(NewSourceNode("n1", Position{})))

	snap := store.Snapshot()
	snap.Nodes[0].Source.AssetID = "mutated"

	got, _ := store.Node("n1")
	assert.Empty(t, got.Source.AssetID)
}

func TestRestoreRoundTrip(t *testing.T) {
	store := NewStore(nil, zap.NewNop())
	src := NewSourceNode("n1", Position{X: 10, Y: 20})
	src.Source.AssetID = "a1"
	require.NoError(t, store.AddNode(src))
	store.AddEdge(Edge{ID: "e1", Source: "n1", Target: "n2"})
	snap := store.Snapshot()

	fresh := NewStore(nil, zap.NewNop())
	fresh.Restore(snap)

	if diff := cmp.Diff(snap, fresh.Snapshot()); diff != "" {
		t.Errorf("restored snapshot mismatch (-want +got):\n%s", diff)
	}
}

func TestReplaceNodesDoesNotValidateEdges(t *testing.T) {
	store := NewStore(nil, zap.NewNop())
	store.AddEdge(Edge{ID: "e1", Source: "gone", Target: "also-gone"})

	store.ReplaceNodes([]Node{NewSinkNode("s1", Position{})})

	// Dangling edge survives; the resolver handles it lazily.
	assert.Len(t, store.Snapshot().Edges, 1)
}
