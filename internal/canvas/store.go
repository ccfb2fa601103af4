package canvas

import (
	"errors"
	"sync"

	"go.uber.org/zap"
)

// ErrDuplicateID is returned when a node with the same id already exists.
var ErrDuplicateID = errors.New("node id already exists")

// Saver receives the post-mutation snapshot after every store mutation.
// persist.Gate implements it.
type Saver interface {
	Save(Snapshot)
}

// Store owns the authoritative node and edge sets. All mutations are
// serialized under one lock, which also keeps persistence writes ordered
// (last mutation wins).
type Store struct {
	mu    sync.Mutex
	nodes []Node
	edges []Edge
	saver Saver
	log   *zap.Logger
}

func NewStore(saver Saver, log *zap.Logger) *Store {
	return &Store{saver: saver, log: log}
}

// AddNode appends a node. Nodes are only ever created explicitly.
func (s *Store) AddNode(n Node) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.nodes {
		if existing.ID == n.ID {
			return ErrDuplicateID
		}
	}
	s.nodes = append(s.nodes, n.clone())
	s.persistLocked()
	return nil
}

// UpdateNode shallow-merges the patch into the node's data. A missing id is
// a logged no-op: stale UI callbacks may fire after a node is gone and must
// not fail the session.
func (s *Store) UpdateNode(id string, patch NodePatch) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.nodes {
		if s.nodes[i].ID != id {
			continue
		}
		if !patch.apply(&s.nodes[i]) {
			s.log.Warn("node patch ignored: wrong variant",
				zap.String("node_id", id),
				zap.String("kind", string(s.nodes[i].Kind)))
			return
		}
		s.persistLocked()
		return
	}
	s.log.Warn("node patch ignored: unknown node id", zap.String("node_id", id))
}

// AddEdge appends an edge. Connecting an already connected ordered
// (source, target) pair is an idempotent no-op.
func (s *Store) AddEdge(e Edge) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.edges {
		if existing.Source == e.Source && existing.Target == e.Target {
			return
		}
	}
	s.edges = append(s.edges, e)
	s.persistLocked()
}

// ReplaceNodes bulk-replaces the node set. Used by the rendering layer's own
// diffing; referential integrity of edges is not checked here — the resolver
// treats dangling edges as no connection.
func (s *Store) ReplaceNodes(nodes []Node) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nodes = make([]Node, len(nodes))
	for i, n := range nodes {
		s.nodes[i] = n.clone()
	}
	s.persistLocked()
}

// ReplaceEdges bulk-replaces the edge set.
func (s *Store) ReplaceEdges(edges []Edge) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.edges = append([]Edge{}, edges...)
	s.persistLocked()
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Node returns a copy of the node with the given id.
func (s *Store) Node(id string) (Node, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, n := range s.nodes {
		if n.ID == id {
			return n.clone(), true
		}
	}
	return Node{}, false
}

// Restore replaces the state from a previously persisted snapshot without
// writing it back out.
func (s *Store) Restore(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := snap.clone()
	s.nodes = c.Nodes
	s.edges = c.Edges
}

// ResolveUpstream resolves the sink's upstream projection against the
// current state.
func (s *Store) ResolveUpstream(sinkID string) (Projection, bool) {
	return ResolveUpstream(s.Snapshot(), sinkID)
}

func (s *Store) snapshotLocked() Snapshot {
	snap := Snapshot{
		Nodes: make([]Node, len(s.nodes)),
		Edges: append([]Edge{}, s.edges...),
	}
	for i, n := range s.nodes {
		snap.Nodes[i] = n.clone()
	}
	return snap
}

func (s *Store) persistLocked() {
	if s.saver != nil {
		s.saver.Save(s.snapshotLocked())
	}
}
