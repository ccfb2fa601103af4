package persist

import (
	"encoding/json"

	"go.uber.org/zap"

	"github.com/cherrymixy/signum/internal/canvas"
)

// snapshotKey is the storage key the canvas state lives under.
const snapshotKey = "signum_canvas_state"

// KV is the backing store contract: session-scoped key-value storage with
// no cross-session guarantees.
type KV interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Remove(key string) error
}

// Gate decides whether canvas snapshots reach durable storage. The mode is
// fixed at construction so iterative editing sessions are not polluted by
// stale auto-restored state; deployed usage opts in explicitly. Storage
// faults are logged and swallowed — persistence is best-effort and must
// never take down the editing session.
type Gate struct {
	enabled bool
	kv      KV
	log     *zap.Logger
}

func NewGate(enabled bool, kv KV, log *zap.Logger) *Gate {
	return &Gate{enabled: enabled, kv: kv, log: log}
}

func (g *Gate) Enabled() bool {
	return g.enabled
}

// Save persists the snapshot when persistence is enabled.
func (g *Gate) Save(snap canvas.Snapshot) {
	if !g.enabled {
		return
	}
	data, err := json.Marshal(snap)
	if err != nil {
		g.log.Warn("failed to serialize canvas snapshot", zap.Error(err))
		return
	}
	if err := g.kv.Set(snapshotKey, string(data)); err != nil {
		g.log.Warn("failed to save canvas snapshot", zap.Error(err))
	}
}

// Load returns the stored snapshot, if any. A missing, unreadable or corrupt
// snapshot is reported as absent, never as an error.
func (g *Gate) Load() (canvas.Snapshot, bool) {
	if !g.enabled {
		return canvas.Snapshot{}, false
	}
	value, ok, err := g.kv.Get(snapshotKey)
	if err != nil {
		g.log.Warn("failed to read canvas snapshot", zap.Error(err))
		return canvas.Snapshot{}, false
	}
	if !ok {
		return canvas.Snapshot{}, false
	}
	var snap canvas.Snapshot
	if err := json.Unmarshal([]byte(value), &snap); err != nil {
		g.log.Warn("stored canvas snapshot is corrupt, ignoring", zap.Error(err))
		return canvas.Snapshot{}, false
	}
	return snap, true
}

// Clear removes any stored snapshot, regardless of mode.
func (g *Gate) Clear() {
	if err := g.kv.Remove(snapshotKey); err != nil {
		g.log.Warn("failed to clear canvas snapshot", zap.Error(err))
	}
}
