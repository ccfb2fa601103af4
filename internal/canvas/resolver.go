package canvas

// Projection is the subset of an upstream source node's data made visible
// to a sink through an edge.
type Projection struct {
	AssetID string `json:"assetId"`
}

// ResolveUpstream finds the source node feeding the given sink and projects
// the fields the sink needs. It is a pure function of the snapshot and is
// recomputed on every read so it always reflects live topology.
//
// The first edge in insertion order whose target is the sink wins; later
// inbound edges are ignored. The projection is absent when there is no
// inbound edge, the edge dangles, the upstream node is not a source, or the
// source has no asset attached yet.
func ResolveUpstream(snap Snapshot, sinkID string) (Projection, bool) {
	for _, e := range snap.Edges {
		if e.Target != sinkID {
			continue
		}
		for _, n := range snap.Nodes {
			if n.ID != e.Source {
				continue
			}
			if n.Kind != KindSource || n.Source == nil || n.Source.AssetID == "" {
				return Projection{}, false
			}
			return Projection{AssetID: n.Source.AssetID}, true
		}
		// Dangling edge: treat like no inbound edge at all.
		return Projection{}, false
	}
	return Projection{}, false
}
