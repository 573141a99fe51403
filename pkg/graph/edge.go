package graph

// WeightedEdge is a single entry of an update stream: an unordered vertex
// pair plus a weight. A positive weight denotes insertion of the edge with
// that weight; a weight <= 0 denotes deletion (the weight is ignored).
// Vertex ids are opaque non-zero 64-bit identifiers.
type WeightedEdge struct {
	Source      uint64
	Destination uint64
	Weight      float64
}

// IsInsert reports whether this entry inserts the edge.
func (e WeightedEdge) IsInsert() bool {
	return e.Weight > 0
}

// IsDelete reports whether this entry deletes the edge.
func (e WeightedEdge) IsDelete() bool {
	return !e.IsInsert()
}

// Reversed returns the edge with its endpoints swapped.
func (e WeightedEdge) Reversed() WeightedEdge {
	return WeightedEdge{Source: e.Destination, Destination: e.Source, Weight: e.Weight}
}

// Sorted returns the endpoints in (min, max) order. Update streams treat
// the pair as undirected, so (a,b) and (b,a) name the same edge.
func (e WeightedEdge) Sorted() (uint64, uint64) {
	if e.Source <= e.Destination {
		return e.Source, e.Destination
	}
	return e.Destination, e.Source
}
