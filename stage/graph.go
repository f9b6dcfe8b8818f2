package stage

var (
	graphicsChain = []Stage{Vertex, TessellationControl, TessellationEvaluation, Geometry, Fragment}
	meshChain     = []Stage{Task, Mesh, Fragment}
)

// GraphicsChain returns the graphics stages in pipeline order.
func GraphicsChain() []Stage {
	return append([]Stage(nil), graphicsChain...)
}

// MeshChain returns the mesh stages in pipeline order.
func MeshChain() []Stage {
	return append([]Stage(nil), meshChain...)
}

// chainFor returns the chain s is walked in and the position of s in it.
// The graphics chain is searched first, so fragment resolves there.
func chainFor(s Stage) ([]Stage, int) {
	for i, st := range graphicsChain {
		if st == s {
			return graphicsChain, i
		}
	}
	for i, st := range meshChain {
		if st == s {
			return meshChain, i
		}
	}
	return nil, -1
}

// NextInOrder returns the stage that logically follows s. It reports false
// at the end of a chain and for stages outside both chains.
func NextInOrder(s Stage) (Stage, bool) {
	chain, pos := chainFor(s)
	if pos < 0 || pos+1 >= len(chain) {
		return 0, false
	}
	return chain[pos+1], true
}

// NextPresent walks forward from s in chain order, skipping stages that are
// not in present, and returns the first stage found.
func NextPresent(s Stage, present Set) (Stage, bool) {
	chain, pos := chainFor(s)
	if pos < 0 {
		return 0, false
	}
	for _, st := range chain[pos+1:] {
		if present.Has(st) {
			return st, true
		}
	}
	return 0, false
}

// Position returns the index of s within its chain, or -1.
func Position(s Stage) int {
	_, pos := chainFor(s)
	return pos
}
