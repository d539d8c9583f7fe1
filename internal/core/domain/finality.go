package domain

const DefaultServiceNodeFinalityDepth = 1

// FinalityRule decides which checkpoint is irrevocable at a given height.
//
// A hardcoded checkpoint is final as soon as it is the most recent one.
// Service node checkpoints become final once ServiceNodeDepth checkpoints
// (itself included) have been recorded at or above it.
type FinalityRule struct {
	ServiceNodeDepth int
}

func (r FinalityRule) Depth() int {
	if r.ServiceNodeDepth < 1 {
		return DefaultServiceNodeFinalityDepth
	}
	return r.ServiceNodeDepth
}

// Select expects the most recent checkpoints at or before the queried height
// sorted by descending height, at most Depth() of them.
func (r FinalityRule) Select(desc []Checkpoint) *Checkpoint {
	if len(desc) <= 0 {
		return nil
	}
	if !desc[0].IsServiceNode() {
		cp := desc[0]
		return &cp
	}
	depth := r.Depth()
	if len(desc) < depth {
		return nil
	}
	cp := desc[depth-1]
	return &cp
}
