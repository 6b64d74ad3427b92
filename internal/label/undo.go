package label

// DefaultUndoDepth is the number of label snapshots kept.
const DefaultUndoDepth = 10

// UndoStack is a bounded stack of full label snapshots. Pushing at capacity evicts the oldest.
type UndoStack struct {
	depth     int
	snapshots []*Layer
}

// NewUndoStack creates a stack holding at most depth snapshots.
func NewUndoStack(depth int) *UndoStack {
	if depth <= 0 {
		depth = DefaultUndoDepth
	}
	return &UndoStack{depth: depth}
}

// Push stores a deep copy of l.
func (u *UndoStack) Push(l *Layer) {
	if len(u.snapshots) == u.depth {
		u.snapshots[0] = nil
		u.snapshots = u.snapshots[1:]
	}
	u.snapshots = append(u.snapshots, l.Clone())
}

// Pop removes and returns the most recent snapshot, or nil if the stack is empty.
func (u *UndoStack) Pop() *Layer {
	n := len(u.snapshots)
	if n == 0 {
		return nil
	}
	top := u.snapshots[n-1]
	u.snapshots[n-1] = nil
	u.snapshots = u.snapshots[:n-1]
	return top
}

func (u *UndoStack) Len() int {
	return len(u.snapshots)
}

func (u *UndoStack) Depth() int {
	return u.depth
}
