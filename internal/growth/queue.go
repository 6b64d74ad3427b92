package growth

// entry is a queued block: its top-left pixel and the cost at which it was reached.
type entry struct {
	cost float32
	x, y int32
}

// queue is a persistent leftist min-heap. Every operation returns a new root and never
// modifies existing nodes, so each ring can keep its own frontier while sharing structure
// with the rings before and after it.
type queue struct {
	e     entry
	rank  int32
	size  int32
	left  *queue
	right *queue
}

func (q *queue) rankOf() int32 {
	if q == nil {
		return 0
	}
	return q.rank
}

// Len returns the number of entries in q.
func (q *queue) Len() int {
	if q == nil {
		return 0
	}
	return int(q.size)
}

func merge(a, b *queue) *queue {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	if b.e.cost < a.e.cost {
		a, b = b, a
	}
	l, r := a.left, merge(a.right, b)
	if l.rankOf() < r.rankOf() {
		l, r = r, l
	}
	return &queue{e: a.e, rank: r.rankOf() + 1, size: a.size + b.size, left: l, right: r}
}

func (q *queue) push(e entry) *queue {
	return merge(q, &queue{e: e, rank: 1, size: 1})
}

// pop returns the heap without its minimum.
func (q *queue) pop() *queue {
	return merge(q.left, q.right)
}

// each visits every entry in no particular order.
func (q *queue) each(fn func(entry)) {
	if q == nil {
		return
	}
	stack := []*queue{q}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		fn(n.e)
		if n.left != nil {
			stack = append(stack, n.left)
		}
		if n.right != nil {
			stack = append(stack, n.right)
		}
	}
}
