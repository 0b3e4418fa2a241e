package model

import "sync/atomic"

// table is a dense row-major int32 count matrix shared between sampler
// goroutines. Cells are read and written atomically and never locked; a
// reader may observe another shard's update from earlier in the same pass
// or not.
type table struct {
	rows, cols int
	data       []int32
}

func newTable(rows, cols int) *table {
	return &table{
		rows: rows,
		cols: cols,
		data: make([]int32, rows*cols),
	}
}

func (t *table) get(r, c int) int32 {
	return atomic.LoadInt32(&t.data[r*t.cols+c])
}

func (t *table) add(r, c int, delta int32) {
	atomic.AddInt32(&t.data[r*t.cols+c], delta)
}

// snapshot copies the table. Only call between passes.
func (t *table) snapshot() []int32 {
	out := make([]int32, len(t.data))
	copy(out, t.data)
	return out
}

// Counts is a frozen copy of the sampler's sufficient statistics.
type Counts struct {
	Topics int
	Terms  int
	// TermTopic is row-major by term: TermTopic[w*Topics+k].
	TermTopic []int32
	// DocTopic holds one row of Topics counts per training document.
	DocTopic [][]int32
	// TopicTotals[k] is the number of tokens assigned to topic k.
	TopicTotals []int32
}

// TermTopicCount returns the number of occurrences of term w assigned to topic k.
func (c *Counts) TermTopicCount(w, k int) int32 {
	return c.TermTopic[w*c.Topics+k]
}

// TermTotal returns the number of occurrences of term w across all topics.
func (c *Counts) TermTotal(w int) int64 {
	var sum int64
	for k := 0; k < c.Topics; k++ {
		sum += int64(c.TermTopic[w*c.Topics+k])
	}
	return sum
}
