package agg

import (
	"encoding/binary"
	"math"

	"github.com/axiomhq/hyperloglog"
	"github.com/brimdata/esql/vector"
)

// count counts rows for count(*) and values otherwise, so a multi-value
// contributes each of its values.
type count struct {
	star  bool
	count int64
}

func (c *count) Consume(b vector.Block, pos int) {
	if c.star {
		c.count++
		return
	}
	c.count += int64(b.ValueCount(pos))
}

func (c *count) Result(out vector.AnyBuilder) {
	out.AppendAny(c.count)
}

// countDistinct uses hyperloglog to approximate the number of distinct
// values.
type countDistinct struct {
	scratch []byte
	sketch  *hyperloglog.Sketch
}

func newCountDistinct() *countDistinct {
	return &countDistinct{sketch: hyperloglog.New()}
}

func (c *countDistinct) Consume(b vector.Block, pos int) {
	first, n := b.FirstValueIndex(pos), b.ValueCount(pos)
	for i := first; i < first+n; i++ {
		c.scratch = appendKey(c.scratch[:0], b.Any(i))
		c.sketch.Insert(c.scratch)
	}
}

func (c *countDistinct) Result(out vector.AnyBuilder) {
	out.AppendAny(int64(c.sketch.Estimate()))
}

func appendKey(b []byte, v any) []byte {
	switch v := v.(type) {
	case string:
		return append(b, v...)
	case bool:
		if v {
			return append(b, 1)
		}
		return append(b, 0)
	case int32:
		return binary.LittleEndian.AppendUint64(b, uint64(int64(v)))
	case int64:
		return binary.LittleEndian.AppendUint64(b, uint64(v))
	case uint64:
		return binary.LittleEndian.AppendUint64(b, v)
	case float64:
		return binary.LittleEndian.AppendUint64(b, math.Float64bits(v))
	}
	return b
}
