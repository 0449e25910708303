package expr

import (
	"github.com/RoaringBitmap/roaring/v2"
	"github.com/brimdata/esql/vector"
)

// BoolMask returns the positions of b holding a single true value.  Null
// and false positions are left out.
func BoolMask(b vector.Block) *roaring.Bitmap {
	mask := roaring.New()
	for pos := range b.Len() {
		if b.ValueCount(pos) != 1 {
			continue
		}
		if v, ok := b.Any(b.FirstValueIndex(pos)).(bool); ok && v {
			mask.Add(uint32(pos))
		}
	}
	return mask
}
