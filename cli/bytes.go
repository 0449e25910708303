package cli

import (
	"github.com/alecthomas/units"
)

// Bytes is a flag.Value for a byte count written with an optional
// binary unit suffix, e.g., "64KiB" or "1MiB".
type Bytes struct {
	Bytes uint64
}

func (b Bytes) String() string {
	return units.Base2Bytes(b.Bytes).String()
}

func (b *Bytes) Set(s string) error {
	n, err := units.ParseBase2Bytes(s)
	if err != nil {
		return err
	}
	b.Bytes = uint64(n)
	return nil
}
