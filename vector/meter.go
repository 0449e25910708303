package vector

import "sync/atomic"

// Progress summarizes the output of a running query.
type Progress struct {
	Pages    int64 `json:"pages" yaml:"pages"`
	Rows     int64 `json:"rows" yaml:"rows"`
	MaxBlock int64 `json:"max_block_values" yaml:"max_block_values"`
}

// Meter counts the pages passing through a metered puller.  It is safe to
// read while the query runs.
type Meter struct {
	pages    atomic.Int64
	rows     atomic.Int64
	maxBlock atomic.Int64
}

func (m *Meter) Progress() Progress {
	return Progress{
		Pages:    m.pages.Load(),
		Rows:     m.rows.Load(),
		MaxBlock: m.maxBlock.Load(),
	}
}

func (m *Meter) add(page *Page) {
	m.pages.Add(1)
	m.rows.Add(int64(page.Len()))
	for _, b := range page.Blocks {
		n := int64(0)
		if b.Len() > 0 {
			n = int64(b.FirstValueIndex(b.Len()-1) + b.ValueCount(b.Len()-1))
		}
		for {
			max := m.maxBlock.Load()
			if n <= max || m.maxBlock.CompareAndSwap(max, n) {
				break
			}
		}
	}
}

type meteredPuller struct {
	Puller
	meter *Meter
}

func NewMeteredPuller(p Puller, m *Meter) Puller {
	return &meteredPuller{p, m}
}

func (m *meteredPuller) Pull(done bool) (*Page, error) {
	page, err := m.Puller.Pull(done)
	if page != nil {
		m.meter.add(page)
	}
	return page, err
}
