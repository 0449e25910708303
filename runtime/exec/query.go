package exec

import (
	"github.com/brimdata/esql/runtime"
	"github.com/brimdata/esql/vector"
)

// Query runs an operator pipeline as a vector.Puller and implements a
// Close() method that gracefully tears down the pipeline.
type Query struct {
	vector.Puller
	rctx   *runtime.Context
	schema vector.Schema
	meter  *vector.Meter
}

func NewQuery(rctx *runtime.Context, puller vector.Puller, schema vector.Schema) *Query {
	meter := &vector.Meter{}
	return &Query{
		Puller: vector.NewMeteredPuller(puller, meter),
		rctx:   rctx,
		schema: schema,
		meter:  meter,
	}
}

// Schema returns the columns of every page the query produces, known
// before the first page is pulled.
func (q *Query) Schema() vector.Schema {
	return q.schema
}

func (q *Query) Context() *runtime.Context {
	return q.rctx
}

func (q *Query) Warnings() []string {
	return q.rctx.Warnings()
}

func (q *Query) Progress() vector.Progress {
	return q.meter.Progress()
}

func (q *Query) Close() error {
	q.rctx.Cancel()
	return nil
}

func (q *Query) Pull(done bool) (*vector.Page, error) {
	if done {
		q.rctx.Cancel()
	}
	if err := q.rctx.Err(); err != nil && !done {
		return nil, err
	}
	return q.Puller.Pull(done)
}
