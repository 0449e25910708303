// Package arrowio writes query results in the Arrow IPC stream format, one
// record batch per page.
package arrowio

import (
	"errors"
	"fmt"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/brimdata/esql"
	"github.com/brimdata/esql/vector"
)

var ErrMultiValue = errors.New("Arrow output does not support multi-valued fields")

type Writer struct {
	writer  io.WriteCloser
	ipc     *ipc.Writer
	schema  *arrow.Schema
	builder *array.RecordBuilder
}

func NewWriter(w io.WriteCloser, schema vector.Schema) *Writer {
	fields := make([]arrow.Field, 0, len(schema))
	for _, c := range schema {
		fields = append(fields, arrow.Field{Name: c.Name, Type: arrowType(c.Type), Nullable: true})
	}
	s := arrow.NewSchema(fields, nil)
	return &Writer{
		writer:  w,
		ipc:     ipc.NewWriter(w, ipc.WithSchema(s), ipc.WithAllocator(memory.DefaultAllocator)),
		schema:  s,
		builder: array.NewRecordBuilder(memory.DefaultAllocator, s),
	}
}

func arrowType(typ esql.DataType) arrow.DataType {
	switch typ {
	case esql.TypeBoolean:
		return arrow.FixedWidthTypes.Boolean
	case esql.TypeInteger:
		return arrow.PrimitiveTypes.Int32
	case esql.TypeLong:
		return arrow.PrimitiveTypes.Int64
	case esql.TypeUnsignedLong:
		return arrow.PrimitiveTypes.Uint64
	case esql.TypeDouble:
		return arrow.PrimitiveTypes.Float64
	case esql.TypeKeyword, esql.TypeText, esql.TypeDatePeriod:
		return arrow.BinaryTypes.String
	case esql.TypeDatetime:
		return &arrow.TimestampType{Unit: arrow.Millisecond, TimeZone: "UTC"}
	case esql.TypeTimeDuration:
		return arrow.FixedWidthTypes.Duration_ns
	}
	return arrow.Null
}

func (w *Writer) Write(page *vector.Page) error {
	for k, b := range page.Blocks {
		if err := appendBlock(w.builder.Field(k), b, page.Len()); err != nil {
			return fmt.Errorf("column %q: %w", page.Schema[k].Name, err)
		}
	}
	rec := w.builder.NewRecord()
	defer rec.Release()
	return w.ipc.Write(rec)
}

func appendBlock(out array.Builder, b vector.Block, n int) error {
	for pos := range n {
		switch b.ValueCount(pos) {
		case 0:
			out.AppendNull()
			continue
		case 1:
		default:
			return ErrMultiValue
		}
		v := b.Any(b.FirstValueIndex(pos))
		switch out := out.(type) {
		case *array.BooleanBuilder:
			out.Append(v.(bool))
		case *array.Int32Builder:
			out.Append(v.(int32))
		case *array.Int64Builder:
			out.Append(v.(int64))
		case *array.Uint64Builder:
			out.Append(v.(uint64))
		case *array.Float64Builder:
			out.Append(v.(float64))
		case *array.StringBuilder:
			out.Append(esql.FormatScalar(b.Type(), v))
		case *array.TimestampBuilder:
			out.Append(arrow.Timestamp(v.(int64)))
		case *array.DurationBuilder:
			out.Append(arrow.Duration(v.(int64)))
		default:
			out.AppendNull()
		}
	}
	return nil
}

func (w *Writer) Close() error {
	w.builder.Release()
	err := w.ipc.Close()
	if closeErr := w.writer.Close(); err == nil {
		err = closeErr
	}
	return err
}
