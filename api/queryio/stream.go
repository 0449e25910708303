package queryio

import (
	"bytes"
	"time"

	"github.com/brimdata/esql/sio"
	"github.com/brimdata/esql/sio/anyio"
	"github.com/brimdata/esql/vector"
	"go.uber.org/zap"
)

const DefaultChunkSize = 64 * 1024

// Query is the part of exec.Query a Stream needs.
type Query interface {
	vector.Puller
	Schema() vector.Schema
}

// Stream renders the pages of a query in an output format and hands out
// the result as a sequence of chunks.  Pages are pulled from the query only
// as chunks are requested so a slow consumer holds back execution.
type Stream struct {
	query     Query
	text      string
	logger    *zap.Logger
	chunkSize int

	buf    bytes.Buffer
	writer sio.WriteCloser
	start  time.Time
	took   time.Duration
	first  *vector.Page
	eof    bool
}

// NewStream starts the clock and pulls the first page of q so a query that
// fails immediately is reported as an error rather than a truncated body.
// text is the query as written and is only used for logging.
func NewStream(q Query, text string, opts anyio.WriterOpts, chunkSize int, logger *zap.Logger) (*Stream, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	s := &Stream{
		query:     q,
		text:      text,
		logger:    logger,
		chunkSize: chunkSize,
		start:     time.Now(),
	}
	w, err := anyio.NewWriter(sio.NopCloser(&s.buf), q.Schema(), opts)
	if err != nil {
		q.Pull(true)
		return nil, &FormatError{Msg: err.Error()}
	}
	s.writer = w
	first, err := q.Pull(false)
	if err != nil {
		s.fail(err)
		return nil, err
	}
	if first == nil {
		// Nothing to wait for so the query is over already.
		s.eof = true
		if err := s.finish(); err != nil {
			return nil, err
		}
		return s, nil
	}
	s.first = first
	return s, nil
}

// Pull returns the next chunk of the response body or nil when the body is
// complete.  Pull(true) abandons the query and drops any output not yet
// returned.
func (s *Stream) Pull(done bool) ([]byte, error) {
	if done {
		if !s.eof {
			s.eof = true
			s.first = nil
			s.query.Pull(true)
			s.writer.Close()
		}
		return nil, nil
	}
	for !s.eof && s.buf.Len() < s.chunkSize {
		page := s.first
		s.first = nil
		if page == nil {
			var err error
			page, err = s.query.Pull(false)
			if err != nil {
				s.eof = true
				s.fail(err)
				return nil, err
			}
		}
		if page == nil {
			s.eof = true
			if err := s.finish(); err != nil {
				return nil, err
			}
			break
		}
		if err := s.writer.Write(page); err != nil {
			s.eof = true
			s.query.Pull(true)
			s.fail(err)
			return nil, err
		}
	}
	if s.buf.Len() == 0 {
		return nil, nil
	}
	chunk := bytes.Clone(s.buf.Bytes())
	s.buf.Reset()
	return chunk, nil
}

// Took returns the time from NewStream until the last page was written.
// It is zero until the query has finished.
func (s *Stream) Took() time.Duration {
	return s.took
}

func (s *Stream) finish() error {
	s.took = time.Since(s.start)
	if err := sio.Finish(s.writer, sio.Summary{Took: s.took}); err != nil {
		s.fail(err)
		return err
	}
	if err := s.writer.Close(); err != nil {
		s.fail(err)
		return err
	}
	s.logger.Info("query executed",
		zap.String("query", s.text),
		zap.Int64("took_ms", s.took.Milliseconds()),
		zap.Duration("took", s.took),
	)
	return nil
}

func (s *Stream) fail(err error) {
	s.writer.Close()
	s.logger.Warn("query failed",
		zap.String("query", s.text),
		zap.Duration("took", time.Since(s.start)),
		zap.Error(err),
	)
}
