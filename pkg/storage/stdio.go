package storage

import (
	"context"
	"fmt"
	"io"
	"os"
)

// StdioEngine reads stdio:stdin.  Closing the reader leaves standard input
// open so it can be read again.
type StdioEngine struct {
	stdin io.Reader
}

var _ Engine = (*StdioEngine)(nil)

func NewStdioEngine() *StdioEngine {
	return &StdioEngine{stdin: os.Stdin}
}

func (s *StdioEngine) Get(_ context.Context, u *URI) (Reader, error) {
	if u.Base() != "stdin" {
		return nil, fmt.Errorf("%s: %w", u, ErrNotSupported)
	}
	return io.NopCloser(s.stdin), nil
}

func (*StdioEngine) Size(context.Context, *URI) (int64, error) {
	return 0, ErrNotSupported
}

func (*StdioEngine) Exists(_ context.Context, u *URI) (bool, error) {
	return u.Base() == "stdin", nil
}

func (*StdioEngine) List(context.Context, *URI) ([]Info, error) {
	return nil, ErrNotSupported
}
