// Package storage reads the data files that back an index from the local
// file system, standard input, or S3.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
)

type Scheme string

const (
	FileScheme  Scheme = "file"
	StdioScheme Scheme = "stdio"
	S3Scheme    Scheme = "s3"
)

var ErrNotSupported = errors.New("storage scheme not supported")

type Reader interface {
	io.ReadCloser
}

type Sizer interface {
	Size() (int64, error)
}

// Info describes an object found by List.  Name is relative to the
// listed location.
type Info struct {
	Name string
	Size int64
}

type Engine interface {
	Get(context.Context, *URI) (Reader, error)
	Size(context.Context, *URI) (int64, error)
	Exists(context.Context, *URI) (bool, error)
	List(context.Context, *URI) ([]Info, error)
}

// Router is an Engine that dispatches on the scheme of each URI.
type Router struct {
	engines map[Scheme]Engine
}

var _ Engine = (*Router)(nil)

func NewRouter() *Router {
	return &Router{engines: make(map[Scheme]Engine)}
}

// NewLocalEngine returns an Engine for files and standard input.
func NewLocalEngine() *Router {
	r := NewRouter()
	r.Enable(FileScheme, NewFileSystem())
	r.Enable(StdioScheme, NewStdioEngine())
	return r
}

// NewRemoteEngine returns an Engine that adds S3 to NewLocalEngine.
func NewRemoteEngine() *Router {
	r := NewLocalEngine()
	r.Enable(S3Scheme, NewS3())
	return r
}

func (r *Router) Enable(scheme Scheme, engine Engine) {
	r.engines[scheme] = engine
}

func (r *Router) lookup(u *URI) (Engine, error) {
	scheme := Scheme(u.Scheme)
	if scheme == "" {
		scheme = FileScheme
	}
	if engine, ok := r.engines[scheme]; ok {
		return engine, nil
	}
	return nil, fmt.Errorf("%s: %w", u, ErrNotSupported)
}

func (r *Router) Get(ctx context.Context, u *URI) (Reader, error) {
	engine, err := r.lookup(u)
	if err != nil {
		return nil, err
	}
	return engine.Get(ctx, u)
}

func (r *Router) Size(ctx context.Context, u *URI) (int64, error) {
	engine, err := r.lookup(u)
	if err != nil {
		return 0, err
	}
	return engine.Size(ctx, u)
}

func (r *Router) Exists(ctx context.Context, u *URI) (bool, error) {
	engine, err := r.lookup(u)
	if err != nil {
		return false, err
	}
	return engine.Exists(ctx, u)
}

func (r *Router) List(ctx context.Context, u *URI) ([]Info, error) {
	engine, err := r.lookup(u)
	if err != nil {
		return nil, err
	}
	return engine.List(ctx, u)
}
