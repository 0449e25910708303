package storage

import (
	"net/url"
	"path"
	"path/filepath"
	"strings"
)

type URI url.URL

// ParseURI parses a URL such as s3://bucket/key or stdio:stdin.  Anything
// without a scheme is taken as a local file path and made absolute.
func ParseURI(s string) (*URI, error) {
	if s == "" {
		return &URI{}, nil
	}
	u, err := url.Parse(s)
	// A one-letter scheme is a Windows drive letter.
	if err != nil || len(u.Scheme) <= 1 {
		abs, err := filepath.Abs(s)
		if err != nil {
			return nil, err
		}
		return &URI{Scheme: string(FileScheme), Path: filepath.ToSlash(abs)}, nil
	}
	return (*URI)(u), nil
}

func MustParseURI(s string) *URI {
	u, err := ParseURI(s)
	if err != nil {
		panic(err)
	}
	return u
}

func (u *URI) String() string {
	return (*url.URL)(u).String()
}

func (u *URI) URL() *url.URL {
	return (*url.URL)(u)
}

// Filepath returns the local path of a file URI.
func (u *URI) Filepath() string {
	return filepath.FromSlash(u.Path)
}

// Base returns the last element of the path, or the opaque part of a URI
// such as stdio:stdin.
func (u *URI) Base() string {
	if u.Path == "" {
		return u.Opaque
	}
	return path.Base(u.Path)
}

// JoinPath returns the URI of name below u.
func (u *URI) JoinPath(name string) *URI {
	out := *u
	out.Path = strings.TrimSuffix(u.Path, "/") + "/" + name
	return &out
}
