package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/brimdata/esql"
	"github.com/brimdata/esql/api"
	"github.com/brimdata/esql/api/params"
	"github.com/brimdata/esql/api/queryio"
	"github.com/brimdata/esql/compiler/srcfiles"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type Request struct {
	*http.Request
	Logger *zap.Logger
}

func newRequest(r *http.Request, logger *zap.Logger) *Request {
	return &Request{Request: r, Logger: logger}
}

func (r *Request) PathParam(key string) (string, error) {
	s, ok := mux.Vars(r.Request)[key]
	if !ok || s == "" {
		return "", api.NewError(http.StatusBadRequest, api.IllegalArgument, fmt.Sprintf("missing path parameter [%s]", key))
	}
	return s, nil
}

// QueryParams returns the URL query parameters.  Unlike url.ParseQuery,
// a raw ';' is kept as part of a value so that "delimiter=;" works.
func (r *Request) QueryParams() url.Values {
	q := make(url.Values)
	for _, pair := range strings.Split(r.URL.RawQuery, "&") {
		if pair == "" {
			continue
		}
		key, value, _ := strings.Cut(pair, "=")
		if k, err := url.QueryUnescape(key); err == nil {
			key = k
		}
		if v, err := url.QueryUnescape(value); err == nil {
			value = v
		}
		q.Add(key, value)
	}
	return q
}

func (r *Request) formatOptions(columnar bool) queryio.Options {
	q := r.QueryParams()
	return queryio.Options{
		Format:      q.Get("format"),
		Accept:      r.Header.Get("Accept"),
		ContentType: r.Header.Get("Content-Type"),
		Delimiter:   q.Get("delimiter"),
		Header:      q.Get("header"),
		Columnar:    columnar,
	}
}

type ResponseWriter struct {
	http.ResponseWriter
	Logger  *zap.Logger
	written bool
}

func newResponseWriter(w http.ResponseWriter, logger *zap.Logger) *ResponseWriter {
	return &ResponseWriter{ResponseWriter: w, Logger: logger}
}

func (w *ResponseWriter) WriteHeader(status int) {
	w.written = true
	w.ResponseWriter.WriteHeader(status)
}

func (w *ResponseWriter) Write(b []byte) (int, error) {
	w.written = true
	return w.ResponseWriter.Write(b)
}

func (w *ResponseWriter) Respond(status int, body any) bool {
	w.Header().Set("Content-Type", api.MediaTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		w.Logger.Warn("Error writing response", zap.Error(err))
		return false
	}
	return true
}

// Error writes err as the response body unless part of the response has
// already been sent, in which case it can only be logged.
func (w *ResponseWriter) Error(err error) {
	if w.written {
		w.Logger.Warn("Error after response started", zap.Error(err))
		return
	}
	resp := errorResponse(err)
	if resp.Status >= 500 {
		w.Logger.Warn("Error", zap.Int("status", resp.Status), zap.Error(err))
	}
	w.Respond(resp.Status, resp)
}

// Stream writes the chunks of stream as the response body.  The execution
// time and any warnings raised after the headers went out are sent as
// trailers.
func (w *ResponseWriter) Stream(stream *queryio.Stream, format string, warnings func() []string) error {
	chunk, err := stream.Pull(false)
	if err != nil {
		w.Error(err)
		return err
	}
	w.Header().Set("Trailer", api.TookHeader)
	sent := warnings()
	w.setWarnings(sent)
	if err := w.contentType(format); err != nil {
		stream.Pull(true)
		w.Error(err)
		return err
	}
	w.WriteHeader(http.StatusOK)
	flusher, _ := w.ResponseWriter.(http.Flusher)
	for chunk != nil {
		if _, err := w.Write(chunk); err != nil {
			stream.Pull(true)
			w.Logger.Info("Client went away", zap.Error(err))
			return context.Canceled
		}
		if flusher != nil {
			flusher.Flush()
		}
		if chunk, err = stream.Pull(false); err != nil {
			w.Error(err)
			return err
		}
	}
	w.Header().Set(api.TookHeader, strconv.FormatInt(stream.Took().Nanoseconds(), 10))
	if late := warnings(); len(late) > len(sent) {
		for _, msg := range late[len(sent):] {
			w.Header().Add(http.TrailerPrefix+api.WarningHeader, formatWarning(msg))
		}
	}
	return nil
}

func (w *ResponseWriter) contentType(format string) error {
	typ, err := api.FormatToMediaType(format)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", typ)
	return nil
}

func (w *ResponseWriter) setWarnings(warnings []string) {
	for _, msg := range warnings {
		w.Header().Add(api.WarningHeader, formatWarning(msg))
	}
}

// formatWarning renders msg as an RFC 7234 warning value with the
// miscellaneous persistent warning code.
func formatWarning(msg string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	return fmt.Sprintf(`299 esql-%s "%s"`, esql.Version, r.Replace(msg))
}

func errorResponse(err error) *api.Error {
	var aerr *api.Error
	if errors.As(err, &aerr) {
		return aerr
	}
	var perr *params.Error
	if errors.As(err, &perr) {
		return api.NewError(http.StatusBadRequest, api.ParsingException, perr.Error())
	}
	var ferr *queryio.FormatError
	if errors.As(err, &ferr) {
		return api.NewError(http.StatusBadRequest, api.IllegalArgument, ferr.Error())
	}
	var list srcfiles.ErrorList
	if errors.As(err, &list) {
		return api.NewError(http.StatusBadRequest, api.VerificationException, list.Error())
	}
	if errors.Is(err, context.Canceled) {
		return api.NewError(http.StatusBadRequest, api.TaskCancelledException, "task cancelled")
	}
	return api.NewError(http.StatusInternalServerError, api.InternalServerException, err.Error())
}

func errNoRoute(r *http.Request) error {
	return api.NewError(http.StatusNotFound, api.ResourceNotFound,
		fmt.Sprintf("no handler found for uri [%s] and method [%s]", r.URL.Path, r.Method))
}
