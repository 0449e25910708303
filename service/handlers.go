package service

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/brimdata/esql"
	"github.com/brimdata/esql/api"
	"github.com/brimdata/esql/api/queryio"
	"github.com/brimdata/esql/compiler"
	"github.com/brimdata/esql/runtime"
	"github.com/brimdata/esql/runtime/exec"
	"github.com/brimdata/esql/sio"
	"github.com/brimdata/esql/sio/anyio"
	"github.com/brimdata/esql/vector"
	"github.com/segmentio/ksuid"
	"go.uber.org/zap"
	"golang.org/x/text/language"
)

type handlerFunc func(*Core, *ResponseWriter, *Request)

// pending is a query request that has been decoded, negotiated and
// compiled but not yet pulled.
type pending struct {
	req    *api.QueryRequest
	opts   queryio.Options
	writer anyio.WriterOpts
	query  *exec.Query
}

// prepare checks everything about a query request that can fail before
// execution.  The returned query runs under rctx.
func (c *Core) prepare(r *Request, async bool, rctx func(language.Tag) *runtime.Context) (*pending, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, api.NewError(http.StatusBadRequest, api.ContentParseException, err.Error())
	}
	req, err := api.ParseQueryRequest(body, async)
	if err != nil {
		return nil, err
	}
	opts := r.formatOptions(req.Columnar)
	writer, err := queryio.Negotiate(opts)
	if err != nil {
		return nil, err
	}
	locale := language.AmericanEnglish
	if req.Locale != "" {
		if locale, err = language.Parse(req.Locale); err != nil {
			return nil, api.NewError(http.StatusBadRequest, api.IllegalArgument, "unsupported locale ["+req.Locale+"]")
		}
	}
	ast, err := compiler.Parse(req.Query)
	if err != nil {
		return nil, api.NewError(http.StatusBadRequest, api.ParsingException, err.Error())
	}
	env := c.environment()
	env.Tables = req.Tables
	q, err := compiler.CompileWithAST(rctx(locale), ast, env, req.Params)
	if err != nil {
		return nil, err
	}
	return &pending{req: req, opts: opts, writer: writer, query: q}, nil
}

func handleQuery(c *Core, w *ResponseWriter, r *Request) {
	start := time.Now()
	p, err := c.prepare(r, false, func(locale language.Tag) *runtime.Context {
		return runtime.NewContext(r.Context(), locale)
	})
	if err != nil {
		c.metrics.observe(outcome(err), start)
		w.Error(err)
		return
	}
	defer p.query.Close()
	stream, err := queryio.NewStream(p.query, p.req.Query, p.writer, c.conf.ChunkSize, r.Logger)
	if err != nil {
		c.metrics.observe(outcome(err), start)
		w.Error(err)
		return
	}
	err = w.Stream(stream, p.writer.Format, p.query.Warnings)
	c.metrics.observe(outcome(err), start)
}

func handleAsyncQuery(c *Core, w *ResponseWriter, r *Request) {
	start := time.Now()
	id := ksuid.New().String()
	var cancel func()
	p, err := c.prepare(r, true, func(locale language.Tag) *runtime.Context {
		// The query outlives the request so it runs under the core's
		// context.
		rctx := runtime.NewContext(c.ctx, locale)
		cancel = rctx.Cancel
		return rctx
	})
	if err != nil {
		if cancel != nil {
			cancel()
		}
		c.metrics.observe(outcome(err), start)
		w.Error(err)
		return
	}
	aq := newAsyncQuery(id, p.req, p.query, r.Logger.With(zap.String("async_id", id)))
	go func() {
		aq.run()
		c.metrics.observe(outcome(aq.err), start)
	}()
	if !aq.wait(r.Context(), p.req.WaitForCompletionTimeout) {
		aq.keepAlive(p.req.KeepAlive)
		c.async.add(aq)
		w.respondRunning(aq)
		return
	}
	if p.req.KeepOnCompletion {
		aq.keepAlive(p.req.KeepAlive)
		c.async.add(aq)
	}
	w.respondAsync(aq, p.opts, p.req.KeepOnCompletion)
}

func handleAsyncGet(c *Core, w *ResponseWriter, r *Request) {
	id, err := r.PathParam("id")
	if err != nil {
		w.Error(err)
		return
	}
	aq, ok := c.async.get(id)
	if !ok {
		w.Error(api.ErrNotFound(id))
		return
	}
	var timeout time.Duration
	if s := r.QueryParams().Get("wait_for_completion_timeout"); s != "" {
		if timeout, err = api.ParseTimeValue(s); err != nil {
			w.Error(api.NewError(http.StatusBadRequest, api.IllegalArgument, err.Error()))
			return
		}
	}
	if s := r.QueryParams().Get("keep_alive"); s != "" {
		keepAlive, err := api.ParseTimeValue(s)
		if err != nil {
			w.Error(api.NewError(http.StatusBadRequest, api.IllegalArgument, err.Error()))
			return
		}
		aq.keepAlive(keepAlive)
	}
	opts := r.formatOptions(aq.req.Columnar)
	if _, err := queryio.Negotiate(opts); err != nil {
		w.Error(err)
		return
	}
	if !aq.wait(r.Context(), timeout) {
		w.respondRunning(aq)
		return
	}
	w.respondAsync(aq, opts, true)
}

func handleAsyncDelete(c *Core, w *ResponseWriter, r *Request) {
	id, err := r.PathParam("id")
	if err != nil {
		w.Error(err)
		return
	}
	aq, ok := c.async.remove(id)
	if !ok {
		w.Error(api.ErrNotFound(id))
		return
	}
	aq.cancel()
	w.Respond(http.StatusOK, api.AckResponse{Acknowledged: true})
}

func handleVersion(c *Core, w *ResponseWriter, r *Request) {
	version, date, hash := esql.BuildInfo()
	w.Respond(http.StatusOK, api.VersionResponse{Version: version, Date: date, Hash: hash})
}

// respondAsync writes the result of a finished async query.
func (w *ResponseWriter) respondAsync(aq *asyncQuery, o queryio.Options, withID bool) {
	if aq.err != nil {
		w.Error(aq.err)
		return
	}
	opts, err := queryio.Negotiate(o)
	if err != nil {
		w.Error(err)
		return
	}
	if withID {
		opts.Async = &sio.Async{ID: aq.id}
		w.Header().Set(api.AsyncIDHeader, aq.id)
	}
	w.Header().Set(api.AsyncRunningHeader, "false")
	w.setWarnings(aq.warnings)
	w.Header().Set(api.TookHeader, strconv.FormatInt(aq.took.Nanoseconds(), 10))
	if err := w.contentType(opts.Format); err != nil {
		w.Error(err)
		return
	}
	w.WriteHeader(http.StatusOK)
	out, err := anyio.NewWriter(sio.NopCloser(w), aq.schema, opts)
	if err != nil {
		w.Logger.Warn("Writer creation failed", zap.Error(err))
		return
	}
	if err := sio.Copy(out, vector.NewPuller(aq.pages...)); err != nil {
		w.Logger.Warn("Error writing async result", zap.Error(err))
		return
	}
	if err := sio.Finish(out, sio.Summary{Took: aq.took}); err != nil {
		w.Logger.Warn("Error writing async result", zap.Error(err))
	}
	out.Close()
}

func (w *ResponseWriter) respondRunning(aq *asyncQuery) {
	w.Header().Set(api.AsyncIDHeader, aq.id)
	w.Header().Set(api.AsyncRunningHeader, "true")
	w.Respond(http.StatusOK, api.AsyncResponse{ID: aq.id, IsRunning: true})
}

type outcomeLabel string

const (
	outcomeOK       outcomeLabel = "ok"
	outcomeInvalid  outcomeLabel = "invalid"
	outcomeCanceled outcomeLabel = "canceled"
	outcomeError    outcomeLabel = "error"
)

func outcome(err error) outcomeLabel {
	if err == nil {
		return outcomeOK
	}
	if errors.Is(err, context.Canceled) {
		return outcomeCanceled
	}
	if errorResponse(err).Status == http.StatusBadRequest {
		return outcomeInvalid
	}
	return outcomeError
}
