// Package service serves queries over HTTP.
package service

import (
	"context"
	"net/http"
	goruntime "runtime"

	"github.com/brimdata/esql/api/queryio"
	"github.com/brimdata/esql/catalog"
	"github.com/brimdata/esql/runtime/exec"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const DefaultAsyncCacheSize = 1024

type Config struct {
	Catalog        catalog.Catalog
	Logger         *zap.Logger
	DefaultLimit   int
	MaxLimit       int
	ChunkSize      int
	AsyncCacheSize int
	CORSOrigins    []string
}

type Core struct {
	conf     Config
	ctx      context.Context
	cancel   context.CancelFunc
	logger   *zap.Logger
	registry *prometheus.Registry
	metrics  *metrics
	async    *asyncStore
	handler  http.Handler
	router   *mux.Router
}

func NewCore(ctx context.Context, conf Config) (*Core, error) {
	if conf.Logger == nil {
		conf.Logger = zap.NewNop()
	}
	if conf.DefaultLimit == 0 {
		conf.DefaultLimit = exec.DefaultLimit
	}
	if conf.MaxLimit == 0 {
		conf.MaxLimit = exec.MaxLimit
	}
	if conf.ChunkSize == 0 {
		conf.ChunkSize = queryio.DefaultChunkSize
	}
	if conf.AsyncCacheSize == 0 {
		conf.AsyncCacheSize = DefaultAsyncCacheSize
	}
	if conf.Catalog == nil {
		conf.Catalog = catalog.NewMemory()
	}
	async, err := newAsyncStore(conf.AsyncCacheSize)
	if err != nil {
		return nil, err
	}
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	ctx, cancel := context.WithCancel(ctx)
	c := &Core{
		conf:     conf,
		ctx:      ctx,
		cancel:   cancel,
		logger:   conf.Logger.Named("core"),
		registry: registry,
		metrics:  newMetrics(registry),
		async:    async,
		router:   mux.NewRouter(),
	}
	c.addRoutes()
	c.handler = c.middleware(c.router)
	c.logger.Info("Started",
		zap.Int("default_limit", conf.DefaultLimit),
		zap.Int("max_limit", conf.MaxLimit),
		zap.Int("chunk_size", conf.ChunkSize),
	)
	return c, nil
}

func (c *Core) addRoutes() {
	c.handle("/_query", handleQuery).Methods("POST")
	c.handle("/_query/async", handleAsyncQuery).Methods("POST")
	c.handle("/_query/async/{id}", handleAsyncGet).Methods("GET")
	c.handle("/_query/async/{id}", handleAsyncDelete).Methods("DELETE")
	c.handle("/version", handleVersion).Methods("GET")
	c.router.Handle("/metrics", promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})).Methods("GET")
	c.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		res := newResponseWriter(w, c.requestLogger(r))
		res.Error(errNoRoute(r))
	})
}

func (c *Core) handle(path string, f handlerFunc) *mux.Route {
	return c.router.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		logger := c.requestLogger(r)
		f(c, newResponseWriter(w, logger), newRequest(r, logger))
	})
}

func (c *Core) environment() *exec.Environment {
	return &exec.Environment{
		Catalog:      c.conf.Catalog,
		DefaultLimit: c.conf.DefaultLimit,
		MaxLimit:     c.conf.MaxLimit,
		Workers:      goruntime.GOMAXPROCS(0),
	}
}

func (c *Core) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c.handler.ServeHTTP(w, r)
}

// Shutdown cancels every running async query.
func (c *Core) Shutdown() {
	c.cancel()
	c.async.purge()
	c.logger.Info("Shutdown")
}
