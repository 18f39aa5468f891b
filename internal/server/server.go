// Package server exposes the statement pipeline over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"fjacquet/statement-insights/internal/container"
	"fjacquet/statement-insights/internal/logging"
	"fjacquet/statement-insights/internal/models"
	"fjacquet/statement-insights/internal/processor"
	"fjacquet/statement-insights/internal/recommender"
	"fjacquet/statement-insights/internal/uploadstore"

	"github.com/gin-gonic/gin"
)

// multipartOverhead is the body allowance on top of the file size limit for
// multipart boundaries and headers.
const multipartOverhead = 1 << 20

// StatementProcessor parses one upload.
type StatementProcessor interface {
	Process(ctx context.Context, u processor.Upload) ([]models.Transaction, error)
}

// StatementAnalyzer summarizes transactions.
type StatementAnalyzer interface {
	Analyze(txs []models.Transaction) (*models.AnalysisResult, error)
}

// Deps are the collaborators the handlers need.
type Deps struct {
	Logger      logging.Logger
	Processor   StatementProcessor
	Analyzer    StatementAnalyzer
	Uploads     *uploadstore.Store
	Recommender func() (recommender.Recommender, error)
	MaxBytes    int64
	Mode        string
}

// Server is the HTTP intake.
type Server struct {
	deps   Deps
	engine *gin.Engine
}

// New builds the router.
func New(deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = logging.NewDiscardLogger()
	}
	if deps.Mode != "" {
		gin.SetMode(deps.Mode)
	}

	s := &Server{deps: deps}
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(deps.Logger))
	r.MaxMultipartMemory = deps.MaxBytes + multipartOverhead

	r.GET("/healthz", s.health)

	api := r.Group("/api")
	api.POST("/upload", s.upload)
	api.POST("/file/upload", s.storeUpload)
	api.GET("/file/process", s.processStored)
	api.POST("/analysis/base", s.analyze)
	api.POST("/analysis/recommendations", s.recommend)

	s.engine = r
	return s
}

// NewFromContainer wires a Server from the application container.
func NewFromContainer(c *container.Container) *Server {
	cfg := c.GetConfig()
	return New(Deps{
		Logger:      c.GetLogger(),
		Processor:   c.GetProcessor(),
		Analyzer:    c.GetAnalyzer(),
		Uploads:     c.GetUploadStore(),
		Recommender: c.GetRecommender,
		MaxBytes:    cfg.Server.MaxUploadBytes,
		Mode:        cfg.Server.Mode,
	})
}

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.deps.Logger.Info("HTTP server listening", logging.F("address", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.deps.Logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
