// Package container provides dependency injection for the statement-insights
// application. It centralizes the creation and wiring of all dependencies,
// making them explicit and testable.
package container

import (
	"context"
	"fmt"

	"fjacquet/statement-insights/internal/analysis"
	"fjacquet/statement-insights/internal/categorizer"
	"fjacquet/statement-insights/internal/config"
	"fjacquet/statement-insights/internal/dateutils"
	"fjacquet/statement-insights/internal/factory"
	"fjacquet/statement-insights/internal/logging"
	"fjacquet/statement-insights/internal/ocr"
	"fjacquet/statement-insights/internal/parsererror"
	"fjacquet/statement-insights/internal/processor"
	"fjacquet/statement-insights/internal/recommender"
	"fjacquet/statement-insights/internal/retry"
	"fjacquet/statement-insights/internal/store"
	"fjacquet/statement-insights/internal/textutils"
	"fjacquet/statement-insights/internal/uploadstore"
)

// Container holds all application dependencies. It is immutable after
// creation; dependencies are reached through getters.
type Container struct {
	logger      logging.Logger
	config      *config.Config
	store       *store.RuleStore
	categorizer *categorizer.Categorizer
	parsers     factory.Registry
	processor   *processor.Processor
	analyzer    *analysis.Analyzer
	uploads     *uploadstore.Store

	ocr            ocr.Engine
	recommender    recommender.Recommender
	recommenderErr error
}

// Option overrides a dependency, mainly for tests.
type Option func(*options)

type options struct {
	logger      logging.Logger
	ocr         ocr.Engine
	recommender recommender.Recommender
}

// WithLogger replaces the logger built from configuration.
func WithLogger(l logging.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithOCR injects an OCR engine instead of the Gemini one.
func WithOCR(e ocr.Engine) Option {
	return func(o *options) { o.ocr = e }
}

// WithRecommender injects a recommender instead of the Gemini one.
func WithRecommender(r recommender.Recommender) Option {
	return func(o *options) { o.recommender = r }
}

// NewContainer creates and wires all application dependencies.
// Missing AI credentials do not fail construction: OCR is left disabled and
// GetRecommender reports the configuration error when first used.
func NewContainer(ctx context.Context, cfg *config.Config, opts ...Option) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	logger := o.logger
	if logger == nil {
		logger = config.NewLogger(cfg)
	}

	ruleStore := store.NewRuleStore(cfg.Categorization.RulesFile, logger)
	cat, err := categorizer.NewFromSource(ruleStore, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load categorization rules: %w", err)
	}

	c := &Container{
		logger:      logger,
		config:      cfg,
		store:       ruleStore,
		categorizer: cat,
		ocr:         o.ocr,
		recommender: o.recommender,
	}
	c.wireAI(ctx)

	c.parsers = factory.NewRegistry(factory.Options{
		Logger:         logger,
		HeaderScanRows: cfg.Parsing.HeaderScanRows,
		DateOrder:      dateutils.ParseOrder(cfg.Parsing.DateOrder),
		Sign:           textutils.NewSignPolicy(cfg.Parsers.Text.DefaultSign, cfg.Parsers.Text.PositiveKeywords),
		OCR:            c.ocr,
		PDFOCR:         cfg.Parsers.PDF.OCREnabled,
	})

	c.processor = processor.New(c.parsers, cat, processor.Config{
		DefaultCurrency: cfg.Parsing.DefaultCurrency,
		Timeout:         cfg.ParseTimeout(),
		MaxBytes:        cfg.Server.MaxUploadBytes,
	}, logger)

	c.analyzer = analysis.NewAnalyzer(logger, analysis.WithHorizons(cfg.Analysis.ForecastHorizons))

	uploads, err := uploadstore.New(cfg.Upload.TempDir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare upload directory: %w", err)
	}
	c.uploads = uploads

	logger.Info("Container initialized successfully",
		logging.F("parsers_count", len(c.parsers)),
		logging.F("ai_enabled", cfg.AI.Enabled),
		logging.F("ocr_available", c.ocr != nil))
	return c, nil
}

func (c *Container) wireAI(ctx context.Context) {
	if !c.config.AI.Enabled {
		if c.recommender == nil {
			c.recommenderErr = &parsererror.ConfigurationError{Component: "recommender", Msg: "AI features are disabled (ai.enabled=false)"}
		}
		return
	}

	// OCR and recommendations share the API key, so they share one rate limiter.
	policy := retry.NewPolicy(c.config.AI.MaxRetries, c.config.AITimeout(), c.config.AI.RequestsPerMinute)

	if c.ocr == nil {
		engine, err := ocr.NewGeminiEngine(ctx, ocr.GeminiConfig{
			APIKey: c.config.AI.APIKey,
			Model:  c.config.AI.OCRModel,
			Policy: policy,
		}, c.logger)
		if err != nil {
			c.logger.WithError(err).Warn("OCR disabled")
		} else {
			c.ocr = engine
		}
	}

	if c.recommender == nil {
		rec, err := recommender.NewGemini(ctx, recommender.Config{
			APIKey:      c.config.AI.APIKey,
			Model:       c.config.AI.Model,
			Temperature: 0.1,
			Policy:      policy,
		}, c.logger)
		if err != nil {
			c.logger.WithError(err).Warn("Recommendations disabled")
			c.recommenderErr = err
		} else {
			c.recommender = rec
		}
	}
}

// GetLogger returns the container's logger instance.
func (c *Container) GetLogger() logging.Logger { return c.logger }

// GetConfig returns the container's configuration instance.
func (c *Container) GetConfig() *config.Config { return c.config }

// GetStore returns the categorization rule store.
func (c *Container) GetStore() *store.RuleStore { return c.store }

// GetCategorizer returns the container's categorizer instance.
func (c *Container) GetCategorizer() *categorizer.Categorizer { return c.categorizer }

// GetParsers returns a copy of the parser registry.
func (c *Container) GetParsers() factory.Registry {
	result := make(factory.Registry, len(c.parsers))
	for k, v := range c.parsers {
		result[k] = v
	}
	return result
}

// GetProcessor returns the statement processor.
func (c *Container) GetProcessor() *processor.Processor { return c.processor }

// GetAnalyzer returns the analyzer.
func (c *Container) GetAnalyzer() *analysis.Analyzer { return c.analyzer }

// GetUploadStore returns the temporary upload store.
func (c *Container) GetUploadStore() *uploadstore.Store { return c.uploads }

// GetOCR returns the OCR engine, or nil when OCR is unavailable.
func (c *Container) GetOCR() ocr.Engine { return c.ocr }

// GetRecommender returns the recommender or the configuration error that
// prevented its creation.
func (c *Container) GetRecommender() (recommender.Recommender, error) {
	if c.recommender == nil {
		return nil, c.recommenderErr
	}
	return c.recommender, nil
}

// Close releases the AI clients.
func (c *Container) Close() error {
	if closer, ok := c.recommender.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			return err
		}
	}
	c.logger.Debug("Container closed")
	return nil
}
