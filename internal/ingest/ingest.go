// Package ingest implements the signed-URL ingestion pipeline: validate the
// candidate URL against the trusted storage origin, stream the object into a
// transient artifact under a byte ceiling, convert it to markdown, and tear
// down the artifact on every exit path.
package ingest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/markdownd/markdownd/internal/log"
)

// defaultFilename is used when the caller declares no filename.
const defaultFilename = "upload.bin"

// Converter is the opaque conversion capability. Implementations must be
// safe for concurrent use.
type Converter interface {
	Convert(ctx context.Context, path string, opts ConvertOptions) (ConvertResult, error)
}

type ConvertOptions struct {
	// EnablePlugins toggles optional enrichment passes in the converter.
	EnablePlugins bool
	// FilenameHint is the normalized declared filename; its extension
	// selects the conversion format.
	FilenameHint string
}

type ConvertResult struct {
	Markdown string
	Title    string
}

// Metrics receives pipeline observations. A nil Metrics is replaced with a
// no-op so the pipeline is usable in tests without a registry.
type Metrics interface {
	ObserveIngest(outcome string, seconds float64)
	ObserveDownloadBytes(n int64)
	IncCleanupFailure()
}

type nopMetrics struct{}

func (nopMetrics) ObserveIngest(string, float64) {}
func (nopMetrics) ObserveDownloadBytes(int64)    {}
func (nopMetrics) IncCleanupFailure()            {}

type Config struct {
	// StorageOrigin is the trusted storage origin URL or hostname. Empty
	// means every request fails closed with a configuration error.
	StorageOrigin string
	// SignedPathPrefix is the required signed-object path shape.
	SignedPathPrefix string
	// MaxFileBytes is the download ceiling.
	MaxFileBytes int64
	// FetchTimeout bounds one whole transfer wall-clock.
	FetchTimeout time.Duration
}

type Request struct {
	SignedURL     string
	Filename      string
	EnablePlugins bool
}

type Response struct {
	OK       bool
	Markdown string
	Title    string
	Filename string
}

// Pipeline drives one request through validate, fetch, convert, respond.
// It holds no per-request state and is safe for concurrent use.
type Pipeline struct {
	cfg       Config
	fetcher   *Fetcher
	converter Converter
	logger    log.Logger
	metrics   Metrics
}

func NewPipeline(cfg Config, fetcher *Fetcher, converter Converter, logger log.Logger, m Metrics) *Pipeline {
	if logger == nil {
		logger = log.Nop()
	}
	if m == nil {
		m = nopMetrics{}
	}
	return &Pipeline{
		cfg:       cfg,
		fetcher:   fetcher,
		converter: converter,
		logger:    logger,
		metrics:   m,
	}
}

// Ingest runs the pipeline for one candidate request. Steps are strictly
// sequential; there are no retries. Whatever the outcome, the transient
// artifact is gone by the time Ingest returns.
func (p *Pipeline) Ingest(ctx context.Context, req Request) (resp Response, err error) {
	start := time.Now()
	defer func() {
		outcome := "success"
		if err != nil {
			outcome = KindOf(err).String()
		}
		p.metrics.ObserveIngest(outcome, time.Since(start).Seconds())
	}()

	signedURL := strings.TrimSpace(req.SignedURL)
	if signedURL == "" {
		return Response{}, Errf(KindInvalidRequest, "signed_url is required")
	}

	trustedHost, err := ResolveTrustedHost(p.cfg.StorageOrigin)
	if err != nil {
		return Response{}, err
	}
	if err := ValidateSignedURL(signedURL, trustedHost, p.cfg.SignedPathPrefix); err != nil {
		return Response{}, err
	}

	name := normalizeFilename(req.Filename)
	suffix := filepath.Ext(filepath.Base(name))

	fetchCtx, cancel := context.WithTimeout(ctx, p.cfg.FetchTimeout)
	defer cancel()

	path, bytes, err := p.fetcher.Fetch(fetchCtx, signedURL, AllowedHosts(signedURL, trustedHost), p.cfg.MaxFileBytes, suffix)
	if err != nil {
		return Response{}, err
	}
	// Cleanup runs on every exit path from here on; a failed deletion is
	// logged and counted but never replaces the primary outcome.
	defer p.cleanup(ctx, path)

	p.metrics.ObserveDownloadBytes(bytes)

	if bytes == 0 {
		return Response{}, Errf(KindEmptyPayload, "file is empty")
	}

	result, err := p.converter.Convert(ctx, path, ConvertOptions{
		EnablePlugins: req.EnablePlugins,
		FilenameHint:  name,
	})
	if err != nil {
		return Response{}, WrapErr(KindConversionFailure, err, "failed to convert file")
	}

	markdown := strings.TrimSpace(result.Markdown)
	if markdown == "" {
		return Response{}, Errf(KindEmptyResult, "conversion returned empty markdown")
	}

	p.logger.Info(ctx, "file converted",
		"filename", name,
		"bytes", bytes,
		"markdown_len", len(markdown),
	)

	return Response{
		OK:       true,
		Markdown: markdown,
		Title:    strings.TrimSpace(result.Title),
		Filename: name,
	}, nil
}

func (p *Pipeline) cleanup(ctx context.Context, path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		p.metrics.IncCleanupFailure()
		p.logger.Error(ctx, err, "transient artifact cleanup failed", "path", path)
	}
}

func normalizeFilename(name string) string {
	n := strings.TrimSpace(name)
	if n == "" {
		return defaultFilename
	}
	return n
}
