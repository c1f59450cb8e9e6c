// Package convert turns downloaded artifacts into markdown. The format is
// chosen by the declared filename's extension; the bytes themselves are
// never sniffed for formats with a dedicated parser.
//
// Supported formats:
//   - .html, .htm        main-content extraction, then markdown
//   - .pdf               plain-text extraction, page by page
//   - .docx              word/document.xml text runs
//   - .csv, .tsv         markdown table
//   - .md, .txt, others  plain-text passthrough when the bytes look like text
package convert

import (
	"context"
	"path/filepath"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	"golang.org/x/sync/semaphore"

	"github.com/markdownd/markdownd/internal/ingest"
	"github.com/markdownd/markdownd/internal/log"
)

// Converter implements ingest.Converter. One instance serves all requests;
// the semaphore bounds how many conversions run at once since parsing large
// documents is memory-heavy.
type Converter struct {
	sem      *semaphore.Weighted
	htmlConv *md.Converter
	logger   log.Logger
}

func New(maxConcurrent int64, logger log.Logger) *Converter {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	if logger == nil {
		logger = log.Nop()
	}
	conv := md.NewConverter("", true, nil)
	conv.Use(plugin.GitHubFlavored())
	return &Converter{
		sem:      semaphore.NewWeighted(maxConcurrent),
		htmlConv: conv,
		logger:   logger,
	}
}

// Convert parses the artifact at path into markdown. It blocks while the
// concurrency limit is saturated; ctx cancellation releases the wait.
func (c *Converter) Convert(ctx context.Context, path string, opts ingest.ConvertOptions) (ingest.ConvertResult, error) {
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return ingest.ConvertResult{}, err
	}
	defer c.sem.Release(1)

	format := formatFor(opts.FilenameHint, path)
	c.logger.Debug(ctx, "converting artifact", "format", format, "plugins", opts.EnablePlugins)

	switch format {
	case formatHTML:
		return c.convertHTML(path, opts.EnablePlugins)
	case formatPDF:
		return convertPDF(path)
	case formatDocx:
		return convertDocx(path)
	case formatCSV:
		return convertCSV(path, ',')
	case formatTSV:
		return convertCSV(path, '\t')
	default:
		return convertText(path)
	}
}

type format string

const (
	formatHTML format = "html"
	formatPDF  format = "pdf"
	formatDocx format = "docx"
	formatCSV  format = "csv"
	formatTSV  format = "tsv"
	formatText format = "text"
)

// formatFor picks the format from the declared filename, falling back to
// the artifact path's own extension when no filename was declared.
func formatFor(hint, path string) format {
	ext := strings.ToLower(filepath.Ext(hint))
	if ext == "" {
		ext = strings.ToLower(filepath.Ext(path))
	}
	switch ext {
	case ".html", ".htm", ".xhtml":
		return formatHTML
	case ".pdf":
		return formatPDF
	case ".docx":
		return formatDocx
	case ".csv":
		return formatCSV
	case ".tsv":
		return formatTSV
	default:
		return formatText
	}
}
