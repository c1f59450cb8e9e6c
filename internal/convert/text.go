package convert

import (
	"bytes"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/markdownd/markdownd/internal/ingest"
	"github.com/markdownd/markdownd/internal/xerrors"
)

// convertText passes text-like content through unchanged. Bytes that are
// clearly binary are rejected rather than emitted as garbage markdown.
func convertText(path string) (ingest.ConvertResult, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return ingest.ConvertResult{}, xerrors.Wrap(err, "read text artifact")
	}
	if !looksLikeText(raw) {
		return ingest.ConvertResult{}, xerrors.New("unsupported binary format")
	}
	markdown := strings.TrimSpace(string(raw))
	return ingest.ConvertResult{Markdown: markdown, Title: firstHeading(markdown)}, nil
}

func looksLikeText(raw []byte) bool {
	if len(raw) == 0 {
		return true
	}
	if bytes.IndexByte(raw, 0) >= 0 {
		return false
	}
	return utf8.Valid(raw)
}
