package convert

import (
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/markdownd/markdownd/internal/ingest"
	"github.com/markdownd/markdownd/internal/xerrors"
)

// convertPDF extracts plain text page by page. Pages that fail to parse
// are skipped; a document where every page fails yields an error rather
// than silently empty output.
func convertPDF(path string) (ingest.ConvertResult, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return ingest.ConvertResult{}, xerrors.Wrap(err, "open pdf")
	}
	defer f.Close()

	var sb strings.Builder
	pages := r.NumPage()
	var extracted int
	for i := 1; i <= pages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(text)
		extracted++
	}

	if extracted == 0 {
		return ingest.ConvertResult{}, xerrors.Newf("no extractable text in %d page pdf", pages)
	}
	return ingest.ConvertResult{Markdown: sb.String()}, nil
}
