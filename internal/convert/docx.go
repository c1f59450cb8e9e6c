package convert

import (
	"archive/zip"
	"encoding/xml"
	"io"
	"strings"

	"github.com/markdownd/markdownd/internal/ingest"
	"github.com/markdownd/markdownd/internal/xerrors"
)

// convertDocx pulls the text runs out of word/document.xml. Formatting is
// not reconstructed; paragraphs become markdown paragraphs and tabs and
// line breaks become whitespace.
func convertDocx(path string) (ingest.ConvertResult, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return ingest.ConvertResult{}, xerrors.Wrap(err, "open docx archive")
	}
	defer zr.Close()

	var doc *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			doc = f
			break
		}
	}
	if doc == nil {
		return ingest.ConvertResult{}, xerrors.New("docx archive has no word/document.xml")
	}

	rc, err := doc.Open()
	if err != nil {
		return ingest.ConvertResult{}, xerrors.Wrap(err, "open word/document.xml")
	}
	defer rc.Close()

	text, err := docxText(rc)
	if err != nil {
		return ingest.ConvertResult{}, err
	}
	return ingest.ConvertResult{Markdown: text}, nil
}

// docxText walks the WordprocessingML token stream, keeping character data
// inside w:t runs and emitting a blank line at each paragraph end.
func docxText(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)

	var sb strings.Builder
	var para strings.Builder
	var inText bool

	flush := func() {
		if p := strings.TrimSpace(para.String()); p != "" {
			if sb.Len() > 0 {
				sb.WriteString("\n\n")
			}
			sb.WriteString(p)
		}
		para.Reset()
	}

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", xerrors.Wrap(err, "parse word/document.xml")
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				para.WriteByte('\t')
			case "br", "cr":
				para.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				flush()
			}
		case xml.CharData:
			if inText {
				para.Write(t)
			}
		}
	}
	flush()

	return sb.String(), nil
}
