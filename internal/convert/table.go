package convert

import (
	"encoding/csv"
	"os"
	"strings"

	"github.com/markdownd/markdownd/internal/ingest"
	"github.com/markdownd/markdownd/internal/xerrors"
)

// convertCSV renders delimited records as a markdown table. The first
// record is treated as the header row.
func convertCSV(path string, delim rune) (ingest.ConvertResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return ingest.ConvertResult{}, xerrors.Wrap(err, "open csv artifact")
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.Comma = delim
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return ingest.ConvertResult{}, xerrors.Wrap(err, "parse csv")
	}
	if len(records) == 0 {
		return ingest.ConvertResult{}, nil
	}

	width := 0
	for _, rec := range records {
		if len(rec) > width {
			width = len(rec)
		}
	}

	var sb strings.Builder
	writeRow := func(rec []string) {
		sb.WriteByte('|')
		for i := 0; i < width; i++ {
			var cell string
			if i < len(rec) {
				cell = tableCell(rec[i])
			}
			sb.WriteByte(' ')
			sb.WriteString(cell)
			sb.WriteString(" |")
		}
		sb.WriteByte('\n')
	}

	writeRow(records[0])
	sb.WriteByte('|')
	for i := 0; i < width; i++ {
		sb.WriteString(" --- |")
	}
	sb.WriteByte('\n')
	for _, rec := range records[1:] {
		writeRow(rec)
	}

	return ingest.ConvertResult{Markdown: strings.TrimRight(sb.String(), "\n")}, nil
}

// tableCell escapes characters that would break table structure.
func tableCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.TrimSpace(s)
}
