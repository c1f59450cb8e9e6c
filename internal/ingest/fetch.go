package ingest

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/markdownd/markdownd/internal/log"
	"github.com/markdownd/markdownd/internal/xerrors"
)

// fetchChunkSize bounds memory use per request: the streaming copy never
// holds more than one chunk regardless of file size.
const fetchChunkSize = 256 * 1024

// Fetcher streams remote objects into transient local files under a byte
// ceiling. One instance is shared by all requests; it holds no per-request
// state.
type Fetcher struct {
	client  *http.Client
	tempDir string
	logger  log.Logger
}

func NewFetcher(tempDir string, logger log.Logger) *Fetcher {
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	if logger == nil {
		logger = log.Nop()
	}
	return &Fetcher{
		// the overall deadline comes from the request context, so the
		// client itself carries no timeout
		client:  &http.Client{},
		tempDir: tempDir,
		logger:  logger,
	}
}

// Fetch downloads rawURL into a freshly created temp file and returns its
// path and the byte count. The ctx deadline bounds the whole transfer, not
// just the connect. On any error the partial file is removed before the
// error propagates; ownership transfers to the caller only on success.
// Zero bytes received is not an error at this layer.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string, allowed map[string]struct{}, ceiling int64, suffix string) (string, int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", 0, WrapErr(KindInvalidRequest, err, "invalid signed URL")
	}

	resp, err := f.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", 0, WrapErr(KindUpstreamFetch, err, "download timed out")
		}
		return "", 0, WrapErr(KindUpstreamFetch, err, "failed to download from signed URL")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", 0, Errf(KindUpstreamFetch, "failed to download from signed URL (%d)", resp.StatusCode)
	}

	// The final URL after any redirects. Must pass before a single byte
	// is persisted.
	if err := ValidateResolvedHost(resp.Request.URL.Hostname(), allowed); err != nil {
		return "", 0, err
	}

	// Advisory only: the header can be absent or lie, the running total
	// below is authoritative.
	if resp.ContentLength > ceiling {
		return "", 0, Errf(KindPayloadTooLarge, "file exceeds %d byte limit", ceiling)
	}

	tmp, err := os.CreateTemp(f.tempDir, artifactPattern(suffix))
	if err != nil {
		return "", 0, WrapErr(KindInternal, xerrors.Wrap(err, "create transient artifact"), "failed to convert file")
	}
	path := tmp.Name()

	var total int64
	buf := make([]byte, fetchChunkSize)
	for {
		n, rerr := resp.Body.Read(buf)
		if n > 0 {
			total += int64(n)
			if total > ceiling {
				f.discard(ctx, tmp, path)
				return "", 0, Errf(KindPayloadTooLarge, "file exceeds %d byte limit", ceiling)
			}
			if _, werr := tmp.Write(buf[:n]); werr != nil {
				f.discard(ctx, tmp, path)
				return "", 0, WrapErr(KindInternal, xerrors.Wrap(werr, "write transient artifact"), "failed to convert file")
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			f.discard(ctx, tmp, path)
			if errors.Is(rerr, context.DeadlineExceeded) {
				return "", 0, WrapErr(KindUpstreamFetch, rerr, "download timed out")
			}
			return "", 0, WrapErr(KindUpstreamFetch, rerr, "download interrupted")
		}
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(path)
		return "", 0, WrapErr(KindInternal, xerrors.Wrap(err, "close transient artifact"), "failed to convert file")
	}
	return path, total, nil
}

func (f *Fetcher) discard(ctx context.Context, tmp *os.File, path string) {
	_ = tmp.Close()
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		f.logger.Error(ctx, err, "failed to remove partial artifact", "path", path)
	}
}

// artifactPattern yields a collision-free temp name. The uuid keeps names
// unique across concurrent requests even beyond CreateTemp's own
// randomization; the sanitized suffix preserves the extension hint for the
// converter.
func artifactPattern(suffix string) string {
	return "markdownd-" + uuid.NewString() + "-*" + sanitizeSuffix(suffix)
}

// sanitizeSuffix keeps only a plain dotted extension so a hostile declared
// filename cannot influence the artifact path.
func sanitizeSuffix(s string) string {
	if !strings.HasPrefix(s, ".") || len(s) > 16 {
		return ""
	}
	for _, r := range s[1:] {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		default:
			return ""
		}
	}
	if len(s) == 1 {
		return ""
	}
	return strings.ToLower(s)
}
