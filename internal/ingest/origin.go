package ingest

import (
	"net/url"
	"strings"

	"github.com/markdownd/markdownd/internal/pathutil"
)

// ResolveTrustedHost derives the single trusted storage hostname from the
// configured origin. It accepts a full URL or a bare hostname. An empty or
// unparseable origin fails closed: every request is rejected until fixed.
func ResolveTrustedHost(configured string) (string, error) {
	s := strings.TrimSpace(configured)
	if s == "" {
		return "", Errf(KindConfiguration, "storage origin is not configured")
	}
	if !strings.Contains(s, "://") {
		s = "https://" + s
	}
	u, err := url.Parse(s)
	if err != nil || u.Hostname() == "" {
		return "", Errf(KindConfiguration, "storage origin has no usable hostname")
	}
	return strings.ToLower(u.Hostname()), nil
}

// ValidateSignedURL certifies the pre-redirect shape of a candidate signed
// URL: https scheme, the trusted host, the signed-object path prefix, and a
// non-empty access token in the query.
func ValidateSignedURL(raw, trustedHost, pathPrefix string) error {
	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() {
		return Errf(KindInvalidRequest, "invalid signed URL")
	}
	if u.Scheme != "https" {
		return Errf(KindInvalidRequest, "invalid signed URL scheme")
	}
	host := u.Hostname()
	if host == "" || !strings.EqualFold(host, trustedHost) {
		return Errf(KindInvalidRequest, "invalid signed URL host")
	}
	if !strings.HasPrefix(u.Path, pathPrefix) || pathutil.HasDotSegments(u.Path) {
		return Errf(KindInvalidRequest, "invalid signed URL path")
	}
	for _, v := range u.Query()["token"] {
		if strings.TrimSpace(v) != "" {
			return nil
		}
	}
	return Errf(KindInvalidRequest, "invalid signed URL token")
}

// AllowedHosts is the set of hostnames trusted for one request: the
// configured storage host plus the candidate URL's own host. A signed URL
// may legitimately be issued against a public-facing hostname that differs
// from the storage origin, but a redirect must land inside this set.
func AllowedHosts(raw, trustedHost string) map[string]struct{} {
	allowed := map[string]struct{}{trustedHost: {}}
	if u, err := url.Parse(raw); err == nil {
		if h := strings.ToLower(u.Hostname()); h != "" {
			allowed[h] = struct{}{}
		}
	}
	return allowed
}

// ValidateResolvedHost checks the host that actually answered, after any
// redirects. Redirects can retarget a request that passed pre-redirect
// validation, so this must run before any byte is trusted.
func ValidateResolvedHost(host string, allowed map[string]struct{}) error {
	h := strings.ToLower(strings.TrimSpace(host))
	if h == "" {
		return Errf(KindInvalidRequest, "invalid signed URL host")
	}
	if _, ok := allowed[h]; !ok {
		return Errf(KindInvalidRequest, "invalid signed URL host")
	}
	return nil
}
