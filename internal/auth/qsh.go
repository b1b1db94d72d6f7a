// internal/auth/qsh.go
package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/url"
	"sort"
	"strings"
)

// ComputeQSH returns the hex SHA-256 of the canonical request, per the
// Connect query-string-hash rules: METHOD&path&canonicalQuery, with the
// query parameters sorted by key, values joined with ',', percent-encoding
// normalized to %20 for spaces, and the jwt parameter excluded.
func ComputeQSH(r *http.Request) string {
	canonical := CanonicalRequest(r.Method, r.URL)
	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:])
}

func CanonicalRequest(method string, u *url.URL) string {
	return strings.ToUpper(method) + "&" + canonicalURI(u.Path) + "&" + canonicalQuery(u.Query())
}

func canonicalURI(path string) string {
	if path == "" {
		return "/"
	}
	// '&' separates the canonical sections, so it may not appear raw.
	path = strings.ReplaceAll(path, "&", "%26")
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return path
}

func canonicalQuery(q url.Values) string {
	keys := make([]string, 0, len(q))
	for k := range q {
		if k == "jwt" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		vals := append([]string(nil), q[k]...)
		sort.Strings(vals)
		enc := make([]string, len(vals))
		for i, v := range vals {
			enc[i] = rfc3986Encode(v)
		}
		parts = append(parts, rfc3986Encode(k)+"="+strings.Join(enc, ","))
	}
	return strings.Join(parts, "&")
}

// rfc3986Encode percent-encodes like url.QueryEscape but with %20 for
// spaces and '~' left bare, which is what the host products compute.
func rfc3986Encode(s string) string {
	e := url.QueryEscape(s)
	e = strings.ReplaceAll(e, "+", "%20")
	e = strings.ReplaceAll(e, "%7E", "~")
	return e
}
