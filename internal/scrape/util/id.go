package util

import (
	"crypto/sha256"
	"encoding/base64"
	"net/url"
	"sort"
	"strings"
)

// LinkSourceID derives a stable source_id for feeds that expose no
// natural unique id. The canonical link is hashed so ids stay bounded
// to 32 chars while links sharing a long host prefix remain distinct.
func LinkSourceID(prefix, link string) string {
	sum := sha256.Sum256([]byte(CanonicalURL(link)))
	enc := base64.RawURLEncoding.EncodeToString(sum[:])
	return prefix + "-" + enc[:32]
}

// CanonicalURL normalizes scheme/host case, drops fragments and
// tracking params, and sorts the query so equivalent links compare equal.
func CanonicalURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""

	q := u.Query()
	for k := range q {
		lk := strings.ToLower(k)
		if strings.HasPrefix(lk, "utm_") ||
			lk == "gclid" || lk == "fbclid" || lk == "msclkid" ||
			lk == "mkt_tok" {
			q.Del(k)
		}
	}
	for k := range q {
		vals := q[k]
		sort.Strings(vals)
		q[k] = vals
	}
	u.RawQuery = q.Encode()
	return u.String()
}
