package urlutil

import (
	"errors"
	"net/url"
	"path"
	"regexp"
	"sort"
	"strings"
)

// referenceParams are query keys job boards commonly use for the listing id.
var referenceParams = []string{"jcode", "jobid", "job_id", "vacancyid", "id", "ref"}

var trackingParams = map[string]struct{}{
	"gclid":  {},
	"fbclid": {},
	"source": {},
	"sid":    {},
}

func Normalize(raw string) (string, string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", "", err
	}
	if u.Host == "" {
		return "", "", errors.New("url has no host")
	}
	if u.Scheme == "" {
		u.Scheme = "https"
	}
	u.Fragment = ""
	u.Host = normalizeHost(u.Host)
	u.Path = normalizePath(u.Path)
	u.RawQuery = normalizeQuery(u.RawQuery)
	return u.String(), u.Hostname(), nil
}

// Resolve returns href made absolute against base, or "" when href is not a
// navigable link.
func Resolve(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") ||
		strings.HasPrefix(href, "mailto:") || strings.HasPrefix(href, "tel:") ||
		strings.HasPrefix(href, "javascript:") {
		return ""
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if base != nil {
		u = base.ResolveReference(u)
	}
	if u.Scheme == "" {
		u.Scheme = "https"
	}
	return u.String()
}

// CanonicalReference derives the source-assigned identifier of a listing
// from its URL. pattern, when set, must capture the id in its first group.
// Without a pattern the well-known id query keys are tried, then the last
// path segment that carries a digit.
func CanonicalReference(rawURL string, pattern *regexp.Regexp) (string, error) {
	normalized, _, err := Normalize(rawURL)
	if err != nil {
		return "", err
	}
	if pattern != nil {
		m := pattern.FindStringSubmatch(normalized)
		if len(m) < 2 || m[1] == "" {
			return "", errors.New("reference pattern did not match " + normalized)
		}
		return m[1], nil
	}

	u, err := url.Parse(normalized)
	if err != nil {
		return "", err
	}
	lowered := map[string]string{}
	for key, vals := range u.Query() {
		if len(vals) > 0 && vals[0] != "" {
			lowered[strings.ToLower(key)] = vals[0]
		}
	}
	for _, want := range referenceParams {
		if v, ok := lowered[want]; ok {
			return v, nil
		}
	}

	segs := splitPath(u.Path)
	for i := len(segs) - 1; i >= 0; i-- {
		if strings.ContainsAny(segs[i], "0123456789") {
			return segs[i], nil
		}
	}
	return normalized, nil
}

func normalizeHost(host string) string {
	host = strings.ToLower(host)
	host = strings.TrimPrefix(host, "www.")
	return host
}

func normalizePath(p string) string {
	if p == "" {
		return "/"
	}
	clean := path.Clean(p)
	if clean == "." {
		return "/"
	}
	return clean
}

func normalizeQuery(raw string) string {
	if raw == "" {
		return ""
	}
	values, err := url.ParseQuery(raw)
	if err != nil {
		return ""
	}
	for key := range values {
		lk := strings.ToLower(key)
		if _, ok := trackingParams[lk]; ok || strings.HasPrefix(lk, "utm_") {
			delete(values, key)
		}
	}
	if len(values) == 0 {
		return ""
	}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	normalized := url.Values{}
	for _, k := range keys {
		normalized[k] = values[k]
	}
	return normalized.Encode()
}

func splitPath(p string) []string {
	var out []string
	for _, seg := range strings.Split(p, "/") {
		if seg != "" {
			out = append(out, seg)
		}
	}
	return out
}
