package urlutil_test

import (
	"net/url"
	"regexp"
	"testing"

	"github.com/baxromumarov/job-autopilot/internal/urlutil"
)

func TestNormalize(t *testing.T) {
	got, host, err := urlutil.Normalize("HTTPS://www.Example.com/a/../b/?utm_source=x&b=2&a=1&gclid=z#frag")
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if got != "https://example.com/b?a=1&b=2" || host != "example.com" {
		t.Errorf("Normalize = %q, %q", got, host)
	}
	if _, _, err := urlutil.Normalize("not a url"); err == nil {
		t.Error("expected an error for a url without host")
	}
}

func TestResolve(t *testing.T) {
	base, _ := url.Parse("https://example.com/jobs/list")
	cases := map[string]string{
		"../about":            "https://example.com/about",
		"/vacancy/1":          "https://example.com/vacancy/1",
		"https://other.org/x": "https://other.org/x",
		"#top":                "",
		"mailto:jobs@x.org":   "",
		"javascript:void(0)":  "",
		"   ":                 "",
	}
	for href, want := range cases {
		if got := urlutil.Resolve(base, href); got != want {
			t.Errorf("Resolve(%q) = %q, want %q", href, got, want)
		}
	}
}

func TestCanonicalReference(t *testing.T) {
	cases := []struct {
		url     string
		pattern *regexp.Regexp
		want    string
	}{
		{"https://www.Example.com/jobs/view?jobId=12345&utm_source=x", nil, "12345"},
		{"https://example.com/apply?ref=ABC-9&page=2", nil, "ABC-9"},
		{"https://example.com/vacancy/98765/policy-adviser", nil, "98765"},
		{"https://example.com/vacancy/1?utm_campaign=a", nil, "1"},
		{"https://WWW.example.com/vacancy/1/#apply", nil, "1"},
		{"https://example.com/about", nil, "https://example.com/about"},
		{"https://example.com/job/42?x=1", regexp.MustCompile(`/job/(\d+)`), "42"},
	}
	for _, c := range cases {
		got, err := urlutil.CanonicalReference(c.url, c.pattern)
		if err != nil {
			t.Errorf("CanonicalReference(%q): %v", c.url, err)
			continue
		}
		if got != c.want {
			t.Errorf("CanonicalReference(%q) = %q, want %q", c.url, got, c.want)
		}
	}
}

func TestCanonicalReference_Errors(t *testing.T) {
	if _, err := urlutil.CanonicalReference("https://example.com/about", regexp.MustCompile(`/job/(\d+)`)); err == nil {
		t.Error("expected an error when the pattern does not match")
	}
	if _, err := urlutil.CanonicalReference("/relative/only", nil); err == nil {
		t.Error("expected an error for a url without host")
	}
}
