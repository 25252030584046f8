// Browser header profiles, optionally captured from a "Copy as cURL" export.
package shared

import (
	"fmt"
	"net/http"
	"os"
	"regexp"
	"strings"
)

var (
	curlHeaderPattern = regexp.MustCompile(`-H\s+'([^']+)'|-H\s+"([^"]+)"`)
	curlCookiePattern = regexp.MustCompile(`-b\s+'([^']+)'|-b\s+"([^"]+)"`)
)

// transportHeaders are owned by http.Transport. A captured Accept-Encoding would disable its
// transparent gzip decoding, and the rest describe the captured connection or body.
var transportHeaders = map[string]bool{
	"Accept-Encoding":   true,
	"Connection":        true,
	"Content-Length":    true,
	"Host":              true,
	"Keep-Alive":        true,
	"Proxy-Connection":  true,
	"Te":                true,
	"Trailer":           true,
	"Transfer-Encoding": true,
	"Upgrade":           true,
}

// HeaderProfile is a set of request headers and an optional cookie sent with upstream page requests.
type HeaderProfile struct {
	Headers map[string]string
	Cookie  string
}

// ChromeProfile returns the headers desktop Chrome 120 sends on a same-origin fetch from a
// watch page, paired with the Chrome TLS fingerprint of [NewBrowserClient].
func ChromeProfile() *HeaderProfile {
	return &HeaderProfile{Headers: map[string]string{
		"User-Agent":         "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		"Accept":             "*/*",
		"Accept-Language":    "en-US,en;q=0.9",
		"Sec-Ch-Ua":          `"Not_A Brand";v="8", "Chromium";v="120", "Google Chrome";v="120"`,
		"Sec-Ch-Ua-Mobile":   "?0",
		"Sec-Ch-Ua-Platform": `"Windows"`,
		"Sec-Fetch-Dest":     "empty",
		"Sec-Fetch-Mode":     "cors",
		"Sec-Fetch-Site":     "same-origin",
		"Origin":             "https://www.youtube.com",
	}}
}

// LoadHeaderProfile returns [ChromeProfile], overlaid with the headers of the cURL export at path when path is set.
func LoadHeaderProfile(path string) (*HeaderProfile, error) {
	profile := ChromeProfile()
	if path == "" {
		return profile, nil
	}

	captured, err := ParseCurlFile(path)
	if err != nil {
		return nil, err
	}
	return profile.Merge(captured), nil
}

// ParseCurlFile reads a .sh file containing a cURL command and extracts headers.
func ParseCurlFile(filepath string) (*HeaderProfile, error) {
	content, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read curl file: %w", err)
	}

	return ParseCurlCommand(string(content))
}

// ParseCurlCommand parses a cURL command string and extracts headers.
//
// A cookie passed with -b wins over a "cookie:" header. Transport-managed headers such as
// Accept-Encoding and Content-Length are dropped.
func ParseCurlCommand(data string) (*HeaderProfile, error) {
	cmd := strings.ReplaceAll(data, "\\\n", " ")
	cmd = strings.ReplaceAll(cmd, "\\", "")

	headers := make(map[string]string)
	var headerCookie string
	for _, match := range curlHeaderPattern.FindAllStringSubmatch(cmd, -1) {
		key, value, ok := strings.Cut(firstGroup(match), ":")
		if !ok {
			continue
		}
		key, value = strings.TrimSpace(key), strings.TrimSpace(value)
		if strings.EqualFold(key, "cookie") {
			if headerCookie == "" {
				headerCookie = value
			}
			continue
		}
		if isTransportHeader(key) {
			continue
		}
		headers[key] = value
	}

	cookie := headerCookie
	if match := curlCookiePattern.FindStringSubmatch(cmd); match != nil {
		cookie = firstGroup(match)
	}

	if len(headers) == 0 && cookie == "" {
		return nil, fmt.Errorf("no headers found in curl command")
	}

	return &HeaderProfile{Headers: headers, Cookie: cookie}, nil
}

func isTransportHeader(key string) bool {
	return transportHeaders[http.CanonicalHeaderKey(key)]
}

func firstGroup(match []string) string {
	if match[1] != "" {
		return match[1]
	}
	return match[2]
}

// Merge returns a new profile with other's headers and cookie taking precedence.
// Transport-managed headers from either side are left out.
func (p *HeaderProfile) Merge(other *HeaderProfile) *HeaderProfile {
	merged := &HeaderProfile{Headers: make(map[string]string, len(p.Headers)+len(other.Headers)), Cookie: p.Cookie}
	for _, headers := range []map[string]string{p.Headers, other.Headers} {
		for k, v := range headers {
			if key := http.CanonicalHeaderKey(k); !transportHeaders[key] {
				merged.Headers[key] = v
			}
		}
	}
	if other.Cookie != "" {
		merged.Cookie = other.Cookie
	}
	return merged
}

// Apply sets the profile's headers on req, keeping any header req already carries.
func (p *HeaderProfile) Apply(req *http.Request) {
	for k, v := range p.Headers {
		if req.Header.Get(k) == "" {
			req.Header.Set(k, v)
		}
	}
	if p.Cookie != "" && req.Header.Get("Cookie") == "" {
		req.Header.Set("Cookie", p.Cookie)
	}
}
