package shared

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestParseCurlCommand(t *testing.T) {
	tt := []struct {
		name        string
		curlCmd     string
		wantHeaders map[string]string
		wantCookie  string
		wantErr     bool
	}{
		{
			name:        "single header with single quotes",
			curlCmd:     `curl -H 'User-Agent: Mozilla/5.0' https://www.youtube.com`,
			wantHeaders: map[string]string{"User-Agent": "Mozilla/5.0"},
		},
		{
			name:        "single header with double quotes",
			curlCmd:     `curl -H "User-Agent: Mozilla/5.0" https://www.youtube.com`,
			wantHeaders: map[string]string{"User-Agent": "Mozilla/5.0"},
		},
		{
			name:        "cookie in -b flag",
			curlCmd:     `curl -b 'CONSENT=YES+1' https://www.youtube.com`,
			wantHeaders: map[string]string{},
			wantCookie:  "CONSENT=YES+1",
		},
		{
			name:        "cookie header is excluded from regular headers",
			curlCmd:     `curl -H 'Cookie: VISITOR_INFO1_LIVE=abc' -H 'Accept-Language: en-US' https://www.youtube.com`,
			wantHeaders: map[string]string{"Accept-Language": "en-US"},
			wantCookie:  "VISITOR_INFO1_LIVE=abc",
		},
		{
			name:        "-b cookie takes precedence over -H cookie",
			curlCmd:     `curl -H 'Cookie: old=value' -b 'new=value' https://www.youtube.com`,
			wantHeaders: map[string]string{},
			wantCookie:  "new=value",
		},
		{
			name:        "headers with spaces around colon",
			curlCmd:     `curl -H 'Accept : */*' https://www.youtube.com`,
			wantHeaders: map[string]string{"Accept": "*/*"},
		},
		{
			name: "multiline export from devtools",
			curlCmd: `curl 'https://www.youtube.com/watch?v=dQw4w9WgXcQ' \
  -H 'accept: text/html' \
  -H 'accept-language: en-US,en;q=0.9' \
  -H 'cookie: VISITOR_INFO1_LIVE=xyz; CONSENT=YES' \
  -H 'user-agent: Mozilla/5.0 (X11; Linux x86_64)'`,
			wantHeaders: map[string]string{
				"accept":          "text/html",
				"accept-language": "en-US,en;q=0.9",
				"user-agent":      "Mozilla/5.0 (X11; Linux x86_64)",
			},
			wantCookie: "VISITOR_INFO1_LIVE=xyz; CONSENT=YES",
		},
		{
			name: "transport headers are dropped",
			curlCmd: `curl 'https://www.youtube.com/youtubei/v1/player' \
  -H 'accept-encoding: gzip, deflate, br' \
  -H 'content-length: 512' \
  -H 'connection: keep-alive' \
  -H 'host: www.youtube.com' \
  -H 'user-agent: Mozilla/5.0'`,
			wantHeaders: map[string]string{"user-agent": "Mozilla/5.0"},
		},
		{
			name:    "only transport headers",
			curlCmd: `curl -H 'Accept-Encoding: gzip' https://www.youtube.com`,
			wantErr: true,
		},
		{
			name:    "no headers or cookies",
			curlCmd: `curl https://www.youtube.com`,
			wantErr: true,
		},
		{
			name:    "empty command",
			curlCmd: "",
			wantErr: true,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			result, err := ParseCurlCommand(tc.curlCmd)

			if (err != nil) != tc.wantErr {
				t.Fatalf("ParseCurlCommand() error = %v, wantErr %v", err, tc.wantErr)
			}
			if tc.wantErr {
				return
			}

			if len(result.Headers) != len(tc.wantHeaders) {
				t.Errorf("ParseCurlCommand() headers count = %v, want %v", len(result.Headers), len(tc.wantHeaders))
			}
			for key, want := range tc.wantHeaders {
				if got := result.Headers[key]; got != want {
					t.Errorf("ParseCurlCommand() header[%s] = %v, want %v", key, got, want)
				}
			}
			if result.Cookie != tc.wantCookie {
				t.Errorf("ParseCurlCommand() cookie = %v, want %v", result.Cookie, tc.wantCookie)
			}
		})
	}
}

func TestLoadHeaderProfile(t *testing.T) {
	t.Run("defaults to chrome", func(t *testing.T) {
		profile, err := LoadHeaderProfile("")
		if err != nil {
			t.Fatalf("LoadHeaderProfile() error = %v", err)
		}
		if ua := profile.Headers["User-Agent"]; ua == "" {
			t.Error("expected a default user agent")
		}
	})

	t.Run("captured headers override chrome", func(t *testing.T) {
		curlFile := filepath.Join(t.TempDir(), "youtube.sh")
		curlCmd := `curl -H 'user-agent: CustomAgent/1.0' -b 'CONSENT=YES' https://www.youtube.com`
		if err := os.WriteFile(curlFile, []byte(curlCmd), 0644); err != nil {
			t.Fatalf("Failed to create test file: %v", err)
		}

		profile, err := LoadHeaderProfile(curlFile)
		if err != nil {
			t.Fatalf("LoadHeaderProfile() error = %v", err)
		}
		if got := profile.Headers["User-Agent"]; got != "CustomAgent/1.0" {
			t.Errorf("User-Agent = %q, want CustomAgent/1.0", got)
		}
		if profile.Headers["Accept-Language"] == "" {
			t.Error("expected chrome headers to be kept")
		}
		if profile.Cookie != "CONSENT=YES" {
			t.Errorf("Cookie = %q, want CONSENT=YES", profile.Cookie)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := LoadHeaderProfile("/nonexistent/file.sh"); err == nil {
			t.Error("expected error for nonexistent file")
		}
	})

	t.Run("file with no valid headers", func(t *testing.T) {
		curlFile := filepath.Join(t.TempDir(), "invalid.sh")
		if err := os.WriteFile(curlFile, []byte("curl https://example.com"), 0644); err != nil {
			t.Fatalf("Failed to create test file: %v", err)
		}
		if _, err := LoadHeaderProfile(curlFile); err == nil {
			t.Error("expected error for file with no headers")
		}
	})
}

func TestChromeProfile(t *testing.T) {
	headers := ChromeProfile().Headers

	for key, want := range map[string]string{
		"Accept":         "*/*",
		"Sec-Fetch-Dest": "empty",
		"Sec-Fetch-Mode": "cors",
		"Sec-Fetch-Site": "same-origin",
	} {
		if got := headers[key]; got != want {
			t.Errorf("%s = %q, want %q", key, got, want)
		}
	}
}

func TestHeaderProfile_Merge(t *testing.T) {
	base := &HeaderProfile{Headers: map[string]string{"User-Agent": "Chrome", "Connection": "close"}}
	captured := &HeaderProfile{
		Headers: map[string]string{"user-agent": "Captured", "accept-encoding": "gzip, deflate, br", "content-length": "10"},
		Cookie:  "CONSENT=YES",
	}

	merged := base.Merge(captured)

	if got := merged.Headers["User-Agent"]; got != "Captured" {
		t.Errorf("User-Agent = %q, want Captured", got)
	}
	for _, key := range []string{"Accept-Encoding", "Content-Length", "Connection"} {
		if _, ok := merged.Headers[key]; ok {
			t.Errorf("%s should not be merged", key)
		}
	}
	if merged.Cookie != "CONSENT=YES" {
		t.Errorf("Cookie = %q, want CONSENT=YES", merged.Cookie)
	}
}

func TestHeaderProfile_Apply(t *testing.T) {
	profile := &HeaderProfile{
		Headers: map[string]string{"User-Agent": "Chrome", "Accept": "text/html"},
		Cookie:  "CONSENT=YES",
	}

	req := httptest.NewRequest(http.MethodPost, "https://www.youtube.com/youtubei/v1/player", nil)
	req.Header.Set("Accept", "application/json")
	profile.Apply(req)

	if got := req.Header.Get("User-Agent"); got != "Chrome" {
		t.Errorf("User-Agent = %q, want Chrome", got)
	}
	if got := req.Header.Get("Accept"); got != "application/json" {
		t.Errorf("existing Accept header should be kept, got %q", got)
	}
	if got := req.Header.Get("Cookie"); got != "CONSENT=YES" {
		t.Errorf("Cookie = %q, want CONSENT=YES", got)
	}
}
