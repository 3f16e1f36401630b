// Utilities for lifting Maintainerr connection details out of a cURL command copied from browser DevTools.
package shared

import (
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strings"
)

var (
	curlHeaderRegex = regexp.MustCompile(`-H\s+'([^']+)'|-H\s+"([^"]+)"`)
	curlURLRegex    = regexp.MustCompile(`(?:^|\s)'(https?://[^']+)'|(?:^|\s)"(https?://[^"]+)"|(?:^|\s)(https?://[^\s'"]+)`)
)

// CurlRequest represents the URL and headers parsed from a cURL command.
type CurlRequest struct {
	URL     string
	Headers map[string]string
}

// ParseCurlFile reads a .sh file containing a cURL command and parses it.
func ParseCurlFile(filepath string) (*CurlRequest, error) {
	content, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read curl file: %w", err)
	}
	return ParseCurlCommand(content)
}

// ParseCurlCommand parses a cURL command string and extracts the request URL and headers.
//
// Header names are kept as written; use [CurlRequest.Header] for case-insensitive lookup.
func ParseCurlCommand(data []byte) (*CurlRequest, error) {
	cmd := strings.ReplaceAll(string(data), "\\\n", " ")
	cmd = strings.ReplaceAll(cmd, "\\", "")

	headers := make(map[string]string)
	for _, match := range curlHeaderRegex.FindAllStringSubmatch(cmd, -1) {
		line := match[1]
		if line == "" {
			line = match[2]
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		headers[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}

	// Header values may hold URLs of their own (origin, referer).
	rest := curlHeaderRegex.ReplaceAllString(cmd, " ")

	var rawURL string
	if m := curlURLRegex.FindStringSubmatch(rest); m != nil {
		for _, g := range m[1:] {
			if g != "" {
				rawURL = g
				break
			}
		}
	}

	if rawURL == "" && len(headers) == 0 {
		return nil, fmt.Errorf("%w: no URL or headers found in curl command", ErrInvalidInput)
	}

	return &CurlRequest{URL: rawURL, Headers: headers}, nil
}

// Header returns the value of the named header, ignoring case.
func (c *CurlRequest) Header(name string) string {
	for k, v := range c.Headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

// Connection returns the Maintainerr base URL (everything before "/api/") and the X-Api-Key header value.
func (c *CurlRequest) Connection() (baseURL, apiKey string, err error) {
	apiKey = c.Header("X-Api-Key")
	if apiKey == "" {
		return "", "", fmt.Errorf("%w: curl command has no X-Api-Key header", ErrMissingArgument)
	}

	u, err := url.Parse(c.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", "", fmt.Errorf("%w: curl command has no usable URL", ErrInvalidInput)
	}

	prefix := u.Path
	if idx := strings.Index(prefix, "/api/"); idx >= 0 {
		prefix = prefix[:idx]
	} else if strings.HasSuffix(prefix, "/api") {
		prefix = strings.TrimSuffix(prefix, "/api")
	}

	base := url.URL{Scheme: u.Scheme, Host: u.Host, Path: strings.TrimSuffix(prefix, "/")}
	return base.String(), apiKey, nil
}
