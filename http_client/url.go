package http_client

import (
	"net/url"
	"strings"

	"github.com/jinzhu/copier"
)

// validURLChar reports whether c may appear in a URL string as typed by a caller:
// RFC 3986 unreserved, reserved and the percent sign.
func validURLChar(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	return strings.IndexByte("-._~:/?#[]@!$&'()*+,;=%", c) >= 0
}

func parseURLString(raw string) (*url.URL, bool) {
	if raw == "" {
		return nil, false
	}
	for i := 0; i < len(raw); i++ {
		if !validURLChar(raw[i]) {
			return nil, false
		}
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, false
	}
	return u, true
}

// resolveURL turns raw into the absolute URL to request. Relative references
// are scoped under the base URL. Anything else ends up as ErrInvalidURL.
func (c *Client) resolveURL(raw string) (*url.URL, error) {
	ref, ok := parseURLString(raw)
	if !ok {
		return nil, ErrInvalidURL
	}
	if ref.Scheme != "" && ref.Host != "" {
		return ref, nil
	}
	if ref.Scheme != "" || ref.Host != "" || c.baseURL == nil {
		return nil, ErrInvalidURL
	}
	return c.scopedURL(ref)
}

// scopedURL appends ref's path to the base path and merges the queries.
// Paths are joined in escaped form so %2F stays part of a segment.
func (c *Client) scopedURL(ref *url.URL) (*url.URL, error) {
	var res url.URL
	if err := copier.Copy(&res, c.baseURL); err != nil {
		return nil, err
	}
	if ref.Path != "" {
		escaped := strings.TrimSuffix(c.baseURL.EscapedPath(), "/") + "/" + strings.TrimPrefix(ref.EscapedPath(), "/")
		path, err := url.PathUnescape(escaped)
		if err != nil {
			return nil, ErrInvalidURL
		}
		res.Path = path
		res.RawPath = escaped
	}
	if ref.RawQuery != "" {
		if res.RawQuery != "" {
			res.RawQuery += "&" + ref.RawQuery
		} else {
			res.RawQuery = ref.RawQuery
		}
	}
	res.Fragment = ref.Fragment
	return &res, nil
}
