package jdb

import (
	"net/url"
	"strings"
)

// JoinURL builds <endpoint>/<segment>/... with every segment percent-encoded
// as a path element, so a segment may contain spaces, slashes or any other
// reserved character. No segments yield the endpoint plus a trailing slash.
func JoinURL(endpoint string, segments ...string) string {
	base := strings.TrimRight(endpoint, "/")
	if len(segments) == 0 {
		return base + "/"
	}
	escaped := make([]string, len(segments))
	for i, seg := range segments {
		escaped[i] = url.PathEscape(seg)
	}
	return base + "/" + strings.Join(escaped, "/")
}

// BuildURL applies JoinURL to the handle's endpoint.
func (c *Client) BuildURL(segments ...string) string {
	return JoinURL(c.endpoint, segments...)
}
