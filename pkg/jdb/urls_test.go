package jdb_test

import (
	"testing"

	"github.com/JDrit/jdb-jepsen/pkg/jdb"
)

func TestJoinURL(t *testing.T) {
	tests := []struct {
		name     string
		endpoint string
		segments []string
		want     string
	}{
		{
			name:     "single segment",
			endpoint: "http://example.com",
			segments: []string{"get"},
			want:     "http://example.com/get",
		},
		{
			name:     "segment with space",
			endpoint: "http://example.com",
			segments: []string{"a", "b c"},
			want:     "http://example.com/a/b%20c",
		},
		{
			name:     "segment with slash",
			endpoint: "http://example.com",
			segments: []string{"a/b"},
			want:     "http://example.com/a%2Fb",
		},
		{
			name:     "trailing slash trimmed",
			endpoint: "http://example.com///",
			segments: []string{"get"},
			want:     "http://example.com/get",
		},
		{
			name:     "no segments",
			endpoint: "http://example.com",
			segments: nil,
			want:     "http://example.com/",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got := jdb.JoinURL(tc.endpoint, tc.segments...)
			if got != tc.want {
				t.Fatalf("JoinURL mismatch: got %q want %q", got, tc.want)
			}
		})
	}
}

func TestBuildURL(t *testing.T) {
	client, err := jdb.Connect("http://example.com/", "tester")
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}

	if got := client.BuildURL("a", "b c"); got != "http://example.com/a/b%20c" {
		t.Fatalf("BuildURL mismatch: %q", got)
	}
	if got := client.BuildURL(); got != "http://example.com/" {
		t.Fatalf("BuildURL with no segments: %q", got)
	}
}
