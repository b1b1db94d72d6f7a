package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustURL(t *testing.T, raw string) *url.URL {
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestCanonicalRequest(t *testing.T) {
	cases := []struct {
		name   string
		method string
		url    string
		want   string
	}{
		{"bare path", "post", "/webhook/jira:issue_created", "POST&/webhook/jira:issue_created&"},
		{"root", "GET", "/", "GET&/&"},
		{"empty path", "GET", "", "GET&/&"},
		{"trailing slash stripped", "GET", "/rest/api/2/issue/", "GET&/rest/api/2/issue&"},
		{"params sorted by key", "GET", "/x?b=2&a=1", "GET&/x&a=1&b=2"},
		{"jwt param excluded", "GET", "/x?a=1&jwt=eyJ0", "GET&/x&a=1"},
		{"repeated values sorted and joined", "GET", "/x?a=z&a=y", "GET&/x&a=y,z"},
		{"space encoded as %20", "GET", "/x?q=some+phrase", "GET&/x&q=some%20phrase"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := CanonicalRequest(tc.method, mustURL(t, tc.url))
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestComputeQSH(t *testing.T) {
	r := httptest.NewRequest("POST", "/webhook/jira:issue_created", nil)
	sum := sha256.Sum256([]byte("POST&/webhook/jira:issue_created&"))
	assert.Equal(t, hex.EncodeToString(sum[:]), ComputeQSH(r))
}
