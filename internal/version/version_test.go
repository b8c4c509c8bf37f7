package version

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nulzo/epoch/internal/httpclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func releaseServer(t *testing.T, status int, body string) *Checker {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/nulzo/epoch/releases/latest", r.URL.Path)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)

	c := NewChecker()
	c.APIBase = server.URL
	return c
}

func TestCheck_NewerRelease(t *testing.T) {
	c := releaseServer(t, http.StatusOK, `{"tag_name":"v0.3.1"}`)

	u, err := c.Check(context.Background(), "v0.1.0")

	require.NoError(t, err)
	assert.True(t, u.Available)
	assert.Equal(t, "v0.3.1", u.Latest)
}

func TestCheck_UpToDate(t *testing.T) {
	c := releaseServer(t, http.StatusOK, `{"tag_name":"0.1.0"}`)

	u, err := c.Check(context.Background(), "v0.1.0")

	require.NoError(t, err)
	assert.False(t, u.Available)
}

func TestCheck_Errors(t *testing.T) {
	_, err := releaseServer(t, http.StatusNotFound, `{"message":"Not Found"}`).Check(context.Background(), "v0.1.0")
	var upstream *httpclient.UpstreamError
	assert.ErrorAs(t, err, &upstream)

	_, err = releaseServer(t, http.StatusOK, `{"tag_name":"nightly"}`).Check(context.Background(), "v0.1.0")
	assert.ErrorContains(t, err, "invalid release tag")

	_, err = NewChecker().Check(context.Background(), "dev")
	assert.ErrorContains(t, err, "invalid current version")
}
