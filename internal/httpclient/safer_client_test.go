package httpclient

import (
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateURLBlocksPrivateTargets(t *testing.T) {
	c := New(time.Second, Options{})

	blocked := []string{
		"http://localhost:8080/v1",
		"http://127.0.0.1/v1",
		"http://10.0.0.5/v1",
		"http://192.168.1.1/v1",
		"http://169.254.169.254/latest/meta-data",
		"ftp://example.com/file",
		"http://user@example.com/",
	}
	for _, u := range blocked {
		_, err := c.ValidateURL(u)
		assert.Error(t, err, u)
	}

	_, err := c.ValidateURL("https://api.example.com/v1/chat/completions")
	assert.NoError(t, err)
}

func TestAllowPrivatePermitsLoopback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(time.Second, Options{AllowPrivate: true})
	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	require.NoError(t, err)

	resp, err := c.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestIsPrivateIP(t *testing.T) {
	private := []string{"127.0.0.1", "10.1.2.3", "172.16.0.1", "192.168.0.1", "169.254.1.1", "0.0.0.0", "::1", "fe80::1", "fd00::1"}
	for _, s := range private {
		assert.True(t, isPrivateIP(net.ParseIP(s)), s)
	}
	public := []string{"8.8.8.8", "1.1.1.1", "2606:4700::1111"}
	for _, s := range public {
		assert.False(t, isPrivateIP(net.ParseIP(s)), s)
	}
}
