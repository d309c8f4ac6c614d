package pdf

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var samplePDFContent = []byte("%PDF-1.4 sample content for testing")

// newLocalDownloader builds a downloader that may talk to httptest servers
// on loopback addresses.
func newLocalDownloader(cfg Config) *Downloader {
	cfg.AllowPrivateNetworks = true
	return NewDownloader(cfg)
}

func TestNewDownloader_Defaults(t *testing.T) {
	t.Run("applies default values", func(t *testing.T) {
		d := NewDownloader(Config{})

		require.NotNil(t, d)
		assert.Equal(t, int64(50*1024*1024), d.maxSize)
		assert.Equal(t, "PaperAgent/1.0", d.userAgent)
		assert.Equal(t, 30*time.Second, d.client.Timeout)
	})

	t.Run("uses custom config values", func(t *testing.T) {
		d := NewDownloader(Config{
			Timeout:   10 * time.Second,
			MaxSize:   1024,
			UserAgent: "CustomAgent/2.0",
		})

		require.NotNil(t, d)
		assert.Equal(t, int64(1024), d.maxSize)
		assert.Equal(t, "CustomAgent/2.0", d.userAgent)
		assert.Equal(t, 10*time.Second, d.client.Timeout)
	})
}

func TestDownload_Success(t *testing.T) {
	var gotUserAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write(samplePDFContent)
	}))
	defer server.Close()

	d := newLocalDownloader(Config{})

	content, err := d.Download(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, samplePDFContent, content)
	assert.Equal(t, "PaperAgent/1.0", gotUserAgent)
}

func TestDownload_ContentTypeVariants(t *testing.T) {
	testCases := []struct {
		name        string
		contentType string
		wantErr     error
	}{
		{"plain pdf", "application/pdf", nil},
		{"pdf with charset", "application/pdf; charset=utf-8", nil},
		{"mixed case", "Application/PDF", nil},
		{"html", "text/html", ErrNotPDF},
		{"json", "application/json", ErrNotPDF},
		{"empty", "", ErrNotPDF},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if tc.contentType != "" {
					w.Header().Set("Content-Type", tc.contentType)
				} else {
					// Prevent net/http content sniffing from filling it in.
					w.Header()["Content-Type"] = nil
				}
				_, _ = w.Write(samplePDFContent)
			}))
			defer server.Close()

			d := newLocalDownloader(Config{})

			content, err := d.Download(context.Background(), server.URL)
			if tc.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tc.wantErr)
				assert.Nil(t, content)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, samplePDFContent, content)
		})
	}
}

func TestDownload_TooLarge(t *testing.T) {
	large := make([]byte, 1024)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write(large)
	}))
	defer server.Close()

	d := newLocalDownloader(Config{MaxSize: 512})

	_, err := d.Download(context.Background(), server.URL)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTooLarge)
	assert.Contains(t, err.Error(), "512")
}

func TestDownload_ExactlyMaxSize(t *testing.T) {
	content := make([]byte, 512)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write(content)
	}))
	defer server.Close()

	d := newLocalDownloader(Config{MaxSize: 512})

	got, err := d.Download(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Len(t, got, 512)
}

func TestDownload_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	d := newLocalDownloader(Config{})

	_, err := d.Download(context.Background(), server.URL)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDownloadFailed)
	assert.Contains(t, err.Error(), "HTTP 404")
}

func TestDownload_FollowsRedirects(t *testing.T) {
	finalServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write(samplePDFContent)
	}))
	defer finalServer.Close()

	redirectServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, finalServer.URL, http.StatusMovedPermanently)
	}))
	defer redirectServer.Close()

	d := newLocalDownloader(Config{})

	content, err := d.Download(context.Background(), redirectServer.URL)
	require.NoError(t, err)
	assert.Equal(t, samplePDFContent, content)
}

func TestDownload_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write(samplePDFContent)
	}))
	defer server.Close()

	d := newLocalDownloader(Config{})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := d.Download(ctx, server.URL)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDownloadFailed)
}

func TestDownload_RejectsPrivateAddresses(t *testing.T) {
	d := NewDownloader(Config{})

	testCases := []struct {
		name string
		url  string
	}{
		{"loopback", "http://127.0.0.1/paper.pdf"},
		{"rfc1918 ten block", "http://10.0.0.8/paper.pdf"},
		{"rfc1918 192 block", "http://192.168.1.20/paper.pdf"},
		{"link local", "http://169.254.169.254/latest/meta-data"},
		{"file scheme", "file:///etc/passwd"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := d.Download(context.Background(), tc.url)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrSSRF)
		})
	}
}

func TestIsPrivateIP(t *testing.T) {
	testCases := []struct {
		ip      string
		private bool
	}{
		{"127.0.0.1", true},
		{"10.1.2.3", true},
		{"172.16.0.1", true},
		{"172.32.0.1", false},
		{"192.168.0.1", true},
		{"169.254.1.1", true},
		{"8.8.8.8", false},
		{"::1", true},
		{"fc00::1", true},
		{"fe80::1", true},
		{"2001:4860:4860::8888", false},
	}

	for _, tc := range testCases {
		t.Run(tc.ip, func(t *testing.T) {
			assert.Equal(t, tc.private, isPrivateIP(mustParseIP(t, tc.ip)))
		})
	}
}

func mustParseIP(t *testing.T, s string) net.IP {
	t.Helper()
	ip := net.ParseIP(s)
	require.NotNil(t, ip)
	return ip
}
