package provider

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2"
)

// maxErrorBody bounds the upstream body kept in error messages
const maxErrorBody = 512

// NewHTTPClient builds the HTTP client shared by a provider's API client and raw
// downloads. A token is sent as an OAuth2 bearer header.
func NewHTTPClient(opts *ProviderOptions) *http.Client {
	base := &http.Transport{Proxy: http.ProxyFromEnvironment}
	if opts.InsecureSkipVerify {
		base.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: true, //nolint:gosec // User explicitly enabled insecure mode
		}
	}

	var transport http.RoundTripper = base
	if opts.Token != "" {
		transport = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token}),
			Base:   base,
		}
	}

	return &http.Client{
		Transport: transport,
		Timeout:   opts.Timeout,
	}
}

// FetchRaw performs an authenticated GET against rawURL and returns the body.
// Non-2xx responses fail with the status code and a prefix of the body.
// A body longer than maxBytes fails without being read past the limit.
func FetchRaw(ctx context.Context, client *http.Client, providerName, rawURL string, maxBytes int64) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, UpstreamError(providerName, "invalid raw file URL", 0, err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, UpstreamError(providerName, "failed to fetch file content", 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody+1))
		return nil, UpstreamError(providerName, "failed to fetch file content", resp.StatusCode,
			fmt.Errorf("%s", truncate(string(body), maxErrorBody)))
	}

	if maxBytes <= 0 {
		maxBytes = DefaultMaxFileSize
	}
	if resp.ContentLength > maxBytes {
		return nil, fileTooLarge(providerName, resp.ContentLength, maxBytes)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBytes+1))
	if err != nil {
		return nil, UpstreamError(providerName, "failed to read file content", resp.StatusCode, err)
	}
	if int64(len(body)) > maxBytes {
		return nil, fileTooLarge(providerName, int64(len(body)), maxBytes)
	}
	return body, nil
}

func fileTooLarge(providerName string, size, limit int64) error {
	return UpstreamError(providerName, "file content too large", 0,
		fmt.Errorf("%d bytes or more exceeds the %d byte limit", size, limit))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
