package httpds

import (
	"context"
	"io"
	"net/http"

	"github.com/pkg/errors"

	"cricketstats/internal/datasource"
)

// Source is a datasource.Source backed by a single URL.
type Source struct {
	client *Client
	url    string
}

var _ datasource.Source = (*Source)(nil)

// NewSource binds client to url.
func NewSource(client *Client, url string) *Source {
	return &Source{client: client, url: url}
}

// URL returns the bound URL.
func (s *Source) URL() string { return s.url }

// Open performs the GET and returns the body. Any status other than 200 is
// an error.
func (s *Source) Open(ctx context.Context) (io.ReadCloser, error) {
	resp, err := s.client.Get(ctx, s.url, nil)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, errors.Errorf("httpds: GET %s: unexpected status %s", s.url, resp.Status)
	}
	return resp.Body, nil
}
