package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/ds124wfegd/png-diff-server/internal/entity"
	"github.com/sirupsen/logrus"
)

type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

type httpFetcher struct {
	client *http.Client
}

// NewFetcher returns a Fetcher backed by client. A nil client means
// http.DefaultClient; timeouts are left to the client and the request context.
func NewFetcher(client *http.Client) Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &httpFetcher{client: client}
}

// Fetch returns the body of a GET on url. Any status outside 2xx is an error.
func (f *httpFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	entry := logrus.WithField("url", url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		err = fmt.Errorf("error creating request: %w", err)
		entry.WithError(err).Error("fetch failed")
		return nil, err
	}

	res, err := f.client.Do(req)
	if err != nil {
		err = fmt.Errorf("error executing request: %w", err)
		entry.WithError(err).Error("fetch failed")
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		err = fmt.Errorf("%w: %d", entity.ErrUnexpectedStatus, res.StatusCode)
		entry.WithError(err).Error("fetch failed")
		return nil, err
	}

	buf, err := io.ReadAll(res.Body)
	if err != nil {
		err = fmt.Errorf("error reading response: %w", err)
		entry.WithError(err).Error("fetch failed")
		return nil, err
	}

	entry.WithField("bytes", len(buf)).Debug("fetched input")
	return buf, nil
}
