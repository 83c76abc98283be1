package telemetry

import (
	"context"

	"hwpanel-go/types"
)

// Getter returns the body of a successful GET.
type Getter interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// HTTPFetcher fetches and parses the metrics document at URL.
type HTTPFetcher struct {
	get    Getter
	url    string
	parser Parser
}

func NewHTTPFetcher(get Getter, url string, maxCores int) *HTTPFetcher {
	return &HTTPFetcher{get: get, url: url, parser: Parser{MaxCores: maxCores}}
}

func (f *HTTPFetcher) URL() string { return f.url }

// FetchData fills out on success. On any failure out.Available is false
// and the remaining fields are left as they were.
func (f *HTTPFetcher) FetchData(ctx context.Context, out *types.MetricsSnapshot) error {
	out.Available = false
	body, err := f.get.Get(ctx, f.url)
	if err != nil {
		return err
	}
	snap, err := f.parser.Parse(body)
	if err != nil {
		return err
	}
	*out = snap
	out.Available = true
	return nil
}
