package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	payloadschema "horse.fit/meetups/schema"
)

const (
	SymplaProvider        = "sympla"
	DefaultSymplaEndpoint = "https://api.sympla.com.br/public/v3/events"
)

// ExternalEvent is one event as published by the event provider.
type ExternalEvent struct {
	ID            string
	URL           string
	Name          string
	ImageURL      string
	Detail        string
	StartDateText string
}

type SymplaOptions struct {
	Endpoint   string
	Token      string
	Timeout    time.Duration
	HTTPClient *http.Client
}

type SymplaClient struct {
	endpoint string
	token    string
	client   *http.Client
}

func NewSymplaClient(opts SymplaOptions) *SymplaClient {
	endpoint := strings.TrimSpace(opts.Endpoint)
	if endpoint == "" {
		endpoint = DefaultSymplaEndpoint
	}
	return &SymplaClient{
		endpoint: endpoint,
		token:    strings.TrimSpace(opts.Token),
		client:   newHTTPClient(opts.HTTPClient, opts.Timeout),
	}
}

func (c *SymplaClient) Name() string {
	return SymplaProvider
}

// FetchEvents returns the provider's current event listing sorted by start date.
func (c *SymplaClient) FetchEvents(ctx context.Context) ([]ExternalEvent, error) {
	if c == nil {
		return nil, &SourceFetchError{Provider: SymplaProvider, Err: fmt.Errorf("client is not initialized")}
	}

	query := url.Values{}
	query.Set("field_sort", "start_date")
	header := http.Header{}
	header.Set("s_token", c.token)

	body, err := getSnapshot(ctx, c.client, SymplaProvider, c.endpoint, query, header)
	if err != nil {
		return nil, err
	}

	list, err := payloadschema.ValidateSymplaEvents(body)
	if err != nil {
		return nil, &SourceFetchError{
			Provider:   SymplaProvider,
			StatusCode: http.StatusOK,
			Message:    "invalid events payload",
			Err:        err,
		}
	}

	events := make([]ExternalEvent, 0, len(list.Data))
	for _, item := range list.Data {
		events = append(events, ExternalEvent{
			ID:            strings.TrimSpace(item.ID.String()),
			URL:           strings.TrimSpace(item.URL),
			Name:          strings.TrimSpace(item.Name),
			ImageURL:      strings.TrimSpace(item.Image),
			Detail:        item.Detail,
			StartDateText: strings.TrimSpace(item.StartDate),
		})
	}
	return events, nil
}
