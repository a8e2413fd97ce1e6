package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html"

	payloadschema "horse.fit/meetups/schema"
)

const (
	YouTubeProvider         = "youtube"
	DefaultYouTubeEndpoint  = "https://youtube.googleapis.com/youtube/v3/search"
	DefaultYouTubeChannelID = "UCPEWmRDlhOJHac6Fk-MwGBQ"
	DefaultYouTubeResults   = 50
	youtubeWatchBaseURL     = "https://youtube.com/watch"
)

// CandidateVideo is a published recording that may correspond to an event.
type CandidateVideo struct {
	VideoID string
	Title   string
}

// WatchURL is the canonical public link for the video.
func (v CandidateVideo) WatchURL() string {
	return WatchURL(v.VideoID)
}

func WatchURL(videoID string) string {
	return youtubeWatchBaseURL + "?v=" + url.QueryEscape(strings.TrimSpace(videoID))
}

type YouTubeOptions struct {
	Endpoint   string
	Token      string
	ChannelID  string
	MaxResults int
	Timeout    time.Duration
	HTTPClient *http.Client
}

type YouTubeClient struct {
	endpoint   string
	token      string
	channelID  string
	maxResults int
	client     *http.Client
}

func NewYouTubeClient(opts YouTubeOptions) *YouTubeClient {
	endpoint := strings.TrimSpace(opts.Endpoint)
	if endpoint == "" {
		endpoint = DefaultYouTubeEndpoint
	}
	channelID := strings.TrimSpace(opts.ChannelID)
	if channelID == "" {
		channelID = DefaultYouTubeChannelID
	}
	maxResults := opts.MaxResults
	if maxResults <= 0 || maxResults > DefaultYouTubeResults {
		maxResults = DefaultYouTubeResults
	}

	return &YouTubeClient{
		endpoint:   endpoint,
		token:      strings.TrimSpace(opts.Token),
		channelID:  channelID,
		maxResults: maxResults,
		client:     newHTTPClient(opts.HTTPClient, opts.Timeout),
	}
}

func (c *YouTubeClient) Name() string {
	return YouTubeProvider
}

// FetchCandidateVideos returns the channel's most recent videos, newest first.
// Results without a video id (channels, playlists) are dropped.
func (c *YouTubeClient) FetchCandidateVideos(ctx context.Context) ([]CandidateVideo, error) {
	if c == nil {
		return nil, &SourceFetchError{Provider: YouTubeProvider, Err: fmt.Errorf("client is not initialized")}
	}

	query := url.Values{}
	query.Set("key", c.token)
	query.Set("part", "snippet")
	query.Set("type", "video")
	query.Set("channelId", c.channelID)
	query.Set("order", "date")
	query.Set("maxResults", strconv.Itoa(c.maxResults))

	body, err := getSnapshot(ctx, c.client, YouTubeProvider, c.endpoint, query, nil)
	if err != nil {
		return nil, err
	}

	list, err := payloadschema.ValidateYouTubeSearch(body)
	if err != nil {
		return nil, &SourceFetchError{
			Provider:   YouTubeProvider,
			StatusCode: http.StatusOK,
			Message:    "invalid search payload",
			Err:        err,
		}
	}

	videos := make([]CandidateVideo, 0, len(list.Items))
	for _, item := range list.Items {
		videoID := strings.TrimSpace(item.ID.VideoID)
		if videoID == "" {
			continue
		}
		videos = append(videos, CandidateVideo{
			VideoID: videoID,
			Title:   strings.TrimSpace(html.UnescapeString(item.Snippet.Title)),
		})
	}
	return videos, nil
}
