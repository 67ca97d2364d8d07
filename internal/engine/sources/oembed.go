package sources

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/anatolykoptev/go_transcript/internal/engine"
)

const defaultOEmbedURL = "https://www.youtube.com/oembed"

// OEmbed fetches video title and channel via the public oEmbed endpoint.
// No API key needed; oEmbed only answers for public videos, which doubles
// as the private/unlisted signal.
type OEmbed struct {
	client  *http.Client
	baseURL string
}

func NewOEmbed(client *http.Client) *OEmbed {
	if client == nil {
		client = http.DefaultClient
	}
	return &OEmbed{client: client, baseURL: defaultOEmbedURL}
}

// Fetch returns metadata for a video, mapping the oEmbed status codes into
// the error taxonomy: 404 is an unavailable video, 401/403 a private or
// unlisted one.
func (o *OEmbed) Fetch(ctx context.Context, videoID string) (*engine.VideoInfo, error) {
	engine.IncrUpstream()

	watchURL := engine.WatchURL(videoID)
	endpoint := o.baseURL + "?url=" + url.QueryEscape(watchURL) + "&format=json"

	resp, err := engine.RetryHTTP(ctx, engine.DefaultRetryConfig, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		return o.client.Do(req)
	})
	if err != nil {
		return nil, mapUpstreamErr(err, "fetch metadata")
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, engine.E(engine.CodeVideoUnavailable, "video not found")
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, engine.E(engine.CodePolicyRejected, "video is private or unlisted")
	default:
		return nil, engine.Ef(engine.CodeNetworkError, "fetch metadata: HTTP %d", resp.StatusCode)
	}

	var payload struct {
		Title      string `json:"title"`
		AuthorName string `json:"author_name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, engine.WrapErr(engine.CodeNetworkError, "decode metadata", err)
	}

	return &engine.VideoInfo{
		ID:      videoID,
		URL:     watchURL,
		Title:   payload.Title,
		Channel: payload.AuthorName,
	}, nil
}
