package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/time/rate"

	"github.com/anatolykoptev/go_transcript/internal/engine"
)

// YouTube lists caption tracks and fetches cues for them.
// Track listing primary: scrape ytInitialPlayerResponse from the watch page
// (works from any IP). Fallback: ANDROID Innertube /player (works from
// non-blocked IPs). Cue fetching: the selected track's timedtext XML URL.
type YouTube struct {
	client  *http.Client
	limiter *rate.Limiter
}

// NewYouTube builds the caption provider. rps caps upstream request rate;
// rps <= 0 disables the limiter.
func NewYouTube(client *http.Client, rps float64) *YouTube {
	if client == nil {
		client = http.DefaultClient
	}
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	return &YouTube{client: client, limiter: rate.NewLimiter(limit, 1)}
}

// ListTracks returns the usable caption tracks for a video. Tracks that
// require a PoToken (browser-only) are skipped. Not retried: given provider
// state, listing is deterministic.
func (y *YouTube) ListTracks(ctx context.Context, videoID string) ([]engine.CaptionTrack, error) {
	engine.IncrUpstream()

	tracks, err := y.tracksViaWatchPage(ctx, videoID)
	if err == nil {
		return tracks, nil
	}
	if derr, ok := engine.AsDomain(err); ok && derr.Code != engine.CodeNetworkError {
		// Definite upstream verdict (unavailable, disabled, throttled);
		// the fallback would report the same thing.
		return nil, err
	}
	slog.Warn("youtube: watch page scrape failed, trying player",
		slog.String("id", videoID), slog.Any("err", err))

	return y.tracksViaPlayer(ctx, videoID)
}

// FetchCues downloads and parses the timedtext XML for a selected track,
// preserving per-cue start/dur timing. Retried with capped backoff.
func (y *YouTube) FetchCues(ctx context.Context, track engine.CaptionTrack) ([]engine.Cue, error) {
	if track.BaseURL == "" {
		return nil, engine.E(engine.CodeInvalidArgument, "caption track has no cue endpoint")
	}
	engine.IncrUpstream()
	if err := y.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	resp, err := engine.RetryHTTP(ctx, engine.DefaultRetryConfig, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, track.BaseURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", userAgentChrome)
		req.Header.Set("Accept-Language", "en-US,en;q=0.9")
		return y.client.Do(req)
	})
	if err != nil {
		return nil, mapUpstreamErr(err, "fetch cues")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, statusErr(resp.StatusCode, "fetch cues")
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4*1024*1024))
	if err != nil {
		return nil, engine.WrapErr(engine.CodeNetworkError, "read cues", err)
	}

	var tt timedText
	if err := xml.Unmarshal(body, &tt); err != nil {
		return nil, engine.WrapErr(engine.CodeNetworkError, "parse timedtext XML", err)
	}

	cues := make([]engine.Cue, 0, len(tt.Lines))
	for _, line := range tt.Lines {
		cues = append(cues, engine.Cue{
			Text:  engine.CleanHTML(line.Text),
			Start: line.Start,
			Dur:   line.Dur,
		})
	}
	return cues, nil
}

// tracksViaWatchPage scrapes the watch page HTML and extracts caption
// tracks from ytInitialPlayerResponse.
func (y *YouTube) tracksViaWatchPage(ctx context.Context, videoID string) ([]engine.CaptionTrack, error) {
	if err := y.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, engine.WatchURL(videoID), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgentChrome)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := y.client.Do(req)
	if err != nil {
		return nil, engine.WrapErr(engine.CodeNetworkError, "watch page", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, statusErr(resp.StatusCode, "watch page")
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 6*1024*1024))
	if err != nil {
		return nil, engine.WrapErr(engine.CodeNetworkError, "read watch page", err)
	}

	idx := bytes.Index(body, []byte(ytInitialPlayerResponseMarker))
	if idx < 0 {
		return nil, engine.E(engine.CodeNetworkError, "ytInitialPlayerResponse not found in watch page")
	}
	jsonData := extractJSON(body[idx+len(ytInitialPlayerResponseMarker):])
	if jsonData == nil {
		return nil, engine.E(engine.CodeNetworkError, "failed to extract ytInitialPlayerResponse JSON")
	}

	var player playerResp
	if err := json.Unmarshal(jsonData, &player); err != nil {
		return nil, engine.WrapErr(engine.CodeNetworkError, "decode ytInitialPlayerResponse", err)
	}
	return tracksFromPlayer(player)
}

// tracksViaPlayer lists caption tracks via the ANDROID Innertube /player
// endpoint.
func (y *YouTube) tracksViaPlayer(ctx context.Context, videoID string) ([]engine.CaptionTrack, error) {
	if err := y.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	reqBody, err := json.Marshal(playerReq{
		VideoID: videoID,
		Context: playerCtx{
			Client: playerClient{
				ClientName:        "ANDROID",
				ClientVersion:     androidVersion,
				AndroidSdkVersion: 30,
				Hl:                "en",
				Gl:                "US",
			},
		},
		RacyCheckOk:    true,
		ContentCheckOk: true,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, innertubePlayerURL+"?prettyPrint=false", bytes.NewReader(reqBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", androidUA)
	req.Header.Set("X-Youtube-Client-Name", "3")
	req.Header.Set("X-Youtube-Client-Version", androidVersion)

	resp, err := y.client.Do(req)
	if err != nil {
		return nil, engine.WrapErr(engine.CodeNetworkError, "android innertube", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, statusErr(resp.StatusCode, "android innertube")
	}

	var player playerResp
	if err := json.NewDecoder(resp.Body).Decode(&player); err != nil {
		return nil, engine.WrapErr(engine.CodeNetworkError, "decode player", err)
	}
	return tracksFromPlayer(player)
}

// tracksFromPlayer maps a player response into domain tracks, translating
// playability verdicts into the error taxonomy.
func tracksFromPlayer(player playerResp) ([]engine.CaptionTrack, error) {
	if ps := player.PlayabilityStatus; ps != nil {
		switch ps.Status {
		case "ERROR", "UNPLAYABLE":
			return nil, engine.E(engine.CodeVideoUnavailable, playReason(ps.Reason, "video unavailable"))
		case "LOGIN_REQUIRED":
			return nil, engine.E(engine.CodePolicyRejected, playReason(ps.Reason, "video requires sign-in"))
		}
	}
	if player.Captions == nil {
		return nil, engine.E(engine.CodePolicyRejected, "captions are disabled for this video")
	}

	raw := player.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks
	tracks := make([]engine.CaptionTrack, 0, len(raw))
	for _, t := range raw {
		if needsPoToken(t.BaseURL) {
			continue // browser-only track, cannot be fetched server-side
		}
		tracks = append(tracks, engine.CaptionTrack{
			Info: engine.CaptionTrackInfo{
				Lang:   t.LanguageCode,
				IsAuto: t.Kind == "asr",
				Name:   t.Name.String(),
			},
			BaseURL: t.BaseURL,
		})
	}
	if len(tracks) == 0 {
		return nil, engine.E(engine.CodeNoCaptionsAvailable, "no usable caption tracks")
	}
	return tracks, nil
}

// needsPoToken reports whether a caption track URL requires a PoToken.
// Tracks with &exp=xpe only work in a browser.
func needsPoToken(baseURL string) bool {
	return strings.Contains(baseURL, "&exp=xpe")
}

func playReason(reason, fallback string) string {
	if reason != "" {
		return reason
	}
	return fallback
}

// statusErr maps a non-200 upstream status into the taxonomy.
func statusErr(code int, op string) error {
	switch code {
	case http.StatusTooManyRequests:
		return engine.Ef(engine.CodeRateLimited, "%s: upstream throttled the request", op)
	case http.StatusNotFound:
		return engine.Ef(engine.CodeVideoUnavailable, "%s: HTTP 404", op)
	case http.StatusUnauthorized, http.StatusForbidden:
		return engine.Ef(engine.CodePolicyRejected, "%s: HTTP %d", op, code)
	default:
		return engine.Ef(engine.CodeNetworkError, "%s: HTTP %d", op, code)
	}
}

// mapUpstreamErr converts retry/transport failures into the taxonomy.
func mapUpstreamErr(err error, op string) error {
	if code := engine.RetryStatusCode(err); code == http.StatusTooManyRequests {
		return engine.WrapErr(engine.CodeRateLimited, fmt.Sprintf("%s: upstream throttled the request", op), err)
	}
	return engine.WrapErr(engine.CodeNetworkError, op+" failed", err)
}
