package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
)

// CaptionProvider lists the caption tracks advertised for a video and
// fetches raw cues for a selected track. Implementations map their own
// failure signals into the domain taxonomy before returning.
type CaptionProvider interface {
	ListTracks(ctx context.Context, videoID string) ([]CaptionTrack, error)
	FetchCues(ctx context.Context, track CaptionTrack) ([]Cue, error)
}

// MetadataProvider fetches lightweight video metadata (title, channel).
type MetadataProvider interface {
	Fetch(ctx context.Context, videoID string) (*VideoInfo, error)
}

// Service orchestrates identifier resolution, track selection, caching,
// fetching, normalization, and chunking. It exclusively owns response
// construction; transports only translate its outputs into wire shapes.
type Service struct {
	cfg      Config
	captions CaptionProvider
	metadata MetadataProvider
	cache    *Cache
}

// NewService builds the facade from explicit collaborators.
func NewService(cfg Config, captions CaptionProvider, metadata MetadataProvider, cache *Cache) *Service {
	return &Service{cfg: cfg, captions: captions, metadata: metadata, cache: cache}
}

// GetTranscript resolves rawURL, selects a caption track, and returns the
// cached transcript for it or fetches, normalizes, chunks, hashes, and
// caches a fresh one. The cache entry is written only after the full
// response is assembled.
func (s *Service) GetTranscript(ctx context.Context, rawURL, lang string, preferAuto bool) (*TranscriptResponse, error) {
	IncrTranscript()

	videoID, err := ParseVideoID(rawURL)
	if err != nil {
		return nil, err
	}

	tracks, err := s.captions.ListTracks(ctx, videoID)
	if err != nil {
		return nil, Normalize(err)
	}

	track, err := SelectTrack(tracks, lang, preferAuto, s.cfg.AllowAuto)
	if err != nil {
		return nil, err
	}

	key, err := CacheKey(videoID, track.Info.Lang, track.Info.IsAuto, track.Info.Name)
	if err != nil {
		return nil, fmt.Errorf("cache key: %w", err)
	}
	if raw, ok, err := s.cache.Get(key); err != nil {
		slog.Warn("cache read failed", slog.String("video", videoID), slog.Any("error", err))
	} else if ok {
		var cached TranscriptResponse
		if err := json.Unmarshal(raw, &cached); err == nil {
			slog.Debug("transcript cache hit", slog.String("video", videoID), slog.String("lang", track.Info.Lang))
			return &cached, nil
		}
		slog.Warn("cache entry corrupt, refetching", slog.String("video", videoID), slog.Any("error", err))
	}

	cues, err := s.captions.FetchCues(ctx, track)
	if err != nil {
		IncrUpstreamError()
		return nil, Normalize(err)
	}

	segments := NormalizeCues(videoID, cues)
	if len(segments) == 0 {
		return nil, E(CodeNoCaptionsAvailable, "transcript is empty after normalization")
	}

	video, err := s.fetchMetadata(ctx, videoID)
	if err != nil {
		return nil, err
	}

	chunks := ChunkSegments(videoID, segments, s.cfg.TargetChars, s.cfg.OverlapChars)

	hash, err := ContentHash(map[string]any{
		"video":    video,
		"captions": track.Info,
		"segments": segments,
	})
	if err != nil {
		return nil, err
	}

	resp := &TranscriptResponse{
		Video:    *video,
		Captions: track.Info,
		Segments: segments,
		Chunks:   chunks,
		Hash:     hash,
	}
	if err := s.cache.Set(key, resp, s.cfg.CacheTTLDays); err != nil {
		slog.Warn("cache write failed", slog.String("video", videoID), slog.Any("error", err))
	}
	return resp, nil
}

// ListTracks returns the caption tracks available for a video, manual tracks
// first, sorted by language within each partition.
func (s *Service) ListTracks(ctx context.Context, rawURL string) ([]CaptionTrackInfo, error) {
	IncrTracks()

	videoID, err := ParseVideoID(rawURL)
	if err != nil {
		return nil, err
	}
	tracks, err := s.captions.ListTracks(ctx, videoID)
	if err != nil {
		return nil, Normalize(err)
	}

	infos := make([]CaptionTrackInfo, len(tracks))
	for i, t := range tracks {
		infos[i] = t.Info
	}
	sort.SliceStable(infos, func(i, j int) bool {
		if infos[i].IsAuto != infos[j].IsAuto {
			return !infos[i].IsAuto
		}
		return infos[i].Lang < infos[j].Lang
	})
	return infos, nil
}

// GetMetadata returns video metadata for a URL or ID.
func (s *Service) GetMetadata(ctx context.Context, rawURL string) (*VideoInfo, error) {
	IncrMetadata()

	videoID, err := ParseVideoID(rawURL)
	if err != nil {
		return nil, err
	}
	return s.fetchMetadata(ctx, videoID)
}

// CacheStats exposes cache hit/miss counters for the metrics endpoint.
func (s *Service) CacheStats() (hits, misses int64) {
	return s.cache.Stats()
}

// fetchMetadata applies the private/unlisted policy: a PolicyRejected from
// the provider is softened to bare metadata unless the deployment rejects
// private and unlisted videos.
func (s *Service) fetchMetadata(ctx context.Context, videoID string) (*VideoInfo, error) {
	video, err := s.metadata.Fetch(ctx, videoID)
	if err != nil {
		derr := Normalize(err)
		if derr.Code == CodePolicyRejected && !s.cfg.RejectPrivateOrUnlisted {
			slog.Debug("metadata withheld, continuing without it", slog.String("video", videoID))
			return &VideoInfo{ID: videoID, URL: WatchURL(videoID)}, nil
		}
		IncrUpstreamError()
		return nil, derr
	}
	return video, nil
}

// NormalizeCues trims and collapses whitespace, drops cues that are empty
// after trimming, and assigns sequential IDs over the kept segments.
func NormalizeCues(videoID string, cues []Cue) []Segment {
	segments := make([]Segment, 0, len(cues))
	for _, cue := range cues {
		text := CollapseWhitespace(cue.Text)
		if text == "" {
			continue
		}
		segments = append(segments, Segment{
			ID:    fmt.Sprintf("%s:%d", videoID, len(segments)),
			Text:  text,
			Start: cue.Start,
			Dur:   cue.Dur,
		})
	}
	return segments
}
