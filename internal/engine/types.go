package engine

// VideoInfo is an immutable snapshot of video platform metadata, created per
// request and never persisted on its own.
type VideoInfo struct {
	ID          string  `json:"id"`
	URL         string  `json:"url"`
	Title       string  `json:"title,omitempty"`
	Channel     string  `json:"channel,omitempty"`
	PublishedAt string  `json:"published_at,omitempty"`
	Duration    float64 `json:"duration,omitempty"`
}

// CaptionTrackInfo describes one caption track advertised by the provider.
type CaptionTrackInfo struct {
	Lang   string `json:"lang"`
	IsAuto bool   `json:"is_auto"`
	Name   string `json:"track_name,omitempty"`
}

// CaptionTrack pairs wire-visible track info with the provider's fetch
// handle. BaseURL never crosses a transport boundary.
type CaptionTrack struct {
	Info    CaptionTrackInfo
	BaseURL string
}

// Cue is one raw timed caption line as emitted by the provider, before
// normalization.
type Cue struct {
	Text  string
	Start float64
	Dur   float64
}

// Segment is one normalized caption cue. ID is "{video_id}:{index}".
type Segment struct {
	ID    string  `json:"id"`
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	Dur   float64 `json:"dur"`
}

// Chunk is a merged window over contiguous segments sized for retrieval.
// SegmentIDs is non-empty and ordered; End >= Start.
type Chunk struct {
	ID         string   `json:"id"`
	Text       string   `json:"text"`
	Start      float64  `json:"start"`
	End        float64  `json:"end"`
	SegmentIDs []string `json:"segment_ids"`
	CiteURL    string   `json:"cite_url"`
}

// TranscriptResponse is the unit stored in the cache and returned to callers.
// Hash fingerprints {video, captions, segments}; chunks are a deterministic
// derivative and are deliberately excluded from the identity.
type TranscriptResponse struct {
	Video    VideoInfo        `json:"video"`
	Captions CaptionTrackInfo `json:"captions"`
	Segments []Segment        `json:"segments"`
	Chunks   []Chunk          `json:"chunks"`
	Hash     string           `json:"hash"`
}

// TracksResponse lists the caption tracks available for a video.
type TracksResponse struct {
	Tracks []CaptionTrackInfo `json:"tracks"`
}

// HealthResponse is the health probe payload.
type HealthResponse struct {
	OK      bool   `json:"ok"`
	Version string `json:"version"`
}
