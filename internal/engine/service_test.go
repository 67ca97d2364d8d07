package engine

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCaptions struct {
	tracks     []CaptionTrack
	cues       []Cue
	listErr    error
	fetchErr   error
	listCalls  int
	fetchCalls int
}

func (f *fakeCaptions) ListTracks(ctx context.Context, videoID string) ([]CaptionTrack, error) {
	f.listCalls++
	return f.tracks, f.listErr
}

func (f *fakeCaptions) FetchCues(ctx context.Context, track CaptionTrack) ([]Cue, error) {
	f.fetchCalls++
	return f.cues, f.fetchErr
}

type fakeMetadata struct {
	info  *VideoInfo
	err   error
	calls int
}

func (f *fakeMetadata) Fetch(ctx context.Context, videoID string) (*VideoInfo, error) {
	f.calls++
	return f.info, f.err
}

func testConfig() Config {
	return Config{
		CacheTTLDays: 14,
		AllowAuto:    true,
		TargetChars:  1000,
		OverlapChars: 100,

		RejectPrivateOrUnlisted: true,
	}
}

func newTestService(t *testing.T, cfg Config, captions *fakeCaptions, metadata *fakeMetadata) *Service {
	t.Helper()
	cache, err := OpenCache(filepath.Join(t.TempDir(), "svc.sqlite3"), SchemaVersion)
	require.NoError(t, err)
	t.Cleanup(func() { cache.Close() })
	return NewService(cfg, captions, metadata, cache)
}

func TestGetTranscript(t *testing.T) {
	const videoID = "abcdefghijk"
	manualEN := CaptionTrack{Info: CaptionTrackInfo{Lang: "en"}, BaseURL: "https://example.test/en"}
	cues := []Cue{
		{Text: "hello  world ", Start: 0, Dur: 2},
		{Text: "", Start: 2, Dur: 1},
		{Text: "second line", Start: 3, Dur: 2},
	}
	info := &VideoInfo{ID: videoID, URL: WatchURL(videoID), Title: "A Video", Channel: "A Channel"}

	t.Run("full pipeline", func(t *testing.T) {
		captions := &fakeCaptions{tracks: []CaptionTrack{manualEN}, cues: cues}
		metadata := &fakeMetadata{info: info}
		svc := newTestService(t, testConfig(), captions, metadata)

		resp, err := svc.GetTranscript(context.Background(), videoID, "", false)
		require.NoError(t, err)

		assert.Equal(t, "A Video", resp.Video.Title)
		assert.Equal(t, "en", resp.Captions.Lang)
		require.Len(t, resp.Segments, 2, "empty cue should be dropped")
		assert.Equal(t, videoID+":0", resp.Segments[0].ID)
		assert.Equal(t, "hello world", resp.Segments[0].Text, "whitespace collapsed")
		assert.NotEmpty(t, resp.Chunks)
		assert.Len(t, resp.Hash, 64)
	})

	t.Run("second call is served from cache", func(t *testing.T) {
		captions := &fakeCaptions{tracks: []CaptionTrack{manualEN}, cues: cues}
		metadata := &fakeMetadata{info: info}
		svc := newTestService(t, testConfig(), captions, metadata)

		first, err := svc.GetTranscript(context.Background(), videoID, "", false)
		require.NoError(t, err)
		second, err := svc.GetTranscript(context.Background(), videoID, "", false)
		require.NoError(t, err)

		assert.Equal(t, 1, captions.fetchCalls, "cache hit must not refetch cues")
		assert.Equal(t, 1, metadata.calls, "cache hit must not refetch metadata")
		assert.Equal(t, first, second)
	})

	t.Run("empty transcript after normalization", func(t *testing.T) {
		captions := &fakeCaptions{tracks: []CaptionTrack{manualEN}, cues: []Cue{{Text: "   "}, {Text: ""}}}
		svc := newTestService(t, testConfig(), captions, &fakeMetadata{info: info})

		_, err := svc.GetTranscript(context.Background(), videoID, "", false)
		derr, ok := AsDomain(err)
		require.True(t, ok)
		assert.Equal(t, CodeNoCaptionsAvailable, derr.Code)
	})

	t.Run("invalid url short-circuits", func(t *testing.T) {
		captions := &fakeCaptions{}
		svc := newTestService(t, testConfig(), captions, &fakeMetadata{})

		_, err := svc.GetTranscript(context.Background(), "not-a-url", "", false)
		derr, ok := AsDomain(err)
		require.True(t, ok)
		assert.Equal(t, CodeInvalidArgument, derr.Code)
		assert.Zero(t, captions.listCalls)
	})

	t.Run("policy softening keeps bare metadata", func(t *testing.T) {
		cfg := testConfig()
		cfg.RejectPrivateOrUnlisted = false
		captions := &fakeCaptions{tracks: []CaptionTrack{manualEN}, cues: cues}
		metadata := &fakeMetadata{err: E(CodePolicyRejected, "video is private or unlisted")}
		svc := newTestService(t, cfg, captions, metadata)

		resp, err := svc.GetTranscript(context.Background(), videoID, "", false)
		require.NoError(t, err)
		assert.Equal(t, videoID, resp.Video.ID)
		assert.Empty(t, resp.Video.Title)
	})

	t.Run("policy rejection surfaces when enforced", func(t *testing.T) {
		captions := &fakeCaptions{tracks: []CaptionTrack{manualEN}, cues: cues}
		metadata := &fakeMetadata{err: E(CodePolicyRejected, "video is private or unlisted")}
		svc := newTestService(t, testConfig(), captions, metadata)

		_, err := svc.GetTranscript(context.Background(), videoID, "", false)
		derr, ok := AsDomain(err)
		require.True(t, ok)
		assert.Equal(t, CodePolicyRejected, derr.Code)
	})
}

func TestServiceListTracks(t *testing.T) {
	captions := &fakeCaptions{tracks: []CaptionTrack{
		{Info: CaptionTrackInfo{Lang: "pt", IsAuto: true}},
		{Info: CaptionTrackInfo{Lang: "en", IsAuto: false}},
		{Info: CaptionTrackInfo{Lang: "de", IsAuto: true}},
		{Info: CaptionTrackInfo{Lang: "fr", IsAuto: false}},
	}}
	svc := newTestService(t, testConfig(), captions, &fakeMetadata{})

	infos, err := svc.ListTracks(context.Background(), "abcdefghijk")
	require.NoError(t, err)
	require.Len(t, infos, 4)

	assert.False(t, infos[0].IsAuto)
	assert.False(t, infos[1].IsAuto)
	assert.Equal(t, "en", infos[0].Lang)
	assert.Equal(t, "fr", infos[1].Lang)
	assert.Equal(t, "de", infos[2].Lang)
	assert.Equal(t, "pt", infos[3].Lang)
}

func TestServiceGetMetadata(t *testing.T) {
	metadata := &fakeMetadata{info: &VideoInfo{ID: "abcdefghijk", Title: "T"}}
	svc := newTestService(t, testConfig(), &fakeCaptions{}, metadata)

	info, err := svc.GetMetadata(context.Background(), "https://youtu.be/abcdefghijk")
	require.NoError(t, err)
	assert.Equal(t, "T", info.Title)

	_, err = svc.GetMetadata(context.Background(), "nope")
	derr, ok := AsDomain(err)
	require.True(t, ok)
	assert.Equal(t, CodeInvalidArgument, derr.Code)
}

func TestNormalizeCues(t *testing.T) {
	segments := NormalizeCues("abcdefghijk", []Cue{
		{Text: " one \n two ", Start: 0, Dur: 1},
		{Text: "\t", Start: 1, Dur: 1},
		{Text: "three", Start: 2, Dur: 1},
	})
	require.Len(t, segments, 2)
	assert.Equal(t, "one two", segments[0].Text)
	assert.Equal(t, "abcdefghijk:0", segments[0].ID)
	assert.Equal(t, "abcdefghijk:1", segments[1].ID)
	assert.Equal(t, 2.0, segments[1].Start)
}
