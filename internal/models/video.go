package models

import (
	"time"

	"github.com/samber/mo"
)

// MaxStreamFormats bounds the formats returned in a [VideoStreamBundle].
const MaxStreamFormats = 6

// VideoSummary is a search hit joined with its enrichment data.
type VideoSummary struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Thumbnail    string    `json:"thumbnail"`
	ChannelTitle string    `json:"channelTitle"`
	PublishedAt  time.Time `json:"publishedAt"`
	Duration     string    `json:"duration"`
	ViewCount    string    `json:"viewCount"`
}

// SearchResult is one page of catalog search results.
type SearchResult struct {
	Items         []VideoSummary    `json:"items"`
	NextPageToken mo.Option[string] `json:"nextPageToken"`
	TotalResults  int               `json:"totalResults"`
}

// VideoDetails is the enrichment record for one identifier. Duration is already a clock string.
type VideoDetails struct {
	ID        string `json:"id"`
	Duration  string `json:"duration"`
	ViewCount string `json:"viewCount"`
}

// StreamFormat is one playable rendition. Its URL is issued by the upstream and expires there.
type StreamFormat struct {
	Quality  string         `json:"quality"`
	URL      string         `json:"url"`
	MimeType string         `json:"mimeType"`
	Bitrate  mo.Option[int] `json:"bitrate"`
	FPS      mo.Option[int] `json:"fps"`
	HasVideo bool           `json:"hasVideo"`
	HasAudio bool           `json:"hasAudio"`
}

// VideoStreamBundle is the result of resolving a video: metadata plus ranked formats, best first.
//
// A degraded bundle has an empty Formats list.
type VideoStreamBundle struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Duration    string         `json:"duration"`
	Thumbnail   string         `json:"thumbnail"`
	Formats     []StreamFormat `json:"formats"`
}

// Degraded reports whether the bundle carries metadata only.
func (b *VideoStreamBundle) Degraded() bool {
	return len(b.Formats) == 0
}

// FormatCandidate is a raw stream descriptor as returned by extraction, before selection.
type FormatCandidate struct {
	HasVideo     bool
	HasAudio     bool
	URL          mo.Option[string]
	Height       mo.Option[int]
	AudioBitrate mo.Option[int] // kbps
	QualityLabel mo.Option[string]
	MimeType     string
	Bitrate      mo.Option[int]
	FPS          mo.Option[int]
}

// PlayerInfo is the extraction result for one video.
type PlayerInfo struct {
	ID            string
	Title         string
	Description   string
	LengthSeconds string
	Thumbnail     string
	IsLive        bool
	Formats       []FormatCandidate
}
