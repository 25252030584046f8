package services

import (
	"fmt"
	"slices"

	"github.com/samber/lo"
	"github.com/samber/mo"

	"github.com/desertthunder/ytstream/internal/models"
	"github.com/desertthunder/ytstream/internal/shared"
)

// audioQualityKey collapses every audio-only rendition without label or height into one slot.
const audioQualityKey = "Audio"

type rankedFormat struct {
	format models.StreamFormat
	rank   int
}

// playableTiers are tried in order; the first non-empty tier is selected.
var playableTiers = []func(models.FormatCandidate) bool{
	func(c models.FormatCandidate) bool { return c.HasVideo && c.HasAudio && hasURL(c) },
	func(c models.FormatCandidate) bool { return c.HasVideo && hasURL(c) },
	hasURL,
}

func hasURL(c models.FormatCandidate) bool {
	return c.URL.OrEmpty() != ""
}

// SelectFormats picks the playable formats from candidates, one per quality key, best first.
//
// At most [models.MaxStreamFormats] formats are returned. When no candidate carries a URL the
// error is tagged [shared.KindNoPlayableFormat].
func SelectFormats(candidates []models.FormatCandidate) ([]models.StreamFormat, error) {
	var playable []models.FormatCandidate
	for _, tier := range playableTiers {
		if playable = lo.Filter(candidates, func(c models.FormatCandidate, _ int) bool { return tier(c) }); len(playable) > 0 {
			break
		}
	}
	if len(playable) == 0 {
		return nil, shared.E(shared.KindNoPlayableFormat, "formats.select", shared.ErrNoPlayableFormat)
	}

	slots := make(map[string]int, len(playable))
	var best []rankedFormat
	for _, c := range playable {
		key, rank := QualityKey(c), Rank(c)
		i, seen := slots[key]
		switch {
		case !seen:
			slots[key] = len(best)
			best = append(best, rankedFormat{format: toStreamFormat(key, c), rank: rank})
		case rank > best[i].rank:
			best[i] = rankedFormat{format: toStreamFormat(key, c), rank: rank}
		}
	}

	slices.SortStableFunc(best, func(a, b rankedFormat) int { return b.rank - a.rank })
	if len(best) > models.MaxStreamFormats {
		best = best[:models.MaxStreamFormats]
	}

	return lo.Map(best, func(r rankedFormat, _ int) models.StreamFormat { return r.format }), nil
}

// QualityKey is the deduplication key of a candidate: its label, else "{height}p", else "Audio".
func QualityKey(c models.FormatCandidate) string {
	if label := c.QualityLabel.OrEmpty(); label != "" {
		return label
	}
	if h, ok := c.Height.Get(); ok {
		return fmt.Sprintf("%dp", h)
	}
	return audioQualityKey
}

// Rank orders candidates: height if known, else audio bitrate, else 0.
func Rank(c models.FormatCandidate) int {
	return c.Height.OrElse(c.AudioBitrate.OrElse(0))
}

func toStreamFormat(key string, c models.FormatCandidate) models.StreamFormat {
	return models.StreamFormat{
		Quality:  key,
		URL:      c.URL.OrEmpty(),
		MimeType: c.MimeType,
		Bitrate:  c.Bitrate,
		FPS:      c.FPS,
		HasVideo: c.HasVideo,
		HasAudio: c.HasAudio,
	}
}

// optionalInt maps zero to None, the way the upstream omits unknown numeric fields.
func optionalInt(n int) mo.Option[int] {
	if n == 0 {
		return mo.None[int]()
	}
	return mo.Some(n)
}

func optionalString(s string) mo.Option[string] {
	if s == "" {
		return mo.None[string]()
	}
	return mo.Some(s)
}
