package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/circuitbreaker"
	"github.com/samber/lo"

	"github.com/desertthunder/ytstream/internal/models"
	"github.com/desertthunder/ytstream/internal/shared"
)

const (
	defaultPlayerURL     = "https://www.youtube.com/youtubei/v1/player"
	webClientName        = "WEB"
	webClientNameID      = "1"
	webClientVersion     = "2.20240726.00.00"
	defaultBreakerDelay  = 30 * time.Second
	playabilityStatusOK  = "OK"
	maxPlayerBodyBytes   = 8 << 20
	breakerFailures      = 5
	breakerWindowAttempt = 10
)

// ExtractorOptions configures a [PlayerExtractor].
type ExtractorOptions struct {
	PlayerURL    string
	HTTPClient   *http.Client          // defaults to [shared.NewBrowserClient]
	Headers      *shared.HeaderProfile // defaults to [shared.ChromeProfile]
	Timeout      time.Duration
	BreakerDelay time.Duration // how long the breaker stays open after repeated transport failures
	Logger       *log.Logger
}

// PlayerExtractor implements [Extractor] with the player endpoint used by the web client.
//
// Requests carry a browser header profile over a Chrome TLS fingerprint. Transport failures
// feed a circuit breaker so a blocked extractor fails fast into the degraded path.
type PlayerExtractor struct {
	playerURL  string
	httpClient *http.Client
	headers    *shared.HeaderProfile
	timeout    time.Duration
	executor   failsafe.Executor[*models.PlayerInfo]
	breaker    circuitbreaker.CircuitBreaker[*models.PlayerInfo]
	logger     *log.Logger
}

// NewPlayerExtractor creates an extractor.
func NewPlayerExtractor(opts ExtractorOptions) *PlayerExtractor {
	timeout := lo.CoalesceOrEmpty(opts.Timeout, defaultUpstreamLimit)
	e := &PlayerExtractor{
		playerURL:  lo.CoalesceOrEmpty(opts.PlayerURL, defaultPlayerURL),
		httpClient: opts.HTTPClient,
		headers:    opts.Headers,
		timeout:    timeout,
		logger:     opts.Logger,
	}
	if e.httpClient == nil {
		e.httpClient = shared.NewBrowserClient(timeout)
	}
	if e.headers == nil {
		e.headers = shared.ChromeProfile()
	}
	if e.logger == nil {
		e.logger = log.New(io.Discard)
	}

	e.breaker = circuitbreaker.NewBuilder[*models.PlayerInfo]().
		WithFailureThresholdRatio(breakerFailures, breakerWindowAttempt).
		WithDelay(lo.CoalesceOrEmpty(opts.BreakerDelay, defaultBreakerDelay)).
		WithSuccessThreshold(1).
		HandleIf(func(_ *models.PlayerInfo, err error) bool {
			return err != nil && shared.KindOf(err) == shared.KindUpstreamUnavailable
		}).
		OnStateChanged(func(event circuitbreaker.StateChangedEvent) {
			e.logger.Warn("extractor circuit breaker state change", "from", event.OldState, "to", event.NewState)
		}).
		Build()
	e.executor = failsafe.With[*models.PlayerInfo](e.breaker)
	return e
}

type playerRequest struct {
	VideoID        string        `json:"videoId"`
	Context        playerContext `json:"context"`
	ContentCheckOK bool          `json:"contentCheckOk"`
	RacyCheckOK    bool          `json:"racyCheckOk"`
}

type playerContext struct {
	Client struct {
		ClientName    string `json:"clientName"`
		ClientVersion string `json:"clientVersion"`
		HL            string `json:"hl"`
		GL            string `json:"gl"`
	} `json:"client"`
}

type playerResponse struct {
	PlayabilityStatus struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	} `json:"playabilityStatus"`
	VideoDetails struct {
		VideoID          string `json:"videoId"`
		Title            string `json:"title"`
		ShortDescription string `json:"shortDescription"`
		LengthSeconds    string `json:"lengthSeconds"`
		IsLiveContent    bool   `json:"isLiveContent"`
		IsLive           bool   `json:"isLive"`
		Thumbnail        struct {
			Thumbnails []struct {
				URL string `json:"url"`
			} `json:"thumbnails"`
		} `json:"thumbnail"`
	} `json:"videoDetails"`
	StreamingData struct {
		Formats         []playerFormat `json:"formats"`
		AdaptiveFormats []playerFormat `json:"adaptiveFormats"`
	} `json:"streamingData"`
}

type playerFormat struct {
	Itag            int    `json:"itag"`
	URL             string `json:"url"`
	SignatureCipher string `json:"signatureCipher"`
	MimeType        string `json:"mimeType"`
	Bitrate         int    `json:"bitrate"`
	AverageBitrate  int    `json:"averageBitrate"`
	Height          int    `json:"height"`
	QualityLabel    string `json:"qualityLabel"`
	FPS             int    `json:"fps"`
}

// Extract fetches player metadata for id. The returned [models.PlayerInfo] is not yet filtered.
func (e *PlayerExtractor) Extract(ctx context.Context, id string) (*models.PlayerInfo, error) {
	const op = "extractor.player"

	info, err := e.executor.WithContext(ctx).Get(func() (*models.PlayerInfo, error) {
		return e.fetch(ctx, op, id)
	})
	if errors.Is(err, circuitbreaker.ErrOpen) {
		return nil, shared.E(shared.KindUpstreamUnavailable, op, fmt.Errorf("%w: extractor circuit open", shared.ErrServiceUnavailable))
	}
	return info, err
}

func (e *PlayerExtractor) fetch(ctx context.Context, op, id string) (*models.PlayerInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	body := playerRequest{VideoID: id, ContentCheckOK: true, RacyCheckOK: true}
	body.Context.Client.ClientName = webClientName
	body.Context.Client.ClientVersion = webClientVersion
	body.Context.Client.HL = "en"
	body.Context.Client.GL = "US"

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode player request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.playerURL+"?prettyPrint=false", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "*/*")
	req.Header.Set("X-Youtube-Client-Name", webClientNameID)
	req.Header.Set("X-Youtube-Client-Version", webClientVersion)
	req.Header.Set("Referer", "https://www.youtube.com/watch?v="+id)
	e.headers.Apply(req)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, shared.E(shared.KindUpstreamUnavailable, op, fmt.Errorf("%w: %w", shared.ErrServiceUnavailable, err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, shared.E(shared.KindNotFound, op, shared.ErrVideoUnavailable)
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, shared.E(shared.KindUpstreamUnavailable, op, fmt.Errorf("%w: player returned status %d", shared.ErrServiceUnavailable, resp.StatusCode))
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, shared.E(shared.KindUnknown, op, fmt.Errorf("player returned status %d", resp.StatusCode))
	}

	var pr playerResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxPlayerBodyBytes)).Decode(&pr); err != nil {
		return nil, shared.E(shared.KindUnknown, op, fmt.Errorf("failed to decode player response: %w", err))
	}

	return toPlayerInfo(op, id, &pr)
}

func toPlayerInfo(op, id string, pr *playerResponse) (*models.PlayerInfo, error) {
	if status := pr.PlayabilityStatus.Status; status != playabilityStatusOK {
		reason := lo.CoalesceOrEmpty(pr.PlayabilityStatus.Reason, strings.ToLower(status))
		return nil, shared.E(shared.KindNotFound, op, fmt.Errorf("%w: %s", shared.ErrVideoUnavailable, reason))
	}

	vd := pr.VideoDetails
	info := &models.PlayerInfo{
		ID:            lo.CoalesceOrEmpty(vd.VideoID, id),
		Title:         vd.Title,
		Description:   vd.ShortDescription,
		LengthSeconds: vd.LengthSeconds,
		IsLive:        vd.IsLiveContent || vd.IsLive,
	}
	if len(vd.Thumbnail.Thumbnails) > 0 {
		info.Thumbnail = vd.Thumbnail.Thumbnails[0].URL
	}

	muxed := lo.Map(pr.StreamingData.Formats, func(f playerFormat, _ int) models.FormatCandidate {
		return toCandidate(f, true, true)
	})
	adaptive := lo.Map(pr.StreamingData.AdaptiveFormats, func(f playerFormat, _ int) models.FormatCandidate {
		return toCandidate(f, strings.HasPrefix(f.MimeType, "video/"), strings.HasPrefix(f.MimeType, "audio/"))
	})
	info.Formats = append(muxed, adaptive...)

	return info, nil
}

// toCandidate maps a player format. Ciphered formats have no direct URL and are left URL-less.
func toCandidate(f playerFormat, hasVideo, hasAudio bool) models.FormatCandidate {
	c := models.FormatCandidate{
		HasVideo:     hasVideo,
		HasAudio:     hasAudio,
		URL:          optionalString(f.URL),
		QualityLabel: optionalString(f.QualityLabel),
		MimeType:     f.MimeType,
		Bitrate:      optionalInt(f.Bitrate),
		FPS:          optionalInt(f.FPS),
	}
	if hasVideo {
		c.Height = optionalInt(f.Height)
	}
	if hasAudio && !hasVideo {
		c.AudioBitrate = optionalInt(lo.CoalesceOrEmpty(f.AverageBitrate, f.Bitrate) / 1000)
	}
	return c
}
