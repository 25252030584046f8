// YouTube Data API [Catalog] implementation
//
// Search and enrichment go through the official v3 API with an API key; suggestions use the
// public autocomplete endpoint, which answers with a JSONP-style callback.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
	"github.com/samber/lo"

	"github.com/desertthunder/ytstream/internal/cache"
	"github.com/desertthunder/ytstream/internal/models"
	"github.com/desertthunder/ytstream/internal/shared"
)

const (
	defaultYTBaseURL     = "https://www.googleapis.com/youtube/v3"
	defaultSuggestURL    = "http://suggestqueries.google.com/complete/search"
	defaultMaxResults    = 20
	maxMaxResults        = 50
	maxSuggestions       = 10
	defaultUpstreamLimit = 15 * time.Second
)

// YouTubeOptions configures a [YouTubeService]. Zero values fall back to the public endpoints.
type YouTubeOptions struct {
	APIKey     string
	BaseURL    string
	SuggestURL string
	Timeout    time.Duration // per upstream call
	MaxRetries int           // retries for transport and 5xx failures only
	RetryDelay time.Duration
	HTTPClient *http.Client
	Cache      cache.Cache
	CacheTTL   time.Duration
	Logger     *log.Logger
}

// YouTubeService implements [Catalog] against the YouTube Data API v3.
type YouTubeService struct {
	apiKey     string
	baseURL    string
	suggestURL string
	timeout    time.Duration
	httpClient *http.Client
	executor   failsafe.Executor[[]byte]
	cache      cache.Cache
	cacheTTL   time.Duration
	logger     *log.Logger
}

// NewYouTubeService creates a Data API client.
func NewYouTubeService(opts YouTubeOptions) *YouTubeService {
	y := &YouTubeService{
		apiKey:     opts.APIKey,
		baseURL:    strings.TrimRight(lo.CoalesceOrEmpty(opts.BaseURL, defaultYTBaseURL), "/"),
		suggestURL: lo.CoalesceOrEmpty(opts.SuggestURL, defaultSuggestURL),
		timeout:    lo.CoalesceOrEmpty(opts.Timeout, defaultUpstreamLimit),
		httpClient: lo.CoalesceOrEmpty(opts.HTTPClient, http.DefaultClient),
		cache:      opts.Cache,
		cacheTTL:   lo.CoalesceOrEmpty(opts.CacheTTL, time.Hour),
		logger:     opts.Logger,
	}
	if y.cache == nil {
		y.cache = cache.Noop{}
	}
	if y.logger == nil {
		y.logger = log.New(io.Discard)
	}
	y.executor = newRetryExecutor(opts.MaxRetries, lo.CoalesceOrEmpty(opts.RetryDelay, 200*time.Millisecond))
	return y
}

// newRetryExecutor retries only [shared.KindUpstreamUnavailable] failures; quota and key errors surface at once.
func newRetryExecutor(maxRetries int, delay time.Duration) failsafe.Executor[[]byte] {
	retry := retrypolicy.NewBuilder[[]byte]().
		HandleIf(func(_ []byte, err error) bool {
			return err != nil && shared.KindOf(err) == shared.KindUpstreamUnavailable
		}).
		WithBackoff(delay, 10*delay).
		WithMaxRetries(max(maxRetries, 0)).
		WithJitterFactor(0.1).
		ReturnLastFailure().
		Build()
	return failsafe.With[[]byte](retry)
}

type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Errors  []struct {
			Reason string `json:"reason"`
		} `json:"errors"`
	} `json:"error"`
}

// classifyStatus tags a non-2xx Data API response by its error reason, falling back to the status code.
func classifyStatus(op string, status int, body []byte) error {
	var apiErr apiError
	_ = json.Unmarshal(body, &apiErr)

	reason := ""
	if len(apiErr.Error.Errors) > 0 {
		reason = apiErr.Error.Errors[0].Reason
	}
	msg := lo.CoalesceOrEmpty(apiErr.Error.Message, http.StatusText(status))
	detail := fmt.Errorf("youtube API error (status %d): %s", status, msg)

	switch reason {
	case "quotaExceeded", "rateLimitExceeded", "dailyLimitExceeded", "userRateLimitExceeded":
		return shared.E(shared.KindQuota, op, fmt.Errorf("%w: %v", shared.ErrQuotaExceeded, detail))
	case "keyInvalid", "keyExpired", "accessNotConfigured", "ipRefererBlocked", "forbidden":
		return shared.E(shared.KindUnauthorizedKey, op, fmt.Errorf("%w: %v", shared.ErrAPIKey, detail))
	case "videoNotFound", "notFound":
		return shared.E(shared.KindNotFound, op, fmt.Errorf("%w: %v", shared.ErrVideoUnavailable, detail))
	}

	switch {
	case status == http.StatusUnauthorized:
		return shared.E(shared.KindUnauthorizedKey, op, fmt.Errorf("%w: %v", shared.ErrAPIKey, detail))
	case status == http.StatusTooManyRequests:
		return shared.E(shared.KindQuota, op, fmt.Errorf("%w: %v", shared.ErrQuotaExceeded, detail))
	case status == http.StatusNotFound:
		return shared.E(shared.KindNotFound, op, fmt.Errorf("%w: %v", shared.ErrVideoUnavailable, detail))
	case status >= 500:
		return shared.E(shared.KindUpstreamUnavailable, op, fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, detail))
	default:
		return shared.E(shared.KindUnknown, op, detail)
	}
}

func (y *YouTubeService) doRequest(ctx context.Context, op, endpoint string, params url.Values, result any) error {
	if y.apiKey == "" {
		return shared.E(shared.KindUnauthorizedKey, op, shared.ErrAPIKey)
	}
	params.Set("key", y.apiKey)
	apiURL := y.baseURL + endpoint + "?" + params.Encode()

	ctx, cancel := context.WithTimeout(ctx, y.timeout)
	defer cancel()

	body, err := y.executor.WithContext(ctx).Get(func() ([]byte, error) {
		return y.fetch(ctx, op, apiURL)
	})
	if err != nil {
		if shared.KindOf(err) == shared.KindUnknown && (errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)) {
			return shared.E(shared.KindUpstreamUnavailable, op, fmt.Errorf("%w: %w", shared.ErrTimeout, err))
		}
		return err
	}

	if err := json.Unmarshal(body, result); err != nil {
		return shared.E(shared.KindUpstreamUnavailable, op, fmt.Errorf("failed to decode response: %w", err))
	}
	return nil
}

func (y *YouTubeService) fetch(ctx context.Context, op, apiURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := y.httpClient.Do(req)
	if err != nil {
		return nil, shared.E(shared.KindUpstreamUnavailable, op, fmt.Errorf("%w: %w", shared.ErrServiceUnavailable, err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, shared.E(shared.KindUpstreamUnavailable, op, fmt.Errorf("failed to read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, classifyStatus(op, resp.StatusCode, body)
	}
	return body, nil
}

// ClampMaxResults applies the default page size to non-positive values and caps it at the API maximum.
func ClampMaxResults(n int) int {
	if n <= 0 {
		return defaultMaxResults
	}
	return min(n, maxMaxResults)
}

type searchResponse struct {
	NextPageToken string `json:"nextPageToken"`
	PageInfo      struct {
		TotalResults int `json:"totalResults"`
	} `json:"pageInfo"`
	Items []searchItem `json:"items"`
}

type searchItem struct {
	ID struct {
		VideoID string `json:"videoId"`
	} `json:"id"`
	Snippet struct {
		Title        string `json:"title"`
		Description  string `json:"description"`
		ChannelTitle string `json:"channelTitle"`
		PublishedAt  string `json:"publishedAt"`
		Thumbnails   map[string]struct {
			URL string `json:"url"`
		} `json:"thumbnails"`
	} `json:"snippet"`
}

// Search queries embeddable, syndicated videos by relevance and joins duration and view count onto each hit.
//
// Hits without enrichment data report duration [UnknownDuration] and view count "0".
func (y *YouTubeService) Search(ctx context.Context, query string, maxResults int, pageToken string) (*models.SearchResult, error) {
	const op = "youtube.search"

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, shared.E(shared.KindValidation, op, fmt.Errorf("%w: search query is required", shared.ErrMissingArgument))
	}

	params := url.Values{
		"part":            {"snippet"},
		"q":               {query},
		"type":            {"video"},
		"maxResults":      {strconv.Itoa(ClampMaxResults(maxResults))},
		"order":           {"relevance"},
		"videoEmbeddable": {"true"},
		"videoSyndicated": {"true"},
	}
	if pageToken != "" {
		params.Set("pageToken", pageToken)
	}

	var resp searchResponse
	if err := y.doRequest(ctx, op, "/search", params, &resp); err != nil {
		return nil, err
	}

	ids := lo.Compact(lo.Map(resp.Items, func(item searchItem, _ int) string {
		return item.ID.VideoID
	}))

	details, err := y.VideoDetails(ctx, ids...)
	if err != nil {
		return nil, err
	}
	byID := lo.KeyBy(details, func(d models.VideoDetails) string { return d.ID })

	items := make([]models.VideoSummary, 0, len(resp.Items))
	for _, item := range resp.Items {
		summary := models.VideoSummary{
			ID:           item.ID.VideoID,
			Title:        item.Snippet.Title,
			Description:  item.Snippet.Description,
			Thumbnail:    item.Snippet.Thumbnails["medium"].URL,
			ChannelTitle: item.Snippet.ChannelTitle,
			Duration:     UnknownDuration,
			ViewCount:    "0",
		}
		if t, err := time.Parse(time.RFC3339, item.Snippet.PublishedAt); err == nil {
			summary.PublishedAt = t
		}
		if d, ok := byID[summary.ID]; ok {
			summary.Duration = lo.CoalesceOrEmpty(d.Duration, UnknownDuration)
			summary.ViewCount = lo.CoalesceOrEmpty(d.ViewCount, "0")
		}
		items = append(items, summary)
	}

	return &models.SearchResult{
		Items:         items,
		NextPageToken: optionalString(resp.NextPageToken),
		TotalResults:  resp.PageInfo.TotalResults,
	}, nil
}

type videosResponse struct {
	Items []struct {
		ID             string `json:"id"`
		ContentDetails struct {
			Duration string `json:"duration"`
		} `json:"contentDetails"`
		Statistics struct {
			ViewCount string `json:"viewCount"`
		} `json:"statistics"`
	} `json:"items"`
}

func detailsCacheKey(id string) string {
	return "details:" + id
}

// VideoDetails fetches duration and view count for ids with a single enrichment request.
//
// Cached records are served without a request; the rest are fetched together and cached.
func (y *YouTubeService) VideoDetails(ctx context.Context, ids ...string) ([]models.VideoDetails, error) {
	const op = "youtube.videos"

	ids = lo.Uniq(lo.Compact(ids))
	if len(ids) == 0 {
		return []models.VideoDetails{}, nil
	}

	found := make(map[string]models.VideoDetails, len(ids))
	var missing []string
	for _, id := range ids {
		var d models.VideoDetails
		if err := y.cache.Get(ctx, detailsCacheKey(id), &d); err == nil {
			found[id] = d
			continue
		} else if !errors.Is(err, cache.ErrMiss) {
			y.logger.Warn("enrichment cache read failed", "video_id", id, "error", err)
		}
		missing = append(missing, id)
	}

	if len(missing) > 0 {
		params := url.Values{
			"part": {"contentDetails,statistics"},
			"id":   {strings.Join(missing, ",")},
		}

		var resp videosResponse
		if err := y.doRequest(ctx, op, "/videos", params, &resp); err != nil {
			return nil, err
		}

		for _, item := range resp.Items {
			d := models.VideoDetails{
				ID:        item.ID,
				Duration:  ParseDuration(item.ContentDetails.Duration),
				ViewCount: item.Statistics.ViewCount,
			}
			found[item.ID] = d
			if err := y.cache.Set(ctx, detailsCacheKey(item.ID), d, y.cacheTTL); err != nil {
				y.logger.Warn("enrichment cache write failed", "video_id", item.ID, "error", err)
			}
		}
	}

	details := make([]models.VideoDetails, 0, len(found))
	for _, id := range ids {
		if d, ok := found[id]; ok {
			details = append(details, d)
		}
	}
	return details, nil
}

// Suggestions returns up to 10 autocomplete strings for query. Every failure yields an empty list.
func (y *YouTubeService) Suggestions(ctx context.Context, query string) []string {
	query = strings.TrimSpace(query)
	if query == "" {
		return []string{}
	}

	suggestions, err := y.fetchSuggestions(ctx, query)
	if err != nil {
		y.logger.Debug("suggestion lookup failed", "query", query, "error", err)
		return []string{}
	}
	return suggestions
}

func (y *YouTubeService) fetchSuggestions(ctx context.Context, query string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, y.timeout)
	defer cancel()

	params := url.Values{"client": {"youtube"}, "ds": {"yt"}, "q": {query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, y.suggestURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := y.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("suggest endpoint returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return ParseSuggestions(string(body))
}

// ParseSuggestions decodes a callback-wrapped payload such as
// window.google.ac.h(["q",[["q one",0],["q two",0]],{}]) into its suggestion strings.
func ParseSuggestions(payload string) ([]string, error) {
	start, end := strings.Index(payload, "("), strings.LastIndex(payload, ")")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("%w: payload is not wrapped in a callback", shared.ErrInvalidInput)
	}

	var outer []json.RawMessage
	if err := json.Unmarshal([]byte(payload[start+1:end]), &outer); err != nil {
		return nil, fmt.Errorf("failed to decode suggestions: %w", err)
	}
	if len(outer) < 2 {
		return nil, fmt.Errorf("%w: suggestions list missing", shared.ErrInvalidInput)
	}

	var tuples [][]json.RawMessage
	if err := json.Unmarshal(outer[1], &tuples); err != nil {
		return nil, fmt.Errorf("failed to decode suggestion tuples: %w", err)
	}

	suggestions := make([]string, 0, min(len(tuples), maxSuggestions))
	for _, tuple := range tuples {
		if len(suggestions) == maxSuggestions {
			break
		}
		if len(tuple) == 0 {
			continue
		}
		var s string
		if err := json.Unmarshal(tuple[0], &s); err != nil {
			return nil, fmt.Errorf("failed to decode suggestion: %w", err)
		}
		suggestions = append(suggestions, s)
	}
	return suggestions, nil
}
