// Package services implements the catalog, stream resolution and identity services behind the HTTP API.
//
// # Catalog
//
// [YouTubeService] implements [Catalog] against the YouTube Data API. Search results are joined with
// one batched enrichment call (duration and view count) and enrichment records are cached through
// a [cache.Cache]. Transient upstream failures (transport errors and 5xx) are retried by a failsafe
// retry policy; quota and key errors are returned immediately.
//
// Suggestions come from the public autocomplete endpoint, which answers with a JSONP wrapper.
// Lookups never fail: every error yields an empty list.
//
// # Stream Resolution
//
// [Resolver] runs an ordered strategy chain. The extraction strategy asks a [PlayerExtractor] for the
// player response and reduces its formats with [SelectFormats]. When extraction fails the degraded
// strategy builds a metadata-only bundle from the catalog's enrichment record. Only when every
// strategy fails does Resolve return an error, tagged [shared.KindResolutionFailed] and wrapping
// the extraction failure so callers can map it by [shared.Cause].
//
// # Identity
//
// [GoogleVerifier] verifies Google ID tokens with OpenID Connect discovery. [SessionIssuer] mints
// the HS256 session tokens handed back after sign-in, and [AuthService] ties both to a
// [models.UserStore].
//
// # Error Handling
//
// Every error leaving this package is a [shared.Error] whose kind was set where it was raised:
//   - [shared.KindValidation] : blank query, malformed video id, missing ID token
//   - [shared.KindAuth] : rejected ID token or session token
//   - [shared.KindUnauthorizedKey], [shared.KindQuota] : Data API key and quota failures
//   - [shared.KindUpstreamUnavailable] : transport failures, timeouts and 5xx responses
//   - [shared.KindNotFound] : unknown or unplayable video
package services
