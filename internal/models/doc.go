// Package models defines domain entities and persistence interfaces for the ytstream proxy.
//
// The package contains two categories of types:
//
// 1. Ephemeral catalog values, built per request and never persisted:
//   - [VideoSummary] : a search hit joined with its duration and view count
//   - [SearchResult] : one page of search hits
//   - [VideoDetails] : enrichment data (duration, view count) for one identifier
//   - [PlayerInfo], [FormatCandidate] : raw extraction output fed to the format selector
//   - [StreamFormat], [VideoStreamBundle] : the ranked, playable result of a resolution
//
// 2. Persistent entities:
//   - [User] : a Google-backed account owning its [WatchHistoryEntry] list
//
// [UserStore] is the document-store capability the history and auth services depend on.
package models
