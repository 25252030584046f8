// package formatter renders search results, stream bundles and watch history for the terminal and exports history to CSV or Markdown
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/ytstream/internal/models"
)

// ExportFormat selects the file layout written by [WriteHistoryExport].
type ExportFormat string

const (
	FormatCSV      ExportFormat = "csv"
	FormatMarkdown ExportFormat = "md"
)

// ParseExportFormat accepts "csv", "md" or "markdown".
func ParseExportFormat(s string) (ExportFormat, error) {
	switch strings.ToLower(s) {
	case "csv":
		return FormatCSV, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("unsupported export format %q (want csv or md)", s)
	}
}

// RenderSearch writes a numbered list of search hits.
func RenderSearch(w io.Writer, result *models.SearchResult) error {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "%s\n\n", styles.Title(fmt.Sprintf("Results: %d of %d", len(result.Items), result.TotalResults)))
	for i, item := range result.Items {
		fmt.Fprintf(&buf, "%d. %s\n", i+1, styles.OK(item.Title))
		fmt.Fprintf(&buf, "   %s · %s · %s views\n", item.ChannelTitle, item.Duration, item.ViewCount)
		fmt.Fprintf(&buf, "   %s\n", styles.Help(item.ID))
	}

	if token, ok := result.NextPageToken.Get(); ok {
		fmt.Fprintf(&buf, "\n%s\n", styles.Help("Next page: --page "+token))
	}

	_, err := w.Write(buf.Bytes())
	return err
}

// RenderBundle writes a resolved video and its formats, best first.
func RenderBundle(w io.Writer, id string, bundle *models.VideoStreamBundle) error {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "%s\n", styles.Title(bundle.Title))
	fmt.Fprintf(&buf, "ID: %s\n", id)
	fmt.Fprintf(&buf, "Duration: %s\n", bundle.Duration)
	fmt.Fprintf(&buf, "Thumbnail: %s\n\n", bundle.Thumbnail)

	if bundle.Degraded() {
		fmt.Fprintf(&buf, "%s\n", styles.Warn("⚠ "+bundle.Description))
		_, err := w.Write(buf.Bytes())
		return err
	}

	fmt.Fprintf(&buf, "Formats: %d\n", len(bundle.Formats))
	for i, f := range bundle.Formats {
		fmt.Fprintf(&buf, "%d. %s %s%s\n", i+1, styles.OK(f.Quality), f.MimeType, formatExtras(f))
		fmt.Fprintf(&buf, "   %s\n", styles.Help(f.URL))
	}

	_, err := w.Write(buf.Bytes())
	return err
}

func formatExtras(f models.StreamFormat) string {
	var parts []string
	if fps, ok := f.FPS.Get(); ok {
		parts = append(parts, fmt.Sprintf("%dfps", fps))
	}
	if bitrate, ok := f.Bitrate.Get(); ok {
		parts = append(parts, fmt.Sprintf("%dkbps", bitrate/1000))
	}
	switch {
	case f.HasVideo && f.HasAudio:
		parts = append(parts, "video+audio")
	case f.HasVideo:
		parts = append(parts, "video only")
	case f.HasAudio:
		parts = append(parts, "audio only")
	}
	if len(parts) == 0 {
		return ""
	}
	return " (" + strings.Join(parts, ", ") + ")"
}

// RenderHistory writes watch history entries, newest first as given.
func RenderHistory(w io.Writer, entries []models.WatchHistoryEntry) error {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "%s\n\n", styles.Title(fmt.Sprintf("Watch history: %d", len(entries))))
	if len(entries) == 0 {
		fmt.Fprintf(&buf, "%s\n", styles.Help("Nothing watched yet."))
	}
	for i, e := range entries {
		fmt.Fprintf(&buf, "%d. %s - %s [%s]\n", i+1, e.ChannelTitle, styles.OK(e.Title), e.Duration)
		fmt.Fprintf(&buf, "   %s · watched %s\n", styles.Help(e.VideoID), e.WatchedAt.Format(time.DateTime))
	}

	_, err := w.Write(buf.Bytes())
	return err
}

// ExportHistoryCSV converts history to CSV with columns: Video ID, Title, Channel, Duration, Watched At, Watched Seconds
func ExportHistoryCSV(entries []models.WatchHistoryEntry) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Video ID", "Title", "Channel", "Duration", "Watched At", "Watched Seconds"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, e := range entries {
		record := []string{
			e.VideoID,
			e.Title,
			e.ChannelTitle,
			e.Duration,
			e.WatchedAt.UTC().Format(time.RFC3339),
			strconv.Itoa(e.WatchedDuration),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportHistoryMarkdown converts history to a Markdown list linking each video.
func ExportHistoryMarkdown(entries []models.WatchHistoryEntry) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("# Watch History\n\n")
	buf.WriteString(fmt.Sprintf("**Videos**: %d\n\n", len(entries)))

	for i, e := range entries {
		buf.WriteString(fmt.Sprintf("%d. [%s](https://www.youtube.com/watch?v=%s) - %s [%s] (%s)\n",
			i+1, e.Title, e.VideoID, e.ChannelTitle, e.Duration, e.WatchedAt.UTC().Format(time.DateOnly)))
	}

	return buf.Bytes(), nil
}

// WriteHistoryExport writes history to path in the given format.
//
// Defaults to history.{format} as the filename.
func WriteHistoryExport(entries []models.WatchHistoryEntry, format ExportFormat, path string) (string, error) {
	if path == "" {
		path = "history." + string(format)
	}

	var (
		data []byte
		err  error
	)
	switch format {
	case FormatCSV:
		data, err = ExportHistoryCSV(entries)
	case FormatMarkdown:
		data, err = ExportHistoryMarkdown(entries)
	default:
		return "", fmt.Errorf("unsupported export format %q", format)
	}
	if err != nil {
		return "", fmt.Errorf("failed to generate %s: %w", format, err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}

	return path, nil
}
