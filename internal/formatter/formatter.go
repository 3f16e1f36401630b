// package formatter exports swipe history and the review queue to various formats (CSV, Markdown, plain text, JSON)
package formatter

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/swipearr/internal/models"
	"github.com/desertthunder/swipearr/internal/shared"
)

// Format is an export format.
type Format string

const (
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "md"
	FormatText     Format = "text"
	FormatJSON     Format = "json"
)

// ParseFormat accepts a format name or a common alias.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csv":
		return FormatCSV, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	case "", "text", "txt":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, s)
}

const timeLayout = "2006-01-02 15:04"

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format(timeLayout)
}

// FormatRuntime renders minutes as "1h 45m" or "45m".
func FormatRuntime(minutes int) string {
	if minutes <= 0 {
		return ""
	}
	if minutes < 60 {
		return fmt.Sprintf("%dm", minutes)
	}
	return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
}

// MediaDetail renders the runtime for movies and the season count for shows.
func MediaDetail(item models.MediaItem) string {
	switch {
	case item.Type == models.MediaTV && item.Seasons != nil:
		if *item.Seasons == 1 {
			return "1 season"
		}
		return fmt.Sprintf("%d seasons", *item.Seasons)
	case item.Runtime != nil:
		return FormatRuntime(*item.Runtime)
	}
	return ""
}

func collectionLabel(id *int, names map[int]string) string {
	if id == nil {
		return ""
	}
	if name, ok := names[*id]; ok {
		return name
	}
	return "#" + strconv.Itoa(*id)
}

// HistoryToCSV converts swipe actions to CSV with columns: ID, Timestamp, Action, Direction, MediaID, PlexID, Title, CollectionID
func HistoryToCSV(actions []models.SwipeAction) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Timestamp", "Action", "Direction", "MediaID", "PlexID", "Title", "CollectionID"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, a := range actions {
		collectionID := ""
		if a.CollectionID != nil {
			collectionID = strconv.Itoa(*a.CollectionID)
		}
		record := []string{
			a.ID,
			a.Timestamp.UTC().Format(time.RFC3339),
			a.Direction.Action(),
			string(a.Direction),
			strconv.Itoa(a.MediaID),
			a.PlexID,
			a.Title,
			collectionID,
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

// historyCounts tallies actions by verb.
func historyCounts(actions []models.SwipeAction) (skipped, added, excluded int) {
	for _, a := range actions {
		switch a.Direction {
		case models.SwipeLeft:
			skipped++
		case models.SwipeRight:
			if a.CollectionID != nil {
				added++
			} else {
				skipped++
			}
		case models.SwipeDown:
			excluded++
		}
	}
	return
}

// HistoryToMarkdown converts swipe actions to Markdown, newest first.
//
// names maps collection ids to display names; unknown ids render as #id.
func HistoryToMarkdown(actions []models.SwipeAction, names map[int]string) ([]byte, error) {
	var buf bytes.Buffer

	skipped, added, excluded := historyCounts(actions)

	buf.WriteString("# Swipe History\n\n")
	buf.WriteString(fmt.Sprintf("**Actions**: %d\n", len(actions)))
	buf.WriteString(fmt.Sprintf("**Added**: %d | **Excluded**: %d | **Skipped**: %d\n\n", added, excluded, skipped))

	if len(actions) == 0 {
		buf.WriteString("_No actions recorded._\n")
		return buf.Bytes(), nil
	}

	buf.WriteString("| When | Action | Title | Collection |\n")
	buf.WriteString("|---|---|---|---|\n")
	for i := len(actions) - 1; i >= 0; i-- {
		a := actions[i]
		title := strings.ReplaceAll(a.Title, "|", `\|`)
		if title == "" {
			title = a.PlexID
		}
		buf.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n",
			formatTime(a.Timestamp), a.Direction.Action(), title, collectionLabel(a.CollectionID, names)))
	}

	return buf.Bytes(), nil
}

// HistoryToText converts swipe actions to plain text, oldest first.
func HistoryToText(actions []models.SwipeAction, names map[int]string) ([]byte, error) {
	var buf bytes.Buffer

	skipped, added, excluded := historyCounts(actions)
	buf.WriteString(fmt.Sprintf("Actions: %d (added %d, excluded %d, skipped %d)\n\n", len(actions), added, excluded, skipped))

	for i, a := range actions {
		line := fmt.Sprintf("%d. [%s] %-7s %s", i+1, formatTime(a.Timestamp), a.Direction.Action(), a.Title)
		if label := collectionLabel(a.CollectionID, names); label != "" {
			line += " → " + label
		}
		buf.WriteString(line + "\n")
	}

	return buf.Bytes(), nil
}

// ExportHistory renders actions in the given format.
func ExportHistory(format Format, actions []models.SwipeAction, names map[int]string) ([]byte, error) {
	switch format {
	case FormatCSV:
		return HistoryToCSV(actions)
	case FormatMarkdown:
		return HistoryToMarkdown(actions, names)
	case FormatJSON:
		if actions == nil {
			actions = []models.SwipeAction{}
		}
		return shared.MarshalJSON(actions, true)
	default:
		return HistoryToText(actions, names)
	}
}

// QueueToCSV converts media items to CSV with columns: Position, PlexID, Title, Year, Type, AddedAt, LastWatchedAt, Detail, Collections
func QueueToCSV(items []models.MediaItem, start int) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Position", "PlexID", "Title", "Year", "Type", "AddedAt", "LastWatchedAt", "Detail", "Collections"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for i, item := range items {
		lastWatched := ""
		if item.LastWatchedAt != nil {
			lastWatched = item.LastWatchedAt.UTC().Format(time.RFC3339)
		}
		record := []string{
			strconv.Itoa(start + i + 1),
			item.PlexID,
			item.Title,
			strconv.Itoa(item.Year),
			string(item.Type),
			item.AddedAt.UTC().Format(time.RFC3339),
			lastWatched,
			MediaDetail(item),
			collectionNames(item),
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

func collectionNames(item models.MediaItem) string {
	names := make([]string, 0, len(item.Collections))
	for _, c := range item.Collections {
		names = append(names, c.Name)
	}
	return strings.Join(names, "; ")
}

// QueueToText lists media items with their position, starting after start.
func QueueToText(items []models.MediaItem, start int) ([]byte, error) {
	var buf bytes.Buffer

	for i, item := range items {
		line := fmt.Sprintf("%d. %s", start+i+1, item.Title)
		if item.Year > 0 {
			line += fmt.Sprintf(" (%d)", item.Year)
		}
		line += " [" + string(item.Type) + "]"
		if detail := MediaDetail(item); detail != "" {
			line += " " + detail
		}
		buf.WriteString(line + "\n")
	}

	return buf.Bytes(), nil
}

// WriteExport writes data to path, creating parent directories. An empty path writes to w.
func WriteExport(w io.Writer, data []byte, path string) (string, error) {
	if path == "" {
		if _, err := w.Write(data); err != nil {
			return "", fmt.Errorf("failed to write export: %w", err)
		}
		return "", nil
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}
	return path, nil
}

// DownloadPoster fetches a poster through the Maintainerr thumbnail proxy and returns the raw bytes.
func DownloadPoster(ctx context.Context, client *http.Client, url, apiKey string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("empty URL provided")
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if apiKey != "" {
		req.Header.Set("X-Api-Key", apiKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download poster: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download poster: status %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read poster data: %w", err)
	}

	return imageData, nil
}
