package formatter

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/swipearr/internal/models"
	"github.com/desertthunder/swipearr/internal/shared"
	th "github.com/desertthunder/swipearr/internal/testing"
)

func intPtr(i int) *int { return &i }

func sampleHistory() []models.SwipeAction {
	ts := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	return []models.SwipeAction{
		{ID: "a1", MediaID: 1, PlexID: "1", Title: "Heat", Direction: models.SwipeRight, CollectionID: intPtr(7), Timestamp: ts},
		{ID: "a2", MediaID: 2, PlexID: "2", Title: "Alien | Director's Cut", Direction: models.SwipeDown, Timestamp: ts.Add(time.Minute)},
		{ID: "a3", MediaID: 3, PlexID: "3", Title: "Cats", Direction: models.SwipeLeft, Timestamp: ts.Add(2 * time.Minute)},
		{ID: "a4", MediaID: 4, PlexID: "4", Title: "Dune", Direction: models.SwipeRight, Timestamp: ts.Add(3 * time.Minute)},
	}
}

func sampleQueue() []models.MediaItem {
	return []models.MediaItem{
		{PlexID: "10", Title: "Heat", Year: 1995, Type: models.MediaMovie, Runtime: intPtr(170),
			AddedAt: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
			Collections: []models.Collection{{ID: 1, Name: "Favorites"}, {ID: 2, Name: "Crime"}}},
		{PlexID: "11", Title: "Severance", Year: 2022, Type: models.MediaTV, Seasons: intPtr(2),
			AddedAt: time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)},
	}
}

func TestParseFormat(t *testing.T) {
	tests := map[string]Format{
		"csv": FormatCSV, "CSV": FormatCSV, "md": FormatMarkdown, "markdown": FormatMarkdown,
		"": FormatText, "txt": FormatText, "json": FormatJSON,
	}
	for in, want := range tests {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %q, %v; want %q", in, got, err, want)
		}
	}

	if _, err := ParseFormat("xml"); !errors.Is(err, shared.ErrInvalidFlag) {
		t.Errorf("expected ErrInvalidFlag, got %v", err)
	}
}

func TestHistoryExporters(t *testing.T) {
	names := map[int]string{7: "Leaving Soon"}

	t.Run("HistoryToCSV", func(t *testing.T) {
		data, err := HistoryToCSV(sampleHistory())
		if err != nil {
			t.Fatalf("HistoryToCSV failed: %v", err)
		}

		output := string(data)
		if !strings.HasPrefix(output, "ID,Timestamp,Action,Direction,MediaID,PlexID,Title,CollectionID\n") {
			t.Errorf("CSV missing headers, got: %s", output)
		}
		if !strings.Contains(output, "a1,2025-03-01T12:00:00Z,add,right,1,1,Heat,7") {
			t.Errorf("CSV missing add row, got: %s", output)
		}
		if !strings.Contains(output, "a4,2025-03-01T12:03:00Z,add,right,4,4,Dune,\n") {
			t.Errorf("CSV browse-only row should have empty collection, got: %s", output)
		}
	})

	t.Run("HistoryToMarkdown", func(t *testing.T) {
		data, err := HistoryToMarkdown(sampleHistory(), names)
		if err != nil {
			t.Fatalf("HistoryToMarkdown failed: %v", err)
		}

		output := string(data)
		if !strings.Contains(output, "# Swipe History") {
			t.Errorf("Markdown missing title")
		}
		if !strings.Contains(output, "**Added**: 1 | **Excluded**: 1 | **Skipped**: 2") {
			t.Errorf("Markdown missing counts, got: %s", output)
		}
		if !strings.Contains(output, `Alien \| Director's Cut`) {
			t.Errorf("Markdown should escape pipes, got: %s", output)
		}
		if !strings.Contains(output, "| Leaving Soon |") {
			t.Errorf("Markdown should resolve collection names, got: %s", output)
		}
		if strings.Index(output, "Dune") > strings.Index(output, "Heat") {
			t.Errorf("Markdown should list newest first")
		}
	})

	t.Run("HistoryToMarkdown Empty", func(t *testing.T) {
		data, _ := HistoryToMarkdown(nil, nil)
		if !strings.Contains(string(data), "_No actions recorded._") {
			t.Errorf("expected empty marker, got: %s", data)
		}
	})

	t.Run("HistoryToText", func(t *testing.T) {
		data, err := HistoryToText(sampleHistory(), nil)
		if err != nil {
			t.Fatalf("HistoryToText failed: %v", err)
		}

		output := string(data)
		if !strings.Contains(output, "Actions: 4 (added 1, excluded 1, skipped 2)") {
			t.Errorf("Text missing summary, got: %s", output)
		}
		if !strings.Contains(output, "Heat → #7") {
			t.Errorf("Text should fall back to collection id, got: %s", output)
		}
	})

	t.Run("ExportHistory JSON", func(t *testing.T) {
		data, err := ExportHistory(FormatJSON, nil, nil)
		if err != nil {
			t.Fatalf("ExportHistory failed: %v", err)
		}
		if strings.TrimSpace(string(data)) != "[]" {
			t.Errorf("expected empty JSON array, got %s", data)
		}
	})
}

func TestQueueExporters(t *testing.T) {
	t.Run("QueueToCSV", func(t *testing.T) {
		data, err := QueueToCSV(sampleQueue(), 5)
		if err != nil {
			t.Fatalf("QueueToCSV failed: %v", err)
		}

		output := string(data)
		if !strings.Contains(output, "6,10,Heat,1995,movie,2020-01-01T00:00:00Z,,2h 50m,Favorites; Crime") {
			t.Errorf("CSV missing movie row, got: %s", output)
		}
		if !strings.Contains(output, "7,11,Severance,2022,tv,2022-01-01T00:00:00Z,,2 seasons,") {
			t.Errorf("CSV missing show row, got: %s", output)
		}
	})

	t.Run("QueueToText", func(t *testing.T) {
		data, err := QueueToText(sampleQueue(), 0)
		if err != nil {
			t.Fatalf("QueueToText failed: %v", err)
		}

		want := "1. Heat (1995) [movie] 2h 50m\n2. Severance (2022) [tv] 2 seasons\n"
		if string(data) != want {
			t.Errorf("expected %q, got %q", want, data)
		}
	})

	t.Run("FormatRuntime", func(t *testing.T) {
		for in, want := range map[int]string{0: "", 45: "45m", 60: "1h 0m", 105: "1h 45m"} {
			if got := FormatRuntime(in); got != want {
				t.Errorf("FormatRuntime(%d) = %q, want %q", in, got, want)
			}
		}
	})
}

func TestWriteExport(t *testing.T) {
	t.Run("To Writer", func(t *testing.T) {
		var buf bytes.Buffer
		path, err := WriteExport(&buf, []byte("hello"), "")
		if err != nil {
			t.Fatalf("WriteExport failed: %v", err)
		}
		if path != "" || buf.String() != "hello" {
			t.Errorf("unexpected result %q, %q", path, buf.String())
		}
	})

	t.Run("To File", func(t *testing.T) {
		target := filepath.Join(t.TempDir(), "nested", "history.csv")
		path, err := WriteExport(nil, []byte("a,b\n"), target)
		if err != nil {
			t.Fatalf("WriteExport failed: %v", err)
		}

		th.AssertFileExists(t, path)
		if got := th.MustReadFile(t, path); got != "a,b\n" {
			t.Errorf("unexpected file content %q", got)
		}
	})

	t.Run("Writer Failure", func(t *testing.T) {
		if _, err := WriteExport(&th.FWriter{}, []byte("x"), ""); err == nil {
			t.Error("expected write error")
		}
	})
}

func TestDownloadPoster(t *testing.T) {
	t.Run("Sends API Key", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("X-Api-Key") != "secret" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			w.Write([]byte("jpeg"))
		}))
		defer server.Close()

		data, err := DownloadPoster(context.Background(), nil, server.URL+"/api/plex/thumb?url=x", "secret")
		if err != nil {
			t.Fatalf("DownloadPoster failed: %v", err)
		}
		if string(data) != "jpeg" {
			t.Errorf("unexpected data %q", data)
		}
	})

	t.Run("Empty URL", func(t *testing.T) {
		if _, err := DownloadPoster(context.Background(), nil, "", ""); err == nil {
			t.Error("expected error for empty URL")
		}
	})

	t.Run("Bad Status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		if _, err := DownloadPoster(context.Background(), nil, server.URL, ""); err == nil || !strings.Contains(err.Error(), "404") {
			t.Errorf("expected status error, got %v", err)
		}
	})

	t.Run("Body Read Failure", func(t *testing.T) {
		client := &http.Client{Transport: th.NewMockRoundTripper(&http.Response{
			StatusCode: http.StatusOK,
			Body:       &th.FCloser{},
			Header:     make(http.Header),
		}, nil)}

		if _, err := DownloadPoster(context.Background(), client, "http://example.com/p", ""); err == nil {
			t.Error("expected read error")
		}
	})
}
