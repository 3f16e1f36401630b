package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/swipearr/internal/models"
	"github.com/desertthunder/swipearr/internal/session"
	"github.com/desertthunder/swipearr/internal/shared"
	tu "github.com/desertthunder/swipearr/internal/testing"
	"github.com/urfave/cli/v3"
)

func maintainerrHandler(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("X-Api-Key") != "secret" {
		tu.WriteJSON(w, http.StatusUnauthorized, map[string]any{"message": "unauthorized"})
		return
	}

	switch {
	case r.URL.Path == "/api/app/status":
		tu.WriteJSON(w, http.StatusOK, map[string]any{"version": "2.0.0"})
	case r.URL.Path == "/api/plex/libraries":
		tu.WriteJSON(w, http.StatusOK, []map[string]any{
			{"key": "1", "title": "Movies", "type": "movie"},
			{"key": "2", "title": "TV Shows", "type": "show"},
		})
	case strings.HasPrefix(r.URL.Path, "/api/plex/library/1/content/"):
		tu.WriteJSON(w, http.StatusOK, map[string]any{
			"totalSize": 3,
			"items": []map[string]any{
				{"ratingKey": "101", "title": "Alpha", "year": 1999, "type": "movie", "addedAt": 1500000000, "librarySectionID": 1, "thumb": "/library/metadata/101/thumb"},
				{"ratingKey": "102", "title": "Beta", "year": 2004, "type": "movie", "addedAt": 1600000000, "librarySectionID": 1},
				{"ratingKey": "103", "title": "Gamma", "year": 2010, "type": "movie", "addedAt": 1700000000, "librarySectionID": 1},
			},
		})
	case r.URL.Path == "/api/collections":
		tu.WriteJSON(w, http.StatusOK, []map[string]any{
			{"id": 7, "title": "Leaving Soon", "isActive": true, "librarySectionId": 1, "media": []any{}},
			{"id": 8, "title": "Old Shows", "isActive": true, "librarySectionId": 2, "media": []any{}},
		})
	case r.URL.Path == "/api/plex/thumb":
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write([]byte("poster-bytes"))
	default:
		tu.WriteJSON(w, http.StatusOK, map[string]any{})
	}
}

// newTestRunner returns a runner with a temporary state database and its output buffer.
func newTestRunner(t *testing.T) (*Runner, *bytes.Buffer) {
	t.Helper()
	config := shared.DefaultConfig()
	config.Database.Path = filepath.Join(t.TempDir(), "state.db")

	output := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{
		Config: config,
		Logger: shared.NewLogger(&bytes.Buffer{}),
		Output: output,
	})
	t.Cleanup(func() { runner.Close() })
	return runner, output
}

func run(r *Runner, args ...string) error {
	app := &cli.Command{Name: "swipearr", Commands: r.register()}
	return app.Run(context.Background(), append([]string{"swipearr"}, args...))
}

func mustRun(t *testing.T, r *Runner, args ...string) {
	t.Helper()
	if err := run(r, args...); err != nil {
		t.Fatalf("%v: expected no error, got %v", args, err)
	}
}

func postedPaths(rec *tu.RequestRecorder) []string {
	var paths []string
	for _, req := range rec.Requests() {
		if req.Method == http.MethodPost {
			paths = append(paths, req.Path)
		}
	}
	return paths
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			httpClient := &http.Client{}

			runner := NewRunner(RunnerOpts{
				Config:     config,
				ConfigPath: "/test/path/config.toml",
				Logger:     logger,
				Output:     output,
				HTTPClient: httpClient,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.configPath != "/test/path/config.toml" {
				t.Errorf("expected configPath to be set, got %s", runner.configPath)
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
		})

		t.Run("with nil options uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
			if runner.httpClient == nil || runner.httpClient.Timeout != runner.config.Client.Timeout() {
				t.Error("expected httpClient with the configured timeout")
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, false); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			expected := `{"key":"value"}` + "\n"
			if output.String() != expected {
				t.Errorf("expected %q, got %q", expected, output.String())
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			err := runner.writeJSON(make(chan int), false)
			if err == nil || !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("hello %s", "world"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if output.String() != "hello world" {
				t.Errorf("expected 'hello world', got %q", output.String())
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writePlain("test")
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		seen := map[string]bool{}
		for i, cmd := range commands {
			if cmd == nil {
				t.Fatalf("command at index %d is nil", i)
			}
			seen[cmd.Name] = true
		}
		for _, name := range []string{"connect", "libraries", "collections", "swipe", "history", "tui"} {
			if !seen[name] {
				t.Errorf("expected %s command to be registered", name)
			}
		}
	})
}

func TestResolveConnection(t *testing.T) {
	resolve := func(r *Runner, args ...string) (models.Config, error) {
		var cfg models.Config
		var err error
		cmd := connectCommand(r)
		cmd.Action = func(ctx context.Context, c *cli.Command) error {
			cfg, err = r.resolveConnection(c)
			return nil
		}
		if runErr := cmd.Run(context.Background(), append([]string{"connect"}, args...)); runErr != nil {
			t.Fatalf("failed to run: %v", runErr)
		}
		return cfg, err
	}

	t.Run("Defaults From Config", func(t *testing.T) {
		r, _ := newTestRunner(t)
		r.config.Maintainerr.APIKey = "from-config"

		cfg, err := resolve(r)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if cfg.BaseURL != "http://localhost:6246" || cfg.APIKey != "from-config" {
			t.Errorf("unexpected config %+v", cfg)
		}
	})

	t.Run("Flags Override", func(t *testing.T) {
		r, _ := newTestRunner(t)

		cfg, err := resolve(r, "--url", "http://nas:6246/", "--api-key", " k ")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if cfg.BaseURL != "http://nas:6246" || cfg.APIKey != "k" {
			t.Errorf("unexpected config %+v", cfg)
		}
	})

	t.Run("Curl File", func(t *testing.T) {
		r, _ := newTestRunner(t)
		path := filepath.Join(t.TempDir(), "request.sh")
		curl := "curl 'http://192.168.1.10:6246/api/collections' \\\n  -H 'accept: application/json' \\\n  -H 'X-Api-Key: abc123'\n"
		if err := os.WriteFile(path, []byte(curl), 0644); err != nil {
			t.Fatalf("failed to write curl file: %v", err)
		}

		cfg, err := resolve(r, "--curl-file", path)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if cfg.BaseURL != "http://192.168.1.10:6246" || cfg.APIKey != "abc123" {
			t.Errorf("unexpected config %+v", cfg)
		}
	})

	t.Run("Both Curl Sources", func(t *testing.T) {
		r, _ := newTestRunner(t)

		_, err := resolve(r, "--curl", "curl http://x", "--curl-file", "x.sh")
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}

func TestCommands(t *testing.T) {
	t.Run("Setup", func(t *testing.T) {
		wd := tu.MustGetwd(t)
		tmp := t.TempDir()
		tu.MustChdir(t, tmp)
		defer tu.MustChdir(t, wd)

		r, output := newTestRunner(t)
		mustRun(t, r, "setup", "--config", "config.toml")

		tu.AssertFileExists(t, filepath.Join(tmp, "config.toml"))
		tu.AssertFileExists(t, filepath.Join(tmp, "swipearr.db"))
		if !strings.Contains(output.String(), "Database: ./swipearr.db") {
			t.Errorf("expected database path in output, got %q", output.String())
		}

		output.Reset()
		mustRun(t, r, "setup", "--config", "config.toml")
		if !strings.Contains(output.String(), "Config: config.toml") {
			t.Errorf("expected existing config to be reused, got %q", output.String())
		}
	})

	t.Run("Requires Connection", func(t *testing.T) {
		r, _ := newTestRunner(t)

		if err := run(r, "libraries"); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
		if err := run(r, "api", "get", "/api/app/status"); !errors.Is(err, shared.ErrNotConfigured) {
			t.Errorf("expected ErrNotConfigured, got %v", err)
		}
	})

	t.Run("Connect Rejects Bad Key", func(t *testing.T) {
		rec := tu.NewRequestRecorder(t, maintainerrHandler)
		defer rec.Close()
		r, _ := newTestRunner(t)

		err := run(r, "connect", "--url", rec.URL, "--api-key", "wrong")
		if err == nil {
			t.Fatal("expected connection error")
		}

		s, _ := r.Session()
		if s.Connected() {
			t.Error("expected session to stay disconnected")
		}
	})

	t.Run("Full Flow", func(t *testing.T) {
		rec := tu.NewRequestRecorder(t, maintainerrHandler)
		defer rec.Close()
		r, output := newTestRunner(t)

		mustRun(t, r, "connect", "--url", rec.URL, "--api-key", "secret")
		if !strings.Contains(output.String(), "Libraries: 2") {
			t.Errorf("expected library count, got %q", output.String())
		}

		mustRun(t, r, "libraries", "select", "1")
		if !strings.Contains(output.String(), "Selected Movies: 3 items") {
			t.Errorf("expected selection summary, got %q", output.String())
		}

		if err := run(r, "collections", "select", "8"); !errors.Is(err, session.ErrLibraryMismatch) {
			t.Errorf("expected ErrLibraryMismatch for another library's collection, got %v", err)
		}
		mustRun(t, r, "collections", "select", "7")

		output.Reset()
		mustRun(t, r, "swipe", "right")
		if !strings.Contains(output.String(), "Added Alpha to Leaving Soon (7)") {
			t.Errorf("expected add message, got %q", output.String())
		}
		if !strings.Contains(output.String(), "Next: Beta (2004)") {
			t.Errorf("expected next item, got %q", output.String())
		}

		mustRun(t, r, "swipe", "exclude")
		mustRun(t, r, "swipe", "skip")

		output.Reset()
		mustRun(t, r, "swipe", "left")
		if !strings.Contains(output.String(), "All done") {
			t.Errorf("expected all done, got %q", output.String())
		}

		posts := postedPaths(rec)
		if len(posts) != 2 || posts[0] != "/api/collections/add" || posts[1] != "/api/rules/exclusion" {
			t.Errorf("expected add then exclusion, got %v", posts)
		}

		output.Reset()
		mustRun(t, r, "history", "--format", "csv")
		records, err := csv.NewReader(strings.NewReader(output.String())).ReadAll()
		if err != nil {
			t.Fatalf("failed to parse CSV: %v", err)
		}
		if len(records) != 4 {
			t.Errorf("expected header plus 3 actions, got %d rows", len(records))
		}

		output.Reset()
		mustRun(t, r, "status", "--json")
		var snap session.Snapshot
		if err := json.Unmarshal(output.Bytes(), &snap); err != nil {
			t.Fatalf("failed to decode status: %v", err)
		}
		if snap.Step != models.StepSwipe || snap.Index != 3 || snap.Remaining != 0 {
			t.Errorf("unexpected snapshot %+v", snap)
		}

		mustRun(t, r, "progress", "reset")
		output.Reset()
		mustRun(t, r, "queue", "--limit", "2")
		if !strings.Contains(output.String(), "1. Alpha (1999)") || strings.Contains(output.String(), "Gamma") {
			t.Errorf("expected the first two items, got %q", output.String())
		}
	})

	t.Run("State Survives Restart", func(t *testing.T) {
		rec := tu.NewRequestRecorder(t, maintainerrHandler)
		defer rec.Close()
		r, _ := newTestRunner(t)

		mustRun(t, r, "connect", "--url", rec.URL, "--api-key", "secret")
		mustRun(t, r, "libraries", "select", "1")
		mustRun(t, r, "collections", "none")
		mustRun(t, r, "swipe", "right")
		if err := r.Close(); err != nil {
			t.Fatalf("failed to close: %v", err)
		}

		s, err := r.Session()
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if err := s.Resume(context.Background()); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if s.Step() != models.StepSwipe || s.Index() != 1 {
			t.Errorf("expected swipe step at index 1, got %q at %d", s.Step(), s.Index())
		}
		if c := s.CurrentMedia(); c == nil || c.Title != "Beta" {
			t.Errorf("expected Beta to be current, got %+v", c)
		}
	})

	t.Run("Filters", func(t *testing.T) {
		r, output := newTestRunner(t)

		mustRun(t, r, "filters", "--type", "tv", "--sort", "uncollected")
		if !strings.Contains(output.String(), "Media type: tv") {
			t.Errorf("expected updated filters, got %q", output.String())
		}
		if err := run(r, "filters", "--sort", "newest"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("Poster Download", func(t *testing.T) {
		rec := tu.NewRequestRecorder(t, maintainerrHandler)
		defer rec.Close()
		r, _ := newTestRunner(t)

		mustRun(t, r, "connect", "--url", rec.URL, "--api-key", "secret")
		mustRun(t, r, "libraries", "select", "1")
		mustRun(t, r, "collections", "none")

		path := filepath.Join(t.TempDir(), "posters", "alpha.jpg")
		mustRun(t, r, "poster", "--output", path)

		tu.AssertDirExists(t, filepath.Dir(path))
		if got := tu.MustReadFile(t, path); got != "poster-bytes" {
			t.Errorf("expected poster bytes, got %q", got)
		}
	})

	t.Run("API Get", func(t *testing.T) {
		rec := tu.NewRequestRecorder(t, maintainerrHandler)
		defer rec.Close()
		r, output := newTestRunner(t)

		mustRun(t, r, "connect", "--url", rec.URL, "--api-key", "secret")
		output.Reset()
		mustRun(t, r, "api", "get", "--json", "api/app/status")

		if strings.TrimSpace(output.String()) != `{"version":"2.0.0"}` {
			t.Errorf("unexpected output %q", output.String())
		}
	})

	t.Run("Disconnect", func(t *testing.T) {
		rec := tu.NewRequestRecorder(t, maintainerrHandler)
		defer rec.Close()
		r, _ := newTestRunner(t)

		mustRun(t, r, "connect", "--url", rec.URL, "--api-key", "secret")
		mustRun(t, r, "disconnect")

		s, _ := r.Session()
		if s.Connected() || s.Step() != models.StepSetup {
			t.Error("expected setup step after disconnect")
		}
	})
}
