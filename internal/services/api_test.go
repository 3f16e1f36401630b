package services

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	tu "github.com/desertthunder/swipearr/internal/testing"
)

func TestAPIService(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		t.Run("With Empty BaseURL", func(t *testing.T) {
			srv := NewAPIService("", "", nil)

			if srv.baseURL != defaultBaseURL {
				t.Errorf("expected default baseURL %s, got %s", defaultBaseURL, srv.baseURL)
			}
			if srv.httpClient != http.DefaultClient {
				t.Error("expected http.DefaultClient to be used")
			}
		})

		t.Run("Trims Trailing Slash", func(t *testing.T) {
			srv := NewAPIService("http://example.com/", "key", nil)

			if srv.baseURL != "http://example.com" {
				t.Errorf("expected trimmed baseURL, got %s", srv.baseURL)
			}
		})
	})

	t.Run("Get", func(t *testing.T) {
		t.Run("Sends API Key And Detects JSON", func(t *testing.T) {
			rec := tu.NewRequestRecorder(t, func(w http.ResponseWriter, r *http.Request) {
				tu.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
			})
			defer rec.Close()

			srv := NewAPIService(rec.URL, "secret", nil)
			resp, err := srv.Get(context.Background(), "api/app/status")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if resp.StatusCode != http.StatusOK {
				t.Errorf("expected status 200, got %d", resp.StatusCode)
			}
			if !resp.IsJSON || resp.JSONData == nil {
				t.Error("expected JSON response to be decoded")
			}

			reqs := rec.Requests()
			if len(reqs) != 1 {
				t.Fatalf("expected 1 request, got %d", len(reqs))
			}
			if reqs[0].Path != "/api/app/status" {
				t.Errorf("expected leading slash to be added, got %s", reqs[0].Path)
			}
			if reqs[0].APIKey != "secret" {
				t.Errorf("expected X-Api-Key 'secret', got %q", reqs[0].APIKey)
			}
		})

		t.Run("Non-JSON Response", func(t *testing.T) {
			rec := tu.NewRequestRecorder(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusTeapot)
				w.Write([]byte("plain text"))
			})
			defer rec.Close()

			resp, err := NewAPIService(rec.URL, "", nil).Get(context.Background(), "/x")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if resp.IsJSON {
				t.Error("expected non-JSON response")
			}
			if string(resp.Body) != "plain text" {
				t.Errorf("unexpected body %q", resp.Body)
			}
			if resp.StatusCode != http.StatusTeapot {
				t.Errorf("expected status 418, got %d", resp.StatusCode)
			}
		})

		t.Run("Failed HTTP Request", func(t *testing.T) {
			client := &http.Client{
				Transport: tu.NewMockRoundTripper(nil, errors.New("connection refused")),
			}

			_, err := NewAPIService("http://example.com", "", client).Get(context.Background(), "/x")
			if err == nil || !strings.Contains(err.Error(), "request failed") {
				t.Errorf("expected request failure, got %v", err)
			}
		})

		t.Run("Failed Response Body Read", func(t *testing.T) {
			client := &http.Client{
				Transport: tu.NewMockRoundTripper(&http.Response{
					StatusCode: http.StatusOK,
					Body:       &tu.FCloser{},
					Header:     make(http.Header),
				}, nil),
			}

			_, err := NewAPIService("http://example.com", "", client).Get(context.Background(), "/x")
			if err == nil || !strings.Contains(err.Error(), "failed to read response") {
				t.Errorf("expected read failure, got %v", err)
			}
		})
	})

	t.Run("Post", func(t *testing.T) {
		t.Run("Sends JSON Body", func(t *testing.T) {
			rec := tu.NewRequestRecorder(t, func(w http.ResponseWriter, r *http.Request) {
				if ct := r.Header.Get("Content-Type"); ct != "application/json" {
					t.Errorf("expected JSON content type, got %s", ct)
				}
				w.WriteHeader(http.StatusCreated)
			})
			defer rec.Close()

			resp, err := NewAPIService(rec.URL, "k", nil).Post(context.Background(), "/api/collections/add", []byte(`{"a":1}`))
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if resp.StatusCode != http.StatusCreated {
				t.Errorf("expected status 201, got %d", resp.StatusCode)
			}

			reqs := rec.Requests()
			if len(reqs) != 1 || reqs[0].Method != http.MethodPost || string(reqs[0].Body) != `{"a":1}` {
				t.Errorf("unexpected recorded request: %+v", reqs)
			}
		})
	})
}
