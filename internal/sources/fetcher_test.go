package sources

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"

	"github.com/facility-watch/detention-cli/internal/resilience"
)

// stubFetcher serves canned bodies by URL. Files are copied from local
// paths.
type stubFetcher struct {
	pages    map[string]string
	files    map[string]string
	requests []string
}

func (s *stubFetcher) body(url string) (string, error) {
	s.requests = append(s.requests, url)
	body, ok := s.pages[url]
	if !ok {
		return "", &resilience.StatusError{URL: url, StatusCode: 404}
	}
	return body, nil
}

func (s *stubFetcher) Download(_ context.Context, url string) (io.ReadCloser, error) {
	body, err := s.body(url)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(strings.NewReader(body)), nil
}

func (s *stubFetcher) DownloadToFile(_ context.Context, url string, path string) (int64, error) {
	s.requests = append(s.requests, url)
	src, ok := s.files[url]
	if !ok {
		return 0, eris.Errorf("no file for %s", url)
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return 0, err
	}
	return int64(len(data)), os.WriteFile(path, data, 0o644)
}

func (s *stubFetcher) Document(_ context.Context, url string) (*goquery.Document, error) {
	body, err := s.body(url)
	if err != nil {
		return nil, err
	}
	return goquery.NewDocumentFromReader(strings.NewReader(body))
}

func (s *stubFetcher) JSON(_ context.Context, url string, v any) error {
	body, err := s.body(url)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(body), v)
}

func testConfig(t *testing.T) Config {
	t.Helper()
	cfg := DefaultConfig()
	cfg.PageDelay = 0
	cfg.DownloadDir = t.TempDir()
	cfg.Now = func() time.Time { return time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC) }
	return cfg
}
