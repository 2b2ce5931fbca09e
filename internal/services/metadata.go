package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/localnerve/homespace/internal/config"
	"github.com/localnerve/homespace/internal/types"
	"go.uber.org/zap"
	"golang.org/x/net/html/charset"
)

//go:generate mockgen -destination=mocks/mock_fetcher.go -package=mocks github.com/localnerve/homespace/internal/services Fetcher

// Fetcher retrieves the preview metadata of a page.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (map[string]string, error)
}

const (
	defaultFetchTimeout = 5 * time.Second
	defaultMaxBodyBytes = 2 << 20
	defaultUserAgent    = "homespace-preview/1.0"
)

// HTTPFetcher performs a single GET per call. It never retries.
type HTTPFetcher struct {
	Client    *http.Client
	Timeout   time.Duration
	UserAgent string
	MaxBytes  int64
	Logger    *zap.Logger
}

// NewHTTPFetcher builds a fetcher from the METADATA_* settings
func NewHTTPFetcher(cfg *config.Config, log *zap.Logger) *HTTPFetcher {
	return &HTTPFetcher{
		Client:    &http.Client{Timeout: cfg.MetadataTimeout},
		Timeout:   cfg.MetadataTimeout,
		UserAgent: cfg.MetadataUserAgent,
		MaxBytes:  cfg.MetadataMaxBytes,
		Logger:    log.Named("fetcher"),
	}
}

func (f *HTTPFetcher) settings() (*http.Client, time.Duration, string, int64, *zap.Logger) {
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	timeout := f.Timeout
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	ua := f.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	limit := f.MaxBytes
	if limit <= 0 {
		limit = defaultMaxBodyBytes
	}
	log := f.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return client, timeout, ua, limit, log
}

// Fetch downloads url and extracts its Open Graph tags and icon.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (map[string]string, error) {
	client, timeout, ua, limit, log := f.settings()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		metadataFetchTotal.WithLabelValues(fetchResultError).Inc()
		return nil, types.FetchError(err, false, "Could not build request for %s", url)
	}
	req.Header.Set("User-Agent", ua)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return nil, f.transportError(log, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metadataFetchTotal.WithLabelValues(fetchResultError).Inc()
		log.Info("metadata fetch rejected", zap.String("url", url), zap.Int("status", resp.StatusCode))
		return nil, types.FetchError(nil, false, "Remote host responded with status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		if isTimeout(err) {
			return nil, f.transportError(log, url, err)
		}
		metadataFetchTotal.WithLabelValues(fetchResultParse).Inc()
		return nil, types.ParseError(err, "Could not read response from %s", url)
	}

	contentType := resp.Header.Get("Content-Type")
	if !isMarkup(contentType) {
		// Nothing to extract from images, PDFs and friends
		metadataFetchTotal.WithLabelValues(fetchResultOK).Inc()
		return map[string]string{}, nil
	}

	reader, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		metadataFetchTotal.WithLabelValues(fetchResultParse).Inc()
		return nil, types.ParseError(err, "Could not decode response from %s", url)
	}

	meta, err := ExtractMetadata(reader)
	if err != nil {
		metadataFetchTotal.WithLabelValues(fetchResultParse).Inc()
		return nil, err
	}

	metadataFetchTotal.WithLabelValues(fetchResultOK).Inc()
	log.Debug("metadata fetched",
		zap.String("url", url),
		zap.Int("keys", len(meta)),
		zap.Duration("duration", time.Since(start)),
	)
	return meta, nil
}

func (f *HTTPFetcher) transportError(log *zap.Logger, url string, err error) error {
	if isTimeout(err) {
		metadataFetchTotal.WithLabelValues(fetchResultTimeout).Inc()
		log.Info("metadata fetch timed out", zap.String("url", url))
		return types.FetchError(err, true, "Timed out fetching %s", url)
	}
	metadataFetchTotal.WithLabelValues(fetchResultError).Inc()
	log.Info("metadata fetch failed", zap.String("url", url), zap.Error(err))
	return types.FetchError(err, false, "Could not fetch %s", url)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// isMarkup reports whether a Content-Type may carry HTML. A missing header counts.
func isMarkup(contentType string) bool {
	if contentType == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return true
	}
	return strings.HasPrefix(mediaType, "text/") ||
		strings.Contains(mediaType, "html") ||
		strings.HasSuffix(mediaType, "xml")
}

// ExtractMetadata reads the preview tags of an HTML document.
//
// The icon comes from the first <link rel="shortcut icon">, else the first link whose rel
// contains "icon", and is stored under "icon". Every <meta property="og:NAME"> is then stored
// under NAME with its content; later tags overwrite earlier ones. A document without any
// of these yields an empty map.
func ExtractMetadata(r io.Reader) (map[string]string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, types.ParseError(err, "Response is not readable as HTML")
	}

	meta := map[string]string{}

	if href, ok := findIcon(doc); ok {
		meta["icon"] = href
	}

	doc.Find("meta[property]").Each(func(_ int, s *goquery.Selection) {
		prop, _ := s.Attr("property")
		prop = strings.TrimSpace(prop)
		if !strings.HasPrefix(prop, "og:") || len(prop) == len("og:") {
			return
		}
		content, _ := s.Attr("content")
		meta[strings.TrimPrefix(prop, "og:")] = content
	})

	return meta, nil
}

func findIcon(doc *goquery.Document) (string, bool) {
	var shortcut, icon string
	var haveShortcut, haveIcon bool

	doc.Find("link[rel][href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		rel, _ := s.Attr("rel")
		href, _ := s.Attr("href")
		tokens := strings.Fields(strings.ToLower(rel))

		if strings.Join(tokens, " ") == "shortcut icon" {
			shortcut, haveShortcut = href, true
			return false
		}
		if !haveIcon && containsToken(tokens, "icon") {
			icon, haveIcon = href, true
		}
		return true
	})

	if haveShortcut {
		return shortcut, true
	}
	return icon, haveIcon
}

func containsToken(tokens []string, want string) bool {
	for _, t := range tokens {
		if t == want {
			return true
		}
	}
	return false
}

