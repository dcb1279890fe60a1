// Package alquran fetches surah metadata and verse editions from the
// api.alquran.cloud REST service.
package alquran

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/engsaleh/quran-pipeline/internal/domain"
)

// DefaultBaseURL is the public API root.
const DefaultBaseURL = "https://api.alquran.cloud/v1"

// maxBody bounds a single response. A full edition is a few megabytes.
const maxBody = 64 << 20

// ErrUnexpectedPayload is returned when a response cannot be decoded into
// the expected shape.
var ErrUnexpectedPayload = errors.New("unexpected payload")

// Options configures the client. Zero fields take the defaults.
type Options struct {
	BaseURL         string
	UserAgent       string
	Timeout         time.Duration
	ConnectTimeout  time.Duration
	KeepAlive       time.Duration
	MaxAttempts     int
	BackoffBase     time.Duration
	MaxConns        int
	MaxConnsPerHost int
	Logger          *slog.Logger
}

func (o *Options) defaults() {
	if o.BaseURL == "" {
		o.BaseURL = DefaultBaseURL
	}
	if o.UserAgent == "" {
		o.UserAgent = "QuranPipeline"
	}
	if o.Timeout <= 0 {
		o.Timeout = 60 * time.Second
	}
	if o.ConnectTimeout <= 0 {
		o.ConnectTimeout = 30 * time.Second
	}
	if o.KeepAlive <= 0 {
		o.KeepAlive = 30 * time.Second
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 3
	}
	if o.BackoffBase <= 0 {
		o.BackoffBase = time.Second
	}
	if o.MaxConns <= 0 {
		o.MaxConns = 10
	}
	if o.MaxConnsPerHost <= 0 {
		o.MaxConnsPerHost = 5
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
}

// StatusError reports a non-2xx HTTP response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("http status %d", e.StatusCode)
	}
	return fmt.Sprintf("http status %d: %s", e.StatusCode, e.Body)
}

// APIError reports an envelope whose code is not 200.
type APIError struct {
	Code   int
	Status string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api code %d: %s", e.Code, e.Status)
}

// Client implements the pipeline gateway over HTTP. It is safe for
// concurrent use.
type Client struct {
	hc     *http.Client
	base   string
	opts   Options
	logger *slog.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

// New builds a Client with a pooled transport.
func New(opts Options) *Client {
	opts.defaults()
	dialer := &net.Dialer{Timeout: opts.ConnectTimeout, KeepAlive: opts.KeepAlive}
	tr := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         dialer.DialContext,
		MaxIdleConns:        opts.MaxConns,
		MaxIdleConnsPerHost: opts.MaxConnsPerHost,
		MaxConnsPerHost:     opts.MaxConnsPerHost,
		IdleConnTimeout:     opts.KeepAlive,
		TLSHandshakeTimeout: opts.ConnectTimeout,
		ForceAttemptHTTP2:   true,
	}
	return &Client{
		hc:     &http.Client{Timeout: opts.Timeout, Transport: tr},
		base:   strings.TrimRight(opts.BaseURL, "/"),
		opts:   opts,
		logger: opts.Logger,
		sleep:  sleepWithCtx,
	}
}

// Close releases idle connections.
func (c *Client) Close() {
	c.hc.CloseIdleConnections()
}

type envelope struct {
	Code   int             `json:"code"`
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
}

type surahRecord struct {
	Number         int    `json:"number"`
	Name           string `json:"name"`
	EnglishName    string `json:"englishName"`
	RevelationType string `json:"revelationType"`
	NumberOfAyahs  int    `json:"numberOfAyahs"`
}

type ayahRecord struct {
	NumberInSurah int    `json:"numberInSurah"`
	Text          string `json:"text"`
}

type editionSurah struct {
	Number int          `json:"number"`
	Ayahs  []ayahRecord `json:"ayahs"`
}

type editionData struct {
	Surahs []editionSurah `json:"surahs"`
}

// FetchSurahs returns the surah metadata list. Records that fail domain
// validation are logged and skipped.
func (c *Client) FetchSurahs(ctx context.Context) ([]domain.Surah, error) {
	data, err := c.get(ctx, "surah")
	if err != nil {
		return nil, err
	}
	var records []surahRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("surah list: %w: %v", ErrUnexpectedPayload, err)
	}

	surahs := make([]domain.Surah, 0, len(records))
	for _, r := range records {
		rt, err := domain.ParseRevelationType(r.RevelationType)
		if err != nil {
			c.logger.Warn("skipping surah record", "number", r.Number, "error", err)
			continue
		}
		s, err := domain.NewSurah(r.Number, r.Name, r.EnglishName, rt, r.NumberOfAyahs)
		if err != nil {
			c.logger.Warn("skipping surah record", "number", r.Number, "error", err)
			continue
		}
		surahs = append(surahs, s)
	}
	c.logger.Debug("surah list fetched", "count", len(surahs), "skipped", len(records)-len(surahs))
	return surahs, nil
}

// FetchVerses returns every verse of an edition in upstream order. The
// payload may be an object with a surahs list or a bare list of surahs.
func (c *Client) FetchVerses(ctx context.Context, edition string) ([]domain.RawVerse, error) {
	data, err := c.get(ctx, "quran/"+url.PathEscape(edition))
	if err != nil {
		return nil, err
	}

	var ed editionData
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '[' {
		err = json.Unmarshal(trimmed, &ed.Surahs)
	} else {
		err = json.Unmarshal(trimmed, &ed)
	}
	if err != nil {
		return nil, fmt.Errorf("edition %s: %w: %v", edition, ErrUnexpectedPayload, err)
	}

	var verses []domain.RawVerse
	skipped := 0
	for _, s := range ed.Surahs {
		for _, a := range s.Ayahs {
			rv := domain.RawVerse{Surah: s.Number, Number: a.NumberInSurah, Text: a.Text}
			if err := rv.Key().Validate(); err != nil {
				c.logger.Warn("skipping verse record", "edition", edition, "error", err)
				skipped++
				continue
			}
			verses = append(verses, rv)
		}
	}
	c.logger.Debug("edition fetched", "edition", edition, "verses", len(verses), "skipped", skipped)
	return verses, nil
}

// get fetches path and returns the envelope data, retrying transient
// failures with exponential backoff.
func (c *Client) get(ctx context.Context, path string) (json.RawMessage, error) {
	endpoint := c.base + "/" + path
	var lastErr error
	for attempt := 0; attempt < c.opts.MaxAttempts; attempt++ {
		if attempt > 0 {
			delay := c.opts.BackoffBase << (attempt - 1)
			c.logger.Warn("retrying request",
				"url", endpoint, "attempt", attempt+1, "delay", delay, "error", lastErr)
			if err := c.sleep(ctx, delay); err != nil {
				return nil, err
			}
		}

		data, err := c.getOnce(ctx, endpoint)
		if err == nil {
			return data, nil
		}
		lastErr = err
		if !shouldRetry(ctx, err) {
			break
		}
	}
	return nil, fmt.Errorf("GET %s: %w", endpoint, lastErr)
}

func (c *Client) getOnce(ctx context.Context, endpoint string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("request", "url", endpoint)
	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode/100 != 2 {
		msg := strings.TrimSpace(string(body))
		if len(msg) > 200 {
			msg = msg[:200]
		}
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: msg}
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnexpectedPayload, err)
	}
	if env.Code != http.StatusOK {
		return nil, &APIError{Code: env.Code, Status: env.Status}
	}
	if len(env.Data) == 0 {
		return nil, fmt.Errorf("%w: missing data", ErrUnexpectedPayload)
	}
	return env.Data, nil
}

// shouldRetry reports whether err is transient. Cancellation, client
// errors and malformed payloads are final.
func shouldRetry(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		switch {
		case se.StatusCode == http.StatusRequestTimeout, se.StatusCode == http.StatusTooManyRequests:
			return true
		case se.StatusCode >= 500:
			return true
		default:
			return false
		}
	}
	var ae *APIError
	if errors.As(err, &ae) {
		return ae.Code >= 500 || ae.Code == http.StatusTooManyRequests
	}
	if errors.Is(err, ErrUnexpectedPayload) {
		return false
	}
	return true
}

// sleepWithCtx waits for d or until ctx is done.
func sleepWithCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
