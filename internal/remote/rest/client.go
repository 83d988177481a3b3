// Package rest is a remote.Store over a PostgREST-style HTTP API: one
// resource per table under /rest/v1, filters in the query string.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/abelbrown/lessonvault/internal/remote"
)

// Table names on the wire.
const (
	TableExercises       = "saved_exercises"
	TableLessonPlans     = "saved_lesson_plans"
	TableCorrespondences = "saved_correspondences"
	TableImages          = "image_generation_usage"
	TableMusicLessons    = "saved_music_lessons"
)

// ImageLimit caps the image listing.
const ImageLimit = 50

const maxBody = 10 << 20

// StatusError is a non-2xx response.
type StatusError struct {
	Method     string
	Table      string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("rest: %s %s: status %d: %s", e.Method, e.Table, e.StatusCode, e.Body)
}

// Options configures a Client.
type Options struct {
	BaseURL    string
	APIKey     string
	Token      func() string // bearer access token; nil or "" falls back to the API key
	HTTPClient *http.Client
	Limiter    *rate.Limiter
}

// Client talks to the content API.
type Client struct {
	base    string
	apiKey  string
	token   func() string
	client  *http.Client
	limiter *rate.Limiter
}

// New creates a Client. Requests are paced at 10/s with a burst of 5 unless
// a limiter is given.
func New(opts Options) *Client {
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if opts.Limiter == nil {
		opts.Limiter = rate.NewLimiter(rate.Every(100*time.Millisecond), 5)
	}
	return &Client{
		base:    strings.TrimRight(opts.BaseURL, "/"),
		apiKey:  opts.APIKey,
		token:   opts.Token,
		client:  opts.HTTPClient,
		limiter: opts.Limiter,
	}
}

// Available reports whether a base URL is configured.
func (c *Client) Available() bool {
	return c.base != ""
}

func (c *Client) GetExercises(ctx context.Context) ([]remote.ExerciseRecord, error) {
	var out []remote.ExerciseRecord
	if err := c.list(ctx, TableExercises, recentFirst(), false, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetLessonPlans(ctx context.Context) ([]remote.LessonPlanRecord, error) {
	var out []remote.LessonPlanRecord
	if err := c.list(ctx, TableLessonPlans, recentFirst(), false, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetCorrespondences(ctx context.Context) ([]remote.CorrespondenceRecord, error) {
	var out []remote.CorrespondenceRecord
	if err := c.list(ctx, TableCorrespondences, recentFirst(), false, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetImages lists successful generations. With force set the request asks
// intermediaries not to serve a cached listing.
func (c *Client) GetImages(ctx context.Context, force bool) ([]remote.ImageRecord, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("status", "eq.success")
	q.Set("image_url", "not.is.null")
	q.Set("order", "generated_at.desc")
	q.Set("limit", strconv.Itoa(ImageLimit))
	var out []remote.ImageRecord
	if err := c.list(ctx, TableImages, q, force, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetMusicLessons(ctx context.Context) ([]remote.MusicLessonRecord, error) {
	var out []remote.MusicLessonRecord
	if err := c.list(ctx, TableMusicLessons, recentFirst(), false, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) DeleteExercise(ctx context.Context, id string) error {
	return c.delete(ctx, TableExercises, id)
}

func (c *Client) DeleteLessonPlan(ctx context.Context, id string) error {
	return c.delete(ctx, TableLessonPlans, id)
}

func (c *Client) DeleteCorrespondence(ctx context.Context, id string) error {
	return c.delete(ctx, TableCorrespondences, id)
}

// Insert posts one record to table and decodes the stored row into out
// when out is non-nil.
func (c *Client) Insert(ctx context.Context, table string, record, out any) error {
	body, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("rest: marshal %s: %w", table, err)
	}
	req, err := c.newRequest(ctx, http.MethodPost, table, nil, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=representation")
	return c.do(req, table, out)
}

func recentFirst() url.Values {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("order", "created_at.desc")
	return q
}

func (c *Client) list(ctx context.Context, table string, q url.Values, noCache bool, out any) error {
	req, err := c.newRequest(ctx, http.MethodGet, table, q, nil)
	if err != nil {
		return err
	}
	if noCache {
		req.Header.Set("Cache-Control", "no-cache")
	}
	return c.do(req, table, out)
}

func (c *Client) delete(ctx context.Context, table, id string) error {
	q := url.Values{}
	q.Set("id", "eq."+id)
	req, err := c.newRequest(ctx, http.MethodDelete, table, q, nil)
	if err != nil {
		return err
	}
	return c.do(req, table, nil)
}

func (c *Client) newRequest(ctx context.Context, method, table string, q url.Values, body io.Reader) (*http.Request, error) {
	if c.base == "" {
		return nil, fmt.Errorf("rest: no base URL configured")
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rest: rate limiter wait failed: %w", err)
	}

	u := c.base + "/rest/v1/" + table
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("rest: failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("apikey", c.apiKey)
	}
	bearer := c.apiKey
	if c.token != nil {
		if t := c.token(); t != "" {
			bearer = t
		}
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	return req, nil
}

func (c *Client) do(req *http.Request, table string, out any) error {
	resp, err := c.client.Do(req)
	if err != nil {
		if ctx := req.Context(); ctx.Err() != nil {
			return fmt.Errorf("rest: request cancelled: %w", ctx.Err())
		}
		return fmt.Errorf("rest: %s %s: %w", req.Method, table, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return fmt.Errorf("rest: failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Method: req.Method, Table: table, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("rest: failed to parse %s response: %w", table, err)
	}
	return nil
}

var _ remote.Store = (*Client)(nil)
