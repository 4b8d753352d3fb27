package harvest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker"

	"github.com/windlab/windharvest/internal/wind"
)

// Fetcher retrieves the raw snapshot bytes for the slot containing t.
type Fetcher interface {
	Fetch(ctx context.Context, t time.Time) ([]byte, error)
}

// BoundingBox is the spatial subset requested from the source, in the
// grib-filter convention (longitudes 0..360, latitudes top-down).
type BoundingBox struct {
	LeftLon   float64
	RightLon  float64
	TopLat    float64
	BottomLat float64
}

// GlobalBounds covers the whole grid.
var GlobalBounds = BoundingBox{LeftLon: 0, RightLon: 360, TopLat: 90, BottomLat: -90}

// RetryPolicy bounds how hard a fetch attempt is retried before the failure
// is handed to the pipeline, which steps back one slot instead.
type RetryPolicy struct {
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

var (
	errRateLimited      = errors.New("rate limited")
	errServerError      = errors.New("server error")
	errUnexpectedStatus = errors.New("unexpected status code")
)

// GFSFetcher pulls one GFS analysis grid per attempt from a NOMADS-style
// grib-filter endpoint. Each request is parameterized by the slot date, the
// slot bucket (model-run hour), the bounding box, and the variable list.
type GFSFetcher struct {
	client    *http.Client
	baseURL   string
	interval  int // hours
	variables []string
	level     string
	bounds    BoundingBox
	retry     RetryPolicy
	circuit   *gobreaker.CircuitBreaker
}

// NewGFSFetcher creates a GFSFetcher with the service's default resilience
// settings: three retries with exponential backoff behind a circuit breaker.
func NewGFSFetcher(client *http.Client, baseURL string, intervalHours int, variables []string, level string, bounds BoundingBox) *GFSFetcher {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "gfs",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	return &GFSFetcher{
		client:    client,
		baseURL:   baseURL,
		interval:  intervalHours,
		variables: variables,
		level:     level,
		bounds:    bounds,
		retry: RetryPolicy{
			MaxRetries:   3,
			InitialDelay: 500 * time.Millisecond,
			MaxDelay:     5 * time.Second,
		},
		circuit: cb,
	}
}

// Fetch downloads the raw grib snapshot for the slot containing t. A non-2xx
// status or transport failure surfaces as an error once the retry budget is
// spent or the circuit opens.
func (f *GFSFetcher) Fetch(ctx context.Context, t time.Time) ([]byte, error) {
	key := wind.Quantize(t, f.interval)
	slotURL := f.slotURL(t)

	delay := f.retry.InitialDelay
	var lastErr error

	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		data, err := f.attempt(ctx, slotURL)
		if err == nil {
			return data, nil
		}

		// An open circuit means the source is down across slots; retrying
		// this request would only hammer it.
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("fetching snapshot for %s: circuit open: %w", key, err)
		}

		lastErr = err
		if attempt >= f.retry.MaxRetries {
			return nil, fmt.Errorf("fetching snapshot for %s: %w", key, lastErr)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}

		delay *= 2
		if f.retry.MaxDelay > 0 && delay > f.retry.MaxDelay {
			delay = f.retry.MaxDelay
		}
	}
}

// attempt performs one round trip through the circuit breaker and reads the
// whole body while the breaker still counts the request.
func (f *GFSFetcher) attempt(ctx context.Context, slotURL string) ([]byte, error) {
	out, err := f.circuit.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, slotURL, nil)
		if err != nil {
			return nil, err
		}

		resp, err := f.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests {
			return nil, errRateLimited
		}
		if resp.StatusCode >= 500 {
			return nil, errServerError
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, fmt.Errorf("%w: %d", errUnexpectedStatus, resp.StatusCode)
		}

		return io.ReadAll(resp.Body)
	})
	if err != nil {
		return nil, err
	}
	return out.([]byte), nil
}

// slotURL builds the grib-filter request for the slot containing t.
func (f *GFSFetcher) slotURL(t time.Time) string {
	t = t.UTC()
	date := t.Format("20060102")
	bucket := fmt.Sprintf("%02d", (t.Hour()/f.interval)*f.interval)

	values := url.Values{}
	values.Set("file", fmt.Sprintf("gfs.t%sz.pgrb2.1p00.f000", bucket))
	values.Set("dir", fmt.Sprintf("/gfs.%s/%s/atmos", date, bucket))
	values.Set("lev_"+f.level, "on")
	for _, v := range f.variables {
		values.Set("var_"+v, "on")
	}
	values.Set("leftlon", formatCoord(f.bounds.LeftLon))
	values.Set("rightlon", formatCoord(f.bounds.RightLon))
	values.Set("toplat", formatCoord(f.bounds.TopLat))
	values.Set("bottomlat", formatCoord(f.bounds.BottomLat))

	return fmt.Sprintf("%s?%s", f.baseURL, values.Encode())
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
