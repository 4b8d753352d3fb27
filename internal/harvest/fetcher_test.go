package harvest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetry() RetryPolicy {
	return RetryPolicy{
		MaxRetries:   2,
		InitialDelay: time.Millisecond,
		MaxDelay:     time.Millisecond,
	}
}

func TestGFSFetcherRequestParameters(t *testing.T) {
	var gotQuery map[string]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{}
		for k, v := range r.URL.Query() {
			gotQuery[k] = v[0]
		}
		w.Write([]byte("grib bytes"))
	}))
	defer srv.Close()

	f := NewGFSFetcher(srv.Client(), srv.URL, 6, []string{"UGRD", "VGRD"},
		"10_m_above_ground", GlobalBounds)

	data, err := f.Fetch(context.Background(), time.Date(2024, 1, 10, 5, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, []byte("grib bytes"), data)

	// The 05:00 instant lands in the 00 model run of 20240110.
	assert.Equal(t, "gfs.t00z.pgrb2.1p00.f000", gotQuery["file"])
	assert.Equal(t, "/gfs.20240110/00/atmos", gotQuery["dir"])
	assert.Equal(t, "on", gotQuery["var_UGRD"])
	assert.Equal(t, "on", gotQuery["var_VGRD"])
	assert.Equal(t, "on", gotQuery["lev_10_m_above_ground"])
	assert.Equal(t, "0", gotQuery["leftlon"])
	assert.Equal(t, "360", gotQuery["rightlon"])
	assert.Equal(t, "90", gotQuery["toplat"])
	assert.Equal(t, "-90", gotQuery["bottomlat"])
}

func TestGFSFetcherLateBucket(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "gfs.t18z.pgrb2.1p00.f000", r.URL.Query().Get("file"))
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	f := NewGFSFetcher(srv.Client(), srv.URL, 6, []string{"UGRD"}, "10_m_above_ground", GlobalBounds)

	_, err := f.Fetch(context.Background(), time.Date(2024, 1, 10, 23, 30, 0, 0, time.UTC))
	require.NoError(t, err)
}

func TestGFSFetcherRetriesUntilSuccess(t *testing.T) {
	var hits atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			http.Error(w, "warming up", http.StatusInternalServerError)
			return
		}
		w.Write([]byte("grib bytes"))
	}))
	defer srv.Close()

	f := NewGFSFetcher(srv.Client(), srv.URL, 6, []string{"UGRD"}, "10_m_above_ground", GlobalBounds)
	f.retry = fastRetry()

	data, err := f.Fetch(context.Background(), time.Date(2024, 1, 10, 5, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, []byte("grib bytes"), data)
	assert.Equal(t, int32(3), hits.Load())
}

func TestGFSFetcherNonSuccessStatusIsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such cycle", http.StatusNotFound)
	}))
	defer srv.Close()

	f := NewGFSFetcher(srv.Client(), srv.URL, 6, []string{"UGRD"}, "10_m_above_ground", GlobalBounds)
	f.retry = fastRetry()

	_, err := f.Fetch(context.Background(), time.Date(2024, 1, 10, 5, 0, 0, 0, time.UTC))
	assert.Error(t, err)
}

func TestGFSFetcherTransportErrorIsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	f := NewGFSFetcher(&http.Client{Timeout: time.Second}, srv.URL, 6,
		[]string{"UGRD"}, "10_m_above_ground", GlobalBounds)
	f.retry = fastRetry()

	_, err := f.Fetch(context.Background(), time.Date(2024, 1, 10, 5, 0, 0, 0, time.UTC))
	assert.Error(t, err)
}
