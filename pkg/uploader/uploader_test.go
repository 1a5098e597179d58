package uploader

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type partServer struct {
	mu          sync.Mutex
	bodies      map[int32][]byte
	failures    map[int32]int
	inFlight    int64
	maxInFlight int64
}

func newPartServer() *partServer {
	return &partServer{
		bodies:   make(map[int32][]byte),
		failures: make(map[int32]int),
	}
}

func (s *partServer) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		current := atomic.AddInt64(&s.inFlight, 1)
		defer atomic.AddInt64(&s.inFlight, -1)
		for {
			max := atomic.LoadInt64(&s.maxInFlight)
			if current <= max || atomic.CompareAndSwapInt64(&s.maxInFlight, max, current) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)

		var partNumber int32
		fmt.Sscanf(r.URL.Query().Get("partNumber"), "%d", &partNumber)

		s.mu.Lock()
		remaining := s.failures[partNumber]
		if remaining > 0 {
			s.failures[partNumber] = remaining - 1
			s.mu.Unlock()
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		s.mu.Unlock()

		body, _ := io.ReadAll(r.Body)
		s.mu.Lock()
		s.bodies[partNumber] = body
		s.mu.Unlock()

		w.Header().Set("ETag", fmt.Sprintf(`"etag-%d"`, partNumber))
		w.WriteHeader(http.StatusOK)
	}
}

func testParts(baseURL string, count int) []Part {
	parts := make([]Part, 0, count)
	for i := 1; i <= count; i++ {
		parts = append(parts, Part{
			PartNumber: int32(i),
			URL:        fmt.Sprintf("%s/upload?partNumber=%d", baseURL, i),
		})
	}
	return parts
}

func TestUploadParts_ManifestSortedAndComplete(t *testing.T) {
	server := newPartServer()
	ts := httptest.NewServer(server.handler())
	defer ts.Close()

	data := []byte(strings.Repeat("abcdefgh", 100))
	partSize := int64(256)
	u := NewUploader(ts.Client(), 4, 1, time.Millisecond)

	results, err := u.UploadParts(context.Background(), bytes.NewReader(data), int64(len(data)), partSize, testParts(ts.URL, 4))
	require.NoError(t, err)
	require.Len(t, results, 4)

	for i, result := range results {
		assert.Equal(t, int32(i+1), result.PartNumber)
		assert.Equal(t, fmt.Sprintf(`"etag-%d"`, i+1), result.ETag)
	}

	// byte ranges must tile the source exactly
	var reassembled []byte
	for i := int32(1); i <= 4; i++ {
		reassembled = append(reassembled, server.bodies[i]...)
	}
	assert.Equal(t, data, reassembled)
	assert.Equal(t, int64(len(data))-3*partSize, int64(len(server.bodies[4])))
}

func TestUploadParts_RetriesFailedPart(t *testing.T) {
	server := newPartServer()
	server.failures[2] = 2
	ts := httptest.NewServer(server.handler())
	defer ts.Close()

	data := []byte(strings.Repeat("x", 600))
	u := NewUploader(ts.Client(), 2, 3, time.Millisecond)

	results, err := u.UploadParts(context.Background(), bytes.NewReader(data), int64(len(data)), 256, testParts(ts.URL, 3))
	require.NoError(t, err)
	assert.Len(t, results, 3)
	assert.Equal(t, data[256:512], server.bodies[2])
}

func TestUploadParts_GivesUpAfterMaxRetries(t *testing.T) {
	server := newPartServer()
	server.failures[1] = 100
	ts := httptest.NewServer(server.handler())
	defer ts.Close()

	u := NewUploader(ts.Client(), 2, 2, time.Millisecond)
	_, err := u.UploadParts(context.Background(), bytes.NewReader([]byte("0123456789")), 10, 5, testParts(ts.URL, 2))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "part 1 failed after 2 attempts")
}

func TestUploadParts_ConcurrencyBounded(t *testing.T) {
	server := newPartServer()
	ts := httptest.NewServer(server.handler())
	defer ts.Close()

	data := []byte(strings.Repeat("y", 1600))
	u := NewUploader(ts.Client(), 2, 1, time.Millisecond)

	_, err := u.UploadParts(context.Background(), bytes.NewReader(data), int64(len(data)), 100, testParts(ts.URL, 16))
	require.NoError(t, err)
	assert.LessOrEqual(t, atomic.LoadInt64(&server.maxInFlight), int64(2))
}

func TestUploadParts_InvalidPartSize(t *testing.T) {
	u := NewUploader(nil, 0, 0, 0)
	_, err := u.UploadParts(context.Background(), bytes.NewReader(nil), 0, 0, nil)
	require.Error(t, err)
}
