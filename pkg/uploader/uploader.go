// Package uploader pushes file parts to presigned URLs from the client
// side of a multipart session. Parts upload concurrently through a
// bounded pool; the resulting manifest feeds the complete-upload call.
package uploader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"sync"
	"time"
)

const (
	DefaultConcurrency = 4
	DefaultMaxRetries  = 3
	DefaultRetryDelay  = 2 * time.Second
)

// Part is one presigned slot of a multipart session.
type Part struct {
	PartNumber int32  `json:"part_number"`
	URL        string `json:"url"`
}

// PartResult is one line of the completion manifest.
type PartResult struct {
	PartNumber int32  `json:"part_number"`
	ETag       string `json:"etag"`
}

type Uploader struct {
	httpClient  *http.Client
	concurrency int
	maxRetries  int
	retryDelay  time.Duration
}

func NewUploader(httpClient *http.Client, concurrency, maxRetries int, retryDelay time.Duration) *Uploader {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	if retryDelay <= 0 {
		retryDelay = DefaultRetryDelay
	}
	return &Uploader{
		httpClient:  httpClient,
		concurrency: concurrency,
		maxRetries:  maxRetries,
		retryDelay:  retryDelay,
	}
}

// UploadParts reads each part's byte range from src and PUTs it to the
// part's presigned URL. The returned manifest is sorted by part number.
// The first part failure (after retries) aborts the whole call.
func (u *Uploader) UploadParts(ctx context.Context, src io.ReaderAt, totalSize, partSize int64, parts []Part) ([]PartResult, error) {
	if partSize <= 0 {
		return nil, fmt.Errorf("uploader: invalid part size %d", partSize)
	}

	sem := make(chan struct{}, u.concurrency)
	var wg sync.WaitGroup
	results := make([]PartResult, len(parts))
	errChan := make(chan error, 1)

	for i, part := range parts {
		sem <- struct{}{}
		wg.Add(1)

		go func(idx int, part Part) {
			defer func() {
				<-sem
				wg.Done()
			}()

			offset := int64(part.PartNumber-1) * partSize
			size := partSize
			if offset+size > totalSize {
				size = totalSize - offset
			}
			if size <= 0 {
				select {
				case errChan <- fmt.Errorf("part %d: empty byte range", part.PartNumber):
				default:
				}
				return
			}

			etag, err := u.uploadPart(ctx, io.NewSectionReader(src, offset, size), size, part)
			if err != nil {
				select {
				case errChan <- err:
				default:
				}
				return
			}
			results[idx] = PartResult{PartNumber: part.PartNumber, ETag: etag}
		}(i, part)
	}

	wg.Wait()
	close(errChan)

	if err := <-errChan; err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].PartNumber < results[j].PartNumber
	})
	return results, nil
}

// uploadPart retries with a linearly growing delay: delay, 2*delay, ...
func (u *Uploader) uploadPart(ctx context.Context, section *io.SectionReader, size int64, part Part) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= u.maxRetries; attempt++ {
		if attempt > 1 {
			delay := time.Duration(attempt-1) * u.retryDelay
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(delay):
			}
		}

		if _, err := section.Seek(0, io.SeekStart); err != nil {
			return "", fmt.Errorf("part %d: rewind: %w", part.PartNumber, err)
		}

		etag, err := u.putPart(ctx, section, size, part)
		if err == nil {
			return etag, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
	}
	return "", fmt.Errorf("part %d failed after %d attempts: %w", part.PartNumber, u.maxRetries, lastErr)
}

func (u *Uploader) putPart(ctx context.Context, body io.Reader, size int64, part Part) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, part.URL, body)
	if err != nil {
		return "", fmt.Errorf("part %d: build request: %w", part.PartNumber, err)
	}
	req.ContentLength = size

	resp, err := u.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("part %d: %w", part.PartNumber, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("part %d: unexpected status %d", part.PartNumber, resp.StatusCode)
	}

	etag := resp.Header.Get("ETag")
	if etag == "" {
		return "", fmt.Errorf("part %d: response missing ETag", part.PartNumber)
	}
	return etag, nil
}
