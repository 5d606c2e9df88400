package engine

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func deterministicBody(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i % 251)
	}
	return b
}

func waitForTerminal(t *testing.T, ch <-chan DownloadProgress, taskID string, timeout time.Duration) DownloadProgress {
	t.Helper()
	deadline := time.After(timeout)
	var last DownloadProgress
	for {
		select {
		case p := <-ch:
			if p.TaskID != taskID {
				continue
			}
			last = p
			if p.Status.Terminal() {
				return last
			}
		case <-deadline:
			t.Fatalf("timed out waiting for task %s to reach a terminal status, last seen: %+v", taskID, last)
		}
	}
}

func TestTask_Multipart_MergesRangesInOrder(t *testing.T) {
	body := deterministicBody(1_000_000)

	var mu sync.Mutex
	var rangesSeen []string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Accept-Ranges", "bytes")
		w.Header().Set("Content-Length", strconv.Itoa(len(body)))

		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusOK)
			return
		}

		rng := r.Header.Get("Range")
		if rng == "" {
			w.WriteHeader(http.StatusOK)
			w.Write(body)
			return
		}
		mu.Lock()
		rangesSeen = append(rangesSeen, rng)
		mu.Unlock()

		var start, end int
		fmt.Sscanf(rng, "bytes=%d-%d", &start, &end)
		w.WriteHeader(http.StatusPartialContent)
		w.Write(body[start : end+1])
	}))
	defer srv.Close()

	tempRoot := t.TempDir()
	out := filepath.Join(t.TempDir(), "out.bin")

	updates := make(chan DownloadProgress, 256)
	manager := NewManager(updates, tempRoot)

	id := manager.Add(DownloadRequest{URL: srv.URL, Output: out}, TaskConfig{Parts: 4, ChunkSize: 64 * KB, Timeout: 5 * time.Second, MaxConnections: 4})
	manager.Start(id)

	final := waitForTerminal(t, updates, id, 10*time.Second)
	assert.Equal(t, StatusCompleted, final.Status)

	got, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(got, body))

	mu.Lock()
	defer mu.Unlock()
	assert.ElementsMatch(t, []string{
		"bytes=0-249999", "bytes=250000-499999", "bytes=500000-749999", "bytes=750000-999999",
	}, rangesSeen)

	_, err = os.Stat(filepath.Join(tempRoot, id))
	assert.True(t, os.IsNotExist(err), "temp dir should be removed after a successful merge")
}

func TestTask_SingleStream_WhenRangeUnsupported(t *testing.T) {
	body := deterministicBody(50_000)
	var getCount int
	var mu sync.Mutex

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", strconv.Itoa(len(body)))
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusOK)
			return
		}
		mu.Lock()
		getCount++
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
		w.Write(body)
	}))
	defer srv.Close()

	tempRoot := t.TempDir()
	out := filepath.Join(t.TempDir(), "out.bin")

	updates := make(chan DownloadProgress, 256)
	manager := NewManager(updates, tempRoot)

	id := manager.Add(DownloadRequest{URL: srv.URL, Output: out}, DefaultTaskConfig())
	manager.Start(id)

	final := waitForTerminal(t, updates, id, 10*time.Second)
	assert.Equal(t, StatusCompleted, final.Status)

	got, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(got, body))

	mu.Lock()
	assert.Equal(t, 1, getCount)
	mu.Unlock()

	_, err = os.Stat(filepath.Join(tempRoot, id))
	assert.True(t, os.IsNotExist(err), "single-stream fetch must never create a temp directory")
}

func TestTask_Stop_LeavesNoPartialOutput(t *testing.T) {
	body := deterministicBody(2_000_000)
	release := make(chan struct{})
	var once sync.Once

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Accept-Ranges", "bytes")
		w.Header().Set("Content-Length", strconv.Itoa(len(body)))
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusOK)
			return
		}
		rng := r.Header.Get("Range")
		if rng == "" {
			w.WriteHeader(http.StatusOK)
			w.Write(body)
			return
		}
		var start, end int
		fmt.Sscanf(rng, "bytes=%d-%d", &start, &end)
		w.WriteHeader(http.StatusPartialContent)
		flusher, _ := w.(http.Flusher)
		chunk := 8 * 1024
		for i := start; i <= end; i += chunk {
			j := i + chunk
			if j > end+1 {
				j = end + 1
			}
			w.Write(body[i:j])
			if flusher != nil {
				flusher.Flush()
			}
			once.Do(func() { close(release) })
			<-time.After(2 * time.Millisecond)
		}
	}))
	defer srv.Close()

	tempRoot := t.TempDir()
	out := filepath.Join(t.TempDir(), "out.bin")

	updates := make(chan DownloadProgress, 256)
	manager := NewManager(updates, tempRoot)

	id := manager.Add(DownloadRequest{URL: srv.URL, Output: out}, TaskConfig{Parts: 4, ChunkSize: 4 * KB, Timeout: 5 * time.Second, MaxConnections: 4})
	manager.Start(id)

	<-release
	manager.Stop(id)

	final := waitForTerminal(t, updates, id, 10*time.Second)
	assert.Equal(t, StatusStopped, final.Status)

	_, err := os.Stat(out)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(tempRoot, id))
	assert.True(t, os.IsNotExist(err))
}

func TestTask_PauseResume_NoRegressionAndByteIdentical(t *testing.T) {
	body := deterministicBody(300_000)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", strconv.Itoa(len(body)))
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusOK)
		flusher, _ := w.(http.Flusher)
		chunk := 4 * 1024
		for i := 0; i < len(body); i += chunk {
			j := i + chunk
			if j > len(body) {
				j = len(body)
			}
			w.Write(body[i:j])
			if flusher != nil {
				flusher.Flush()
			}
			time.Sleep(time.Millisecond)
		}
	}))
	defer srv.Close()

	tempRoot := t.TempDir()
	out := filepath.Join(t.TempDir(), "out.bin")

	updates := make(chan DownloadProgress, 256)
	manager := NewManager(updates, tempRoot)

	id := manager.Add(DownloadRequest{URL: srv.URL, Output: out}, TaskConfig{Parts: 1, ChunkSize: 4 * KB, Timeout: 5 * time.Second, MaxConnections: 1})
	manager.Start(id)

	var lastDownloaded int64
	paused := false
	deadline := time.After(10 * time.Second)
	for {
		select {
		case p := <-updates:
			if p.TaskID != id {
				continue
			}
			assert.GreaterOrEqual(t, p.Downloaded, lastDownloaded, "downloaded must never decrease")
			lastDownloaded = p.Downloaded

			if !paused && p.Total != nil && p.Downloaded > *p.Total/2 {
				paused = true
				manager.Pause(id)
				go func() {
					time.Sleep(50 * time.Millisecond)
					manager.Resume(id)
				}()
			}
			if p.Status.Terminal() {
				assert.Equal(t, StatusCompleted, p.Status)
				got, err := os.ReadFile(out)
				require.NoError(t, err)
				assert.True(t, bytes.Equal(got, body))
				return
			}
		case <-deadline:
			t.Fatal("timed out waiting for pause/resume run to complete")
		}
	}
}
