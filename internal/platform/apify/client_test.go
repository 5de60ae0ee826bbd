package apify

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cryptolens/womtracker/internal/domain"
)

// runServer serves the actor-run endpoint, reporting the given status on
// every poll.
func runServer(t *testing.T, status string) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"data":{"id":"run-1","status":%q,"defaultDatasetId":"ds-1"}}`, status)
	}))
	t.Cleanup(ts.Close)
	return ts
}

func TestStartRunReturnsRunID(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v2/acts/some~actor/runs", r.URL.Path)
		assert.Equal(t, "tok", r.URL.Query().Get("token"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"data":{"id":"run-1","status":"READY"}}`)
	}))
	t.Cleanup(ts.Close)

	c := New(ts.URL, "tok")
	runID, err := c.StartRun(context.Background(), "some~actor", map[string]any{"maxItems": 1})
	require.NoError(t, err)
	assert.Equal(t, "run-1", runID)
}

func TestWaitForRunReturnsDatasetOnSuccess(t *testing.T) {
	var polls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		status := "RUNNING"
		if polls.Add(1) > 2 {
			status = "SUCCEEDED"
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"data":{"id":"run-1","status":%q,"defaultDatasetId":"ds-1"}}`, status)
	}))
	t.Cleanup(ts.Close)

	c := New(ts.URL, "tok")
	datasetID, err := c.WaitForRun(context.Background(), "run-1", time.Millisecond, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "ds-1", datasetID)
	assert.GreaterOrEqual(t, polls.Load(), int32(3))
}

func TestWaitForRunBoundedByMaxWait(t *testing.T) {
	ts := runServer(t, "RUNNING")

	c := New(ts.URL, "tok")
	_, err := c.WaitForRun(context.Background(), "run-1", time.Millisecond, 10*time.Millisecond)
	require.Error(t, err, "a run that never finishes must not hang the caller")
	assert.ErrorIs(t, err, domain.ErrExternalService)
	assert.Contains(t, err.Error(), "still RUNNING")
}

func TestWaitForRunTerminalFailureStatuses(t *testing.T) {
	for _, status := range []string{"FAILED", "TIMED_OUT", "ABORTED"} {
		t.Run(status, func(t *testing.T) {
			ts := runServer(t, status)

			c := New(ts.URL, "tok")
			_, err := c.WaitForRun(context.Background(), "run-1", time.Millisecond, time.Second)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrExternalService)
			assert.Contains(t, err.Error(), status)
		})
	}
}

func TestWaitForRunHonorsContextCancel(t *testing.T) {
	ts := runServer(t, "RUNNING")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	c := New(ts.URL, "tok")
	_, err := c.WaitForRun(ctx, "run-1", 5*time.Millisecond, time.Minute)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDatasetItemsDecodesSlice(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/datasets/ds-1/items", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[{"name":"a"},{"name":"b"}]`)
	}))
	t.Cleanup(ts.Close)

	c := New(ts.URL, "tok")
	var items []struct {
		Name string `json:"name"`
	}
	require.NoError(t, c.DatasetItems(context.Background(), "ds-1", &items))
	require.Len(t, items, 2)
	assert.Equal(t, "b", items[1].Name)
}
