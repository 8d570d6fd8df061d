package tables

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testTable = Table{DatasheetID: "dst1", ViewID: "viw1"}

func newTestClient(t *testing.T, url string) *Client {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(Config{
		BaseURL:   url,
		APIKey:    "secret",
		PageDelay: time.Millisecond,
		Timeout:   5 * time.Second,
	}, logger)
}

func pageBody(t *testing.T, n int) []byte {
	t.Helper()
	records := make([]Record, n)
	for i := range records {
		records[i] = Record{
			RecordID: "rec" + strconv.Itoa(i),
			Fields:   map[string]any{FieldName: "post " + strconv.Itoa(i)},
		}
	}
	var resp listResponse
	ok := true
	resp.Success = &ok
	resp.Code = 200
	resp.Data.Records = records
	b, err := json.Marshal(resp)
	require.NoError(t, err)
	return b
}

func TestListAll_PagesUntilEmpty(t *testing.T) {
	sizes := []int{1000, 1000, 3, 0}
	var calls atomic.Int32
	var mu sync.Mutex
	var pages []string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/dst1/records", r.URL.Path)
		assert.Equal(t, "viw1", r.URL.Query().Get("viewId"))
		assert.Equal(t, "name", r.URL.Query().Get("fieldKey"))
		assert.Equal(t, "1000", r.URL.Query().Get("pageSize"))
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		page, _ := strconv.Atoi(r.URL.Query().Get("pageNum"))
		mu.Lock()
		pages = append(pages, r.URL.Query().Get("pageNum"))
		mu.Unlock()
		calls.Add(1)
		w.Write(pageBody(t, sizes[page-1]))
	}))
	defer srv.Close()

	records, err := newTestClient(t, srv.URL).ListAll(context.Background(), testTable)

	require.NoError(t, err)
	assert.Len(t, records, 2003)
	assert.Equal(t, int32(4), calls.Load())
	assert.Equal(t, []string{"1", "2", "3", "4"}, pages)
}

func TestListAll_AbortsOnPageError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 2 {
			http.Error(w, "boom", http.StatusBadGateway)
			return
		}
		w.Write(pageBody(t, 5))
	}))
	defer srv.Close()

	records, err := newTestClient(t, srv.URL).ListAll(context.Background(), testTable)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "page 2")
	assert.Nil(t, records)
	assert.Equal(t, int32(2), calls.Load())
}

func TestListAll_StoreReportsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":401,"success":false,"message":"bad token"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL).ListAll(context.Background(), testTable)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad token")
}

func TestWrite_IndependentOutcomes(t *testing.T) {
	var mu sync.Mutex
	bodies := map[string]writeRequest{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req writeRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		mu.Lock()
		bodies[r.Method] = req
		mu.Unlock()

		if r.Method == http.MethodPost {
			http.Error(w, "quota exceeded", http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"code":200,"success":true}`))
	}))
	defer srv.Close()

	updates := []Record{{RecordID: "rec1", Fields: map[string]any{FieldName: "A"}}}
	creates := []Record{{Fields: map[string]any{FieldName: "B"}}}

	out := newTestClient(t, srv.URL).Write(context.Background(), testTable, updates, creates)

	assert.NoError(t, out.Update.Err)
	assert.Equal(t, http.StatusOK, out.Update.Status)
	assert.Error(t, out.Create.Err)
	assert.Equal(t, http.StatusTooManyRequests, out.Create.Status)
	assert.Equal(t, 1, out.Failed())

	require.Contains(t, bodies, http.MethodPatch)
	require.Contains(t, bodies, http.MethodPost)
	assert.Equal(t, "name", bodies[http.MethodPatch].FieldKey)
	assert.Equal(t, "rec1", bodies[http.MethodPatch].Records[0].RecordID)
	assert.Empty(t, bodies[http.MethodPost].Records[0].RecordID)
}

func TestWrite_SkipsEmptySets(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, http.MethodPost, r.Method)
		w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	creates := []Record{{Fields: map[string]any{FieldName: "B"}}}
	out := newTestClient(t, srv.URL).Write(context.Background(), testTable, nil, creates)

	assert.True(t, out.Update.Skipped)
	assert.False(t, out.Create.Skipped)
	assert.Zero(t, out.Failed())
	assert.Equal(t, int32(1), calls.Load())
}

func TestRecord_OmitsEmptyRecordID(t *testing.T) {
	b, err := json.Marshal(Record{Fields: map[string]any{}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"fields":{}}`, string(b))
}
