package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/NgigiN/walletsync/internal/expense"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// fakeService is a minimal in-memory expenses service.
type fakeService struct {
	mu      sync.Mutex
	items   []map[string]any
	nextID  int
	deleted []string
	status  int // forced status, 0 for normal behaviour
}

func (f *fakeService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.status != 0 {
		http.Error(w, "forced failure", f.status)
		return
	}

	switch {
	case r.Method == http.MethodHead:
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/expenses/"):
		owner := strings.TrimPrefix(r.URL.Path, "/expenses/")
		var out []map[string]any
		for _, item := range f.items {
			if item["owner"] == owner {
				out = append(out, item)
			}
		}
		if out == nil {
			out = []map[string]any{}
		}
		_ = json.NewEncoder(w).Encode(out)
	case r.Method == http.MethodPost && r.URL.Path == "/expenses":
		var item map[string]any
		if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if item["description"] == "" {
			http.Error(w, "description required", http.StatusUnprocessableEntity)
			return
		}
		f.nextID++
		item["_id"] = "srv-" + string(rune('0'+f.nextID))
		f.items = append(f.items, item)
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(item)
	case r.Method == http.MethodDelete:
		id := strings.TrimPrefix(r.URL.Path, "/expenses/")
		for i, item := range f.items {
			if item["_id"] == id {
				f.items = append(f.items[:i], f.items[i+1:]...)
				f.deleted = append(f.deleted, id)
				w.WriteHeader(http.StatusNoContent)
				return
			}
		}
		http.NotFound(w, r)
	default:
		http.NotFound(w, r)
	}
}

func newTestClient(t *testing.T, h http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := New(srv.URL+"/", "alice", WithLogger(zaptest.NewLogger(t)), WithTimeout(2*time.Second))
	require.NoError(t, err)
	return c, srv
}

func TestNewValidates(t *testing.T) {
	_, err := New("not a url", "alice")
	assert.Error(t, err)

	_, err = New("http://localhost:1", "")
	assert.Error(t, err)
}

func TestCreateListDelete(t *testing.T) {
	ctx := context.Background()
	svc := &fakeService{}
	c, _ := newTestClient(t, svc)

	when := time.Date(2025, 9, 19, 19, 5, 0, 0, time.UTC)
	created, err := c.Create(ctx, expense.Record{
		LocalID: "l1", Amount: 25, Description: "bus", Category: "travel", OccurredAt: when, State: expense.Pending,
	})
	require.NoError(t, err)
	assert.Equal(t, "srv-1", created.RemoteID)
	assert.Equal(t, "l1", created.LocalID)
	assert.Equal(t, expense.Synced, created.State)
	assert.True(t, created.OccurredAt.Equal(when))

	svc.mu.Lock()
	assert.Equal(t, "alice", svc.items[0]["owner"])
	svc.mu.Unlock()

	list, err := c.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "srv-1", list[0].Identity())
	assert.Equal(t, expense.Synced, list[0].State)
	assert.Equal(t, 25.0, list[0].Amount)

	require.NoError(t, c.Delete(ctx, "srv-1"))
	list, err = c.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestCreateDefaultsOccurredAt(t *testing.T) {
	svc := &fakeService{}
	c, _ := newTestClient(t, svc)

	created, err := c.Create(context.Background(), expense.Record{Amount: 1, Description: "gum", Category: "food"})
	require.NoError(t, err)
	assert.False(t, created.OccurredAt.IsZero())
}

func TestErrorKinds(t *testing.T) {
	ctx := context.Background()

	t.Run("rejected", func(t *testing.T) {
		c, _ := newTestClient(t, &fakeService{})
		_, err := c.Create(ctx, expense.Record{Amount: 1, Category: "food"})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrRejected))

		var rerr *Error
		require.True(t, errors.As(err, &rerr))
		assert.Equal(t, http.StatusUnprocessableEntity, rerr.Status)
	})

	t.Run("server error", func(t *testing.T) {
		c, _ := newTestClient(t, &fakeService{status: http.StatusBadGateway})
		_, err := c.Create(ctx, expense.Record{Amount: 1, Description: "x", Category: "food"})
		assert.True(t, errors.Is(err, ErrServerError))

		_, err = c.ListAll(ctx)
		assert.True(t, errors.Is(err, ErrServerError))

		err = c.Delete(ctx, "srv-1")
		assert.True(t, errors.Is(err, ErrServerError))
	})

	t.Run("throttled create is a server error", func(t *testing.T) {
		c, _ := newTestClient(t, &fakeService{status: http.StatusTooManyRequests})
		_, err := c.Create(ctx, expense.Record{Amount: 1, Description: "x", Category: "food"})
		assert.True(t, errors.Is(err, ErrServerError))
		assert.False(t, errors.Is(err, ErrRejected))
	})

	t.Run("unreachable", func(t *testing.T) {
		c, srv := newTestClient(t, &fakeService{})
		srv.Close()

		_, err := c.ListAll(ctx)
		assert.True(t, errors.Is(err, ErrUnreachable))
		_, err = c.Create(ctx, expense.Record{Amount: 1, Description: "x", Category: "food"})
		assert.True(t, errors.Is(err, ErrUnreachable))
		assert.False(t, c.Ping(ctx))
	})

	t.Run("undecodable list", func(t *testing.T) {
		c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("<html>"))
		}))
		_, err := c.ListAll(ctx)
		assert.True(t, errors.Is(err, ErrServerError))
	})
}

func TestPingAcceptsAnyResponse(t *testing.T) {
	c, _ := newTestClient(t, &fakeService{status: http.StatusInternalServerError})
	assert.True(t, c.Ping(context.Background()))
}

func TestListReadsPlainID(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":"a1","amount":5,"description":"tea","category":"food","occurredAt":"2025-09-17T18:56:00Z"}]`))
	}))

	list, err := c.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "a1", list[0].RemoteID)
}
