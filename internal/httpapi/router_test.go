package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	gormsqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	cache "github.com/krisalay/query-cache"
	"github.com/krisalay/query-cache/internal/properties"
	"github.com/krisalay/query-cache/metrics"
	"github.com/krisalay/query-cache/types"
)

type fixture struct {
	cache   *cache.QueryCache
	handler http.Handler
}

func setup(t *testing.T) *fixture {
	t.Helper()

	db, err := gorm.Open(gormsqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"),
		&gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, properties.Migrate(context.Background(), db))

	reg := prometheus.NewRegistry()
	c, err := cache.New(
		cache.WithSweepInterval(0),
		cache.WithMetrics(metrics.New(reg, "")),
	)
	require.NoError(t, err)
	t.Cleanup(c.Close)

	svc := properties.NewService(properties.NewGormRepository(db), c)
	return &fixture{
		cache:   c,
		handler: NewRouter(context.Background(), c, svc, reg),
	}
}

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthzAndRequestID(t *testing.T) {
	f := setup(t)

	rec := f.do(t, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, rec.Header().Get(requestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "abc")
	rec = httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	require.Equal(t, "abc", rec.Header().Get(requestIDHeader))
}

func TestCacheAdminEndpoints(t *testing.T) {
	r := require.New(t)
	f := setup(t)

	f.cache.Set("b", 1)
	f.cache.Set("a", 2)
	f.cache.Set("properties:owner:42", 3)

	rec := f.do(t, http.MethodGet, "/cache/stats", "")
	r.Equal(http.StatusOK, rec.Code)
	var stats types.Stats
	r.NoError(json.Unmarshal(rec.Body.Bytes(), &stats))
	r.Equal(types.Stats{Size: 3, Keys: []string{"a", "b", "properties:owner:42"}}, stats)

	rec = f.do(t, http.MethodDelete, "/cache/properties:owner:42", "")
	r.Equal(http.StatusNoContent, rec.Code)
	r.Equal([]string{"a", "b"}, f.cache.Stats().Keys)

	rec = f.do(t, http.MethodDelete, "/cache", "")
	r.Equal(http.StatusNoContent, rec.Code)
	r.Zero(f.cache.Len())

	f.cache.Set("c", 3)
	rec = f.do(t, http.MethodPost, "/session/end", "")
	r.Equal(http.StatusNoContent, rec.Code)
	r.Zero(f.cache.Len())
}

func TestInvalidateDecodesEscapedKey(t *testing.T) {
	r := require.New(t)
	f := setup(t)

	f.cache.Set("tenant/7", 1)
	f.cache.Set("100%", 2)
	f.cache.Set("keep", 3)

	rec := f.do(t, http.MethodDelete, "/cache/tenant%2F7", "")
	r.Equal(http.StatusNoContent, rec.Code)
	r.Equal([]string{"100%", "keep"}, f.cache.Stats().Keys)

	rec = f.do(t, http.MethodDelete, "/cache/100%25", "")
	r.Equal(http.StatusNoContent, rec.Code)
	r.Equal([]string{"keep"}, f.cache.Stats().Keys)
}

func TestPropertyEndpoints(t *testing.T) {
	r := require.New(t)
	f := setup(t)

	rec := f.do(t, http.MethodGet, "/owners/42/properties", "")
	r.Equal(http.StatusOK, rec.Code)
	r.JSONEq(`[]`, rec.Body.String())
	r.Contains(f.cache.Stats().Keys, properties.OwnerKey("42"))

	rec = f.do(t, http.MethodPost, "/owners/42/properties", `{"name":"Lake House","address":"1 Shore Rd"}`)
	r.Equal(http.StatusCreated, rec.Code)
	var created properties.Property
	r.NoError(json.Unmarshal(rec.Body.Bytes(), &created))
	r.NotEmpty(created.ID)
	r.Equal("42", created.OwnerID)
	r.NotContains(f.cache.Stats().Keys, properties.OwnerKey("42"), "create invalidates the listing")

	rec = f.do(t, http.MethodGet, "/owners/42/properties", "")
	r.Equal(http.StatusOK, rec.Code)
	var listed []properties.Property
	r.NoError(json.Unmarshal(rec.Body.Bytes(), &listed))
	r.Len(listed, 1)
	r.Equal("Lake House", listed[0].Name)

	rec = f.do(t, http.MethodDelete, "/owners/42/properties/"+created.ID, "")
	r.Equal(http.StatusNoContent, rec.Code)

	rec = f.do(t, http.MethodDelete, "/owners/42/properties/"+created.ID, "")
	r.Equal(http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodGet, "/owners/42/properties?refresh=true", "")
	r.Equal(http.StatusOK, rec.Code)
	r.JSONEq(`[]`, rec.Body.String())
}

func TestCreatePropertyValidation(t *testing.T) {
	f := setup(t)

	rec := f.do(t, http.MethodPost, "/owners/42/properties", `{`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPost, "/owners/42/properties", `{"name":"  "}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	f := setup(t)

	f.do(t, http.MethodGet, "/owners/42/properties", "")
	rec := f.do(t, http.MethodGet, "/metrics", "")

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "querycache_misses_total 1")
}
