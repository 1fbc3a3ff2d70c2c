package services

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"civicwatch/enrich"
	"civicwatch/fetch"
	"civicwatch/models"
	"civicwatch/sources"
	"civicwatch/storage"
	"civicwatch/storage/storagetest"
)

// fakeProvider serves pages from a map and fails hosts listed in down with a 503.
type fakeProvider struct {
	mu     sync.Mutex
	pages  map[string]string
	down   map[string]bool
	calls  []string
	limits map[string]int
}

func newFakeProvider(pages map[string]string) *fakeProvider {
	return &fakeProvider{pages: pages, down: map[string]bool{}, limits: map[string]int{}}
}

func (f *fakeProvider) Fetch(_ context.Context, url string, _ map[string]string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, url)
	for host := range f.down {
		if strings.Contains(url, "://"+host+"/") {
			return nil, &fetch.FetchError{Kind: fetch.KindHTTPStatus, StatusCode: 503, URL: url}
		}
	}
	if body, ok := f.pages[url]; ok {
		return []byte(body), nil
	}
	return nil, &fetch.FetchError{Kind: fetch.KindHTTPStatus, StatusCode: 404, URL: url}
}

func (f *fakeProvider) Limit(host string, perMinute int) {
	f.mu.Lock()
	f.limits[host] = perMinute
	f.mu.Unlock()
}

func (f *fakeProvider) callsTo(url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == url {
			n++
		}
	}
	return n
}

type archived struct {
	source, entity string
	size           int
}

type fakeArchiver struct {
	mu    sync.Mutex
	pages []archived
}

func (a *fakeArchiver) PutPage(_ context.Context, source, entity string, _ time.Time, body []byte) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.pages = append(a.pages, archived{source: source, entity: entity, size: len(body)})
	return "s3://test/" + source, nil
}

// fakeClassifier labels by title; titles missing from the map get DefaultLabels.
type fakeClassifier struct {
	labels map[string]enrich.Labels
	calls  int
}

func (c *fakeClassifier) Classify(_ context.Context, in enrich.ArticleInput) enrich.Labels {
	c.calls++
	if l, ok := c.labels[in.Title]; ok {
		return l
	}
	return enrich.DefaultLabels()
}

func (c *fakeClassifier) ClassifyBatch(ctx context.Context, inputs []enrich.ArticleInput) []enrich.Labels {
	out := make([]enrich.Labels, len(inputs))
	for i, in := range inputs {
		out[i] = c.Classify(ctx, in)
	}
	return out
}

func testPolicy() fetch.Policy {
	return fetch.Policy{MaxAttempts: 2, BaseDelay: time.Millisecond}
}

func newTestWriter(t *testing.T) *storage.Writer {
	return storage.NewWriter(storagetest.NewDB(t), zap.NewNop())
}

func newTestMetrics() *Metrics {
	return NewMetrics(prometheus.NewRegistry())
}

func mustRegistry(t *testing.T, list ...sources.Source) *sources.Registry {
	t.Helper()
	reg, err := sources.NewRegistry(list...)
	require.NoError(t, err)
	return reg
}

func countRows(t *testing.T, w *storage.Writer, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, w.DB().Model(model).Count(&n).Error)
	return n
}

func storeArticle(t *testing.T, w *storage.Writer, a models.Article) models.Article {
	t.Helper()
	if a.EnrichmentStatus == "" {
		a.EnrichmentStatus = models.EnrichmentPending
	}
	require.NoError(t, w.InsertArticleIfAbsent(context.Background(), &a))
	return a
}
