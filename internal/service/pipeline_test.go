package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	apperrors "github.com/sk3tch4d/Anikto-Opsis-sub000/pkg/errors"
)

// ── 缓存替身 ──

// memCache 以 JSON 存取，行为与 redis 实现一致
type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
	sets int
}

func newMemCache() *memCache { return &memCache{data: make(map[string][]byte)} }

func (c *memCache) GetJSON(_ context.Context, key string, dst interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.data[key]
	if !ok {
		return apperrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dst)
}

func (c *memCache) SetJSON(_ context.Context, key string, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = raw
	c.sets++
	return nil
}

type mockCache struct{ mock.Mock }

func (m *mockCache) GetJSON(ctx context.Context, key string, dst interface{}) error {
	return m.Called(ctx, key, dst).Error(0)
}

func (m *mockCache) SetJSON(ctx context.Context, key string, v interface{}) error {
	return m.Called(ctx, key, v).Error(0)
}

// ═══════════════════════════════════════════════════════════
// Run
// ═══════════════════════════════════════════════════════════

func TestPipeline_TwoDocumentsEndToEnd(t *testing.T) {
	defer goleak.VerifyNone(t)

	report, err := newTestPipeline(nil).Run(context.Background(), twoDocuments())
	require.NoError(t, err)

	ds := report.Dataset
	require.Len(t, ds.Entries, 6, "01-07 夜班重复下发只保留一条")
	require.Len(t, ds.Dropped, 1)
	assert.Equal(t, "roster_2025-01-06.txt", ds.Dropped[0].SourceFile)

	require.Len(t, ds.Swaps, 1)
	swap := ds.Swaps[0]
	assert.Equal(t, "Smith, John", swap.OriginalEmployee)
	assert.Equal(t, "Doe, Jane", swap.CoveringEmployee)
	assert.True(t, swap.Date.Equal(date(2025, 1, 13)))

	assert.Equal(t, []RankEntry{
		{Name: "Brown, Alex", Hours: 16},
		{Name: "Doe, Jane", Hours: 16},
		{Name: "Smith, John", Hours: 16},
	}, RankAllTime(ds))

	for _, e := range ds.Entries {
		wantCoverage := e.PersonName == "Doe, Jane" && e.Date.Equal(date(2025, 1, 13))
		assert.Equal(t, wantCoverage, e.IsCoverage, "%s %s", e.PersonName, e.Date)
		if e.Date.Before(testAnchor) {
			assert.Equal(t, -1, e.PayPeriodIndex)
		} else {
			assert.Equal(t, 0, e.PayPeriodIndex)
		}
	}

	require.Len(t, report.Documents, 2)
	assert.Equal(t, "roster_2025-01-06.txt", report.Documents[0].SourceFile, "文档结果保持输入顺序")
	assert.Equal(t, 4, report.Documents[0].Stats.Extracted)
	assert.Equal(t, 3, report.Documents[1].Stats.Extracted)
}

func TestPipeline_InputOrderDoesNotMatter(t *testing.T) {
	docs := twoDocuments()
	reversed := []SourceDocument{docs[1], docs[0]}

	a, err := newTestPipeline(nil).Run(context.Background(), docs)
	require.NoError(t, err)
	b, err := newTestPipeline(nil).Run(context.Background(), reversed)
	require.NoError(t, err)

	assert.Equal(t, a.Dataset.Entries, b.Dataset.Entries)
	assert.Equal(t, a.Dataset.Swaps, b.Dataset.Swaps)
}

func TestPipeline_Errors(t *testing.T) {
	p := newTestPipeline(nil)

	_, err := p.Run(context.Background(), nil)
	assert.True(t, errors.Is(err, ErrNoDocuments))

	report, err := p.Run(context.Background(), []SourceDocument{{Name: "empty.txt", Text: "nothing here\n"}})
	assert.True(t, errors.Is(err, ErrNoValidShifts))
	require.NotNil(t, report, "空结果仍返回各文档统计")
	assert.Len(t, report.Documents, 1)
}

func TestPipeline_CanceledContext(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newTestPipeline(nil).Run(ctx, twoDocuments())
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestPipeline_PanicYieldsEmptyResult(t *testing.T) {
	p := newTestPipeline(nil)
	p.extractor = nil

	res := p.ProcessDocument(SourceDocument{Name: "bad.txt", Text: docJan06})
	require.Error(t, res.Err)
	assert.Equal(t, "bad.txt", res.SourceFile)
	assert.Empty(t, res.Frame.Entries)
	assert.Empty(t, res.Swaps)
}

func TestPipeline_MixedCacheHits(t *testing.T) {
	p := newTestPipeline(nil)
	doc := twoDocuments()[0]
	good := p.ProcessDocument(doc)

	cache := newMemCache()
	p.cache = cache
	require.NoError(t, cache.SetJSON(context.Background(), p.cacheKey(doc), good))

	report, err := p.Run(context.Background(), []SourceDocument{
		doc,
		{Name: "garbage.txt", Text: "garbage"},
	})
	require.NoError(t, err)
	assert.Len(t, report.Dataset.Entries, 4)
	assert.True(t, report.Documents[0].Cached)
	assert.False(t, report.Documents[1].Cached)
	assert.Equal(t, 0, report.Documents[1].Stats.Extracted)
}

// ═══════════════════════════════════════════════════════════
// 解析缓存
// ═══════════════════════════════════════════════════════════

func TestPipeline_CacheRoundTrip(t *testing.T) {
	cache := newMemCache()
	p := newTestPipeline(cache)

	first, err := p.Run(context.Background(), twoDocuments())
	require.NoError(t, err)
	assert.Equal(t, 2, cache.sets)
	for _, d := range first.Documents {
		assert.False(t, d.Cached)
	}

	second, err := p.Run(context.Background(), twoDocuments())
	require.NoError(t, err)
	assert.Equal(t, 2, cache.sets, "命中缓存不再写入")
	for _, d := range second.Documents {
		assert.True(t, d.Cached)
	}
	assert.Equal(t, first.Dataset.Entries, second.Dataset.Entries)
	assert.Equal(t, first.Dataset.Swaps, second.Dataset.Swaps)
}

func TestPipeline_CacheKeyInputs(t *testing.T) {
	doc := twoDocuments()[0]
	base := newTestPipeline(nil).cacheKey(doc)

	renamed := doc
	renamed.Name = "other.txt"
	assert.NotEqual(t, base, newTestPipeline(nil).cacheKey(renamed))

	edited := doc
	edited.Text += "D102 07:00 15:00 Doe, Jane\n"
	assert.NotEqual(t, base, newTestPipeline(nil).cacheKey(edited))

	cfg := newTestRosterConfig("slot")
	cfg.FilterByRoster = false
	unfiltered := NewPipeline(newTestRoster(), cfg, 1, nil, zap.NewNop())
	assert.NotEqual(t, base, unfiltered.cacheKey(doc))

	other := NewPipeline(NewRoster([]string{"Smith, John"}, nil), newTestRosterConfig("slot"), 1, nil, zap.NewNop())
	assert.NotEqual(t, base, other.cacheKey(doc), "名册变化使缓存失效")

	assert.Equal(t, base, newTestPipeline(nil).cacheKey(doc))
}

func TestPipeline_CacheFailureFallsBack(t *testing.T) {
	cache := new(mockCache)
	cache.On("GetJSON", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("连接被拒绝"))
	cache.On("SetJSON", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("连接被拒绝"))

	report, err := newTestPipeline(cache).Run(context.Background(), twoDocuments())
	require.NoError(t, err)
	assert.Len(t, report.Dataset.Entries, 6)

	cache.AssertNumberOfCalls(t, "GetJSON", 2)
	cache.AssertNumberOfCalls(t, "SetJSON", 2)
}

func TestPipeline_FailedResultNotCached(t *testing.T) {
	cache := new(mockCache)
	cache.On("GetJSON", mock.Anything, mock.Anything, mock.Anything).Return(apperrors.ErrCacheMiss)

	p := newTestPipeline(cache)
	p.extractor = nil
	res := p.processCached(context.Background(), SourceDocument{Name: "bad.txt", Text: docJan06})

	require.Error(t, res.Err)
	cache.AssertNotCalled(t, "SetJSON", mock.Anything, mock.Anything, mock.Anything)
}
