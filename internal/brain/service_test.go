package brain

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/valuescreen/internal/strategyconfig"
	"github.com/wonny/valuescreen/pkg/logger"
)

type listSource struct {
	tickers []string
	err     error
	source  string
}

func (l *listSource) Load(ctx context.Context, source string) ([]string, error) {
	l.source = source
	return l.tickers, l.err
}

type jsonStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (s *jsonStore) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dest)
}

func (s *jsonStore) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = b
	return nil
}

func newTestService(t *testing.T, src TickerSource, store ResultStore) *Service {
	t.Helper()
	strategy := strategyconfig.Default()
	strategy.Selection.TopK = 2
	svc, err := NewService(newTestOrchestrator(scenarioProvider()), src, strategy, store, logger.Nop())
	require.NoError(t, err)
	return svc
}

func TestService_Screen(t *testing.T) {
	src := &listSource{tickers: []string{"MID", "CHEAP", "RICH"}}
	store := &jsonStore{data: map[string][]byte{}}
	svc := newTestService(t, src, store)

	_, found, err := svc.Latest(context.Background())
	require.NoError(t, err)
	assert.False(t, found)

	result, err := svc.Screen(context.Background(), 10_000)
	require.NoError(t, err)
	assert.Equal(t, "data/sp500.csv", src.source)
	assert.Equal(t, []string{"CHEAP", "MID"}, result.Selected.Tickers())
	assert.Len(t, result.ConfigHash, 64)
	require.NotNil(t, result.Decision)
	assert.Equal(t, result.ConfigHash, result.Decision.ConfigHash)
	assert.Equal(t, result.RunID, result.Decision.RunID)
	assert.Contains(t, result.Decision.ConfigYAML, "top_k: 2")

	latest, found, err := svc.Latest(context.Background())
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, result.RunID, latest.RunID)
	assert.Len(t, store.data, 1)
}

func TestService_LatestFromStore(t *testing.T) {
	store := &jsonStore{data: map[string][]byte{}}
	first := newTestService(t, &listSource{tickers: []string{"MID", "CHEAP", "RICH"}}, store)
	result, err := first.Screen(context.Background(), 10_000)
	require.NoError(t, err)

	// 새 프로세스 → 메모리 비어 있음
	second := newTestService(t, nil, store)
	latest, found, err := second.Latest(context.Background())
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, result.RunID, latest.RunID)
	assert.Equal(t, []string{"CHEAP", "MID"}, latest.Selected.Tickers())
}

func TestService_SourceError(t *testing.T) {
	svc := newTestService(t, &listSource{err: errors.New("no file")}, nil)
	_, err := svc.Screen(context.Background(), 1_000)
	assert.ErrorContains(t, err, "no file")
}
