package recipe

import (
	"context"
	"errors"
	"testing"
	"time"

	"greenerate/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// observeLogs 暫時以 observer 取代全域 logger
func observeLogs(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	prev := common.Logger
	common.Logger = zap.New(core)
	t.Cleanup(func() { common.Logger = prev })
	return logs
}

func TestSuggester_BlankQuerySkipsService(t *testing.T) {
	src := newFakeSource()
	s := NewSuggester(src, 5)

	for _, q := range []string{"", "   ", "\t"} {
		got, applied := s.Suggest(context.Background(), q)
		assert.True(t, applied)
		assert.Empty(t, got)
	}
	assert.Empty(t, src.suggestCalls)
}

func TestSuggester_PreservesOrderAndLimit(t *testing.T) {
	src := newFakeSource()
	src.suggestions["to"] = []common.Suggestion{
		{Name: "tomato"}, {Name: "tofu"}, {Name: "tortilla"}, {Name: "tomatillo"}, {Name: "tonic"}, {Name: "toffee"},
	}
	s := NewSuggester(src, 5)

	got, applied := s.Suggest(context.Background(), "to")
	require.True(t, applied)
	assert.Equal(t, []string{"tomato", "tofu", "tortilla", "tomatillo", "tonic"}, common.SuggestionNames(got))
	assert.Equal(t, got, s.Current())
}

func TestSuggester_ErrorDegradesToEmpty(t *testing.T) {
	src := newFakeSource()
	src.suggestions["ch"] = []common.Suggestion{{Name: "cheese"}}
	s := NewSuggester(src, 5)
	_, _ = s.Suggest(context.Background(), "ch")

	src.suggestErr = errors.New("network down")
	got, applied := s.Suggest(context.Background(), "che")
	assert.True(t, applied)
	assert.Empty(t, got)
	assert.Empty(t, s.Current())
}

func TestSuggester_DiscardsOutOfOrderResponses(t *testing.T) {
	src := newFakeSource()
	src.suggestions["c"] = []common.Suggestion{{Name: "carrot"}, {Name: "celery"}}
	src.suggestions["ch"] = []common.Suggestion{{Name: "cheese"}}
	slow := make(chan struct{})
	src.gates["c"] = slow

	s := NewSuggester(src, 5)

	type result struct {
		got     []Suggestion
		applied bool
	}
	first := make(chan result, 1)
	go func() {
		got, applied := s.Suggest(context.Background(), "c")
		first <- result{got, applied}
	}()

	// 等第一個查詢送出
	require.Eventually(t, func() bool {
		src.mu.Lock()
		defer src.mu.Unlock()
		return len(src.suggestCalls) == 1
	}, 2*time.Second, 5*time.Millisecond)

	// 第二個查詢先完成
	got, applied := s.Suggest(context.Background(), "ch")
	require.True(t, applied)
	assert.Equal(t, []string{"cheese"}, common.SuggestionNames(got))

	// 第一個查詢之後才回來，應被捨棄
	close(slow)
	r := <-first
	assert.False(t, r.applied)
	assert.Equal(t, []string{"cheese"}, common.SuggestionNames(s.Current()))
}

func TestSuggester_ClearInvalidatesInFlight(t *testing.T) {
	src := newFakeSource()
	src.suggestions["eg"] = []common.Suggestion{{Name: "egg"}}
	gate := make(chan struct{})
	src.gates["eg"] = gate
	s := NewSuggester(src, 5)

	done := make(chan bool, 1)
	go func() {
		_, applied := s.Suggest(context.Background(), "eg")
		done <- applied
	}()
	require.Eventually(t, func() bool {
		src.mu.Lock()
		defer src.mu.Unlock()
		return len(src.suggestCalls) == 1
	}, 2*time.Second, 5*time.Millisecond)

	s.Clear()
	close(gate)
	assert.False(t, <-done)
	assert.Empty(t, s.Current())
}

func TestSuggester_SupersededQueryLogsAtDebug(t *testing.T) {
	logs := observeLogs(t)
	src := newFakeSource()
	src.suggestions["c"] = []common.Suggestion{{Name: "carrot"}}
	src.suggestions["ch"] = []common.Suggestion{{Name: "cheese"}}
	src.gates["c"] = make(chan struct{})
	s := NewSuggester(src, 5)

	first := make(chan bool, 1)
	go func() {
		_, applied := s.Suggest(context.Background(), "c")
		first <- applied
	}()
	require.Eventually(t, func() bool {
		src.mu.Lock()
		defer src.mu.Unlock()
		return len(src.suggestCalls) == 1
	}, 2*time.Second, 5*time.Millisecond)

	_, applied := s.Suggest(context.Background(), "ch")
	require.True(t, applied)
	assert.False(t, <-first)

	assert.Zero(t, logs.FilterLevelExact(zapcore.WarnLevel).Len(), "a superseded query is not a failure")
	assert.Equal(t, 1, logs.FilterMessage("自動完成查詢已取消").Len())
}

func TestSuggester_UpstreamFailureLogsAtWarn(t *testing.T) {
	logs := observeLogs(t)
	src := newFakeSource()
	src.suggestErr = errors.New("network down")
	s := NewSuggester(src, 5)

	_, _ = s.Suggest(context.Background(), "eg")
	assert.Equal(t, 1, logs.FilterMessage("自動完成查詢失敗").Len())
}
