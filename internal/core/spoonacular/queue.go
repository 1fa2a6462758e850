package spoonacular

import (
	"context"
	"sync/atomic"
)

// Status 上游呼叫佇列狀態
type Status struct {
	InFlight      int   `json:"in_flight"`
	Waiting       int   `json:"waiting"`
	Processed     int64 `json:"processed"`
	MaxConcurrent int   `json:"max_concurrent"`
}

// callQueue 限制同時進行的上游呼叫數量，超出的呼叫排隊等待
type callQueue struct {
	slots     chan struct{}
	waiting   int64
	processed int64
}

func newCallQueue(maxConcurrent int) *callQueue {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &callQueue{slots: make(chan struct{}, maxConcurrent)}
}

// acquire 取得呼叫名額；ctx 結束時放棄等待
func (q *callQueue) acquire(ctx context.Context) error {
	atomic.AddInt64(&q.waiting, 1)
	defer atomic.AddInt64(&q.waiting, -1)

	select {
	case q.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *callQueue) release() {
	<-q.slots
	atomic.AddInt64(&q.processed, 1)
}

func (q *callQueue) status() Status {
	return Status{
		InFlight:      len(q.slots),
		Waiting:       int(atomic.LoadInt64(&q.waiting)),
		Processed:     atomic.LoadInt64(&q.processed),
		MaxConcurrent: cap(q.slots),
	}
}
