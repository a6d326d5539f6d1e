package push

import (
	"context"
	"sync"

	"github.com/segmentio/kafka-go"
)

type fakeSessions struct {
	mu       sync.Mutex
	sessions map[string]string
	cleared  chan string
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{sessions: map[string]string{}, cleared: make(chan string, 8)}
}

func (f *fakeSessions) SetUserGateway(_ context.Context, userID, nodeID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions[userID] = nodeID
	return nil
}

func (f *fakeSessions) GetUserGateway(_ context.Context, userID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sessions[userID], nil
}

func (f *fakeSessions) ClearUserGateway(_ context.Context, userID, nodeID string) error {
	f.mu.Lock()
	if f.sessions[userID] == nodeID {
		delete(f.sessions, userID)
	}
	f.mu.Unlock()
	f.cleared <- userID
	return nil
}

// scriptedReader 依次返回预设的结果，用完后一直返回 fallback
type scriptedReader struct {
	mu        sync.Mutex
	results   []fetchResult
	fallback  error
	fetches   int
	committed []kafka.Message
}

type fetchResult struct {
	msg kafka.Message
	err error
}

func (r *scriptedReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fetches++
	if len(r.results) > 0 {
		next := r.results[0]
		r.results = r.results[1:]
		return next.msg, next.err
	}
	if err := ctx.Err(); err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{}, r.fallback
}

func (r *scriptedReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.committed = append(r.committed, msgs...)
	return nil
}

func (r *scriptedReader) fetchCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.fetches
}
