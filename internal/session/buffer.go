package session

import (
	"strings"
	"sync"
)

// FeedbackBuffer accumulates streamed feedback fragments for one answer into
// a single growing string. Each Append returns the full text so far, so
// every broadcast carries a complete prefix rather than a delta. One buffer
// is created per answer evaluation; two concurrent evaluations never share
// a buffer.
type FeedbackBuffer struct {
	mu sync.Mutex
	b  strings.Builder
}

// NewFeedbackBuffer creates an empty feedback buffer.
func NewFeedbackBuffer() *FeedbackBuffer {
	return &FeedbackBuffer{}
}

// Append adds a fragment and returns the accumulated text so far.
func (b *FeedbackBuffer) Append(chunk string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.b.WriteString(chunk)
	return b.b.String()
}

// String returns the accumulated text.
func (b *FeedbackBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// Len returns the accumulated length in bytes.
func (b *FeedbackBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Len()
}
