package reranker

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// LazyReranker defers construction of an expensive reranker until the first
// Rerank call. Initialization runs exactly once; concurrent first callers
// wait for it, and after it there is no per-call locking. A failed
// initialization is cached and reported as ErrUnavailable on every call, so
// orchestrators degrade instead of re-triggering a doomed model load.
type LazyReranker struct {
	factory     func() (Reranker, error)
	once        sync.Once
	inner       Reranker
	initErr     error
	initialized atomic.Bool
}

var _ Reranker = (*LazyReranker)(nil)

// NewLazyReranker wraps factory so it runs on first use.
func NewLazyReranker(factory func() (Reranker, error)) *LazyReranker {
	return &LazyReranker{factory: factory}
}

// get initializes the wrapped reranker on first call.
func (l *LazyReranker) get() (Reranker, error) {
	l.once.Do(func() {
		l.inner, l.initErr = l.factory()
		l.initialized.Store(true)
	})
	if l.initErr != nil {
		return nil, fmt.Errorf("%w: initializing reranker: %v", ErrUnavailable, l.initErr)
	}
	return l.inner, nil
}

// Rerank initializes the wrapped reranker if needed and delegates to it.
func (l *LazyReranker) Rerank(ctx context.Context, query string, docs []Document, topK int) ([]ScoredDocument, error) {
	inner, err := l.get()
	if err != nil {
		return nil, err
	}
	return inner.Rerank(ctx, query, docs, topK)
}

// Close releases the wrapped reranker if it was ever initialized.
// It never triggers initialization.
func (l *LazyReranker) Close() error {
	if !l.initialized.Load() {
		return nil
	}
	if l.inner != nil {
		return l.inner.Close()
	}
	return nil
}
