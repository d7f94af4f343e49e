package batch

import (
	"context"
	"errors"
	"fmt"
)

// Chunk size bounds.
const (
	// DefaultSize is the number of rows per chunk.
	DefaultSize = 500

	// MinSize is the smallest accepted chunk size.
	MinSize = 1

	// MaxSize is the largest accepted chunk size.
	MaxSize = 10000
)

var (
	// ErrInvalidSize is returned for a chunk size outside [MinSize, MaxSize].
	ErrInvalidSize = errors.New("batch size must be between 1 and 10000")
	// ErrNilCallback is returned when Process is given no callback.
	ErrNilCallback = errors.New("batch callback cannot be nil")
)

// Callback handles one chunk. offset is the index of the chunk's first item.
type Callback[T any] func(ctx context.Context, chunk []T, offset int) error

// ProgressFunc is invoked after every chunk.
type ProgressFunc func(p Progress)

// Processor splits a slice into chunks of a fixed size.
type Processor[T any] struct {
	size       int
	onProgress ProgressFunc
}

// NewProcessor returns a processor with the given chunk size.
func NewProcessor[T any](size int) (*Processor[T], error) {
	if size < MinSize || size > MaxSize {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidSize, size)
	}
	return &Processor[T]{size: size}, nil
}

// NewDefaultProcessor returns a processor using DefaultSize.
func NewDefaultProcessor[T any]() *Processor[T] {
	return &Processor[T]{size: DefaultSize}
}

// WithProgress sets the progress callback.
func (p *Processor[T]) WithProgress(fn ProgressFunc) *Processor[T] {
	p.onProgress = fn
	return p
}

// Size returns the chunk size.
func (p *Processor[T]) Size() int {
	return p.size
}

// Process calls fn for every chunk of items in order and stops at the first
// error or when ctx is done. An empty slice is not an error.
func (p *Processor[T]) Process(ctx context.Context, items []T, fn Callback[T]) error {
	if fn == nil {
		return ErrNilCallback
	}

	progress := newProgress(len(items), p.Chunks(len(items)))
	for start := 0; start < len(items); start += p.size {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := min(start+p.size, len(items))
		if err := fn(ctx, items[start:end], start); err != nil {
			return fmt.Errorf("chunk at row %d: %w", start, err)
		}
		progress.add(end - start)
		if p.onProgress != nil {
			p.onProgress(progress)
		}
	}
	return nil
}

// Chunks returns how many chunks n items split into.
func (p *Processor[T]) Chunks(n int) int {
	if n <= 0 {
		return 0
	}
	return (n + p.size - 1) / p.size
}
