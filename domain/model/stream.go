package model

import "context"

// PageFunc fetches the next page of a stream. more reports whether another page follows.
type PageFunc[T any] func(ctx context.Context) (items []T, more bool, err error)

// Stream is a pull-based sequence assembled from pages. Pages are requested
// lazily; once Next returns false the stream is exhausted and Err reports why.
// A stream cannot be rewound: build a new one from a fresh cursor instead.
//
//	for s.Next(ctx) {
//		item := s.Item()
//	}
//	if err := s.Err(); err != nil { ... }
type Stream[T any] struct {
	fetch PageFunc[T]
	buf   []T
	cur   T
	done  bool
	err   error
}

func NewStream[T any](fetch PageFunc[T]) *Stream[T] {
	return &Stream[T]{fetch: fetch}
}

// Next advances to the next item. It stops requesting pages once ctx is done.
func (s *Stream[T]) Next(ctx context.Context) bool {
	for {
		if len(s.buf) > 0 {
			s.cur = s.buf[0]
			s.buf = s.buf[1:]
			return true
		}
		if s.done {
			return false
		}
		if err := ctx.Err(); err != nil {
			s.err = err
			s.done = true
			return false
		}
		items, more, err := s.fetch(ctx)
		if err != nil {
			s.err = err
			s.done = true
			return false
		}
		s.buf = items
		s.done = !more
	}
}

// Item returns the item Next advanced to.
func (s *Stream[T]) Item() T {
	return s.cur
}

// Err returns the error that ended the stream, if any.
func (s *Stream[T]) Err() error {
	return s.err
}

// Collect drains the stream into a slice.
func Collect[T any](ctx context.Context, s *Stream[T]) ([]T, error) {
	var out []T
	for s.Next(ctx) {
		out = append(out, s.Item())
	}
	return out, s.Err()
}
