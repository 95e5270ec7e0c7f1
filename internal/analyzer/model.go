package analyzer

import "context"

// Role tags a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one role-tagged entry of a chat request.
type Message struct {
	Role    Role
	Content string
}

// ChatModel sends a rendered conversation to a text-generation API and
// returns the generated text. Implementations must be safe for concurrent use.
type ChatModel interface {
	Chat(ctx context.Context, messages []Message) (string, error)
}

// ChatAsync is the non-blocking form of m.Chat.
func ChatAsync(ctx context.Context, m ChatModel, messages []Message) *Future[string] {
	return Go(ctx, func(ctx context.Context) (string, error) {
		return m.Chat(ctx, messages)
	})
}

// Future holds the eventual result of a call started with Go.
type Future[T any] struct {
	done chan struct{}
	val  T
	err  error
}

// Go runs fn in its own goroutine and returns immediately.
func Go[T any](ctx context.Context, fn func(context.Context) (T, error)) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	go func() {
		defer close(f.done)
		f.val, f.err = fn(ctx)
	}()
	return f
}

// Done is closed when the result is ready.
func (f *Future[T]) Done() <-chan struct{} { return f.done }

// Wait blocks until the result is ready or ctx ends. Giving up on ctx does not
// stop the call; cancel the context passed to Go for that.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
