package workflow

import (
	"context"
	"fmt"
)

// Handler performs the work of one task kind. It must return only when the
// work is finished and must not retain task after returning. announce
// reports free-text progress for the running task.
type Handler interface {
	Handle(ctx context.Context, task Task, announce func(message string)) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, task Task, announce func(message string)) error

// Handle implements Handler.
func (f HandlerFunc) Handle(ctx context.Context, task Task, announce func(message string)) error {
	return f(ctx, task, announce)
}

// Handlers holds one handler per task kind.
type Handlers struct {
	Convert    Handler
	Train      Handler
	Infer      Handler
	Similarity Handler
}

// For returns the handler registered for kind.
func (h Handlers) For(kind Kind) (Handler, error) {
	var handler Handler
	switch kind {
	case KindConvert:
		handler = h.Convert
	case KindTrain:
		handler = h.Train
	case KindInfer:
		handler = h.Infer
	case KindSimilarity:
		handler = h.Similarity
	default:
		return nil, fmt.Errorf("unknown task kind: %q", kind)
	}
	if handler == nil {
		return nil, fmt.Errorf("no handler registered for %s", kind)
	}
	return handler, nil
}
