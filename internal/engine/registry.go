package engine

import (
	"fmt"
	"sync"

	"github.com/avelin/dagflow/pkg/api"
)

// handlerRegistry maps task types to their handlers. Task types are an
// open set: hosts register whatever types their definitions use.
type handlerRegistry struct {
	mu       sync.RWMutex
	handlers map[string]api.Handler
}

func newHandlerRegistry() *handlerRegistry {
	return &handlerRegistry{
		handlers: make(map[string]api.Handler),
	}
}

func (r *handlerRegistry) Register(taskType string, h api.Handler) error {
	if taskType == "" {
		return fmt.Errorf("task type must not be empty")
	}
	if h == nil {
		return fmt.Errorf("handler for task type %q is nil", taskType)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.handlers[taskType]; exists {
		return fmt.Errorf("handler already registered for task type %q", taskType)
	}

	r.handlers[taskType] = h
	return nil
}

func (r *handlerRegistry) Get(taskType string) (api.Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	h, ok := r.handlers[taskType]
	return h, ok
}
