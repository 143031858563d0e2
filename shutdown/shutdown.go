// Package shutdown runs cleanup hooks when the harness is interrupted, so an
// aborted run does not leave build directories or fixture sources behind.
package shutdown

import (
	"container/heap"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/flanksource/commons/logger"
)

// Hooks run in ascending priority order.
const (
	PriorityDefault = 100
	PriorityBuild   = 200
)

// ExitInterrupted is the exit code used after a signal-triggered shutdown.
const ExitInterrupted = 130

type Hook struct {
	label    string
	priority int
	fn       func()
	order    int
}

type hookHeap []*Hook

func (h hookHeap) Len() int { return len(h) }

// Less keeps insertion order between hooks of equal priority.
func (h hookHeap) Less(i, j int) bool {
	if h[i].priority == h[j].priority {
		return h[i].order < h[j].order
	}
	return h[i].priority < h[j].priority
}

func (h hookHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
}

func (h *hookHeap) Push(x any) {
	*h = append(*h, x.(*Hook))
}

func (h *hookHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[0 : n-1]
	return item
}

var (
	hooks    hookHeap
	seq      int
	hooksMux sync.Mutex
	listen   sync.Once
)

func AddHook(label string, fn func()) {
	AddHookWithPriority(label, PriorityDefault, fn)
}

func AddHookWithPriority(label string, priority int, fn func()) {
	hooksMux.Lock()
	defer hooksMux.Unlock()

	seq++
	heap.Push(&hooks, &Hook{
		label:    label,
		priority: priority,
		fn:       fn,
		order:    seq,
	})
}

// Pending returns the number of hooks that have not run yet.
func Pending() int {
	hooksMux.Lock()
	defer hooksMux.Unlock()
	return hooks.Len()
}

// Shutdown runs and discards every registered hook. A panicking hook is
// logged and does not stop the others.
func Shutdown() {
	hooksMux.Lock()
	defer hooksMux.Unlock()

	if len(hooks) == 0 {
		return
	}

	logger.Debugf("Executing %d shutdown hooks", len(hooks))

	for hooks.Len() > 0 {
		hook := heap.Pop(&hooks).(*Hook)
		logger.Tracef("Executing shutdown hook: %s (priority=%d)", hook.label, hook.priority)

		func() {
			defer func() {
				if r := recover(); r != nil {
					logger.Errorf("Panic in shutdown hook %s: %v", hook.label, r)
				}
			}()
			hook.fn()
		}()
	}
}

// Listen installs the signal handler once. On SIGINT or SIGTERM the hooks
// run and the process exits; a second signal exits immediately.
func Listen() {
	listen.Do(func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

		go func() {
			sig := <-sigChan
			_, _ = fmt.Fprintf(os.Stderr, "\nReceived %s - cleaning up...\n", sig)

			go func() {
				<-sigChan
				_, _ = fmt.Fprintf(os.Stderr, "\nForce exit\n")
				os.Exit(1)
			}()

			Shutdown()
			os.Exit(ExitInterrupted)
		}()
	})
}
