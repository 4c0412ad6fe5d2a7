package retry

import (
	"log"
	"sync"
)

var (
	globalExec *Executor
	globalOnce sync.Once
)

// DefaultExecutor returns the shared, lazy-initialized default executor.
func DefaultExecutor() *Executor {
	globalOnce.Do(func() {
		if globalExec == nil {
			globalExec = NewExecutor()
		}
	})
	return globalExec
}

// SetGlobal configures the default executor. It must be called before
// DefaultExecutor is first used (e.g. at startup); afterwards it logs a
// warning and does nothing.
func SetGlobal(exec *Executor) {
	if exec == nil {
		return
	}

	if globalExec != nil {
		log.Printf("persist: SetGlobal called after global executor already initialized; ignoring.")
		return
	}

	globalOnce.Do(func() {
		globalExec = exec
	})
}
