package service

import "myejbclient/interfaces"

// GoExecutor runs each task on a new goroutine.
type GoExecutor struct{}

var _ interfaces.Executor = GoExecutor{}

func (GoExecutor) Execute(task func()) {
	go task()
}

// SameGoroutineExecutor runs each task inline on the caller's goroutine. Used for loop-back targets
// where there is no network hop to wait on; the invocation path is otherwise identical.
type SameGoroutineExecutor struct{}

var _ interfaces.Executor = SameGoroutineExecutor{}

func (SameGoroutineExecutor) Execute(task func()) {
	task()
}
