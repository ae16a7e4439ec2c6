// graphdb - Bottom-Up Hierarchy Scheduler: worker pool
// Copyright (C) 2026 GraphDB Authors
// Licensed under the GNU Affero General Public License v3 or later.

// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.

// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.

// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package sched

import "sync"

// Pool is a fixed-size worker pool draining a shared task channel,
// generalized from a single-purpose background-writer goroutine into N
// interchangeable workers pulling closures off one queue.
type Pool struct {
	tasks chan func()
	wg    sync.WaitGroup
}

// NewPool starts workers goroutines (at least 1) waiting on the task
// queue. Callers must call Close to release them.
func NewPool(workers int) *Pool {
	if workers < 1 {
		workers = 1
	}
	p := &Pool{tasks: make(chan func())}
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for task := range p.tasks {
		task()
	}
}

// Submit enqueues task, blocking until a worker picks it up.
func (p *Pool) Submit(task func()) {
	p.tasks <- task
}

// Close stops accepting work and waits for every worker to drain.
func (p *Pool) Close() {
	close(p.tasks)
	p.wg.Wait()
}

// EOF
