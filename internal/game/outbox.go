package game

import "sync"

// outbox runs deliveries in the order they were queued. The queue is
// unbounded so push never blocks, and the worker goroutine only lives while
// there is something to deliver.
type outbox struct {
	mu      sync.Mutex
	idle    *sync.Cond
	queue   []func()
	running bool
	closed  bool
}

func newOutbox() *outbox {
	o := &outbox{}
	o.idle = sync.NewCond(&o.mu)
	return o
}

func (o *outbox) push(f func()) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return false
	}
	o.queue = append(o.queue, f)
	if !o.running {
		o.running = true
		go o.run()
	}
	return true
}

func (o *outbox) run() {
	for {
		o.mu.Lock()
		if len(o.queue) == 0 {
			o.running = false
			o.queue = nil
			o.idle.Broadcast()
			o.mu.Unlock()
			return
		}
		f := o.queue[0]
		o.queue[0] = nil
		o.queue = o.queue[1:]
		o.mu.Unlock()
		f()
	}
}

func (o *outbox) wait() {
	o.mu.Lock()
	for o.running {
		o.idle.Wait()
	}
	o.mu.Unlock()
}

// flush blocks until everything queued before the call has run.
func (o *outbox) flush() {
	done := make(chan struct{})
	if !o.push(func() { close(done) }) {
		o.wait()
		return
	}
	<-done
}

// close refuses new work and waits for the queue to drain.
func (o *outbox) close() {
	o.mu.Lock()
	o.closed = true
	o.mu.Unlock()
	o.wait()
}
