package files

import "sync"

// LaunchParams is one "open with" request from the operating system.
type LaunchParams struct {
	Files []Handle
}

// LaunchQueue buffers launch requests until a session consumes them. A nil
// *LaunchQueue means the runtime has no launch support.
type LaunchQueue struct {
	mu      sync.Mutex
	pending []LaunchParams
}

func NewLaunchQueue() *LaunchQueue {
	return &LaunchQueue{}
}

func (q *LaunchQueue) Enqueue(params LaunchParams) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending = append(q.pending, params)
}

// Consume removes the oldest launch request and returns its first file.
// Requests with no files are discarded along the way.
func (q *LaunchQueue) Consume() (Handle, bool) {
	if q == nil {
		return Handle{}, false
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.pending) > 0 {
		params := q.pending[0]
		q.pending = q.pending[1:]
		if len(params.Files) > 0 {
			return params.Files[0], true
		}
	}
	return Handle{}, false
}

// Len is the number of launch requests waiting.
func (q *LaunchQueue) Len() int {
	if q == nil {
		return 0
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}
