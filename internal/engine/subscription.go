package engine

const snapshotBufferSize = 16

// Subscription delivers snapshots to one consumer. Delivery is best effort:
// when the buffer is full the oldest pending snapshot is dropped, so a slow
// consumer always converges on recent state instead of backpressuring the
// loop.
type Subscription struct {
	Snapshots <-chan Snapshot
	Done      <-chan struct{}

	snapCh chan Snapshot
	doneCh chan struct{}
}

func newSubscription() *Subscription {
	s := &Subscription{
		snapCh: make(chan Snapshot, snapshotBufferSize),
		doneCh: make(chan struct{}),
	}
	s.Snapshots = s.snapCh
	s.Done = s.doneCh
	return s
}

func (s *Subscription) send(snap Snapshot) {
	for {
		select {
		case s.snapCh <- snap:
			return
		default:
		}
		select {
		case <-s.snapCh:
		default:
		}
	}
}

func (s *Subscription) close() {
	close(s.doneCh)
}
