package safe_close

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestSafeClose_WaitsForAllAttached(t *testing.T) {
	sc := NewSafeClose()
	var finished atomic.Int32

	for i := 0; i < 3; i++ {
		sc.Attach(func(done func(), closeSignal <-chan struct{}) {
			defer done()
			<-closeSignal
			time.Sleep(5 * time.Millisecond)
			finished.Add(1)
		})
	}

	cause := errors.New("listener failed")
	sc.SendCloseSignal(cause)
	sc.SendCloseSignal(errors.New("ignored"))

	if err := sc.WaitClosed(); !errors.Is(err, cause) {
		t.Fatalf("WaitClosed() = %v, want %v", err, cause)
	}
	if finished.Load() != 3 {
		t.Fatalf("finished = %d, want 3", finished.Load())
	}
}
