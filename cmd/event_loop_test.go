package cmd

import (
	"fmt"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/wagoodman/go-partybus"

	"github.com/kevensen/frtsdk/internal/ui"
	"github.com/kevensen/frtsdk/redteam/event"
)

var _ ui.UI = (*uiMock)(nil)

type uiMock struct {
	t           *testing.T
	finalEvent  partybus.Event
	unsubscribe func() error
	mock.Mock
}

func (u *uiMock) Setup(unsubscribe func() error) error {
	u.unsubscribe = unsubscribe
	return u.Called(unsubscribe).Error(0)
}

func (u *uiMock) Handle(e partybus.Event) error {
	if e == u.finalEvent {
		assert.NoError(u.t, u.unsubscribe())
	}
	return u.Called(e).Error(0)
}

func (u *uiMock) Teardown(_ bool) error {
	return u.Called().Error(0)
}

var reportEvent = partybus.Event{Type: event.NonRootCommandFinished, Value: "done\n"}

// harness wires a bus, a subscription and a mock UI expecting the usual setup and teardown calls.
type harness struct {
	bus          *partybus.Bus
	subscription *partybus.Subscription
	ux           *uiMock
	cleanedUp    bool
}

func newHarness(t *testing.T, finalEvent partybus.Event) *harness {
	b := partybus.NewBus()
	t.Cleanup(b.Close)
	h := &harness{
		bus:          b,
		subscription: b.Subscribe(),
		ux:           &uiMock{t: t, finalEvent: finalEvent},
	}
	h.ux.On("Setup", mock.AnythingOfType("func() error")).Return(nil)
	return h
}

func (h *harness) loop(workerErrs <-chan error, signals <-chan os.Signal, onSignal func() bool) error {
	return eventLoop(workerErrs, signals, h.subscription, onSignal, func() { h.cleanedUp = true }, h.ux)
}

// finishingWorker sends the given errors, closes its channel and then publishes the final events.
func finishingWorker(h *harness, errs []error, events ...partybus.Event) <-chan error {
	ret := make(chan error)
	go func() {
		// an empty item (which is ignored) ensures the loop has entered the select statement
		ret <- nil
		for _, err := range errs {
			ret <- err
		}
		close(ret)
		for _, e := range events {
			h.bus.Publish(e)
		}
	}()
	return ret
}

func Test_eventLoop(t *testing.T) {
	workerErr := fmt.Errorf("worker error")
	teardownErr := fmt.Errorf("teardown error")

	tests := []struct {
		name        string
		workerErrs  []error
		handleErr   error
		teardownErr error
		wantErr     error
	}{
		{
			name: "graceful exit",
		},
		{
			name:       "worker error",
			workerErrs: []error{workerErr},
			wantErr:    workerErr,
		},
		{
			// unsubscribe errors are handled as a controlled shutdown, not propagated
			name:      "unsubscribe error",
			handleErr: partybus.ErrUnsubscribe,
		},
		{
			name:        "ui teardown error",
			teardownErr: teardownErr,
			wantErr:     teardownErr,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			testWithTimeout(t, 5*time.Second, func(t *testing.T) {
				h := newHarness(t, reportEvent)
				h.ux.On("Teardown").Return(test.teardownErr)

				var events []partybus.Event
				if test.workerErrs == nil {
					// a failing worker never reports
					events = append(events, reportEvent)
					h.ux.On("Handle", reportEvent).Return(test.handleErr)
				}

				err := h.loop(finishingWorker(h, test.workerErrs, events...), nil, nil)
				if test.wantErr != nil {
					assert.ErrorIs(t, err, test.wantErr)
				} else {
					assert.NoError(t, err)
				}
				assert.True(t, h.cleanedUp, "cleanup function not called")
				h.ux.AssertExpectations(t)
			})
		})
	}
}

func Test_eventLoop_handlerError(t *testing.T) {
	testWithTimeout(t, 5*time.Second, func(t *testing.T) {
		h := newHarness(t, reportEvent)
		handlerErr := fmt.Errorf("handler error")
		h.ux.On("Handle", reportEvent).Return(handlerErr)
		h.ux.On("Teardown").Return(nil)

		assert.ErrorIs(t, h.loop(finishingWorker(h, nil, reportEvent), nil, nil), handlerErr)
		assert.True(t, h.cleanedUp)
		h.ux.AssertExpectations(t)
	})
}

func Test_eventLoop_signalStopsExecution(t *testing.T) {
	testWithTimeout(t, 5*time.Second, func(t *testing.T) {
		h := newHarness(t, partybus.Event{})
		h.ux.On("Teardown").Return(nil)

		// the worker never finishes on its own
		worker := make(chan error)
		signals := make(chan os.Signal)
		go func() {
			signals <- syscall.SIGINT
		}()

		var declined int
		onSignal := func() bool {
			declined++
			return false
		}

		assert.NoError(t, h.loop(worker, signals, onSignal))
		assert.Equal(t, 1, declined)
		assert.True(t, h.cleanedUp)
		h.ux.AssertExpectations(t)
	})
}

func Test_eventLoop_interruptKeepsRunning(t *testing.T) {
	testWithTimeout(t, 5*time.Second, func(t *testing.T) {
		h := newHarness(t, reportEvent)
		h.ux.On("Handle", reportEvent).Return(nil)
		h.ux.On("Teardown").Return(nil)

		signals := make(chan os.Signal)
		interrupted := make(chan struct{})

		worker := make(chan error)
		go func() {
			worker <- nil
			signals <- syscall.SIGINT
			// the interrupt only abandons the current unit of work, the worker still finishes
			<-interrupted
			close(worker)
			h.bus.Publish(reportEvent)
		}()

		var interrupts int
		onSignal := func() bool {
			interrupts++
			close(interrupted)
			return true
		}

		assert.NoError(t, h.loop(worker, signals, onSignal))
		assert.Equal(t, 1, interrupts)
		h.ux.AssertExpectations(t)
	})
}

func testWithTimeout(t *testing.T, timeout time.Duration, test func(*testing.T)) {
	done := make(chan bool)
	go func() {
		test(t)
		done <- true
	}()

	select {
	case <-time.After(timeout):
		t.Fatal("test timed out")
	case <-done:
	}
}
