package notifyfakes

import (
	"sync"

	"github.com/hubcentral/go-session-hub/notify"
)

var _ notify.Notifier = (*FakeNotifier)(nil)

// FakeNotifier records notifications for assertions in tests.
type FakeNotifier struct {
	lock      sync.Mutex
	positives []string
	negatives []string
}

func NewFakeNotifier() *FakeNotifier {
	return &FakeNotifier{}
}

func (f *FakeNotifier) Positive(message string) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.positives = append(f.positives, message)
}

func (f *FakeNotifier) Negative(message string) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.negatives = append(f.negatives, message)
}

func (f *FakeNotifier) Positives() []string {
	f.lock.Lock()
	defer f.lock.Unlock()
	return append([]string(nil), f.positives...)
}

func (f *FakeNotifier) Negatives() []string {
	f.lock.Lock()
	defer f.lock.Unlock()
	return append([]string(nil), f.negatives...)
}
