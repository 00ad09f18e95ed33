package navfakes

import (
	"net/url"
	"sync"

	"github.com/hubcentral/go-session-hub/nav"
)

var _ nav.Navigator = (*FakeNavigator)(nil)

// FakeNavigator records navigations and lets tests control the current URL.
type FakeNavigator struct {
	lock    sync.Mutex
	current *url.URL
	pushes  []string
	assigns []string
}

func NewFakeNavigator(rawURL string) *FakeNavigator {
	u, err := url.Parse(rawURL)
	if err != nil {
		u = &url.URL{Path: "/"}
	}
	return &FakeNavigator{current: u}
}

func (f *FakeNavigator) CurrentURL() *url.URL {
	f.lock.Lock()
	defer f.lock.Unlock()
	copied := *f.current
	return &copied
}

func (f *FakeNavigator) SetCurrentURL(rawURL string) {
	f.lock.Lock()
	defer f.lock.Unlock()
	if u, err := url.Parse(rawURL); err == nil {
		f.current = u
	}
}

func (f *FakeNavigator) Push(path string) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.pushes = append(f.pushes, path)
}

func (f *FakeNavigator) Assign(rawURL string) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.assigns = append(f.assigns, rawURL)
}

func (f *FakeNavigator) Pushes() []string {
	f.lock.Lock()
	defer f.lock.Unlock()
	return append([]string(nil), f.pushes...)
}

func (f *FakeNavigator) Assigns() []string {
	f.lock.Lock()
	defer f.lock.Unlock()
	return append([]string(nil), f.assigns...)
}
