// Package nav abstracts how an app moves the user around: an in-app route
// change (router push) versus a full-page navigation that may cross origins.
// The session store and route guard only ever decide between the two; the
// embedding app supplies the mechanics.
package nav

import "net/url"

type Navigator interface {
	// CurrentURL returns the full URL the app is currently showing,
	// including any query parameters.
	CurrentURL() *url.URL

	// Push performs an in-app route change without a reload.
	Push(path string)

	// Assign performs a full-page navigation to a literal URL,
	// potentially leaving the app entirely.
	Assign(rawURL string)
}
