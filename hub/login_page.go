package hub

import (
	"html/template"
	"net/http"
	"net/url"
	"strings"
)

// LoginPageData contains data for rendering the login page
type LoginPageData struct {
	AppName string
}

const loginPageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <title>{{.AppName}} - Sign in</title>
</head>
<body>
  <main>
    <h1>{{.AppName}}</h1>
    <form method="post" action="/api/v1/auth/token">
      <input type="hidden" name="grant_type" value="password">
      <label>Email <input type="email" name="username" autocomplete="username" required></label>
      <label>Password <input type="password" name="password" autocomplete="current-password" required></label>
      <label>One-time code <input type="text" name="otp_code" autocomplete="one-time-code"></label>
      <button type="submit">Sign in</button>
    </form>
  </main>
</body>
</html>
`

// LoginPageHandler serves the central login page the front-end apps bounce
// unauthenticated users to. The redirect query parameter stays in the page
// URL for the front-end to follow after sign-in; a value the sanitizer
// rejects is scrubbed from the URL before the page renders, so the
// front-end can trust whatever survives.
func (s *Server) LoginPageHandler() http.HandlerFunc {
	tmpl, err := template.New("login").Parse(loginPageTemplate)
	if err != nil {
		panic("Failed to parse login template: " + err.Error())
	}

	return func(w http.ResponseWriter, r *http.Request) {
		raw := r.URL.Query().Get("redirect")
		if sanitized := s.sanitizeRedirect(raw); sanitized != raw {
			query := r.URL.Query()
			if sanitized == "" {
				query.Del("redirect")
			} else {
				query.Set("redirect", sanitized)
			}
			cleaned := *r.URL
			cleaned.RawQuery = query.Encode()
			http.Redirect(w, r, cleaned.String(), http.StatusSeeOther)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_ = tmpl.Execute(w, LoginPageData{AppName: s.config.GetAppName()})
	}
}

// sanitizeRedirect keeps relative paths and absolute URLs whose origin is in
// the CORS allow list; anything else is dropped so the login page cannot be
// used as an open redirector.
func (s *Server) sanitizeRedirect(redirect string) string {
	if redirect == "" {
		return ""
	}
	// Protocol-relative URLs escape a naive prefix check.
	if strings.HasPrefix(redirect, "//") {
		return ""
	}
	if strings.HasPrefix(redirect, "/") {
		return redirect
	}

	u, err := url.Parse(redirect)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	origin := u.Scheme + "://" + u.Host
	if s.config.GetAllowedOrigins().IsAllowedOrigin(origin) {
		return redirect
	}
	return ""
}
