// Package guard centralizes page-level routing policy: which paths require a
// session, which are for signed-out visitors only, and which legacy paths
// alias onto canonical ones. Keeping the table in one place means adding a
// protected page is a one-line change instead of a new middleware stack.
package guard

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/dalemusser/waffle/pantry/urlutil"

	"github.com/mwholloway/salescope/internal/app/system/auth"
)

// Policy is the routing table the middleware enforces.
type Policy struct {
	// Protected lists path prefixes that require a signed-in user. The
	// entry "/" matches only the root path itself.
	Protected []string

	// PublicOnly lists exact paths that signed-in users are bounced away
	// from, such as the sign-in and sign-up pages.
	PublicOnly []string

	// Aliases maps legacy paths to their canonical equivalents. Requests
	// are redirected, never rewritten, so the address bar always shows
	// the canonical path.
	Aliases map[string]string

	// SignInPath receives anonymous visitors to protected paths.
	SignInPath string

	// DefaultLanding receives signed-in visitors to public-only paths
	// when no usable next parameter is present.
	DefaultLanding string
}

// Default returns the policy for this application.
func Default() Policy {
	return Policy{
		Protected:      []string{"/", "/profile", "/dashboard"},
		PublicOnly:     []string{"/sign-in", "/sign-up"},
		Aliases:        map[string]string{"/signin": "/sign-in", "/signup": "/sign-up"},
		SignInPath:     "/sign-in",
		DefaultLanding: "/",
	}
}

// Middleware applies the policy. It must run after the session loader so the
// request context already carries the user, if any.
func (p Policy) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if canonical, ok := p.Aliases[r.URL.Path]; ok {
			target := canonical
			if r.URL.RawQuery != "" {
				target += "?" + r.URL.RawQuery
			}
			http.Redirect(w, r, target, http.StatusPermanentRedirect)
			return
		}

		user := auth.UserFromContext(r.Context())

		if p.isPublicOnly(r.URL.Path) && user != nil {
			http.Redirect(w, r, p.landingFor(r), http.StatusSeeOther)
			return
		}

		if p.isProtected(r.URL.Path) && user == nil {
			signIn := p.SignInPath + "?next=" + url.QueryEscape(r.URL.RequestURI())
			http.Redirect(w, r, signIn, http.StatusSeeOther)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// landingFor picks where to send an already signed-in visitor: the next
// parameter when it is a safe local path, otherwise the default landing.
// Any query string on the target is discarded.
func (p Policy) landingFor(r *http.Request) string {
	target := urlutil.SafeReturn(r.URL.Query().Get("next"), "", p.DefaultLanding)
	if i := strings.IndexByte(target, '?'); i >= 0 {
		target = target[:i]
	}
	if target == "" {
		target = p.DefaultLanding
	}
	return target
}

func (p Policy) isPublicOnly(path string) bool {
	for _, candidate := range p.PublicOnly {
		if path == candidate {
			return true
		}
	}
	return false
}

func (p Policy) isProtected(path string) bool {
	for _, prefix := range p.Protected {
		if prefix == "/" {
			if path == "/" {
				return true
			}
			continue
		}
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}
