package httpx

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// CORSPolicy lists the browser origins allowed to call the API. An origin entry may be
// an exact origin, "*" or a subdomain wildcard such as "https://*.example.com".
type CORSPolicy struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAge           time.Duration
}

type corsRules struct {
	any      bool
	exact    map[string]struct{}
	suffixes []corsSuffix
}

type corsSuffix struct {
	scheme string
	domain string
}

func compileOrigins(origins []string) corsRules {
	rules := corsRules{exact: map[string]struct{}{}}
	for _, o := range origins {
		o = strings.ToLower(strings.TrimRight(strings.TrimSpace(o), "/"))
		switch {
		case o == "":
		case o == "*":
			rules.any = true
		case strings.Contains(o, "://*."):
			scheme, host, _ := strings.Cut(o, "://*")
			rules.suffixes = append(rules.suffixes, corsSuffix{scheme: scheme + "://", domain: host})
		default:
			rules.exact[o] = struct{}{}
		}
	}
	return rules
}

func (c corsRules) empty() bool {
	return !c.any && len(c.exact) == 0 && len(c.suffixes) == 0
}

func (c corsRules) allows(origin string) bool {
	if c.any {
		return true
	}
	o := strings.ToLower(origin)
	if _, ok := c.exact[o]; ok {
		return true
	}
	for _, s := range c.suffixes {
		rest, ok := strings.CutPrefix(o, s.scheme)
		if ok && strings.HasSuffix(rest, s.domain) && len(rest) > len(s.domain) {
			return true
		}
	}
	return false
}

// WithCORS answers preflight requests for allowed origins and decorates their actual
// requests. Requests from other origins pass through untouched, so the browser blocks them.
// With no allowed origins the middleware is a no-op.
func WithCORS(p CORSPolicy) Middleware {
	rules := compileOrigins(p.AllowedOrigins)
	if rules.empty() {
		return nil
	}
	methods := joinHeader(p.AllowedMethods)
	headers := joinHeader(p.AllowedHeaders)
	exposed := joinHeader(p.ExposedHeaders)
	var maxAge string
	if secs := int(p.MaxAge / time.Second); secs > 0 {
		maxAge = strconv.Itoa(secs)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			h := w.Header()
			h.Add("Vary", "Origin")
			if origin == "" || !rules.allows(origin) {
				next.ServeHTTP(w, r)
				return
			}

			if rules.any && !p.AllowCredentials {
				h.Set("Access-Control-Allow-Origin", "*")
			} else {
				h.Set("Access-Control-Allow-Origin", origin)
			}
			if p.AllowCredentials {
				h.Set("Access-Control-Allow-Credentials", "true")
			}
			if exposed != "" {
				h.Set("Access-Control-Expose-Headers", exposed)
			}

			if r.Method != http.MethodOptions || r.Header.Get("Access-Control-Request-Method") == "" {
				next.ServeHTTP(w, r)
				return
			}
			if methods != "" {
				h.Set("Access-Control-Allow-Methods", methods)
			}
			if headers != "" {
				h.Set("Access-Control-Allow-Headers", headers)
			}
			if maxAge != "" {
				h.Set("Access-Control-Max-Age", maxAge)
			}
			w.WriteHeader(http.StatusNoContent)
		})
	}
}

func joinHeader(values []string) string {
	kept := values[:0:0]
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			kept = append(kept, v)
		}
	}
	return strings.Join(kept, ", ")
}
