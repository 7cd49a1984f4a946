package nav

import (
	"strconv"
	"strings"
)

// Params holds the values captured by {name} segments.
type Params map[string]string

// Int returns a captured value as a positive integer.
func (p Params) Int(name string) (int64, bool) {
	n, err := strconv.ParseInt(p[name], 10, 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

type route struct {
	name     string
	segments []string
	literals int
}

// Router matches paths against patterns like "/orders/{id}". When several patterns
// match, the one with more literal segments wins, so "/products/low-stock" beats
// "/products/{id}" regardless of registration order.
type Router struct {
	routes []route
}

// Handle registers a pattern under name.
func (r *Router) Handle(name, pattern string) {
	segments := split(pattern)
	literals := 0
	for _, seg := range segments {
		if !isParam(seg) {
			literals++
		}
	}
	r.routes = append(r.routes, route{name: name, segments: segments, literals: literals})
}

// Match returns the best route for path.
func (r *Router) Match(path string) (string, Params, bool) {
	parts := split(path)
	best := -1
	var bestParams Params
	for i, rt := range r.routes {
		params, ok := rt.match(parts)
		if !ok {
			continue
		}
		if best < 0 || rt.literals > r.routes[best].literals {
			best = i
			bestParams = params
		}
	}
	if best < 0 {
		return "", nil, false
	}
	return r.routes[best].name, bestParams, true
}

func (rt route) match(parts []string) (Params, bool) {
	if len(parts) != len(rt.segments) {
		return nil, false
	}
	var params Params
	for i, seg := range rt.segments {
		if isParam(seg) {
			if params == nil {
				params = Params{}
			}
			params[strings.Trim(seg, "{}")] = parts[i]
			continue
		}
		if seg != parts[i] {
			return nil, false
		}
	}
	return params, true
}

func isParam(seg string) bool {
	return strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}")
}

func split(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}
