package bearerauth

import (
	"net/http"
	"sort"
)

// Interceptor is one link in the request-processing chain. Process receives
// the response writer, the request, and a handle to the rest of the chain.
// An interceptor decides whether to invoke next; the authentication
// middleware invokes it unconditionally.
type Interceptor interface {
	Process(w http.ResponseWriter, r *http.Request, next http.HandlerFunc)
}

// InterceptorFunc adapts a plain function to the Interceptor interface.
type InterceptorFunc func(w http.ResponseWriter, r *http.Request, next http.HandlerFunc)

func (f InterceptorFunc) Process(w http.ResponseWriter, r *http.Request, next http.HandlerFunc) {
	f(w, r, next)
}

// Prioritized is implemented by interceptors that carry their own chain
// position, such as *Middleware. Chain.Use picks the priority up
// automatically; interceptors without one register at priority 0.
type Prioritized interface {
	Priority() int
}

type chainLink struct {
	interceptor Interceptor
	priority    int
	order       int
}

// Chain maintains an ordered sequence of interceptors. Ordering is
// configuration: it is resolved once when Then is called and is immutable
// afterwards. Lower priority values run earlier; ties run in registration
// order.
//
// The authentication middleware must be ordered before any interceptor or
// handler that reads the identity context, and before any interceptor that
// performs an alternative authentication scheme for the same requests.
type Chain struct {
	links  []chainLink
	frozen bool
	logger Logger
}

// ChainOption configures a Chain.
type ChainOption func(*Chain)

// WithChainLogger sets the logger used when the chain converts a panic into
// an error response.
func WithChainLogger(logger Logger) ChainOption {
	return func(c *Chain) {
		c.logger = logger
	}
}

// NewChain creates an empty Chain.
func NewChain(opts ...ChainOption) *Chain {
	c := &Chain{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Use appends an interceptor. If the interceptor implements Prioritized its
// priority is used, otherwise it registers at priority 0.
// Use panics once the chain has been resolved by Then: ordering is startup
// configuration, not something to mutate while serving.
func (c *Chain) Use(i Interceptor) *Chain {
	priority := 0
	if p, ok := i.(Prioritized); ok {
		priority = p.Priority()
	}
	return c.UseWithPriority(i, priority)
}

// UseWithPriority appends an interceptor at an explicit priority.
func (c *Chain) UseWithPriority(i Interceptor, priority int) *Chain {
	if c.frozen {
		panic("bearerauth: chain already resolved, interceptors must be registered before Then")
	}
	if i == nil {
		panic("bearerauth: nil interceptor")
	}
	c.links = append(c.links, chainLink{interceptor: i, priority: priority, order: len(c.links)})
	return c
}

// Then resolves the chain ordering, freezes the chain, and returns an
// http.Handler that runs every interceptor in order before reaching final.
// A nil final handler is replaced with a 404 handler.
//
// If any interceptor or the final handler panics, the chain aborts the
// remaining stages and converts the fault into a 500 response. The
// authentication middleware never triggers this path for authentication
// failures.
func (c *Chain) Then(final http.Handler) http.Handler {
	c.frozen = true

	if final == nil {
		final = http.NotFoundHandler()
	}

	links := make([]chainLink, len(c.links))
	copy(links, c.links)
	sort.SliceStable(links, func(a, b int) bool {
		return links[a].priority < links[b].priority
	})

	// Build the nested handler inside-out so links[0] runs first.
	next := final.ServeHTTP
	for i := len(links) - 1; i >= 0; i-- {
		interceptor := links[i].interceptor
		inner := next
		next = func(w http.ResponseWriter, r *http.Request) {
			interceptor.Process(w, r, inner)
		}
	}

	entry := next
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				if c.logger != nil {
					c.logger.Errorf("chain aborted by panic: %v", rec)
				}
				http.Error(w, "internal server error", http.StatusInternalServerError)
			}
		}()
		entry(w, r)
	})
}

// ThenFunc is like Then for a plain handler function.
func (c *Chain) ThenFunc(final http.HandlerFunc) http.Handler {
	if final == nil {
		return c.Then(nil)
	}
	return c.Then(final)
}
