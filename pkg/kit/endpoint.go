package kit

import "context"

// Endpoint is one transport-agnostic service action. The engine's operations
// (suggest, problems by category, category listing) are exposed as Endpoints
// so the HTTP router and the MCP tools dispatch to one implementation.
type Endpoint func(ctx context.Context, request any) (response any, err error)

// Middleware decorates an Endpoint with a cross-cutting concern, such as
// request auditing.
type Middleware func(Endpoint) Endpoint

// Chain composes middlewares left to right: the first argument ends up as
// the outermost wrapper around the endpoint.
func Chain(mw ...Middleware) Middleware {
	return func(next Endpoint) Endpoint {
		for i := len(mw) - 1; i >= 0; i-- {
			next = mw[i](next)
		}
		return next
	}
}
