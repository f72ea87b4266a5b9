package httpapi

import "context"

type contextKey string

const routeContextKey contextKey = "http_route"

// routeHolder is filled by the mux-level route wrapper and read back by RequestLogging,
// which only sees the request before routing.
type routeHolder struct {
	pattern string
}

func withRouteHolder(ctx context.Context) (context.Context, *routeHolder) {
	holder := &routeHolder{}
	return context.WithValue(ctx, routeContextKey, holder), holder
}

func setRoute(ctx context.Context, pattern string) {
	if holder, ok := ctx.Value(routeContextKey).(*routeHolder); ok {
		holder.pattern = pattern
	}
}
