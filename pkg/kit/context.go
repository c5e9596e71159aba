package kit

import "context"

type contextKey string

const (
	TenantIDKey  contextKey = "kit_tenant_id"
	WorkshopKey  contextKey = "kit_workshop"
	TransportKey contextKey = "kit_transport" // "http", "mcp_quic"
	RequestIDKey contextKey = "kit_request_id"
)

func WithTenantID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, TenantIDKey, id)
}
func GetTenantID(ctx context.Context) string {
	v, _ := ctx.Value(TenantIDKey).(string)
	return v
}

func WithWorkshop(ctx context.Context, w string) context.Context {
	return context.WithValue(ctx, WorkshopKey, w)
}
func GetWorkshop(ctx context.Context) string {
	v, _ := ctx.Value(WorkshopKey).(string)
	return v
}

func WithTransport(ctx context.Context, t string) context.Context {
	return context.WithValue(ctx, TransportKey, t)
}
func GetTransport(ctx context.Context) string {
	if v, ok := ctx.Value(TransportKey).(string); ok {
		return v
	}
	return "http"
}

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}
func GetRequestID(ctx context.Context) string {
	v, _ := ctx.Value(RequestIDKey).(string)
	return v
}
