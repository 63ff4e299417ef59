package util

import (
	"context"
)

type key string

const (
	requestIDKey = key("x-request-id")
	marketKey    = key("market")
	clientIPKey  = key("x-forwarded-for")
)

// Fields returns the key-value pairs that this package has set into ctx.
// Empty values are omitted.
func Fields(ctx context.Context) map[string]interface{} {
	mapFields := make(map[string]interface{})
	if id := GetRequestID(ctx); id != "" {
		mapFields["request_id"] = id
	}
	if market := GetMarket(ctx); market != "" {
		mapFields["market"] = market
	}
	if ip := GetClientIP(ctx); ip != "" {
		mapFields["client_ip"] = ip
	}

	return mapFields
}

// WithMarket returns a context carrying the market symbol being served.
func WithMarket(ctx context.Context, market string) context.Context {
	return context.WithValue(ctx, marketKey, market)
}

// GetMarket returns the market symbol from context, empty if not present.
func GetMarket(ctx context.Context) string {
	market, _ := ctx.Value(marketKey).(string)
	return market
}

// WithClientIP returns a context with a client ip
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey, ip)
}

// GetClientIP returns client ip from context, empty if not present.
func GetClientIP(ctx context.Context) string {
	ip, _ := ctx.Value(clientIPKey).(string)
	return ip
}
