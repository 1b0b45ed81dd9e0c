package context

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrGetRequestID    = errors.New("no requestID found in context")
	ErrExtractTenantID = errors.New("could not extract tenant ID from context")
)

type key string

const (
	requestID = key("requestID")
	tenantID  = key("tenantID")
)

func InjectRequestID(ctx context.Context) context.Context {
	return context.WithValue(ctx, requestID, uuid.NewString())
}

func GetRequestID(ctx context.Context) (string, error) {
	id, ok := ctx.Value(requestID).(string)
	if !ok || id == "" {
		return "", ErrGetRequestID
	}

	return id, nil
}

func InjectTenantID(ctx context.Context, tenant string) context.Context {
	return context.WithValue(ctx, tenantID, tenant)
}

func ExtractTenantID(ctx context.Context) (string, error) {
	tenant, ok := ctx.Value(tenantID).(string)
	if !ok || tenant == "" {
		return "", ErrExtractTenantID
	}

	return tenant, nil
}
