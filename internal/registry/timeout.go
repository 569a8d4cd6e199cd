package registry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"medidrop/pkg/domain"
)

var tracer = otel.Tracer("medidrop/registry")

// TimeoutChecker bounds every registry call with a deadline. Callers treat
// a deadline error as "route to manual review", never as a hard failure.
type TimeoutChecker struct {
	inner   Checker
	timeout time.Duration
}

func WithTimeout(inner Checker, timeout time.Duration) *TimeoutChecker {
	return &TimeoutChecker{inner: inner, timeout: timeout}
}

func (c *TimeoutChecker) Check(ctx context.Context, country domain.CountryCode, licenseNumber string) (Result, error) {
	ctx, span := tracer.Start(ctx, "registry.Check",
		trace.WithAttributes(attribute.String("registry.country", country.String())))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	result, err := c.inner.Check(ctx, country, licenseNumber)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return Result{}, err
	}
	span.SetAttributes(attribute.Bool("registry.valid", result.Valid))
	return result, nil
}
