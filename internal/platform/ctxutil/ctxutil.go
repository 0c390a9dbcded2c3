package ctxutil

import (
	"context"

	"github.com/google/uuid"
)

type traceDataKey struct{}

type TraceData struct {
	TraceID   string
	RequestID string
}

func WithTraceData(ctx context.Context, td *TraceData) context.Context {
	return context.WithValue(ctx, traceDataKey{}, td)
}

func GetTraceData(ctx context.Context) *TraceData {
	if td, ok := ctx.Value(traceDataKey{}).(*TraceData); ok {
		return td
	}
	return nil
}

type staffDataKey struct{}

// StaffData identifies the authenticated back-office user for staff routes.
type StaffData struct {
	StaffID uuid.UUID
	Email   string
}

func WithStaffData(ctx context.Context, sd *StaffData) context.Context {
	return context.WithValue(ctx, staffDataKey{}, sd)
}

func GetStaffData(ctx context.Context) *StaffData {
	if sd, ok := ctx.Value(staffDataKey{}).(*StaffData); ok {
		return sd
	}
	return nil
}
