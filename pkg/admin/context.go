package admin

import "context"

type recordCtxKey struct{}

// SetRecordToContext stores the resolved admin record in the context.
func SetRecordToContext(ctx context.Context, record *Record) context.Context {
	return context.WithValue(ctx, recordCtxKey{}, record)
}

// GetRecordFromContext retrieves the resolved admin record from the context.
func GetRecordFromContext(ctx context.Context) (*Record, bool) {
	record, ok := ctx.Value(recordCtxKey{}).(*Record)
	return record, ok
}
