package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Common attribute keys, in the protocol-agnostic "domain.field" style.
const (
	AttrProfile   = "s3x.profile"
	AttrBucket    = "s3x.bucket"
	AttrKey       = "s3x.object_key"
	AttrPrefix    = "s3x.prefix"
	AttrOperation = "s3x.operation"
	AttrCacheHit  = "cache.hit"
	AttrCacheName = "cache.name"
	AttrBytes     = "s3x.bytes"
	AttrPartNum   = "s3x.part_number"
)

func Profile(id string) attribute.KeyValue   { return attribute.String(AttrProfile, id) }
func Bucket(name string) attribute.KeyValue  { return attribute.String(AttrBucket, name) }
func ObjectKey(key string) attribute.KeyValue { return attribute.String(AttrKey, key) }
func Prefix(prefix string) attribute.KeyValue { return attribute.String(AttrPrefix, prefix) }
func Operation(op string) attribute.KeyValue { return attribute.String(AttrOperation, op) }
func CacheHit(hit bool) attribute.KeyValue   { return attribute.Bool(AttrCacheHit, hit) }
func CacheName(name string) attribute.KeyValue { return attribute.String(AttrCacheName, name) }
func Bytes(n int64) attribute.KeyValue       { return attribute.Int64(AttrBytes, n) }
func PartNumber(n int) attribute.KeyValue    { return attribute.Int(AttrPartNum, n) }

// StartGatewaySpan starts a span for an S3Gateway call.
func StartGatewaySpan(ctx context.Context, operation, bucket, key string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	all := []attribute.KeyValue{Operation(operation)}
	if bucket != "" {
		all = append(all, Bucket(bucket))
	}
	if key != "" {
		all = append(all, ObjectKey(key))
	}
	all = append(all, attrs...)
	return StartSpan(ctx, "gateway."+operation, trace.WithAttributes(all...))
}

// StartFacadeSpan starts a span for a CommandFacade dispatch.
func StartFacadeSpan(ctx context.Context, command string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	all := append([]attribute.KeyValue{Operation(command)}, attrs...)
	return StartSpan(ctx, "facade."+command, trace.WithAttributes(all...))
}

// StartIndexSpan starts a span for an IndexEngine/IndexStore operation.
func StartIndexSpan(ctx context.Context, operation, bucket string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	all := []attribute.KeyValue{Operation(operation)}
	if bucket != "" {
		all = append(all, Bucket(bucket))
	}
	all = append(all, attrs...)
	return StartSpan(ctx, "index."+operation, trace.WithAttributes(all...))
}

// StartCacheSpan starts a span for a BoundedCache operation.
func StartCacheSpan(ctx context.Context, operation, cacheName string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	all := append([]attribute.KeyValue{CacheName(cacheName)}, attrs...)
	return StartSpan(ctx, "cache."+operation, trace.WithAttributes(all...))
}
