package plancodec

import (
	"context"
	"strconv"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/hugr-lab/plancodec/logical"
)

// BenchmarkExprToBytes benchmarks expression encoding including the
// self-check decode.
func BenchmarkExprToBytes(b *testing.B) {
	depths := []int{1, 10, 100}

	for _, depth := range depths {
		x := ltFive()
		for i := 1; i < depth; i++ {
			x = logical.And(x, ltFive())
		}

		b.Run("and_chain_"+strconv.Itoa(depth), func(b *testing.B) {
			b.ReportAllocs()
			var size int
			for i := 0; i < b.N; i++ {
				data, err := ExprToBytes(x)
				if err != nil {
					b.Fatalf("ExprToBytes failed: %v", err)
				}
				size = len(data)
			}
			b.ReportMetric(float64(size), "bytes")
		})
	}
}

// BenchmarkExprFromBytes benchmarks expression decoding.
func BenchmarkExprFromBytes(b *testing.B) {
	x := ltFive()
	for i := 1; i < 100; i++ {
		x = logical.And(x, ltFive())
	}
	data, err := ExprToBytes(x)
	if err != nil {
		b.Fatalf("ExprToBytes failed: %v", err)
	}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		if _, err := ExprFromBytes(data); err != nil {
			b.Fatalf("ExprFromBytes failed: %v", err)
		}
	}
}

// BenchmarkPlanRoundTrip benchmarks a plan with an in-memory table source.
func BenchmarkPlanRoundTrip(b *testing.B) {
	tbl := newOrdersTable(b, memory.DefaultAllocator)
	defer tbl.Release()
	plan := ordersPlan(b, tbl)
	sess := testRegistry(b)
	codec := topKCodec{}
	ctx := context.Background()

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		data, err := PlanToBytesWithCodec(plan, codec)
		if err != nil {
			b.Fatalf("PlanToBytesWithCodec failed: %v", err)
		}
		p, err := PlanFromBytesWithCodec(ctx, data, sess, codec)
		if err != nil {
			b.Fatalf("PlanFromBytesWithCodec failed: %v", err)
		}
		logical.ReleaseSources(p)
	}
}
