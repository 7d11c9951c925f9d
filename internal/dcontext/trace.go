package dcontext

import (
	"context"
	"runtime"
	"time"

	"github.com/skillreg/registry/internal/uuid"
)

// stringMapContext proxies Value lookups through a plain map before falling
// back to its parent, used by WithTrace to attach several related fields at
// once without nesting context.WithValue once per field.
type stringMapContext struct {
	context.Context
	m map[string]interface{}
}

func withValues(ctx context.Context, m map[string]interface{}) context.Context {
	mo := make(map[string]interface{}, len(m))
	for k, v := range m {
		mo[k] = v
	}
	return stringMapContext{Context: ctx, m: mo}
}

func (smc stringMapContext) Value(key interface{}) interface{} {
	if ks, ok := key.(string); ok {
		if v, ok := smc.m[ks]; ok {
			return v
		}
	}
	return smc.Context.Value(key)
}

// WithTrace attaches trace.id, trace.file, trace.line, trace.func and
// trace.start (and trace.parent.id, if the parent context was itself
// traced) to ctx. The returned done func logs the elapsed time and msg at
// Info level through GetLogger(ctx) and must be deferred or called at the
// end of the traced operation.
func WithTrace(ctx context.Context) (context.Context, func(format string, a ...interface{})) {
	pc, file, line, _ := runtime.Caller(1)
	f := runtime.FuncForPC(pc)
	start := time.Now()

	fields := map[string]interface{}{
		"trace.id":    uuid.NewString(),
		"trace.file":  file,
		"trace.line":  line,
		"trace.start": start,
		"trace.func":  f.Name(),
	}
	if parentID := ctx.Value("trace.id"); parentID != nil {
		fields["trace.parent.id"] = parentID
	}

	ctx = withValues(ctx, fields)
	ctx = WithLogger(ctx, GetLogger(ctx, "trace.id", "trace.file", "trace.line", "trace.func", "trace.parent.id"))

	return ctx, func(format string, a ...interface{}) {
		GetLogger(ctx).Infof(format+" elapsed=%s", append(a, time.Since(start))...)
	}
}
