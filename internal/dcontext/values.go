package dcontext

import "context"

// GetStringValue returns the value of key in ctx as a string, or the empty
// string if the key is absent or not a string.
func GetStringValue(ctx context.Context, key any) string {
	v := ctx.Value(key)
	if v == nil {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return s
}
