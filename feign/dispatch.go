package feign

import (
	"context"
	"reflect"
)

// bindProxy builds a reflect.MakeFunc closure implementing fnType by
// delegating to handler.Invoke, converting the []reflect.Value argument
// vector to []interface{} and the handler's (interface{}, error) result
// back into fnType's declared return shape.
func bindProxy(fnType reflect.Type, handler *SynchronousMethodHandler) reflect.Value {
	hasCtx := fnType.NumIn() > 0 && fnType.In(0).Implements(ctxInterfaceType)
	hasResult := fnType.NumOut() == 2

	return reflect.MakeFunc(fnType, func(in []reflect.Value) []reflect.Value {
		var ctx context.Context = context.Background()
		argsStart := 0
		if hasCtx {
			ctx = in[0].Interface().(context.Context)
			argsStart = 1
		}

		args := make([]interface{}, 0, len(in)-argsStart)
		for _, v := range in[argsStart:] {
			args = append(args, v.Interface())
		}

		result, err := handler.Invoke(ctx, args)

		out := make([]reflect.Value, fnType.NumOut())
		if hasResult {
			resultType := fnType.Out(0)
			if result == nil {
				out[0] = reflect.Zero(resultType)
			} else {
				out[0] = reflect.ValueOf(result)
				if !out[0].Type().AssignableTo(resultType) && out[0].Type().ConvertibleTo(resultType) {
					out[0] = out[0].Convert(resultType)
				}
			}
		}
		errIdx := fnType.NumOut() - 1
		if err == nil {
			out[errIdx] = reflect.Zero(errInterfaceType)
		} else {
			out[errIdx] = reflect.ValueOf(err)
		}
		return out
	})
}

var (
	ctxInterfaceType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errInterfaceType = reflect.TypeOf((*error)(nil)).Elem()
)
