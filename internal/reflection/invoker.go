package reflection

import (
	"fmt"
	"reflect"
)

// ArgumentError indicates a value that cannot be passed to a parameter.
type ArgumentError struct {
	Param    Param
	Expected reflect.Type
	Actual   reflect.Type
}

func (e *ArgumentError) Error() string {
	where := fmt.Sprintf("argument %d", e.Param.Index)
	if !e.Param.Positional() {
		where = fmt.Sprintf("field %s", e.Param.Name)
	}
	return fmt.Sprintf("%s: cannot use %v as %v", where, e.Actual, e.Expected)
}

// Call invokes the analyzed function. Positional arguments are passed in
// order; named arguments populate the In struct and absent names keep the
// field's zero value.
func (info *FuncInfo) Call(positional []any, named map[string]any) (any, error) {
	args, err := info.arguments(positional, named)
	if err != nil {
		return nil, err
	}

	out := info.Value.Call(args)

	if info.HasErrorReturn {
		if errVal := out[len(out)-1]; !errVal.IsNil() {
			return nil, errVal.Interface().(error)
		}
	}

	return out[0].Interface(), nil
}

func (info *FuncInfo) arguments(positional []any, named map[string]any) ([]reflect.Value, error) {
	if !info.IsParamObject {
		if len(positional) != len(info.Params) {
			return nil, fmt.Errorf("%v expects %d arguments, got %d", info.Type, len(info.Params), len(positional))
		}

		args := make([]reflect.Value, len(info.Params))
		for i, param := range info.Params {
			v, err := valueFor(param, positional[i])
			if err != nil {
				return nil, err
			}
			args[i] = v
		}

		return args, nil
	}

	obj := reflect.New(info.ParamObjectType)
	for _, param := range info.Params {
		raw, ok := named[param.Name]
		if !ok {
			continue
		}

		v, err := valueFor(param, raw)
		if err != nil {
			return nil, err
		}

		obj.Elem().Field(param.Index).Set(v)
	}

	if info.ParamObjectPointer {
		return []reflect.Value{obj}, nil
	}

	return []reflect.Value{obj.Elem()}, nil
}

func valueFor(param Param, raw any) (reflect.Value, error) {
	if raw == nil {
		return reflect.Zero(param.Type), nil
	}

	v := reflect.ValueOf(raw)
	if !v.Type().AssignableTo(param.Type) {
		return reflect.Value{}, &ArgumentError{Param: param, Expected: param.Type, Actual: v.Type()}
	}

	return v, nil
}
