package types

import (
	"fmt"

	"github.com/funvibe/clever/internal/value"
)

// NewArrayTemplate registers the single-argument templated container
// "Array" and wires up the built-in method set every Array<T>
// specialisation inherits: push, pop, size, isEmpty, at. Grounded on
// original_source/types/array.h, which populates the same table on the
// templated type itself so every Array<T> shares one set of method bodies.
func (r *Registry) NewArrayTemplate() *Type {
	return r.NewTemplated("Array", 1, func(reg *Registry, args []*Type) *Type {
		t := &Type{}
		t.addArrayMethods(reg)
		return t
	})
}

func (t *Type) addArrayMethods(reg *Registry) {
	t.AddMethod(&Method{Name: reg.pool.Intern("push"), Arity: 1, Fn: arrayPush})
	t.AddMethod(&Method{Name: reg.pool.Intern("pop"), Arity: 0, Fn: arrayPop})
	t.AddMethod(&Method{Name: reg.pool.Intern("size"), Arity: 0, Fn: arraySize})
	t.AddMethod(&Method{Name: reg.pool.Intern("isEmpty"), Arity: 0, Fn: arrayIsEmpty})
	t.AddMethod(&Method{Name: reg.pool.Intern("at"), Arity: 1, Fn: arrayAt})
}

func arrayPush(recv *value.Value, args []*value.Value) (*value.Value, error) {
	if recv.Type != value.VECTOR {
		return nil, fmt.Errorf("push: receiver is not an Array")
	}
	if len(args) != 1 {
		return nil, fmt.Errorf("push: expected 1 argument, got %d", len(args))
	}
	recv.AppendVec(args[0])
	return recv, nil
}

func arrayPop(recv *value.Value, args []*value.Value) (*value.Value, error) {
	if recv.Type != value.VECTOR {
		return nil, fmt.Errorf("pop: receiver is not an Array")
	}
	v := recv.Vec()
	if len(v) == 0 {
		return nil, fmt.Errorf("pop: array is empty")
	}
	last := v[len(v)-1]
	last.AddRef()
	recv.TruncateVec(len(v) - 1)
	return last, nil
}

func arraySize(recv *value.Value, args []*value.Value) (*value.Value, error) {
	return value.NewInt(value.TEMP, int64(len(recv.Vec()))), nil
}

func arrayIsEmpty(recv *value.Value, args []*value.Value) (*value.Value, error) {
	return value.NewBool(value.TEMP, len(recv.Vec()) == 0), nil
}

func arrayAt(recv *value.Value, args []*value.Value) (*value.Value, error) {
	if len(args) != 1 || args[0].Type != value.INTEGER {
		return nil, fmt.Errorf("at: expected 1 integer argument")
	}
	idx := args[0].Int()
	vec := recv.Vec()
	if idx < 0 || idx >= int64(len(vec)) {
		return nil, fmt.Errorf("at: index %d out of range (size %d)", idx, len(vec))
	}
	return vec[idx], nil
}
