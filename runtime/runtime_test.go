package runtime

import (
	"reflect"
	"testing"

	"github.com/npillmayer/scorex"
)

func TestNumberCoercion(t *testing.T) {
	for _, test := range []struct {
		v   Value
		x   float64
		err bool
	}{
		{Number(1.5), 1.5, false},
		{String("42"), 42, false},
		{String(" 3.25 "), 3.25, false},
		{String("abc"), 0, true},
		{String("NaN"), 0, true},
		{Bool(true), 0, true},
		{Value{}, 0, true},
	} {
		x, err := test.v.AsNumber()
		if (err != nil) != test.err {
			t.Errorf("%v: unexpected error state %v", test.v, err)
			continue
		}
		if err != nil && !scorex.IsKind(err, scorex.TypeMismatch) {
			t.Errorf("%v: expected TypeMismatch, got %v", test.v, err)
		}
		if x != test.x {
			t.Errorf("%v: expected %g, got %g", test.v, test.x, x)
		}
	}
}

func TestBoolCoercion(t *testing.T) {
	for _, test := range []struct {
		v   Value
		b   bool
		err bool
	}{
		{Bool(true), true, false},
		{Number(0), false, false},
		{Number(-2), true, false},
		{String("TRUE"), true, false},
		{String("false"), false, false},
		{String("0"), false, false},
		{String("yes"), false, true},
		{Value{}, false, true},
	} {
		b, err := test.v.AsBool()
		if (err != nil) != test.err {
			t.Errorf("%v: unexpected error state %v", test.v, err)
			continue
		}
		if b != test.b {
			t.Errorf("%v: expected %v, got %v", test.v, test.b, b)
		}
	}
}

func TestFromInterface(t *testing.T) {
	for _, x := range []interface{}{3, int64(3), uint8(3), float32(3), 3.0} {
		v, err := FromInterface(x)
		if err != nil || !v.Identical(Number(3)) {
			t.Errorf("%T: expected number 3, got %v (%v)", x, v, err)
		}
	}
	if v, _ := FromInterface("s"); !v.IsString() {
		t.Errorf("expected string value")
	}
	if v, _ := FromInterface(false); !v.IsBool() {
		t.Errorf("expected boolean value")
	}
	if _, err := FromInterface([]int{1}); !scorex.IsKind(err, scorex.TypeMismatch) {
		t.Errorf("expected TypeMismatch for slice, got %v", err)
	}
	if _, err := FromInterface(nil); err == nil {
		t.Errorf("expected error for nil")
	}
	if Number(1).Interface() != 1.0 || (Value{}).Interface() != nil {
		t.Errorf("Interface() is broken")
	}
}

func TestEnvironmentCopyOnExtend(t *testing.T) {
	base := NewEnvironment(map[string]Value{"a": Number(1), "b": Number(2)})
	ext := base.WithVariable("c", Number(3)).WithVariable("a", Number(10))
	if v, ok := base.Lookup("a"); !ok || !v.Identical(Number(1)) {
		t.Errorf("base environment has been modified: a=%v", v)
	}
	if _, ok := base.Lookup("c"); ok {
		t.Errorf("base environment must not see c")
	}
	if v, ok := ext.Lookup("a"); !ok || !v.Identical(Number(10)) {
		t.Errorf("expected a to be shadowed, is %v", v)
	}
	if v, ok := ext.Lookup("b"); !ok || !v.Identical(Number(2)) {
		t.Errorf("expected b to be inherited, is %v", v)
	}
	if !reflect.DeepEqual(ext.Names(), []string{"a", "b", "c"}) || ext.Len() != 3 {
		t.Errorf("unexpected names %v", ext.Names())
	}
	if m := ext.Bindings(); len(m) != 3 || !m["a"].Identical(Number(10)) {
		t.Errorf("unexpected bindings %v", m)
	}
}

func TestNilEnvironment(t *testing.T) {
	var env *Environment
	if _, ok := env.Lookup("x"); ok {
		t.Errorf("nil environment must be empty")
	}
	env2 := env.WithVariable("x", Bool(true))
	if v, ok := env2.Lookup("x"); !ok || !v.IsBool() {
		t.Errorf("expected x in extended environment")
	}
	if env.Len() != 0 || env2.Len() != 1 {
		t.Errorf("unexpected lengths %d, %d", env.Len(), env2.Len())
	}
}

func TestEnvironmentFrom(t *testing.T) {
	env, err := EnvironmentFrom(map[string]interface{}{"x": 5, "ok": true, "name": "n"})
	if err != nil {
		t.Fatal(err)
	}
	if v, _ := env.Lookup("x"); !v.Identical(Number(5)) {
		t.Errorf("expected x = 5, got %v", v)
	}
	if _, err := EnvironmentFrom(map[string]interface{}{"m": map[string]int{}}); err == nil {
		t.Errorf("expected error for unsupported type")
	}
}
