package sparse

import "testing"

func TestMatrixSetAndGet(t *testing.T) {
	M := NewIntMatrix(10, 10, -1)
	M.Set(2, 3, 4711)
	if v := M.Value(2, 3); v != 4711 {
		t.Errorf("expected M(2,3) to be 4711, is %d", v)
	}
	if v := M.Value(9, 9); v != -1 {
		t.Errorf("expected M(9,9) to be null-value, is %d", v)
	}
	M.Add(2, 3, 123)
	if cnt := M.ValueCount(); cnt != 1 {
		t.Errorf("expected value count of 1, is %d", cnt)
	}
	a, b := M.Values(2, 3)
	if a != 4711 || b != 123 {
		t.Errorf("expected M(2,3) = (4711,123), is (%d,%d)", a, b)
	}
	M.Set(2, 3, 7)
	if a, b = M.Values(2, 3); a != 7 || b != -1 {
		t.Errorf("expected Set to replace the pair, is (%d,%d)", a, b)
	}
}

func TestMatrixRowOrder(t *testing.T) {
	M := NewIntMatrix(3, 100, DefaultNullValue)
	for _, j := range []int{50, 3, 99, 0, 17} {
		M.Set(1, j, int32(j))
	}
	M.Set(0, 5, 5)
	var cols []int
	M.EachInRow(1, func(j int, a, b int32) {
		if int32(j) != a {
			t.Errorf("value at column %d is %d", j, a)
		}
		cols = append(cols, j)
	})
	expected := []int{0, 3, 17, 50, 99}
	if len(cols) != len(expected) {
		t.Fatalf("expected %d entries in row 1, have %d", len(expected), len(cols))
	}
	for i := range cols {
		if cols[i] != expected[i] {
			t.Errorf("expected columns %v, have %v", expected, cols)
			break
		}
	}
	if M.ValueCount() != 6 {
		t.Errorf("expected value count of 6, is %d", M.ValueCount())
	}
}

func TestMatrixOutOfRange(t *testing.T) {
	M := NewIntMatrix(2, 2, DefaultNullValue)
	if v := M.Value(5, 0); v != DefaultNullValue {
		t.Errorf("expected null-value for row outside matrix, is %d", v)
	}
	defer func() {
		if r := recover(); r == nil {
			t.Errorf("expected Set outside of matrix to panic")
		}
	}()
	M.Set(2, 0, 1)
}
