/*
Package sparse implements a simple type for sparse integer matrices.
It is mainly used for parser tables (GOTO-table and ACTION-table).
Every entry in the table is either a single int32 or a pair (int32,int32).

Entries are kept per row, sorted by column, so that lookups are a binary search
within a row and iterating over a row (e.g., for collecting the expected tokens
of a parser state) visits the columns in ascending order.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2017–2021 Norbert Pillmayer <norbert@pillmayer.com>

*/
package sparse

import (
	"fmt"
	"sort"
)

// IntMatrix is a type for a sparse matrix of integer values. Construct with
//
//     M := NewIntMatrix(10, 10, -1)  // last parameter is M's null-value
//
// Now
//
//     M.Set(2, 3, 4711)              // set a value
//     v := M.Value(2, 3)             // returns 4711
//     M.Add(2, 3, 123)               // add a second value
//     cnt := M.ValueCount()          // still returns 1 (one position set)
//     v = M.Value(9, 9)              // returns -1, i.e. the null-value
//
// Values cannot be deleted, but may be overwritten with the null-value.
// After construction is complete, an IntMatrix is safe for concurrent reads.
type IntMatrix struct {
	rows    [][]cell
	rowcnt  int
	colcnt  int
	count   int
	nullval int32
}

type cell struct {
	col   int
	value intPair
}

// NewIntMatrix creates a new matrix for int, size m x n. The 3rd argument is a null-value,
// indicating empty entries (use DefaultNullValue if you haven't any specific
// requirements).
func NewIntMatrix(m, n int, nullValue int32) *IntMatrix {
	return &IntMatrix{
		rows:    make([][]cell, m),
		rowcnt:  m,
		colcnt:  n,
		nullval: nullValue,
	}
}

// DefaultNullValue is the default empty-value for matrices (min int32).
const DefaultNullValue = -2147483648

// M returns the row count.
func (m *IntMatrix) M() int {
	return m.rowcnt
}

// N returns the column count.
func (m *IntMatrix) N() int {
	return m.colcnt
}

// NullValue returns this matrix' null value
func (m *IntMatrix) NullValue() int32 {
	return m.nullval
}

// ValueCount returns the number of positions set in the matrix.
func (m *IntMatrix) ValueCount() int {
	return m.count
}

// Value returns the primary value at position (i,j), or NullValue
func (m *IntMatrix) Value(i, j int) int32 {
	a, _ := m.Values(i, j)
	return a
}

// Values returns the pair of values at position (i,j), or (NullValue, NullValue)
func (m *IntMatrix) Values(i, j int) (int32, int32) {
	if i < 0 || i >= m.rowcnt {
		return m.nullval, m.nullval
	}
	row := m.rows[i]
	k := search(row, j)
	if k < len(row) && row[k].col == j {
		return row[k].value.a, row[k].value.b
	}
	return m.nullval, m.nullval
}

// Set a value in the matrix at position (i,j).
func (m *IntMatrix) Set(i, j int, value int32) *IntMatrix {
	return m.setOrAdd(i, j, value, false)
}

// Add a value in the matrix at position (i,j). If there is already a value
// present, the new value becomes the second one of the pair. If the pair is
// already full, the second value is overwritten.
func (m *IntMatrix) Add(i, j int, value int32) *IntMatrix {
	return m.setOrAdd(i, j, value, true)
}

// EachInRow calls f for every position set in row i, in order of ascending columns.
func (m *IntMatrix) EachInRow(i int, f func(j int, a, b int32)) {
	if i < 0 || i >= m.rowcnt {
		return
	}
	for _, c := range m.rows[i] {
		f(c.col, c.value.a, c.value.b)
	}
}

func (m *IntMatrix) setOrAdd(i, j int, value int32, doAdd bool) *IntMatrix {
	if i < 0 || i >= m.rowcnt || j < 0 || j >= m.colcnt {
		panic(fmt.Sprintf("sparse.IntMatrix index (%d,%d) out of range %dx%d", i, j, m.rowcnt, m.colcnt))
	}
	row := m.rows[i]
	k := search(row, j)
	if k < len(row) && row[k].col == j { // value already present
		if doAdd {
			row[k].value = addIntValue(row[k].value, value, m.nullval)
		} else {
			row[k].value = newIntPair(value, m.nullval)
		}
		return m
	}
	row = append(row, cell{})
	copy(row[k+1:], row[k:])
	row[k] = cell{col: j, value: newIntPair(value, m.nullval)}
	m.rows[i] = row
	m.count++
	return m
}

func search(row []cell, j int) int {
	return sort.Search(len(row), func(k int) bool {
		return row[k].col >= j
	})
}

func addIntValue(v intPair, n int32, nullval int32) intPair {
	if v.a == nullval {
		v.a = n
	} else if v.b == nullval {
		v.b = n
	} else {
		v.b = n // entry is full: overwrite second
	}
	return v
}

// we will store 2 int32 in one position
type intPair struct {
	a int32
	b int32
}

func (pr intPair) String() string {
	return fmt.Sprintf("[%d,%d]", pr.a, pr.b)
}

func newIntPair(a, b int32) intPair {
	return intPair{a, b}
}
