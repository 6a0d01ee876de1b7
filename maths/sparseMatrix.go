package maths

import (
	"fmt"
	"sort"
	"strings"
)

// sparseMatrix 稀疏矩阵数据结构
// 使用CSR (Compressed Sparse Row) 格式存储，仅保存非零元素
type sparseMatrix[T Number] struct {
	rows, cols int
	rowPtr     []int // 行指针数组
	colInd     []int // 列索引数组
	values     []T   // 非零元素值
}

// NewSparseMatrix 创建新的稀疏矩阵
func NewSparseMatrix[T Number](rows, cols int) Matrix[T] {
	return &sparseMatrix[T]{
		rows:   rows,
		cols:   cols,
		rowPtr: make([]int, rows+1), // 多一个元素用于存储结束位置
	}
}

// Rows 返回矩阵行数
func (m *sparseMatrix[T]) Rows() int { return m.rows }

// Cols 返回矩阵列数
func (m *sparseMatrix[T]) Cols() int { return m.cols }

// IsSquare 判断是否为方阵
func (m *sparseMatrix[T]) IsSquare() bool { return m.rows == m.cols }

// search 二分查找列索引, 返回位置及是否存在
func (m *sparseMatrix[T]) search(row, col int) (int, bool) {
	if row < 0 || row >= m.rows || col < 0 || col >= m.cols {
		panic(fmt.Sprintf("index out of range: (%d,%d) in %dx%d", row, col, m.rows, m.cols))
	}
	start, end := m.rowPtr[row], m.rowPtr[row+1]
	pos := sort.Search(end-start, func(i int) bool {
		return m.colInd[start+i] >= col
	}) + start
	return pos, pos < end && m.colInd[pos] == col
}

// Get 获取矩阵元素
func (m *sparseMatrix[T]) Get(row, col int) T {
	if pos, ok := m.search(row, col); ok {
		return m.values[pos]
	}
	return 0
}

// Set 设置矩阵元素, 写入零值时删除元素
func (m *sparseMatrix[T]) Set(row, col int, value T) {
	pos, ok := m.search(row, col)
	switch {
	case ok && value == 0:
		m.deleteElement(row, pos)
	case ok:
		m.values[pos] = value
	case value != 0:
		m.insertElement(row, col, value, pos)
	}
}

// Increment 增量设置矩阵元素
func (m *sparseMatrix[T]) Increment(row, col int, value T) {
	if value == 0 {
		return
	}
	pos, ok := m.search(row, col)
	if !ok {
		m.insertElement(row, col, value, pos)
		return
	}
	if v := m.values[pos] + value; v != 0 {
		m.values[pos] = v
	} else {
		m.deleteElement(row, pos)
	}
}

// deleteElement 删除指定位置的元素
func (m *sparseMatrix[T]) deleteElement(row, pos int) {
	m.colInd = append(m.colInd[:pos], m.colInd[pos+1:]...)
	m.values = append(m.values[:pos], m.values[pos+1:]...)
	for i := row + 1; i <= m.rows; i++ {
		m.rowPtr[i]--
	}
}

// insertElement 在指定位置插入元素
func (m *sparseMatrix[T]) insertElement(row, col int, value T, pos int) {
	m.colInd = append(m.colInd, 0)
	copy(m.colInd[pos+1:], m.colInd[pos:])
	m.colInd[pos] = col
	m.values = append(m.values, 0)
	copy(m.values[pos+1:], m.values[pos:])
	m.values[pos] = value
	for i := row + 1; i <= m.rows; i++ {
		m.rowPtr[i]++
	}
}

// GetRow 获取指定行的非零元素(副本)
func (m *sparseMatrix[T]) GetRow(row int) ([]int, []T) {
	start, end := m.rowPtr[row], m.rowPtr[row+1]
	return append([]int(nil), m.colInd[start:end]...), append([]T(nil), m.values[start:end]...)
}

// Zero 清空矩阵
func (m *sparseMatrix[T]) Zero() {
	clear(m.rowPtr)
	m.colInd = m.colInd[:0]
	m.values = m.values[:0]
}

// Copy 复制自身数据到目标矩阵
func (m *sparseMatrix[T]) Copy(a Matrix[T]) {
	if a.Rows() != m.rows || a.Cols() != m.cols {
		panic(fmt.Sprintf("dimension mismatch: source %dx%d, target %dx%d", m.rows, m.cols, a.Rows(), a.Cols()))
	}
	if target, ok := a.(*sparseMatrix[T]); ok {
		target.rowPtr = append(target.rowPtr[:0], m.rowPtr...)
		target.colInd = append(target.colInd[:0], m.colInd...)
		target.values = append(target.values[:0], m.values...)
		return
	}
	a.Zero()
	for i := 0; i < m.rows; i++ {
		for k := m.rowPtr[i]; k < m.rowPtr[i+1]; k++ {
			a.Set(i, m.colInd[k], m.values[k])
		}
	}
}

// SwapRows 交换两行
func (m *sparseMatrix[T]) SwapRows(row1, row2 int) {
	if row1 == row2 {
		return
	}
	if row1 > row2 {
		row1, row2 = row2, row1
	}
	c1, v1 := m.GetRow(row1)
	c2, v2 := m.GetRow(row2)
	s1, e1 := m.rowPtr[row1], m.rowPtr[row1+1]
	s2, e2 := m.rowPtr[row2], m.rowPtr[row2+1]
	// 重新拼接 [..row1) row2 (row1..row2) row1 (row2..]
	colInd := make([]int, 0, len(m.colInd))
	values := make([]T, 0, len(m.values))
	colInd = append(colInd, m.colInd[:s1]...)
	values = append(values, m.values[:s1]...)
	colInd = append(colInd, c2...)
	values = append(values, v2...)
	colInd = append(colInd, m.colInd[e1:s2]...)
	values = append(values, m.values[e1:s2]...)
	colInd = append(colInd, c1...)
	values = append(values, v1...)
	colInd = append(colInd, m.colInd[e2:]...)
	values = append(values, m.values[e2:]...)
	m.colInd, m.values = colInd, values
	// 修正行指针
	delta := len(c2) - len(c1)
	for i := row1 + 1; i <= row2; i++ {
		m.rowPtr[i] += delta
	}
}

// MulVec 矩阵向量乘法
func (m *sparseMatrix[T]) MulVec(x Vector[T]) Vector[T] {
	if x.Length() != m.cols {
		panic(fmt.Sprintf("vector dimension mismatch: x length=%d, matrix cols=%d", x.Length(), m.cols))
	}
	result := NewDenseVector[T](m.rows)
	for i := 0; i < m.rows; i++ {
		var sum T
		for k := m.rowPtr[i]; k < m.rowPtr[i+1]; k++ {
			sum += m.values[k] * x.Get(m.colInd[k])
		}
		result.Set(i, sum)
	}
	return result
}

// NonZeroCount 统计非零元素数量
func (m *sparseMatrix[T]) NonZeroCount() int { return len(m.values) }

// String 以稠密形式输出
func (m *sparseMatrix[T]) String() string {
	var sb strings.Builder
	for i := 0; i < m.rows; i++ {
		sb.WriteByte('[')
		for j := 0; j < m.cols; j++ {
			if j > 0 {
				sb.WriteByte(' ')
			}
			fmt.Fprintf(&sb, "%.6g", m.Get(i, j))
		}
		sb.WriteString("]\n")
	}
	return sb.String()
}
