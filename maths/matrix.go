package maths

import (
	"fmt"
	"strings"
)

// denseMatrix 稠密矩阵实现（行优先，全量存储所有元素）
type denseMatrix[T Number] struct {
	rows, cols int
	data       []T
}

// NewDenseMatrix 创建指定维度的空稠密矩阵
func NewDenseMatrix[T Number](rows, cols int) Matrix[T] {
	if rows < 0 || cols < 0 {
		panic("invalid matrix dimensions: cannot be negative")
	}
	return &denseMatrix[T]{rows: rows, cols: cols, data: make([]T, rows*cols)}
}

// Rows 返回矩阵行数
func (m *denseMatrix[T]) Rows() int { return m.rows }

// Cols 返回矩阵列数
func (m *denseMatrix[T]) Cols() int { return m.cols }

// IsSquare 判断是否为方阵
func (m *denseMatrix[T]) IsSquare() bool { return m.rows == m.cols }

func (m *denseMatrix[T]) index(row, col int) int {
	if row < 0 || row >= m.rows || col < 0 || col >= m.cols {
		panic(fmt.Sprintf("index out of range: (%d,%d) in %dx%d", row, col, m.rows, m.cols))
	}
	return row*m.cols + col
}

// Get 获取指定行列元素值（越界panic）
func (m *denseMatrix[T]) Get(row, col int) T { return m.data[m.index(row, col)] }

// Set 设置指定行列元素值（越界panic）
func (m *denseMatrix[T]) Set(row, col int, value T) { m.data[m.index(row, col)] = value }

// Increment 增量更新矩阵元素（value累加，越界panic）
func (m *denseMatrix[T]) Increment(row, col int, value T) { m.data[m.index(row, col)] += value }

// GetRow 获取指定行的非零元素（返回：列索引切片+值切片）
func (m *denseMatrix[T]) GetRow(row int) ([]int, []T) {
	start := m.index(row, 0)
	cols := make([]int, 0, m.cols)
	values := make([]T, 0, m.cols)
	for j, v := range m.data[start : start+m.cols] {
		if v != 0 {
			cols = append(cols, j)
			values = append(values, v)
		}
	}
	return cols, values
}

// Zero 清空矩阵为零矩阵
func (m *denseMatrix[T]) Zero() { clear(m.data) }

// Copy 复制自身数据到目标矩阵（支持稠密/稀疏等类型）
func (m *denseMatrix[T]) Copy(a Matrix[T]) {
	if a.Rows() != m.rows || a.Cols() != m.cols {
		panic(fmt.Sprintf("dimension mismatch: source %dx%d, target %dx%d", m.rows, m.cols, a.Rows(), a.Cols()))
	}
	if target, ok := a.(*denseMatrix[T]); ok {
		copy(target.data, m.data)
		return
	}
	a.Zero()
	for i := 0; i < m.rows; i++ {
		for j := 0; j < m.cols; j++ {
			if v := m.data[i*m.cols+j]; v != 0 {
				a.Set(i, j, v)
			}
		}
	}
}

// SwapRows 交换两行
func (m *denseMatrix[T]) SwapRows(row1, row2 int) {
	if row1 == row2 {
		return
	}
	r1 := m.data[m.index(row1, 0) : m.index(row1, 0)+m.cols]
	r2 := m.data[m.index(row2, 0) : m.index(row2, 0)+m.cols]
	for j := range r1 {
		r1[j], r2[j] = r2[j], r1[j]
	}
}

// MulVec 矩阵向量乘法（A*x，返回新向量）
func (m *denseMatrix[T]) MulVec(x Vector[T]) Vector[T] {
	if x.Length() != m.cols {
		panic(fmt.Sprintf("vector dimension mismatch: x length=%d, matrix cols=%d", x.Length(), m.cols))
	}
	result := NewDenseVector[T](m.rows)
	for i := 0; i < m.rows; i++ {
		var sum T
		for j := 0; j < m.cols; j++ {
			sum += m.data[i*m.cols+j] * x.Get(j)
		}
		result.Set(i, sum)
	}
	return result
}

// NonZeroCount 统计非零元素数量
func (m *denseMatrix[T]) NonZeroCount() int {
	n := 0
	for _, v := range m.data {
		if v != 0 {
			n++
		}
	}
	return n
}

// String 格式化输出矩阵
func (m *denseMatrix[T]) String() string {
	var sb strings.Builder
	for i := 0; i < m.rows; i++ {
		sb.WriteByte('[')
		for j := 0; j < m.cols; j++ {
			if j > 0 {
				sb.WriteByte(' ')
			}
			fmt.Fprintf(&sb, "%.6g", m.data[i*m.cols+j])
		}
		sb.WriteString("]\n")
	}
	return sb.String()
}
