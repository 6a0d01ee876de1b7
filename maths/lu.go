package maths

import (
	"errors"
	"fmt"
)

// ErrSingular 矩阵奇异或接近奇异
var ErrSingular = errors.New("matrix is singular or nearly singular")

// NewLUSparse 创建稀疏矩阵LU分解器（输入矩阵维度n）
func NewLUSparse[T Number](n int) (LU[T], error) {
	if n < 1 {
		return nil, errors.New("lu sparse dimension must be positive")
	}
	return &luSparse[T]{baseLU: newBaseLU(n, NewSparseMatrix[T](n, n), NewSparseMatrix[T](n, n))}, nil
}

// baseLU 公共LU分解结构体（存储共用字段）
// 实现PA = LU分解，其中：
//
//	P - 置换矩阵（用向量表示）
//	L - 单位下三角矩阵（对角线隐含为1，仅存储严格下三角）
//	U - 上三角矩阵
type baseLU[T Number] struct {
	n        int
	L        Matrix[T] // 消元因子
	U        Matrix[T] // 消元后上三角元素
	Y        []T       // 前向替换结果Ly=Pb
	P        []int     // P[i] = 分解后第i行对应的原始矩阵行索引
	pinverse []int     // pinverse[i] = 原始第i行对应的分解后行索引
}

func newBaseLU[T Number](n int, l, u Matrix[T]) baseLU[T] {
	return baseLU[T]{
		n:        n,
		L:        l,
		U:        u,
		Y:        make([]T, n),
		P:        make([]int, n),
		pinverse: make([]int, n),
	}
}

// init 拷贝A到U并重置置换向量
func (lu *baseLU[T]) init(matrix Matrix[T]) error {
	if !matrix.IsSquare() {
		return errors.New("lu decompose: input must be square matrix")
	}
	if matrix.Rows() != lu.n {
		return fmt.Errorf("lu decompose: matrix dimension mismatch (%d != %d)", matrix.Rows(), lu.n)
	}
	lu.L.Zero()
	matrix.Copy(lu.U)
	for i := 0; i < lu.n; i++ {
		lu.P[i] = i
		lu.pinverse[i] = i
	}
	return nil
}

// pivot 在第k列的[k, n-1]行中选取主元
func (lu *baseLU[T]) pivot(k int) (int, error) {
	maxRow := k
	maxAbsVal := Abs(lu.U.Get(k, k))
	for i := k + 1; i < lu.n; i++ {
		if v := Abs(lu.U.Get(i, k)); v > maxAbsVal {
			maxAbsVal = v
			maxRow = i
		}
	}
	if maxAbsVal < Epsilon {
		return maxRow, fmt.Errorf("lu decompose: column %d: %w", k, ErrSingular)
	}
	return maxRow, nil
}

// swap 交换U的整行与L的前k列，并同步更新置换向量
func (lu *baseLU[T]) swap(k, maxRow int) {
	lu.U.SwapRows(k, maxRow)
	for j := 0; j < k; j++ {
		v1, v2 := lu.L.Get(k, j), lu.L.Get(maxRow, j)
		lu.L.Set(k, j, v2)
		lu.L.Set(maxRow, j, v1)
	}
	lu.P[k], lu.P[maxRow] = lu.P[maxRow], lu.P[k]
	lu.pinverse[lu.P[k]] = k
	lu.pinverse[lu.P[maxRow]] = maxRow
}

// solve 前向替换求解Ly = Pb，后向替换求解Ux = y
func (lu *baseLU[T]) solve(b, x Vector[T]) error {
	if b.Length() != lu.n || x.Length() != lu.n {
		return errors.New("lu solve: vector dimension mismatch")
	}
	for i := 0; i < lu.n; i++ {
		sum := b.Get(lu.P[i])
		cols, vals := lu.L.GetRow(i)
		for idx, j := range cols {
			if j < i {
				sum -= vals[idx] * lu.Y[j]
			}
		}
		lu.Y[i] = sum
	}
	x.Zero()
	for i := lu.n - 1; i >= 0; i-- {
		sum := lu.Y[i]
		diag := lu.U.Get(i, i)
		if Abs(diag) < Epsilon {
			return fmt.Errorf("lu solve: zero diagonal at %d: %w", i, ErrSingular)
		}
		cols, vals := lu.U.GetRow(i)
		for idx, j := range cols {
			if j > i {
				sum -= vals[idx] * x.Get(j)
			}
		}
		x.Set(i, sum/diag)
	}
	return nil
}

// luSparse 稀疏矩阵LU分解实现（带部分主元+稀疏优化）
type luSparse[T Number] struct {
	baseLU[T]
}

// Decompose 执行稀疏矩阵LU分解
// 稀疏优化:
//  1. 当前列元素为零的行跳过消元
//  2. 仅更新主元行中存在的非零列
//  3. 新值接近零时删除元素，维持稀疏性
func (lu *luSparse[T]) Decompose(matrix Matrix[T]) error {
	if err := lu.init(matrix); err != nil {
		return err
	}
	for k := 0; k < lu.n; k++ {
		maxRow, err := lu.pivot(k)
		if err != nil {
			return err
		}
		if maxRow != k {
			lu.swap(k, maxRow)
		}
		pivotVal := lu.U.Get(k, k)
		pivotCols, pivotVals := lu.U.GetRow(k)
		for i := k + 1; i < lu.n; i++ {
			valIK := lu.U.Get(i, k)
			if Abs(valIK) < Epsilon {
				continue
			}
			factor := valIK / pivotVal
			lu.L.Set(i, k, factor)
			lu.U.Set(i, k, 0)
			for idx, j := range pivotCols {
				if j <= k {
					continue
				}
				updated := lu.U.Get(i, j) - factor*pivotVals[idx]
				if Abs(updated) < Epsilon {
					updated = 0
				}
				lu.U.Set(i, j, updated)
			}
		}
	}
	return nil
}

// SolveReuse 稀疏分解结果求解Ax=b
func (lu *luSparse[T]) SolveReuse(b, x Vector[T]) error { return lu.solve(b, x) }
