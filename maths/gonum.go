package maths

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// ConditionError 矩阵条件数超过上限
type ConditionError struct {
	Cond float64
}

func (e *ConditionError) Error() string {
	return fmt.Sprintf("matrix is ill-conditioned: cond=%.3e", e.Cond)
}

func (e *ConditionError) Unwrap() error { return ErrSingular }

// GonumLU 基于 gonum 的稠密实数 LU 分解（带条件数估计）
type GonumLU struct {
	n       int
	maxCond float64
	a       *mat.Dense
	lu      mat.LU
	cond    float64
}

// NewGonumLU 创建分解器, maxCond<=0 时不检查条件数
func NewGonumLU(n int, maxCond float64) (*GonumLU, error) {
	if n < 1 {
		return nil, errors.New("lu dimension must be positive")
	}
	return &GonumLU{n: n, maxCond: maxCond, a: mat.NewDense(n, n, nil)}, nil
}

// Cond 最近一次分解的条件数估计
func (g *GonumLU) Cond() float64 { return g.cond }

// Decompose 拷贝矩阵并分解
func (g *GonumLU) Decompose(matrix Matrix[float64]) error {
	if !matrix.IsSquare() || matrix.Rows() != g.n {
		return fmt.Errorf("lu decompose: matrix dimension mismatch (%dx%d != %d)", matrix.Rows(), matrix.Cols(), g.n)
	}
	g.a.Zero()
	for i := 0; i < g.n; i++ {
		cols, vals := matrix.GetRow(i)
		for idx, j := range cols {
			g.a.Set(i, j, vals[idx])
		}
	}
	g.lu.Factorize(g.a)
	g.cond = g.lu.Cond()
	if g.maxCond > 0 && !(g.cond <= g.maxCond) {
		return &ConditionError{Cond: g.cond}
	}
	return nil
}

// SolveReuse 利用分解结果求解Ax=b
func (g *GonumLU) SolveReuse(b, x Vector[float64]) error {
	if b.Length() != g.n || x.Length() != g.n {
		return errors.New("lu solve: vector dimension mismatch")
	}
	dst := mat.NewVecDense(g.n, nil)
	if err := g.lu.SolveVecTo(dst, false, mat.NewVecDense(g.n, b.ToDense())); err != nil {
		var cond mat.Condition
		if errors.As(err, &cond) {
			return &ConditionError{Cond: float64(cond)}
		}
		return err
	}
	for i := 0; i < g.n; i++ {
		x.Set(i, dst.AtVec(i))
	}
	return nil
}
