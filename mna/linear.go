package mna

import (
	"errors"
	"math"

	"loadflow/maths"
	"loadflow/types"
)

// linear 雅可比线性方程求解
type linear struct {
	J     maths.Matrix[float64]
	lu    maths.LU[float64]
	gonum *maths.GonumLU
	kind  types.LinearSolver
}

// newLinear 按参数选择稠密或稀疏求解, n 为方程数
func newLinear(cfg *types.SolverConfig, n int) (*linear, error) {
	kind := cfg.LinearSolver
	if kind == types.SolverAuto {
		kind = types.SolverSparse
		if n <= cfg.DenseLimit {
			kind = types.SolverDense
		}
	}
	l := &linear{kind: kind}
	if kind == types.SolverDense {
		g, err := maths.NewGonumLU(n, cfg.MaxCondition)
		if err != nil {
			return nil, err
		}
		l.J, l.lu, l.gonum = maths.NewDenseMatrix[float64](n, n), g, g
		return l, nil
	}
	lu, err := maths.NewLUSparse[float64](n)
	if err != nil {
		return nil, err
	}
	l.J, l.lu = maths.NewSparseMatrix[float64](n, n), lu
	return l, nil
}

// Solve 分解 J 并求解 J·dx = f
func (l *linear) Solve(iter int, f, dx maths.Vector[float64]) error {
	if err := l.lu.Decompose(l.J); err != nil {
		return l.wrap(iter, err)
	}
	if err := l.lu.SolveReuse(f, dx); err != nil {
		return l.wrap(iter, err)
	}
	return nil
}

func (l *linear) wrap(iter int, err error) error {
	cond := math.Inf(1)
	var ce *maths.ConditionError
	if errors.As(err, &ce) {
		cond = ce.Cond
	}
	return &types.IllConditionedError{Iteration: iter, Condition: cond, Cause: err}
}

// Cond 最近一次稠密分解的条件数估计, 稀疏求解返回 NaN
func (l *linear) Cond() float64 {
	if l.gonum == nil {
		return math.NaN()
	}
	return l.gonum.Cond()
}
