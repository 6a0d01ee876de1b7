package mna

import (
	"math"
	"math/cmplx"

	"loadflow/control"
	"loadflow/element"
	"loadflow/types"
)

// Block 电流对电位的实数雅可比块 ∂(Ir,Ii)/∂(Vr,Vi)
type Block [2][2]float64

// Add 累加
func (b *Block) Add(o Block) {
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			b[i][j] += o[i][j]
		}
	}
}

// wirtinger 由 dI = A dV + B dV̄ 得到实数块
func wirtinger(a, b complex128) Block {
	p, m := a+b, a-b
	return Block{
		{real(p), -imag(m)},
		{imag(p), real(m)},
	}
}

// Injection 负荷注入函数
type Injection struct {
	Phase types.CurrentPhase
	Step  float64 // 数值微分相对步长
}

// NewInjection 按求解参数创建
func NewInjection(cfg *types.SolverConfig) *Injection {
	return &Injection{Phase: cfg.CurrentPhase, Step: types.FiniteDiffStep}
}

// Current 负荷在母线电位 v 下吸取的电流
// 柔性负荷同时返回实际功率
func (inj *Injection) Current(l *element.Load, v complex128) (i, flexible complex128) {
	switch l.Kind {
	case element.LoadPower:
		return cmplx.Conj(l.Power / (3 * v)), 0
	case element.LoadCurrent:
		if inj.Phase == types.PhaseBusAngle {
			return l.Current * v / complex(cmplx.Abs(v), 0), 0
		}
		return l.Current, 0
	case element.LoadImpedance:
		return v / l.Impedance, 0
	case element.LoadFlexible:
		s := control.Evaluate(l.Flexible, types.Sqrt3*cmplx.Abs(v), l.Power)
		return cmplx.Conj(s / (3 * v)), s
	}
	return 0, 0
}

// Jacobian 负荷电流对母线电位的导数
func (inj *Injection) Jacobian(l *element.Load, v complex128) Block {
	switch l.Kind {
	case element.LoadPower:
		// I = c / V̄, c = S̄/3
		vc := cmplx.Conj(v)
		return wirtinger(0, -cmplx.Conj(l.Power)/3/(vc*vc))
	case element.LoadImpedance:
		return wirtinger(1/l.Impedance, 0)
	case element.LoadCurrent:
		if inj.Phase != types.PhaseBusAngle {
			return Block{}
		}
	}
	return inj.numeric(l, v)
}

// numeric 中心差分
func (inj *Injection) numeric(l *element.Load, v complex128) Block {
	h := inj.Step * math.Max(cmplx.Abs(v), 1)
	var b Block
	for j, dv := range []complex128{complex(h, 0), complex(0, h)} {
		ip, _ := inj.Current(l, v+dv)
		im, _ := inj.Current(l, v-dv)
		d := (ip - im) / complex(2*h, 0)
		b[0][j], b[1][j] = real(d), imag(d)
	}
	return b
}
