package mna

import (
	"loadflow/element"
	"loadflow/graph"
	"loadflow/maths"
)

// Admittance 节点导纳矩阵, 行列为合并后的节点
type Admittance struct {
	Graph *graph.Graph
	Y     maths.Matrix[complex128]

	switchAdmittance complex128
}

// NewAdmittance 加盖全部支路
func NewAdmittance(g *graph.Graph, switchImpedance float64) *Admittance {
	a := &Admittance{
		Graph:            g,
		Y:                maths.NewSparseMatrix[complex128](g.NumNodes, g.NumNodes),
		switchAdmittance: complex(1/switchImpedance, 0),
	}
	a.Stamp()
	return a
}

// Stamp 重新加盖导纳矩阵
func (a *Admittance) Stamp() {
	a.Y.Zero()
	for bi := range a.Graph.Model.Branches {
		if a.Graph.IsMerged(bi) {
			continue
		}
		b := &a.Graph.Model.Branches[bi]
		y11, y12, y21, y22 := a.Branch(b)
		n1, n2 := a.Graph.NodeOf[b.Bus1], a.Graph.NodeOf[b.Bus2]
		a.Y.Increment(n1, n1, y11)
		a.Y.Increment(n1, n2, y12)
		a.Y.Increment(n2, n1, y21)
		a.Y.Increment(n2, n2, y22)
	}
}

// Branch 支路二端口导纳
func (a *Admittance) Branch(b *element.Branch) (y11, y12, y21, y22 complex128) {
	m := a.Graph.Model
	switch b.Kind {
	case element.BranchLine:
		z, y := m.Lines[b.Index].Admittance(&m.LineParams[b.Params])
		ys := 1 / z
		return ys + y/2, -ys, -ys, ys + y/2
	case element.BranchTransformer:
		y11, y12, y22 = m.Transformers[b.Index].Admittance(&m.TransformerParams[b.Params])
		return y11, y12, y12, y22
	}
	return a.switchAdmittance, -a.switchAdmittance, -a.switchAdmittance, a.switchAdmittance
}

// BranchCurrents 两端流入支路的电流
func (a *Admittance) BranchCurrents(b *element.Branch, v1, v2 complex128) (i1, i2 complex128) {
	m := a.Graph.Model
	switch b.Kind {
	case element.BranchLine:
		return m.Lines[b.Index].Currents(&m.LineParams[b.Params], v1, v2)
	case element.BranchTransformer:
		return m.Transformers[b.Index].Currents(&m.TransformerParams[b.Params], v1, v2)
	}
	y := a.switchAdmittance * (v1 - v2)
	return y, -y
}

// Partition 按未知量划分: Yuu 及电源节点注入 Is = Yus·Vs
func (a *Admittance) Partition() (yuu maths.Matrix[complex128], is []complex128) {
	g := a.Graph
	n := g.NumUnknowns()
	yuu = maths.NewSparseMatrix[complex128](n, n)
	is = make([]complex128, n)
	for u, node := range g.UnknownNode {
		cols, vals := a.Y.GetRow(node)
		for k, c := range cols {
			if v := g.Unknown[c]; v >= 0 {
				yuu.Set(u, v, vals[k])
			} else {
				is[u] += vals[k] * g.FixedPotential[c]
			}
		}
	}
	return yuu, is
}
