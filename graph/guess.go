package graph

import (
	"loadflow/element"
)

// InitialGuess 节点初始电位
// 从电源出发广度优先传播: 线路与开关保持电位, 变压器按变比换算;
// 母线设置的 InitialPotential 覆盖传播结果
func (graph *Graph) InitialGuess() []complex128 {
	m := graph.Model
	v := make([]complex128, graph.NumNodes)
	visited := make([]bool, graph.NumNodes)
	var queue []int
	for n := 0; n < graph.NumNodes; n++ {
		if graph.Fixed[n] {
			v[n] = graph.FixedPotential[n]
			visited[n] = true
			queue = append(queue, n)
		}
	}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		for _, bi := range graph.Neighbors(n) {
			o := graph.Other(bi, n)
			if visited[o] {
				continue
			}
			visited[o] = true
			b := &m.Branches[bi]
			v[o] = v[n]
			if b.Kind == element.BranchTransformer {
				k := complex(m.Transformers[b.Index].Ratio(&m.TransformerParams[b.Params]), 0)
				if graph.NodeOf[b.Bus1] == n {
					v[o] = v[n] * k
				} else {
					v[o] = v[n] / k
				}
			}
			queue = append(queue, o)
		}
	}
	for bus, b := range m.Buses {
		if n := graph.NodeOf[bus]; b.InitialPotential != 0 && !graph.Fixed[n] {
			v[n] = b.InitialPotential
		}
	}
	return v
}
