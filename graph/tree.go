package graph

// TreeEdge 开关生成树的一条边, Parent 更靠近根
type TreeEdge struct {
	Switch int // 开关索引
	Parent int // 母线
	Child  int // 母线
}

// SwitchTree 已合并开关的生成树, 按后序排列(子节点在父节点之前)
// 每个节点的根优先取带电源的母线
func (graph *Graph) SwitchTree() []TreeEdge {
	m := graph.Model
	var edges []TreeEdge
	visited := make([]bool, len(m.Buses))
	// 后序遍历
	var visit func(bus int)
	visit = func(bus int) {
		visited[bus] = true
		for _, bi := range m.Incident[bus].Branches {
			if !graph.IsMerged(bi) {
				continue
			}
			b := &m.Branches[bi]
			child := b.Bus1
			if child == bus {
				child = b.Bus2
			}
			if visited[child] {
				continue
			}
			visit(child)
			edges = append(edges, TreeEdge{Switch: b.Index, Parent: bus, Child: child})
		}
	}
	for n, buses := range graph.NodeBuses {
		if len(buses) < 2 {
			continue
		}
		root := buses[0]
		if srcs := graph.NodeSources[n]; len(srcs) > 0 {
			root = m.SourceBus[srcs[0]]
		}
		visit(root)
	}
	return edges
}
