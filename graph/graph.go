package graph

import (
	"math/cmplx"

	"loadflow/element"
	"loadflow/types"
)

// Graph 拓扑分析结果
// 开关合并后的母线集合称为节点, 含电源的节点电位固定
type Graph struct {
	Model *element.Model

	NodeOf    []int   // 母线 -> 节点
	NodeBuses [][]int // 节点 -> 母线
	NumNodes  int

	Fallback []int // 未合并的开关(环路退化), 按导纳加盖

	NodeSources    [][]int      // 节点 -> 电源
	Fixed          []bool       // 节点电位是否固定
	FixedPotential []complex128 // 固定节点的电位

	Unknown     []int // 节点 -> 未知量序号, 固定节点为 -1
	UnknownNode []int // 未知量序号 -> 节点
}

// NewGraph 分析网络拓扑
func NewGraph(m *element.Model, switchLoopFallback bool) (*Graph, error) {
	graph := &Graph{Model: m}
	if err := graph.Init(switchLoopFallback); err != nil {
		return nil, err
	}
	return graph, nil
}

// Init 合并开关, 检查电源与连通性, 为未知量编号
func (graph *Graph) Init(switchLoopFallback bool) error {
	if err := graph.merge(switchLoopFallback); err != nil {
		return err
	}
	if err := graph.sources(); err != nil {
		return err
	}
	if err := graph.connectivity(); err != nil {
		return err
	}
	graph.Unknown = make([]int, graph.NumNodes)
	graph.UnknownNode = graph.UnknownNode[:0]
	for n := 0; n < graph.NumNodes; n++ {
		if graph.Fixed[n] {
			graph.Unknown[n] = -1
			continue
		}
		graph.Unknown[n] = len(graph.UnknownNode)
		graph.UnknownNode = append(graph.UnknownNode, n)
	}
	return nil
}

// NumUnknowns 未知电位数量
func (graph *Graph) NumUnknowns() int { return len(graph.UnknownNode) }

// merge 用并查集合并开关两端母线
func (graph *Graph) merge(switchLoopFallback bool) error {
	m := graph.Model
	uf := newUnionFind(len(m.Buses))
	looped := map[int]bool{} // 含环路的开关集合(按根)
	for i := range m.Switches {
		b := m.SwitchBranch(i)
		if !uf.union(b.Bus1, b.Bus2) {
			if !switchLoopFallback {
				return types.NewConfigurationError("switch", m.Switches[i].ID, "开关构成环路")
			}
			looped[b.Bus1] = true
		}
	}
	graph.Fallback = graph.Fallback[:0]
	if len(looped) > 0 {
		// 含环路的开关集合整体不合并
		roots := map[int]bool{}
		for bus := range looped {
			roots[uf.find(bus)] = true
		}
		merged := newUnionFind(len(m.Buses))
		for i := range m.Switches {
			b := m.SwitchBranch(i)
			if roots[uf.find(b.Bus1)] {
				graph.Fallback = append(graph.Fallback, i)
				continue
			}
			merged.union(b.Bus1, b.Bus2)
		}
		uf = merged
	}

	graph.NodeOf = make([]int, len(m.Buses))
	graph.NodeBuses = graph.NodeBuses[:0]
	rootNode := make(map[int]int, len(m.Buses))
	for bus := range m.Buses {
		root := uf.find(bus)
		n, ok := rootNode[root]
		if !ok {
			n = len(graph.NodeBuses)
			rootNode[root] = n
			graph.NodeBuses = append(graph.NodeBuses, nil)
		}
		graph.NodeOf[bus] = n
		graph.NodeBuses[n] = append(graph.NodeBuses[n], bus)
	}
	graph.NumNodes = len(graph.NodeBuses)
	return nil
}

// sources 标记电源节点并检查电位冲突
func (graph *Graph) sources() error {
	m := graph.Model
	if len(m.Sources) == 0 {
		return types.ErrNoSource
	}
	graph.NodeSources = make([][]int, graph.NumNodes)
	graph.Fixed = make([]bool, graph.NumNodes)
	graph.FixedPotential = make([]complex128, graph.NumNodes)
	for i, s := range m.Sources {
		n := graph.NodeOf[m.SourceBus[i]]
		graph.NodeSources[n] = append(graph.NodeSources[n], i)
		v := s.Voltage / complex(types.Sqrt3, 0)
		if !graph.Fixed[n] {
			graph.Fixed[n] = true
			graph.FixedPotential[n] = v
			continue
		}
		if v0 := graph.FixedPotential[n]; cmplx.Abs(v-v0) > 1e-9*cmplx.Abs(v0) {
			err := &types.ConflictingSourceError{}
			for _, j := range graph.NodeSources[n] {
				err.SourceIDs = append(err.SourceIDs, m.Sources[j].ID)
				err.Potentials = append(err.Potentials, m.Sources[j].Voltage/complex(types.Sqrt3, 0))
			}
			return err
		}
	}
	return nil
}

// Neighbors 节点经线路, 变压器与退化开关相连的支路
// 返回支路索引, 合并开关不出现
func (graph *Graph) Neighbors(node int) []int {
	m := graph.Model
	var out []int
	for _, bus := range graph.NodeBuses[node] {
		for _, bi := range m.Incident[bus].Branches {
			if graph.IsMerged(bi) {
				continue
			}
			out = append(out, bi)
		}
	}
	return out
}

// IsMerged 支路是否为已合并的开关
func (graph *Graph) IsMerged(branch int) bool {
	b := &graph.Model.Branches[branch]
	return b.Kind == element.BranchSwitch && graph.NodeOf[b.Bus1] == graph.NodeOf[b.Bus2]
}

// Other 支路另一端的节点
func (graph *Graph) Other(branch, node int) int {
	b := &graph.Model.Branches[branch]
	if n := graph.NodeOf[b.Bus1]; n != node {
		return n
	}
	return graph.NodeOf[b.Bus2]
}

// connectivity 从第一个电源出发广度优先搜索
func (graph *Graph) connectivity() error {
	m := graph.Model
	visited := make([]bool, graph.NumNodes)
	start := graph.NodeOf[m.SourceBus[0]]
	visited[start] = true
	queue := []int{start}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		for _, bi := range graph.Neighbors(n) {
			if o := graph.Other(bi, n); !visited[o] {
				visited[o] = true
				queue = append(queue, o)
			}
		}
	}
	var missing []string
	for bus := range m.Buses {
		if !visited[graph.NodeOf[bus]] {
			missing = append(missing, m.Buses[bus].ID)
		}
	}
	if len(missing) > 0 {
		return &types.DisconnectedNetworkError{BusIDs: missing}
	}
	return nil
}
