package element

import (
	"fmt"
	"slices"

	"loadflow/types"

	"github.com/rs/zerolog/log"
)

// Network 网络构建容器, 元件之间以 ID 相互引用
type Network struct {
	Buses             []Bus
	Lines             []Line
	Transformers      []Transformer
	Switches          []Switch
	Loads             []Load
	Sources           []VoltageSource
	LineParams        []LineParameters
	TransformerParams []TransformerParameters
}

// BranchKind 支路类型
type BranchKind uint8

const (
	BranchLine BranchKind = iota
	BranchTransformer
	BranchSwitch
)

func (k BranchKind) String() string {
	switch k {
	case BranchLine:
		return "line"
	case BranchTransformer:
		return "transformer"
	case BranchSwitch:
		return "switch"
	}
	return fmt.Sprintf("branch(%d)", uint8(k))
}

// Branch 支路索引
type Branch struct {
	Kind   BranchKind
	Index  int // 元件在对应切片中的位置
	Bus1   int
	Bus2   int
	Params int // 参数索引, 开关为 -1
}

// Incidence 母线关联的元件索引
type Incidence struct {
	Branches []int
	Loads    []int
	Sources  []int
}

// Model 校验并解析引用后的网络模型, 构建后只读
// Branches 依次存放线路, 变压器, 开关
type Model struct {
	Buses             []Bus
	Lines             []Line
	Transformers      []Transformer
	Switches          []Switch
	Loads             []Load
	Sources           []VoltageSource
	LineParams        []LineParameters
	TransformerParams []TransformerParameters

	Branches  []Branch
	LoadBus   []int
	SourceBus []int
	Incident  []Incidence

	busIndex map[string]int
}

// Build 填充缺省值, 校验并解析元件引用
func Build(net *Network) (*Model, error) {
	m := &Model{
		Buses:             slices.Clone(net.Buses),
		Lines:             slices.Clone(net.Lines),
		Transformers:      slices.Clone(net.Transformers),
		Switches:          slices.Clone(net.Switches),
		Loads:             make([]Load, len(net.Loads)),
		Sources:           slices.Clone(net.Sources),
		LineParams:        slices.Clone(net.LineParams),
		TransformerParams: slices.Clone(net.TransformerParams),
	}
	for i, l := range net.Loads {
		m.Loads[i] = l.Clone()
	}
	m.setDefaults()
	if err := m.validate(); err != nil {
		return nil, err
	}
	if err := m.resolve(); err != nil {
		return nil, err
	}
	for i := range m.Transformers {
		if tap := m.Transformers[i].Tap; tap < types.TapWarnLow || tap > types.TapWarnHigh {
			log.Warn().Str("transformer", m.Transformers[i].ID).Float64("tap", tap).Msg("分接头超出 [0.9, 1.1]")
		}
	}
	return m, nil
}

func (m *Model) setDefaults() {
	for i := range m.Lines {
		if m.Lines[i].MaxLoading == 0 {
			m.Lines[i].MaxLoading = types.DefaultMaxLoading
		}
	}
	for i := range m.Transformers {
		if m.Transformers[i].Tap == 0 {
			m.Transformers[i].Tap = types.DefaultTap
		}
		if m.Transformers[i].MaxLoading == 0 {
			m.Transformers[i].MaxLoading = types.DefaultMaxLoading
		}
	}
	for i := range m.TransformerParams {
		if m.TransformerParams[i].Type == "" {
			m.TransformerParams[i].Type = "single"
		}
	}
	for i := range m.Loads {
		if m.Loads[i].Flexible != nil {
			m.Loads[i].Flexible.SetDefaults()
		}
	}
}

// validate 逐个校验元件并检查 ID 唯一
func (m *Model) validate() error {
	groups := []struct {
		element string
		items   []named
	}{
		{"bus", collect(m.Buses, func(b *Bus) string { return b.ID })},
		{"line_parameters", collect(m.LineParams, func(p *LineParameters) string { return p.ID })},
		{"transformer_parameters", collect(m.TransformerParams, func(p *TransformerParameters) string { return p.ID })},
		{"line", collect(m.Lines, func(l *Line) string { return l.ID })},
		{"transformer", collect(m.Transformers, func(t *Transformer) string { return t.ID })},
		{"switch", collect(m.Switches, func(s *Switch) string { return s.ID })},
		{"load", collect(m.Loads, func(l *Load) string { return l.ID })},
		{"source", collect(m.Sources, func(s *VoltageSource) string { return s.ID })},
	}
	for _, g := range groups {
		seen := make(map[string]struct{}, len(g.items))
		for _, it := range g.items {
			if err := types.ValidateStruct(g.element, it.id, it.v); err != nil {
				return err
			}
			if _, ok := seen[it.id]; ok {
				return types.NewConfigurationError(g.element, it.id, "ID 重复")
			}
			seen[it.id] = struct{}{}
		}
	}
	return nil
}

// named 带 ID 的元件指针
type named struct {
	id string
	v  any
}

// collect 取元件指针与 ID
func collect[T any](s []T, id func(*T) string) []named {
	out := make([]named, len(s))
	for i := range s {
		out[i].id, out[i].v = id(&s[i]), &s[i]
	}
	return out
}

// resolve 将 ID 引用解析为索引, 并建立母线关联表
func (m *Model) resolve() error {
	m.busIndex = make(map[string]int, len(m.Buses))
	for i, b := range m.Buses {
		m.busIndex[b.ID] = i
	}
	bus := func(element, id, ref string) (int, error) {
		if i, ok := m.busIndex[ref]; ok {
			return i, nil
		}
		return -1, types.NewConfigurationError(element, id, fmt.Sprintf("母线 %q 不存在", ref))
	}
	lineParams := indexOf(m.LineParams, func(p *LineParameters) string { return p.ID })
	transformerParams := indexOf(m.TransformerParams, func(p *TransformerParameters) string { return p.ID })

	m.Branches = make([]Branch, 0, len(m.Lines)+len(m.Transformers)+len(m.Switches))
	addBranch := func(kind BranchKind, index int, id, bus1, bus2 string, params int) error {
		b1, err := bus(kind.String(), id, bus1)
		if err != nil {
			return err
		}
		b2, err := bus(kind.String(), id, bus2)
		if err != nil {
			return err
		}
		m.Branches = append(m.Branches, Branch{Kind: kind, Index: index, Bus1: b1, Bus2: b2, Params: params})
		return nil
	}
	for i, l := range m.Lines {
		p, ok := lineParams[l.ParamsID]
		if !ok {
			return types.NewConfigurationError("line", l.ID, fmt.Sprintf("线路参数 %q 不存在", l.ParamsID))
		}
		if err := addBranch(BranchLine, i, l.ID, l.Bus1, l.Bus2, p); err != nil {
			return err
		}
	}
	for i, t := range m.Transformers {
		p, ok := transformerParams[t.ParamsID]
		if !ok {
			return types.NewConfigurationError("transformer", t.ID, fmt.Sprintf("变压器参数 %q 不存在", t.ParamsID))
		}
		if err := addBranch(BranchTransformer, i, t.ID, t.Bus1, t.Bus2, p); err != nil {
			return err
		}
	}
	for i, s := range m.Switches {
		if err := addBranch(BranchSwitch, i, s.ID, s.Bus1, s.Bus2, -1); err != nil {
			return err
		}
	}

	m.LoadBus = make([]int, len(m.Loads))
	for i, l := range m.Loads {
		b, err := bus("load", l.ID, l.Bus)
		if err != nil {
			return err
		}
		m.LoadBus[i] = b
	}
	m.SourceBus = make([]int, len(m.Sources))
	for i, s := range m.Sources {
		b, err := bus("source", s.ID, s.Bus)
		if err != nil {
			return err
		}
		m.SourceBus[i] = b
	}
	m.buildIncidence()
	return nil
}

func (m *Model) buildIncidence() {
	m.Incident = make([]Incidence, len(m.Buses))
	for i, b := range m.Branches {
		m.Incident[b.Bus1].Branches = append(m.Incident[b.Bus1].Branches, i)
		m.Incident[b.Bus2].Branches = append(m.Incident[b.Bus2].Branches, i)
	}
	for i, b := range m.LoadBus {
		m.Incident[b].Loads = append(m.Incident[b].Loads, i)
	}
	for i, b := range m.SourceBus {
		m.Incident[b].Sources = append(m.Incident[b].Sources, i)
	}
}

func indexOf[T any](s []T, id func(*T) string) map[string]int {
	out := make(map[string]int, len(s))
	for i := range s {
		out[id(&s[i])] = i
	}
	return out
}

// BusIndex 母线 ID 对应的索引
func (m *Model) BusIndex(id string) (int, bool) {
	i, ok := m.busIndex[id]
	return i, ok
}

// LineBranch 第 i 条线路的支路
func (m *Model) LineBranch(i int) *Branch { return &m.Branches[i] }

// TransformerBranch 第 i 台变压器的支路
func (m *Model) TransformerBranch(i int) *Branch { return &m.Branches[len(m.Lines)+i] }

// SwitchBranch 第 i 个开关的支路
func (m *Model) SwitchBranch(i int) *Branch {
	return &m.Branches[len(m.Lines)+len(m.Transformers)+i]
}

// BranchID 支路对应元件的 ID
func (m *Model) BranchID(b *Branch) string {
	switch b.Kind {
	case BranchLine:
		return m.Lines[b.Index].ID
	case BranchTransformer:
		return m.Transformers[b.Index].ID
	}
	return m.Switches[b.Index].ID
}

// ConnectedBuses 经线路与开关相连的同一电压等级母线(含自身), 按广度优先顺序
func (m *Model) ConnectedBuses(busID string) ([]string, error) {
	start, ok := m.busIndex[busID]
	if !ok {
		return nil, types.NewConfigurationError("bus", busID, "母线不存在")
	}
	visited := make([]bool, len(m.Buses))
	visited[start] = true
	queue := []int{start}
	var ids []string
	for len(queue) > 0 {
		b := queue[0]
		queue = queue[1:]
		ids = append(ids, m.Buses[b].ID)
		for _, bi := range m.Incident[b].Branches {
			br := &m.Branches[bi]
			if br.Kind == BranchTransformer {
				continue
			}
			other := br.Bus1
			if other == b {
				other = br.Bus2
			}
			if !visited[other] {
				visited[other] = true
				queue = append(queue, other)
			}
		}
	}
	return ids, nil
}

// PropagateLimits 将母线电压限值复制到同一电压等级的母线, 返回新模型
// 已有不同限值的母线在 force 为 false 时报错
func (m *Model) PropagateLimits(busID string, force bool) (*Model, error) {
	ids, err := m.ConnectedBuses(busID)
	if err != nil {
		return nil, err
	}
	src := m.Buses[m.busIndex[busID]]
	buses := slices.Clone(m.Buses)
	for _, id := range ids[1:] {
		b := &buses[m.busIndex[id]]
		if !force {
			if b.MinVoltage > 0 && b.MinVoltage != src.MinVoltage {
				return nil, types.NewConfigurationError("bus", id,
					fmt.Sprintf("min_voltage %g 与母线 %s 的 %g 冲突", b.MinVoltage, busID, src.MinVoltage))
			}
			if b.MaxVoltage > 0 && b.MaxVoltage != src.MaxVoltage {
				return nil, types.NewConfigurationError("bus", id,
					fmt.Sprintf("max_voltage %g 与母线 %s 的 %g 冲突", b.MaxVoltage, busID, src.MaxVoltage))
			}
		}
		b.MinVoltage, b.MaxVoltage = src.MinVoltage, src.MaxVoltage
	}
	out := *m
	out.Buses = buses
	return &out, nil
}

// Network 导出为构建容器
func (m *Model) Network() *Network {
	net := &Network{
		Buses:             slices.Clone(m.Buses),
		Lines:             slices.Clone(m.Lines),
		Transformers:      slices.Clone(m.Transformers),
		Switches:          slices.Clone(m.Switches),
		Loads:             make([]Load, len(m.Loads)),
		Sources:           slices.Clone(m.Sources),
		LineParams:        slices.Clone(m.LineParams),
		TransformerParams: slices.Clone(m.TransformerParams),
	}
	for i, l := range m.Loads {
		net.Loads[i] = l.Clone()
	}
	return net
}
