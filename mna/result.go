package mna

import (
	"math"
	"math/cmplx"
	"time"

	"loadflow/element"
	"loadflow/graph"
	"loadflow/types"

	"github.com/google/uuid"
)

// BusResult 母线结果
type BusResult struct {
	ID        string
	Potential complex128 // 相电位(V)
	Voltage   complex128 // 线电压 √3·V
	Violated  *bool      // 未设置限值时为 nil
}

// SourceResult 电压源结果, 电流由电源流入母线
type SourceResult struct {
	ID        string
	Current   complex128
	Potential complex128
	Power     complex128
}

// LineResult 线路结果, 电流以流入线路为正
type LineResult struct {
	ID            string
	Current1      complex128
	Current2      complex128
	Potential1    complex128
	Potential2    complex128
	Power1        complex128
	Power2        complex128
	PowerLosses   complex128
	SeriesCurrent complex128
	SeriesLosses  complex128
	ShuntCurrent1 complex128
	ShuntCurrent2 complex128
	ShuntLosses   complex128
	Loading       float64 // 未设置载流量时为 0
	Violated      *bool
}

// TransformerResult 变压器结果
type TransformerResult struct {
	ID          string
	Current1    complex128
	Current2    complex128
	Potential1  complex128
	Potential2  complex128
	Power1      complex128
	Power2      complex128
	PowerLosses complex128
	Loading     float64
	Violated    bool
}

// SwitchResult 开关结果
type SwitchResult struct {
	ID         string
	Current1   complex128
	Current2   complex128
	Potential1 complex128
	Potential2 complex128
}

// LoadResult 负荷结果, 电流为从母线吸取的电流
type LoadResult struct {
	ID            string
	Current       complex128
	Potential     complex128
	Power         complex128
	FlexiblePower *complex128 // 仅柔性负荷
}

// Results 一次成功求解的只读结果
type Results struct {
	SolveID    uuid.UUID
	Iterations int
	Residual   float64
	Duration   time.Duration

	Buses        []BusResult
	Sources      []SourceResult
	Lines        []LineResult
	Transformers []TransformerResult
	Switches     []SwitchResult
	Loads        []LoadResult
}

// Violations 越限元件
type Violations struct {
	Buses        []string
	Lines        []string
	Transformers []string
}

// Empty 无越限
func (v Violations) Empty() bool {
	return len(v.Buses) == 0 && len(v.Lines) == 0 && len(v.Transformers) == 0
}

// Violations 收集越限的母线, 线路与变压器
func (r *Results) Violations() Violations {
	var out Violations
	for _, b := range r.Buses {
		if b.Violated != nil && *b.Violated {
			out.Buses = append(out.Buses, b.ID)
		}
	}
	for _, l := range r.Lines {
		if l.Violated != nil && *l.Violated {
			out.Lines = append(out.Lines, l.ID)
		}
	}
	for _, t := range r.Transformers {
		if t.Violated {
			out.Transformers = append(out.Transformers, t.ID)
		}
	}
	return out
}

// power 三相功率 S = 3·V·conj(I)
func power(v, i complex128) complex128 { return 3 * v * cmplx.Conj(i) }

// extractor 由节点电位计算元件结果
type extractor struct {
	graph *graph.Graph
	adm   *Admittance
	inj   *Injection
	v     []complex128 // 节点电位
}

// Extract 生成结果
func (e *extractor) Extract() *Results {
	m := e.graph.Model
	r := &Results{
		Buses:        make([]BusResult, len(m.Buses)),
		Sources:      make([]SourceResult, len(m.Sources)),
		Lines:        make([]LineResult, len(m.Lines)),
		Transformers: make([]TransformerResult, len(m.Transformers)),
		Switches:     make([]SwitchResult, len(m.Switches)),
		Loads:        make([]LoadResult, len(m.Loads)),
	}
	busV := func(bus int) complex128 { return e.v[e.graph.NodeOf[bus]] }
	// 各母线流出电流(支路+负荷), 用于电源与开关电流
	demand := make([]complex128, len(m.Buses))

	for i := range m.Buses {
		b := &m.Buses[i]
		v := busV(i)
		voltage := v * complex(types.Sqrt3, 0)
		r.Buses[i] = BusResult{ID: b.ID, Potential: v, Voltage: voltage, Violated: b.Violated(cmplx.Abs(voltage))}
	}

	for i := range m.Loads {
		l := &m.Loads[i]
		v := busV(m.LoadBus[i])
		cur, s := e.inj.Current(l, v)
		res := LoadResult{ID: l.ID, Current: cur, Potential: v, Power: power(v, cur)}
		if l.Kind == element.LoadFlexible {
			res.FlexiblePower = &s
		}
		r.Loads[i] = res
		demand[m.LoadBus[i]] += cur
	}

	for bi := range m.Branches {
		b := &m.Branches[bi]
		v1, v2 := busV(b.Bus1), busV(b.Bus2)
		if e.graph.IsMerged(bi) {
			continue
		}
		i1, i2 := e.adm.BranchCurrents(b, v1, v2)
		demand[b.Bus1] += i1
		demand[b.Bus2] += i2
		switch b.Kind {
		case element.BranchLine:
			r.Lines[b.Index] = e.line(b, v1, v2, i1, i2)
		case element.BranchTransformer:
			r.Transformers[b.Index] = e.transformer(b, v1, v2, i1, i2)
		case element.BranchSwitch:
			r.Switches[b.Index] = SwitchResult{ID: m.Switches[b.Index].ID, Current1: i1, Current2: i2, Potential1: v1, Potential2: v2}
		}
	}

	// 电源电流: 节点总流出电流由同节点电源平分
	nodeDemand := make([]complex128, e.graph.NumNodes)
	for bus, d := range demand {
		nodeDemand[e.graph.NodeOf[bus]] += d
	}
	for i := range m.Sources {
		bus := m.SourceBus[i]
		n := e.graph.NodeOf[bus]
		cur := nodeDemand[n] / complex(float64(len(e.graph.NodeSources[n])), 0)
		v := busV(bus)
		r.Sources[i] = SourceResult{ID: m.Sources[i].ID, Current: cur, Potential: v, Power: power(v, cur)}
		demand[bus] -= cur
	}

	// 合并开关: 生成树后序累加子树流出电流
	for _, edge := range e.graph.SwitchTree() {
		d := demand[edge.Child]
		demand[edge.Parent] += d
		demand[edge.Child] = 0
		sw := m.SwitchBranch(edge.Switch)
		i1 := d
		if sw.Bus1 != edge.Parent {
			i1 = -d
		}
		v := busV(edge.Parent)
		r.Switches[edge.Switch] = SwitchResult{ID: m.Switches[edge.Switch].ID, Current1: i1, Current2: -i1, Potential1: v, Potential2: v}
	}
	return r
}

func (e *extractor) line(b *element.Branch, v1, v2, i1, i2 complex128) LineResult {
	m := e.graph.Model
	l := &m.Lines[b.Index]
	params := &m.LineParams[b.Params]
	z, y := l.Admittance(params)
	series := (v1 - v2) / z
	res := LineResult{
		ID:            l.ID,
		Current1:      i1,
		Current2:      i2,
		Potential1:    v1,
		Potential2:    v2,
		Power1:        power(v1, i1),
		Power2:        power(v2, i2),
		SeriesCurrent: series,
		SeriesLosses:  power(v1-v2, series),
		ShuntCurrent1: y * v1 / 2,
		ShuntCurrent2: y * v2 / 2,
	}
	res.PowerLosses = res.Power1 + res.Power2
	res.ShuntLosses = power(v1, res.ShuntCurrent1) + power(v2, res.ShuntCurrent2)
	if params.MaxCurrent > 0 {
		res.Loading = math.Max(cmplx.Abs(i1), cmplx.Abs(i2)) / (params.MaxCurrent * l.MaxLoading)
		violated := res.Loading > 1
		res.Violated = &violated
	}
	return res
}

func (e *extractor) transformer(b *element.Branch, v1, v2, i1, i2 complex128) TransformerResult {
	m := e.graph.Model
	t := &m.Transformers[b.Index]
	params := &m.TransformerParams[b.Params]
	res := TransformerResult{
		ID:         t.ID,
		Current1:   i1,
		Current2:   i2,
		Potential1: v1,
		Potential2: v2,
		Power1:     power(v1, i1),
		Power2:     power(v2, i2),
	}
	res.PowerLosses = res.Power1 + res.Power2
	res.Loading = math.Max(cmplx.Abs(res.Power1), cmplx.Abs(res.Power2)) / (params.Sn * t.MaxLoading)
	res.Violated = res.Loading > 1
	return res
}
