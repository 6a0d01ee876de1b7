package netlist

import (
	"cmp"
	"fmt"
	"slices"

	"loadflow/element"
	"loadflow/mna"
	"loadflow/types"
)

// FromNetwork 由网络生成文件结构, res 非空时写入结果
// res 必须来自同一网络(元件顺序一致)
func FromNetwork(net *element.Network, res *mna.Results) *Document {
	if res != nil && !matches(net, res) {
		res = nil
	}
	doc := &Document{
		Version:            types.NetworkJSONVersion,
		Buses:              make([]BusData, len(net.Buses)),
		Lines:              make([]LineData, len(net.Lines)),
		Transformers:       make([]TransformerData, len(net.Transformers)),
		Switches:           make([]SwitchData, len(net.Switches)),
		Loads:              make([]LoadData, len(net.Loads)),
		Sources:            make([]SourceData, len(net.Sources)),
		LinesParams:        make([]LineParamsData, len(net.LineParams)),
		TransformersParams: make([]TransformerParamsData, len(net.TransformerParams)),
	}
	for i, b := range net.Buses {
		d := BusData{ID: b.ID, MinVoltage: b.MinVoltage, MaxVoltage: b.MaxVoltage}
		if b.InitialPotential != 0 {
			d.InitialPotential = ptr(b.InitialPotential)
		}
		if res != nil {
			d.Results = &BusResults{Potential: Complex(res.Buses[i].Potential)}
		}
		doc.Buses[i] = d
	}
	for i, s := range net.Sources {
		d := SourceData{ID: s.ID, Bus: s.Bus, Voltage: Complex(s.Voltage)}
		if res != nil {
			r := res.Sources[i]
			d.Results = &SourceResults{Current: Complex(r.Current), Potential: Complex(r.Potential)}
		}
		doc.Sources[i] = d
	}
	for i, l := range net.Lines {
		d := LineData{ID: l.ID, Bus1: l.Bus1, Bus2: l.Bus2, Length: l.Length, ParamsID: l.ParamsID, MaxLoading: l.MaxLoading}
		if res != nil {
			r := res.Lines[i]
			d.Results = &BranchResults{Current1: Complex(r.Current1), Current2: Complex(r.Current2)}
		}
		doc.Lines[i] = d
	}
	for i, t := range net.Transformers {
		d := TransformerData{ID: t.ID, Bus1: t.Bus1, Bus2: t.Bus2, ParamsID: t.ParamsID, Tap: t.Tap, MaxLoading: t.MaxLoading}
		if res != nil {
			r := res.Transformers[i]
			d.Results = &BranchResults{Current1: Complex(r.Current1), Current2: Complex(r.Current2)}
		}
		doc.Transformers[i] = d
	}
	for i, s := range net.Switches {
		d := SwitchData{ID: s.ID, Bus1: s.Bus1, Bus2: s.Bus2}
		if res != nil {
			r := res.Switches[i]
			d.Results = &BranchResults{Current1: Complex(r.Current1), Current2: Complex(r.Current2)}
		}
		doc.Switches[i] = d
	}
	for i, l := range net.Loads {
		doc.Loads[i] = loadData(l)
		if res != nil {
			r := res.Loads[i]
			lr := &LoadResults{Current: Complex(r.Current), Potential: Complex(r.Potential)}
			if r.FlexiblePower != nil {
				lr.FlexiblePower = ptr(*r.FlexiblePower)
			}
			doc.Loads[i].Results = lr
		}
	}

	for i, p := range net.LineParams {
		d := LineParamsData{
			ID:            p.ID,
			ZLine:         Complex(p.ZLine),
			MaxCurrent:    p.MaxCurrent,
			LineType:      p.LineType,
			ConductorType: p.ConductorType,
			InsulatorType: p.InsulatorType,
			Section:       p.Section,
		}
		if p.YShunt != 0 {
			d.YShunt = ptr(p.YShunt)
		}
		doc.LinesParams[i] = d
	}
	for i, p := range net.TransformerParams {
		typ := p.Type
		if typ == "" {
			typ = "single"
		}
		doc.TransformersParams[i] = TransformerParamsData{ID: p.ID, Type: typ, Sn: p.Sn, Up: p.Up, Us: p.Us, Z2: Complex(p.Z2), Ym: Complex(p.Ym)}
	}
	slices.SortFunc(doc.LinesParams, func(a, b LineParamsData) int { return cmp.Compare(a.ID, b.ID) })
	slices.SortFunc(doc.TransformersParams, func(a, b TransformerParamsData) int { return cmp.Compare(a.ID, b.ID) })
	return doc
}

func matches(net *element.Network, res *mna.Results) bool {
	return len(res.Buses) == len(net.Buses) &&
		len(res.Sources) == len(net.Sources) &&
		len(res.Lines) == len(net.Lines) &&
		len(res.Transformers) == len(net.Transformers) &&
		len(res.Switches) == len(net.Switches) &&
		len(res.Loads) == len(net.Loads)
}

func loadData(l element.Load) LoadData {
	d := LoadData{ID: l.ID, Bus: l.Bus, Type: string(l.Kind)}
	switch l.Kind {
	case element.LoadPower:
		d.Powers = ptr(l.Power)
	case element.LoadCurrent:
		d.Currents = ptr(l.Current)
	case element.LoadImpedance:
		d.Impedances = ptr(l.Impedance)
	case element.LoadFlexible:
		d.Type = string(element.LoadPower)
		d.Powers = ptr(l.Power)
		d.FlexibleParam = l.Flexible.Clone()
	}
	return d
}

// Network 转换为网络, 元件顺序与文件一致
func (doc *Document) Network() (*element.Network, error) {
	net := &element.Network{
		Buses:             make([]element.Bus, len(doc.Buses)),
		Lines:             make([]element.Line, len(doc.Lines)),
		Transformers:      make([]element.Transformer, len(doc.Transformers)),
		Switches:          make([]element.Switch, len(doc.Switches)),
		Loads:             make([]element.Load, len(doc.Loads)),
		Sources:           make([]element.VoltageSource, len(doc.Sources)),
		LineParams:        make([]element.LineParameters, len(doc.LinesParams)),
		TransformerParams: make([]element.TransformerParameters, len(doc.TransformersParams)),
	}
	for i, b := range doc.Buses {
		net.Buses[i] = element.Bus{ID: b.ID, InitialPotential: value(b.InitialPotential), MinVoltage: b.MinVoltage, MaxVoltage: b.MaxVoltage}
	}
	for i, s := range doc.Sources {
		net.Sources[i] = element.VoltageSource{ID: s.ID, Bus: s.Bus, Voltage: complex128(s.Voltage)}
	}
	for i, l := range doc.Lines {
		net.Lines[i] = element.Line{ID: l.ID, Bus1: l.Bus1, Bus2: l.Bus2, Length: l.Length, ParamsID: l.ParamsID, MaxLoading: l.MaxLoading}
	}
	for i, t := range doc.Transformers {
		net.Transformers[i] = element.Transformer{ID: t.ID, Bus1: t.Bus1, Bus2: t.Bus2, ParamsID: t.ParamsID, Tap: t.Tap, MaxLoading: t.MaxLoading}
	}
	for i, s := range doc.Switches {
		net.Switches[i] = element.Switch{ID: s.ID, Bus1: s.Bus1, Bus2: s.Bus2}
	}
	for i := range doc.Loads {
		l, err := doc.Loads[i].load()
		if err != nil {
			return nil, err
		}
		net.Loads[i] = l
	}
	for i, p := range doc.LinesParams {
		net.LineParams[i] = element.LineParameters{
			ID:            p.ID,
			ZLine:         complex128(p.ZLine),
			YShunt:        value(p.YShunt),
			MaxCurrent:    p.MaxCurrent,
			LineType:      p.LineType,
			ConductorType: p.ConductorType,
			InsulatorType: p.InsulatorType,
			Section:       p.Section,
		}
	}
	for i, p := range doc.TransformersParams {
		net.TransformerParams[i] = element.TransformerParameters{ID: p.ID, Type: p.Type, Sn: p.Sn, Up: p.Up, Us: p.Us, Z2: complex128(p.Z2), Ym: complex128(p.Ym)}
	}
	return net, nil
}

// pick 复数形式与单数形式二选一
func pick(id, key string, plural, singular *Complex) (complex128, error) {
	switch {
	case plural != nil && singular != nil:
		return 0, types.NewConfigurationError("load", id, fmt.Sprintf("%ss 与 %s 不能同时给出", key, key))
	case plural != nil:
		return complex128(*plural), nil
	case singular != nil:
		return complex128(*singular), nil
	}
	return 0, types.NewConfigurationError("load", id, fmt.Sprintf("缺少 %ss", key))
}

func (d *LoadData) load() (element.Load, error) {
	l := element.Load{ID: d.ID, Bus: d.Bus, Kind: element.LoadKind(d.Type)}
	var err error
	switch l.Kind {
	case element.LoadPower:
		l.Power, err = pick(d.ID, "power", d.Powers, d.Power)
		if d.FlexibleParam != nil {
			l.Kind = element.LoadFlexible
			l.Flexible = d.FlexibleParam.Clone()
		}
	case element.LoadCurrent:
		l.Current, err = pick(d.ID, "current", d.Currents, d.Current)
	case element.LoadImpedance:
		l.Impedance, err = pick(d.ID, "impedance", d.Impedances, d.Impedance)
	default:
		err = types.NewConfigurationError("load", d.ID, fmt.Sprintf("未知负荷类型 %q", d.Type))
	}
	return l, err
}

// Potentials 文件中的母线电位, 仅当所有元件都带有结果时返回
func (doc *Document) Potentials() []complex128 {
	if !doc.complete() {
		return nil
	}
	out := make([]complex128, len(doc.Buses))
	for i, b := range doc.Buses {
		out[i] = complex128(b.Results.Potential)
	}
	return out
}

func (doc *Document) complete() bool {
	if len(doc.Buses) == 0 {
		return false
	}
	for _, b := range doc.Buses {
		if b.Results == nil {
			return false
		}
	}
	for _, s := range doc.Sources {
		if s.Results == nil {
			return false
		}
	}
	for _, l := range doc.Lines {
		if l.Results == nil {
			return false
		}
	}
	for _, t := range doc.Transformers {
		if t.Results == nil {
			return false
		}
	}
	for _, s := range doc.Switches {
		if s.Results == nil {
			return false
		}
	}
	for _, l := range doc.Loads {
		if l.Results == nil {
			return false
		}
	}
	return true
}
