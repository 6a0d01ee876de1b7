package mna

import (
	"fmt"

	"loadflow/element"
	"loadflow/graph"
	"loadflow/types"
)

// Restore 由母线电位重建结果快照, 不进行迭代
func Restore(model *element.Model, cfg types.SolverConfig, potentials []complex128) (*Results, error) {
	if len(potentials) != len(model.Buses) {
		return nil, fmt.Errorf("母线电位数量 %d 与母线数量 %d 不一致", len(potentials), len(model.Buses))
	}
	g, err := graph.NewGraph(model, cfg.SwitchLoopFallback)
	if err != nil {
		return nil, err
	}
	v := make([]complex128, g.NumNodes)
	for bus, p := range potentials {
		v[g.NodeOf[bus]] = p
	}
	e := &extractor{graph: g, adm: NewAdmittance(g, cfg.SwitchImpedance), inj: NewInjection(&cfg), v: v}
	return e.Extract(), nil
}
