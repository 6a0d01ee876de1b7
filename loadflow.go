package loadflow

import (
	"context"
	"io"
	"sync/atomic"

	"loadflow/element"
	"loadflow/mna"
	"loadflow/netlist"
	"loadflow/types"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ElectricalNetwork 电网潮流计算入口
// 结果指针原子发布, 拓扑修改(PropagateLimits)不可与求解并发
type ElectricalNetwork struct {
	Config types.SolverConfig
	Debug  types.Debug
	Logger zerolog.Logger

	model   *element.Model
	results atomic.Pointer[mna.Results]
}

// Option 创建选项
type Option func(*ElectricalNetwork)

// WithConfig 求解参数
func WithConfig(cfg types.SolverConfig) Option {
	return func(n *ElectricalNetwork) { n.Config = cfg }
}

// WithDebug 迭代记录
func WithDebug(d types.Debug) Option {
	return func(n *ElectricalNetwork) { n.Debug = d }
}

// WithLogger 日志
func WithLogger(l zerolog.Logger) Option {
	return func(n *ElectricalNetwork) { n.Logger = l }
}

// New 初始化
func New(model *element.Model, opts ...Option) *ElectricalNetwork {
	n := &ElectricalNetwork{Config: types.DefaultSolverConfig(), Logger: log.Logger, model: model}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Build 校验网络并初始化
func Build(net *element.Network, opts ...Option) (*ElectricalNetwork, error) {
	m, err := element.Build(net)
	if err != nil {
		return nil, err
	}
	return New(m, opts...), nil
}

// Model 网络模型
func (n *ElectricalNetwork) Model() *element.Model { return n.model }

// SolveLoadFlow 进行潮流计算, 成功后发布结果
// 失败时保留上一次的结果
func (n *ElectricalNetwork) SolveLoadFlow(ctx context.Context) (*mna.Results, error) {
	s, err := mna.NewSolver(n.model, n.Config)
	if err != nil {
		n.Logger.Error().Err(err).Msg("网络校验失败")
		return nil, err
	}
	s.Debug = n.Debug
	s.Logger = n.Logger
	res, err := s.Solve(ctx, n.results.Load())
	if err != nil {
		return nil, err
	}
	n.results.Store(res)
	return res, nil
}

// Results 最近一次成功求解的结果, 未求解时为 nil
func (n *ElectricalNetwork) Results() *mna.Results { return n.results.Load() }

// Violations 越限元件, 未求解时为空
func (n *ElectricalNetwork) Violations() mna.Violations {
	res := n.results.Load()
	if res == nil {
		return mna.Violations{}
	}
	return res.Violations()
}

// ConnectedBuses 经线路与开关连通的母线(不跨越变压器)
func (n *ElectricalNetwork) ConnectedBuses(busID string) ([]string, error) {
	return n.model.ConnectedBuses(busID)
}

// PropagateLimits 将母线电压限值传播到同电压等级的母线, 并清除已有结果
func (n *ElectricalNetwork) PropagateLimits(busID string, force bool) error {
	m, err := n.model.PropagateLimits(busID, force)
	if err != nil {
		return err
	}
	n.model = m
	n.results.Store(nil)
	return nil
}

// ReadNetwork 读取网络文件, 文件带完整结果时直接恢复结果
func ReadNetwork(r io.Reader, opts ...Option) (*ElectricalNetwork, error) {
	doc, err := netlist.Read(r)
	if err != nil {
		return nil, err
	}
	return fromDocument(doc, opts...)
}

func fromDocument(doc *netlist.Document, opts ...Option) (*ElectricalNetwork, error) {
	net, err := doc.Network()
	if err != nil {
		return nil, err
	}
	n, err := Build(net, opts...)
	if err != nil {
		return nil, err
	}
	if pot := doc.Potentials(); pot != nil {
		res, err := mna.Restore(n.model, n.Config, pot)
		if err != nil {
			return nil, err
		}
		n.results.Store(res)
	}
	return n, nil
}

// document 导出为网络文件结构
func (n *ElectricalNetwork) document(includeResults bool) *netlist.Document {
	var res *mna.Results
	if includeResults {
		res = n.results.Load()
	}
	return netlist.FromNetwork(n.model.Network(), res)
}

// WriteNetwork 导出网络文件
func (n *ElectricalNetwork) WriteNetwork(w io.Writer, includeResults bool) error {
	return netlist.Write(w, n.document(includeResults))
}

// FromJSON 从文件加载
func FromJSON(path string, opts ...Option) (*ElectricalNetwork, error) {
	doc, err := netlist.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return fromDocument(doc, opts...)
}

// ToJSON 保存到文件
func (n *ElectricalNetwork) ToJSON(path string, includeResults bool) error {
	return netlist.WriteFile(path, n.document(includeResults))
}
