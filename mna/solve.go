package mna

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/cmplx"
	"time"

	"loadflow/element"
	"loadflow/graph"
	"loadflow/maths"
	"loadflow/types"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// State 求解状态
type State uint8

const (
	StateInit State = iota
	StateIterating
	StateConverged
	StateMaxIterationsExceeded
	StateNumericalDivergence
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateIterating:
		return "iterating"
	case StateConverged:
		return "converged"
	case StateMaxIterationsExceeded:
		return "max_iterations_exceeded"
	case StateNumericalDivergence:
		return "numerical_divergence"
	}
	return fmt.Sprintf("state(%d)", uint8(s))
}

// errTimeout 求解超时
var errTimeout = errors.New("求解超时")

// Solver 阻尼牛顿法潮流求解器
// 未知量为非电源节点电位的直角坐标 [Re V0, Im V0, Re V1, ...]
// 残差为节点电流失配 F = Yuu·V + Is + I_load(V)
type Solver struct {
	Config     types.SolverConfig
	Graph      *graph.Graph
	Admittance *Admittance
	Injection  *Injection
	Debug      types.Debug
	Logger     zerolog.Logger

	// 迭代状态
	State            State
	Iter             int
	Residual         float64
	DampingFactor    float64
	OscillationCount int

	yuu       maths.Matrix[complex128]
	is        []complex128
	nodeLoads [][]int // 未知量 -> 负荷
	lin       *linear
	x, f, dx  maths.Vector[float64]
}

// NewSolver 校验参数并完成拓扑分析与导纳加盖
func NewSolver(model *element.Model, cfg types.SolverConfig) (*Solver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if !cfg.AllowHardProjection {
		for i := range model.Loads {
			if fp := model.Loads[i].Flexible; fp != nil && fp.Projection.Hard {
				return nil, types.NewConfigurationError("load", model.Loads[i].ID, "未开启 allow_hard_projection 时不能使用精确投影")
			}
		}
	}
	g, err := graph.NewGraph(model, cfg.SwitchLoopFallback)
	if err != nil {
		return nil, err
	}
	s := &Solver{
		Config:     cfg,
		Graph:      g,
		Admittance: NewAdmittance(g, cfg.SwitchImpedance),
		Injection:  NewInjection(&cfg),
		Logger:     log.Logger,
	}
	s.yuu, s.is = s.Admittance.Partition()
	s.nodeLoads = make([][]int, g.NumUnknowns())
	for i, bus := range model.LoadBus {
		if u := g.Unknown[g.NodeOf[bus]]; u >= 0 {
			s.nodeLoads[u] = append(s.nodeLoads[u], i)
		}
	}
	return s, nil
}

// Solve 执行牛顿迭代, warm 非空且开启热启动时作为初值
// 失败时不返回任何部分结果
func (s *Solver) Solve(ctx context.Context, warm *Results) (*Results, error) {
	start := time.Now()
	id := uuid.New()
	logger := s.Logger.With().Str("solve_id", id.String()).Logger()
	if s.Config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeoutCause(ctx, s.Config.Timeout, errTimeout)
		defer cancel()
	}

	v := s.initial(warm)
	n := s.Graph.NumUnknowns()
	s.x = maths.NewDenseVector[float64](2 * n)
	s.f = maths.NewDenseVector[float64](2 * n)
	s.dx = maths.NewDenseVector[float64](2 * n)
	for u, node := range s.Graph.UnknownNode {
		s.x.Set(2*u, real(v[node]))
		s.x.Set(2*u+1, imag(v[node]))
	}
	if n > 0 {
		lin, err := newLinear(&s.Config, 2*n)
		if err != nil {
			return nil, err
		}
		s.lin = lin
	}
	if s.debugging() {
		names := make([]string, n)
		for u, node := range s.Graph.UnknownNode {
			names[u] = s.Graph.Model.Buses[s.Graph.NodeBuses[node][0]].ID
		}
		s.Debug.Init(names)
	}

	if err := s.iterate(ctx, logger); err != nil {
		logger.Error().Err(err).Str("state", s.State.String()).Int("iterations", s.Iter).Float64("residual", s.Residual).Msg("潮流求解失败")
		if s.debugging() {
			s.Debug.Error(err)
		}
		return nil, err
	}

	for u, node := range s.Graph.UnknownNode {
		v[node] = complex(s.x.Get(2*u), s.x.Get(2*u+1))
	}
	e := &extractor{graph: s.Graph, adm: s.Admittance, inj: s.Injection, v: v}
	res := e.Extract()
	res.SolveID = id
	res.Iterations = s.Iter
	res.Residual = s.Residual
	res.Duration = time.Since(start)
	logger.Info().Int("iterations", res.Iterations).Float64("residual", res.Residual).Dur("duration", res.Duration).Msg("潮流收敛")
	return res, nil
}

func (s *Solver) debugging() bool { return s.Debug != nil && s.Debug.IsDebug() }

// initial 初始节点电位: 传播初值, 热启动时取上次结果
func (s *Solver) initial(warm *Results) []complex128 {
	v := s.Graph.InitialGuess()
	m := s.Graph.Model
	if !s.Config.WarmStart || warm == nil || len(warm.Buses) != len(m.Buses) {
		return v
	}
	for bus, b := range warm.Buses {
		n := s.Graph.NodeOf[bus]
		if b.ID != m.Buses[bus].ID || s.Graph.Fixed[n] || b.Potential == 0 {
			continue
		}
		v[n] = b.Potential
	}
	return v
}

// iterate 状态机主循环
func (s *Solver) iterate(ctx context.Context, logger zerolog.Logger) error {
	s.State = StateInit
	s.Iter = 0
	s.OscillationCount = 0
	s.DampingFactor = s.Config.MaxDampingFactor
	prev := math.Inf(1)
	for ; ; s.Iter++ {
		if err := ctx.Err(); err != nil {
			s.State = StateMaxIterationsExceeded
			return &types.SolverDivergenceError{Iterations: s.Iter, Residual: s.Residual, Cause: context.Cause(ctx)}
		}
		res, err := s.residual()
		if err != nil {
			s.State = StateNumericalDivergence
			return err
		}
		s.Residual = res
		if !finite(s.x) || math.IsNaN(res) || math.IsInf(res, 0) {
			s.State = StateNumericalDivergence
			return &types.NumericalDivergenceError{Iteration: s.Iter, Reason: "出现非有限值"}
		}
		if s.Iter > 0 {
			// 阻尼自适应调整
			if res > prev {
				s.DampingFactor = math.Max(s.Config.MinDampingFactor, s.DampingFactor*0.5)
				s.OscillationCount++
			} else {
				s.DampingFactor = math.Min(s.Config.MaxDampingFactor, s.DampingFactor*1.2)
				s.OscillationCount = 0
			}
		}
		prev = res
		// 收敛检查
		if res < s.Config.Tolerance {
			s.State = StateConverged
			s.trace(logger)
			return nil
		}
		if s.Iter >= s.Config.MaxIterations {
			s.State = StateMaxIterationsExceeded
			return &types.SolverDivergenceError{Iterations: s.Iter, Residual: res}
		}
		if s.OscillationCount > s.Config.MaxOscillationCount {
			s.State = StateNumericalDivergence
			return &types.NumericalDivergenceError{Iteration: s.Iter, Reason: fmt.Sprintf("残差持续振荡 %d 次", s.OscillationCount)}
		}
		s.State = StateIterating
		s.trace(logger)
		s.jacobian()
		if err := s.lin.Solve(s.Iter, s.f, s.dx); err != nil {
			s.State = StateNumericalDivergence
			return err
		}
		if c := s.lin.Cond(); !math.IsNaN(c) {
			logger.Debug().Int("iter", s.Iter).Float64("cond", c).Msg("雅可比条件数")
		}
		for i := 0; i < s.x.Length(); i++ {
			s.x.Increment(i, -s.DampingFactor*s.dx.Get(i))
		}
	}
}

// trace 输出迭代信息
func (s *Solver) trace(logger zerolog.Logger) {
	logger.Debug().Int("iter", s.Iter).Float64("residual", s.Residual).Float64("damping", s.DampingFactor).Str("state", s.State.String()).Msg("牛顿迭代")
	if !s.debugging() {
		return
	}
	pot := make([]complex128, s.Graph.NumUnknowns())
	for u := range pot {
		pot[u] = complex(s.x.Get(2*u), s.x.Get(2*u+1))
	}
	s.Debug.Update(types.Step{Iteration: s.Iter, State: s.State.String(), Residual: s.Residual, Damping: s.DampingFactor, Potential: pot})
}

// potential 第 u 个未知量的电位
func (s *Solver) potential(u int) complex128 {
	return complex(s.x.Get(2*u), s.x.Get(2*u+1))
}

// residual 计算电流失配向量 f 并返回最大模
func (s *Solver) residual() (float64, error) {
	m := s.Graph.Model
	maxRes := 0.0
	for u := 0; u < s.Graph.NumUnknowns(); u++ {
		f := s.is[u]
		cols, vals := s.yuu.GetRow(u)
		for k, c := range cols {
			f += vals[k] * s.potential(c)
		}
		v := s.potential(u)
		if len(s.nodeLoads[u]) > 0 && cmplx.Abs(v) <= s.Config.MinLoadPotential {
			bus := m.LoadBus[s.nodeLoads[u][0]]
			return math.Inf(1), &types.SingularInjectionError{BusID: m.Buses[bus].ID, Potential: v}
		}
		for _, li := range s.nodeLoads[u] {
			i, _ := s.Injection.Current(&m.Loads[li], v)
			f += i
		}
		s.f.Set(2*u, real(f))
		s.f.Set(2*u+1, imag(f))
		maxRes = math.Max(maxRes, cmplx.Abs(f))
	}
	return maxRes, nil
}

// jacobian 加盖实数雅可比矩阵
func (s *Solver) jacobian() {
	m := s.Graph.Model
	j := s.lin.J
	j.Zero()
	for u := 0; u < s.Graph.NumUnknowns(); u++ {
		cols, vals := s.yuu.GetRow(u)
		for k, c := range cols {
			g, b := real(vals[k]), imag(vals[k])
			j.Increment(2*u, 2*c, g)
			j.Increment(2*u, 2*c+1, -b)
			j.Increment(2*u+1, 2*c, b)
			j.Increment(2*u+1, 2*c+1, g)
		}
		v := s.potential(u)
		var blk Block
		for _, li := range s.nodeLoads[u] {
			blk.Add(s.Injection.Jacobian(&m.Loads[li], v))
		}
		for r := 0; r < 2; r++ {
			for c := 0; c < 2; c++ {
				j.Increment(2*u+r, 2*u+c, blk[r][c])
			}
		}
	}
}

func finite(x maths.Vector[float64]) bool {
	for i := 0; i < x.Length(); i++ {
		if v := x.Get(i); math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
