package mna

import (
	"bytes"
	"context"
	"errors"
	"math"
	"math/cmplx"
	"testing"

	"loadflow/control"
	"loadflow/element"
	"loadflow/mna/debug"
	"loadflow/types"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testNetwork bus0 -line0- bus1 =transformer0= bus2 -switch0- bus3 -line1- bus4, 九个负荷接在 bus4
func testNetwork() *element.Network {
	qMin, qMax := -100.0, 100.0
	qu := control.QU(385, 390, 410, 415, 150)
	qu.QMin, qu.QMax = &qMin, &qMax
	return &element.Network{
		Buses: []element.Bus{
			{ID: "bus0"}, {ID: "bus1"}, {ID: "bus2"}, {ID: "bus3"}, {ID: "bus4", MinVoltage: 390, MaxVoltage: 440},
		},
		Sources: []element.VoltageSource{{ID: "vs0", Bus: "bus0", Voltage: 20000}},
		LineParams: []element.LineParameters{
			{ID: "lp0", ZLine: 0.21 + 0.1i, YShunt: 3.3e-5i, MaxCurrent: 300},
			{ID: "lp1", ZLine: 0.41 + 0.1i, MaxCurrent: 190},
		},
		TransformerParams: []element.TransformerParameters{
			{ID: "630kVA", Sn: 630e3, Up: 20000, Us: 400, Z2: 0.02, Ym: 1e-7},
		},
		Lines: []element.Line{
			{ID: "line0", Bus1: "bus0", Bus2: "bus1", Length: 1.5, ParamsID: "lp0"},
			{ID: "line1", Bus1: "bus3", Bus2: "bus4", Length: 0.1, ParamsID: "lp1"},
		},
		Transformers: []element.Transformer{{ID: "transformer0", Bus1: "bus1", Bus2: "bus2", ParamsID: "630kVA"}},
		Switches:     []element.Switch{{ID: "switch0", Bus1: "bus2", Bus2: "bus3"}},
		Loads: []element.Load{
			{ID: "load0", Bus: "bus4", Kind: element.LoadPower, Power: 100 + 5i},
			{ID: "load1", Bus: "bus4", Kind: element.LoadCurrent, Current: 1 + 0.1i},
			{ID: "load2", Bus: "bus4", Kind: element.LoadImpedance, Impedance: 1},
			{ID: "load3", Bus: "bus4", Kind: element.LoadFlexible, Power: 100, Flexible: control.ConstantFlexibleParameter()},
			{ID: "load4", Bus: "bus4", Kind: element.LoadFlexible, Power: 100, Flexible: control.PMaxUConsumption(380, 385, 150)},
			{ID: "load5", Bus: "bus4", Kind: element.LoadFlexible, Power: 100, Flexible: control.PQUConsumption(380, 385, 385, 390, 415, 420, 150)},
			{ID: "load6", Bus: "bus4", Kind: element.LoadFlexible, Power: -100, Flexible: control.PMaxUProduction(415, 420, 150)},
			{ID: "load7", Bus: "bus4", Kind: element.LoadFlexible, Power: -100, Flexible: control.PQUProduction(415, 420, 385, 390, 410, 415, 150)},
			{ID: "load8", Bus: "bus4", Kind: element.LoadFlexible, Power: -100, Flexible: qu},
		},
	}
}

func newSolver(t *testing.T, net *element.Network, cfg types.SolverConfig) *Solver {
	t.Helper()
	m, err := element.Build(net)
	require.NoError(t, err)
	s, err := NewSolver(m, cfg)
	require.NoError(t, err)
	return s
}

func solve(t *testing.T, net *element.Network, cfg types.SolverConfig) *Results {
	t.Helper()
	res, err := newSolver(t, net, cfg).Solve(context.Background(), nil)
	require.NoError(t, err)
	return res
}

func assertComplex(t *testing.T, want, got complex128, delta float64, msg string) {
	t.Helper()
	assert.InDelta(t, real(want), real(got), delta, "%s real", msg)
	assert.InDelta(t, imag(want), imag(got), delta, "%s imag", msg)
}

func TestSolveRadial(t *testing.T) {
	cfg := types.DefaultSolverConfig()
	res := solve(t, testNetwork(), cfg)

	assert.NotEqual(t, uuid.Nil, res.SolveID)
	assert.Positive(t, res.Iterations)
	assert.Less(t, res.Residual, cfg.Tolerance)

	// 电源母线电位
	assertComplex(t, complex(20000/math.Sqrt(3), 0), res.Buses[0].Potential, 1e-9, "bus0")
	assert.InDelta(t, 11547.0054, real(res.Buses[0].Potential), 1e-4)
	assertComplex(t, 20000, res.Buses[0].Voltage, 1e-6, "bus0 voltage")
	// 开关两端电位相同
	assert.Equal(t, res.Buses[2].Potential, res.Buses[3].Potential)

	// 末端母线电位与恒功率负荷电流
	v4 := res.Buses[4].Potential
	assert.Less(t, cmplx.Abs(v4-(217.394-2.244i)), 0.5, "bus4 %v", v4)
	assertComplex(t, 0.1533-0.00925i, res.Loads[0].Current, 5e-4, "load0 current")

	// 负荷电流
	assertComplex(t, cmplx.Conj((100+5i)/(3*v4)), res.Loads[0].Current, 1e-12, "power load")
	assertComplex(t, 1+0.1i, res.Loads[1].Current, 1e-12, "current load")
	assertComplex(t, v4, res.Loads[2].Current, 1e-12, "impedance load")
	assertComplex(t, 100+5i, res.Loads[0].Power, 1e-9, "power load power")
	assert.Nil(t, res.Loads[0].FlexiblePower)

	// 柔性负荷, 线电压低于各控制的下限阈值
	u4 := math.Sqrt(3) * cmplx.Abs(v4)
	require.Less(t, u4, 380.0)
	flexible := map[string]complex128{
		"load3": 100,
		"load4": 0,
		"load5": 150i,
		"load6": -100,
		"load7": -83.205 + 124.808i,
		"load8": -100 + 100i,
	}
	net := testNetwork()
	for i, l := range res.Loads[3:] {
		require.NotNil(t, l.FlexiblePower, l.ID)
		s := *l.FlexiblePower
		assertComplex(t, flexible[l.ID], s, 1, l.ID)
		assertComplex(t, s, l.Power, 1e-9, l.ID)
		fp := net.Loads[3+i].Flexible
		if fp.IsConstant() {
			continue
		}
		qMin, qMax := fp.QBounds()
		tol := fp.SMax / types.DefaultAlpha
		assert.LessOrEqual(t, cmplx.Abs(s), fp.SMax+tol, l.ID)
		assert.GreaterOrEqual(t, imag(s), qMin-tol, l.ID)
		assert.LessOrEqual(t, imag(s), qMax+tol, l.ID)
	}

	// KCL: bus4
	sum := res.Lines[1].Current2
	for _, l := range res.Loads {
		sum += l.Current
	}
	assertComplex(t, 0, sum, 1e-5, "bus4 KCL")
	// KCL: bus2 与 bus3
	assertComplex(t, 0, res.Transformers[0].Current2+res.Switches[0].Current1, 1e-5, "bus2 KCL")
	assertComplex(t, 0, res.Switches[0].Current2+res.Lines[1].Current1, 1e-5, "bus3 KCL")
	// KCL: bus1
	assertComplex(t, 0, res.Lines[0].Current2+res.Transformers[0].Current1, 1e-5, "bus1 KCL")
	// 电源电流等于流入 line0 的电流
	assertComplex(t, res.Lines[0].Current1, res.Sources[0].Current, 1e-9, "source current")

	// 功率平衡
	balance := res.Sources[0].Power
	for _, l := range res.Lines {
		balance -= l.PowerLosses
	}
	for _, tr := range res.Transformers {
		balance -= tr.PowerLosses
	}
	for _, l := range res.Loads {
		balance -= l.Power
	}
	assert.Less(t, cmplx.Abs(balance), 1e-2)

	// 线路分解
	l0 := res.Lines[0]
	assertComplex(t, l0.Current1, l0.SeriesCurrent+l0.ShuntCurrent1, 1e-9, "line0 current1")
	assertComplex(t, l0.PowerLosses, l0.SeriesLosses+l0.ShuntLosses, 1e-6, "line0 losses")
	assertComplex(t, 0, res.Lines[1].ShuntCurrent1, 0, "line1 shunt")

	// 越限
	require.NotNil(t, res.Buses[4].Violated)
	assert.True(t, *res.Buses[4].Violated)
	assert.Nil(t, res.Buses[1].Violated)
	assert.Equal(t, []string{"bus4"}, res.Violations().Buses)
	assert.InDelta(t, math.Max(cmplx.Abs(res.Lines[1].Current1), cmplx.Abs(res.Lines[1].Current2))/190, res.Lines[1].Loading, 1e-12)
	assert.Positive(t, res.Transformers[0].Loading)
}

func TestSolveDenseSparse(t *testing.T) {
	dense := types.DefaultSolverConfig()
	dense.LinearSolver = types.SolverDense
	sparse := types.DefaultSolverConfig()
	sparse.LinearSolver = types.SolverSparse

	a := solve(t, testNetwork(), dense)
	b := solve(t, testNetwork(), sparse)
	require.Len(t, b.Buses, len(a.Buses))
	for i := range a.Buses {
		assertComplex(t, a.Buses[i].Potential, b.Buses[i].Potential, 1e-6, a.Buses[i].ID)
	}
	assert.Equal(t, a.Iterations, b.Iterations)
}

func TestSolveLogsCondition(t *testing.T) {
	var buf bytes.Buffer
	cfg := types.DefaultSolverConfig()
	cfg.LinearSolver = types.SolverDense
	s := newSolver(t, testNetwork(), cfg)
	s.Logger = zerolog.New(&buf).Level(zerolog.DebugLevel)
	_, err := s.Solve(context.Background(), nil)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"cond":`)
}

func TestSolveDeterministic(t *testing.T) {
	cfg := types.DefaultSolverConfig()
	a := solve(t, testNetwork(), cfg)
	b := solve(t, testNetwork(), cfg)
	for i := range a.Buses {
		assert.Equal(t, a.Buses[i].Potential, b.Buses[i].Potential)
	}
	assert.NotEqual(t, a.SolveID, b.SolveID)
}

func TestSolveWarmStart(t *testing.T) {
	s := newSolver(t, testNetwork(), types.DefaultSolverConfig())
	cold, err := s.Solve(context.Background(), nil)
	require.NoError(t, err)
	warm, err := s.Solve(context.Background(), cold)
	require.NoError(t, err)
	assert.LessOrEqual(t, warm.Iterations, cold.Iterations)
	assert.Equal(t, 0, warm.Iterations)
}

func TestSolveBusAnglePhase(t *testing.T) {
	cfg := types.DefaultSolverConfig()
	cfg.CurrentPhase = types.PhaseBusAngle
	res := solve(t, testNetwork(), cfg)
	v4 := res.Buses[4].Potential
	want := (1 + 0.1i) * v4 / complex(cmplx.Abs(v4), 0)
	assertComplex(t, want, res.Loads[1].Current, 1e-12, "current load")
}

func TestSolveSwitchLoop(t *testing.T) {
	net := testNetwork()
	net.Switches = append(net.Switches, element.Switch{ID: "switch1", Bus1: "bus2", Bus2: "bus3"})
	m, err := element.Build(net)
	require.NoError(t, err)

	_, err = NewSolver(m, types.DefaultSolverConfig())
	var ce *types.ConfigurationError
	require.ErrorAs(t, err, &ce)

	cfg := types.DefaultSolverConfig()
	cfg.SwitchLoopFallback = true
	s, err := NewSolver(m, cfg)
	require.NoError(t, err)
	res, err := s.Solve(context.Background(), nil)
	require.NoError(t, err)

	// 两开关并联分担 line1 的电流
	total := res.Switches[0].Current1 + res.Switches[1].Current1
	assertComplex(t, res.Lines[1].Current1, total, 1e-3, "parallel switches")
	assert.InDelta(t, 0, cmplx.Abs(res.Buses[2].Potential-res.Buses[3].Potential), 1e-3)

	ref := solve(t, testNetwork(), types.DefaultSolverConfig())
	assertComplex(t, ref.Buses[4].Potential, res.Buses[4].Potential, 1e-3, "bus4")
}

func TestSolveErrors(t *testing.T) {
	t.Run("max iterations", func(t *testing.T) {
		cfg := types.DefaultSolverConfig()
		cfg.MaxIterations = 1
		s := newSolver(t, testNetwork(), cfg)
		res, err := s.Solve(context.Background(), nil)
		assert.Nil(t, res)
		var de *types.SolverDivergenceError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, 1, de.Iterations)
		assert.ErrorIs(t, err, types.ErrNumerical)
		assert.Equal(t, StateMaxIterationsExceeded, s.State)
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		s := newSolver(t, testNetwork(), types.DefaultSolverConfig())
		res, err := s.Solve(ctx, nil)
		assert.Nil(t, res)
		var de *types.SolverDivergenceError
		require.ErrorAs(t, err, &de)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, StateMaxIterationsExceeded, s.State)
	})

	t.Run("singular injection", func(t *testing.T) {
		cfg := types.DefaultSolverConfig()
		cfg.MinLoadPotential = 1e6
		_, err := newSolver(t, testNetwork(), cfg).Solve(context.Background(), nil)
		var se *types.SingularInjectionError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, "bus4", se.BusID)
	})

	t.Run("hard projection", func(t *testing.T) {
		net := testNetwork()
		net.Loads[4].Flexible.Projection.Hard = true
		m, err := element.Build(net)
		require.NoError(t, err)
		_, err = NewSolver(m, types.DefaultSolverConfig())
		var ce *types.ConfigurationError
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, "load4", ce.ID)

		cfg := types.DefaultSolverConfig()
		cfg.AllowHardProjection = true
		_, err = NewSolver(m, cfg)
		assert.NoError(t, err)
	})

	t.Run("invalid config", func(t *testing.T) {
		m, err := element.Build(testNetwork())
		require.NoError(t, err)
		cfg := types.DefaultSolverConfig()
		cfg.Tolerance = 0
		_, err = NewSolver(m, cfg)
		assert.ErrorIs(t, err, types.ErrValidation)
	})
}

func TestSolveDebug(t *testing.T) {
	s := newSolver(t, testNetwork(), types.DefaultSolverConfig())
	rec := &debug.Record{}
	s.Debug = rec
	res, err := s.Solve(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"bus1", "bus2", "bus4"}, rec.Nodes)
	require.Len(t, rec.Residual, res.Iterations+1)
	assert.Equal(t, "converged", rec.State[len(rec.State)-1])
	assert.Equal(t, res.Residual, rec.Residual[len(rec.Residual)-1])
	for _, pot := range rec.Potential {
		assert.Len(t, pot, 3)
	}
	assert.Empty(t, rec.Errors)
}

func TestInjectionJacobian(t *testing.T) {
	fp := control.QU(380, 390, 410, 420, 5000)
	loads := []element.Load{
		{ID: "p", Kind: element.LoadPower, Power: 3000 + 1200i},
		{ID: "z", Kind: element.LoadImpedance, Impedance: 20 + 5i},
		{ID: "i", Kind: element.LoadCurrent, Current: 4 - 1i},
		{ID: "f", Kind: element.LoadFlexible, Power: 3000, Flexible: fp},
	}
	v := complex(228, -6)
	for _, phase := range []types.CurrentPhase{types.PhaseFixed, types.PhaseBusAngle} {
		inj := &Injection{Phase: phase, Step: types.FiniteDiffStep}
		for i := range loads {
			l := &loads[i]
			got := inj.Jacobian(l, v)
			want := inj.numeric(l, v)
			for r := 0; r < 2; r++ {
				for c := 0; c < 2; c++ {
					tol := 1e-6 * math.Max(1, math.Abs(want[r][c]))
					assert.InDelta(t, want[r][c], got[r][c], tol, "%s/%s [%d][%d]", phase, l.ID, r, c)
				}
			}
		}
	}
}

func TestAdmittanceSymmetric(t *testing.T) {
	s := newSolver(t, testNetwork(), types.DefaultSolverConfig())
	y := s.Admittance.Y
	for i := 0; i < y.Rows(); i++ {
		for j := 0; j < y.Cols(); j++ {
			assert.Equal(t, y.Get(i, j), y.Get(j, i))
		}
	}
	// 支路电流与导纳加盖一致
	v1, v2 := complex(230, -4), complex(225, -6)
	for bi := range s.Graph.Model.Branches {
		b := &s.Graph.Model.Branches[bi]
		y11, y12, y21, y22 := s.Admittance.Branch(b)
		i1, i2 := s.Admittance.BranchCurrents(b, v1, v2)
		tol := 1e-9 * (1 + cmplx.Abs(i1))
		assertComplex(t, y11*v1+y12*v2, i1, tol, b.Kind.String())
		assertComplex(t, y21*v1+y22*v2, i2, tol, b.Kind.String())
	}
	// 未知量: bus1, bus2+bus3, bus4
	assert.Equal(t, 3, s.Graph.NumUnknowns())
	assert.Equal(t, 3, s.yuu.Rows())
	assert.NotZero(t, s.is[0])
	assert.Zero(t, s.is[2])
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "converged", StateConverged.String())
	assert.Equal(t, "numerical_divergence", StateNumericalDivergence.String())
	assert.True(t, errors.Is(&types.NumericalDivergenceError{}, types.ErrNumerical))
}
