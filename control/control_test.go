package control

import (
	"math"
	"math/cmplx"
	"testing"

	"loadflow/types"
)

func TestSoftClip(t *testing.T) {
	const alpha = 1000.0
	// 区间内近似恒等
	for _, x := range []float64{0.1, 0.25, 0.5, 0.75, 0.9} {
		if v := SoftClip(x, alpha); math.Abs(v-x) > 1e-6 {
			t.Errorf("SoftClip(%g) = %g, 期望约等于 %g", x, v, x)
		}
	}
	// 饱和且不溢出
	for _, x := range []float64{-1e300, -5, 5, 1e300} {
		v := SoftClip(x, alpha)
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 || v > 1 {
			t.Errorf("SoftClip(%g) = %g 超出 [0,1]", x, v)
		}
	}
	// 严格单调
	prev := SoftClip(-0.1, 10)
	for x := -0.09; x < 1.1; x += 0.01 {
		v := SoftClip(x, 10)
		if v <= prev {
			t.Fatalf("SoftClip 在 %g 处不单调: %g <= %g", x, v, prev)
		}
		prev = v
	}
}

// softClipSlope SoftClip 的解析导数
func softClipSlope(x, alpha float64) float64 {
	sigmoid := func(z float64) float64 { return 1 / (1 + math.Exp(-z)) }
	return sigmoid(alpha*x) - sigmoid(alpha*(x-1))
}

func TestSoftClipSmallAlpha(t *testing.T) {
	for _, alpha := range []float64{1, 2, 10} {
		// 远离 [0,1] 时饱和到 0 与 1
		if v := SoftClip(-30/alpha, alpha); v < 0 || v > 1e-6 {
			t.Errorf("alpha=%g: SoftClip(%g) = %g, 期望约 0", alpha, -30/alpha, v)
		}
		if v := SoftClip(1+30/alpha, alpha); v > 1 || v < 1-1e-6 {
			t.Errorf("alpha=%g: SoftClip(%g) = %g, 期望约 1", alpha, 1+30/alpha, v)
		}
		// 数值导数与解析导数一致, 包括 x=-1, 0.5, 2 附近
		const h = 1e-6
		for _, x := range []float64{-3, -1, -0.5, 0, 0.5, 1, 1.5, 2, 3, 5} {
			left := (SoftClip(x, alpha) - SoftClip(x-h, alpha)) / h
			right := (SoftClip(x+h, alpha) - SoftClip(x, alpha)) / h
			want := softClipSlope(x, alpha)
			if math.Abs(left-want) > 1e-4 || math.Abs(right-want) > 1e-4 {
				t.Errorf("alpha=%g x=%g: 左导数 %g 右导数 %g, 期望 %g", alpha, x, left, right, want)
			}
		}
		// 严格单调
		lo, hi := -5/alpha, 1+5/alpha
		step := (hi - lo) / 200
		prev := SoftClip(lo, alpha)
		for x := lo + step; x <= hi; x += step {
			v := SoftClip(x, alpha)
			if v <= prev {
				t.Fatalf("alpha=%g: SoftClip 在 %g 处不单调: %g <= %g", alpha, x, v, prev)
			}
			prev = v
		}
	}
	// alpha=2 时 x=5 与 x=-3 的值
	if v := SoftClip(5, 2); math.Abs(v-0.999855) > 1e-5 {
		t.Errorf("SoftClip(5, 2) = %g", v)
	}
	if v := SoftClip(-3, 2); math.Abs(v-0.001070) > 1e-5 {
		t.Errorf("SoftClip(-3, 2) = %g", v)
	}
}

func TestSmoothMax0(t *testing.T) {
	if v := SmoothMax0(100, 10, 1000); math.Abs(v-100) > 1e-9 {
		t.Errorf("SmoothMax0(100) = %g", v)
	}
	if v := SmoothMax0(-100, 10, 1000); v < 0 || v > 1e-9 {
		t.Errorf("SmoothMax0(-100) = %g", v)
	}
	if v := SmoothMin(3, 5, 1, 1000); v > 3 || v < 3-1e-6 {
		t.Errorf("SmoothMin(3,5) = %g", v)
	}
}

func TestPMaxUConsumptionMonotone(t *testing.T) {
	fp := PMaxUConsumption(180*math.Sqrt(3), 200*math.Sqrt(3), 5000)
	s := complex(3000, 0)
	prev := math.Inf(1)
	for u := 450.0; u >= 250; u -= 1 {
		p := real(Evaluate(fp, u, s))
		if p > prev+1e-9 {
			t.Fatalf("电压降低时有功增加: U=%g, P=%g > %g", u, p, prev)
		}
		prev = p
	}
	// 高于 UDown 满功率, 低于 UMin 近似为零
	if p := real(Evaluate(fp, 400, s)); math.Abs(p-3000) > 1 {
		t.Errorf("U=400 时 P=%g, 期望 3000", p)
	}
	if p := real(Evaluate(fp, 250, s)); math.Abs(p) > 1e-3 {
		t.Errorf("U=250 时 P=%g, 期望 0", p)
	}
}

func TestPMaxUProduction(t *testing.T) {
	fp := PMaxUProduction(420, 440, 5000)
	s := complex(-3000, 0)
	if p := real(Evaluate(fp, 400, s)); math.Abs(p+3000) > 1 {
		t.Errorf("U=400 时 P=%g, 期望 -3000", p)
	}
	if p := real(Evaluate(fp, 430, s)); math.Abs(p+1500) > 10 {
		t.Errorf("U=430 时 P=%g, 期望约 -1500", p)
	}
	if p := real(Evaluate(fp, 460, s)); math.Abs(p) > 1e-3 {
		t.Errorf("U=460 时 P=%g, 期望 0", p)
	}
}

func TestQUMonotoneAndSaturated(t *testing.T) {
	const sMax = 5000.0
	fp := QU(360, 380, 420, 440, sMax)
	prev := math.Inf(1)
	for u := 300.0; u <= 500; u += 0.5 {
		q := imag(Evaluate(fp, u, 0))
		if q > prev+1e-9 {
			t.Fatalf("电压升高时无功增加: U=%g, Q=%g > %g", u, q, prev)
		}
		prev = q
	}
	// 饱和区与死区
	cases := []struct {
		u, q float64
	}{
		{300, sMax}, {350, sMax}, {400, 0}, {450, -sMax}, {500, -sMax},
	}
	for _, c := range cases {
		q := imag(Evaluate(fp, c.u, 0))
		if math.Abs(q-c.q) > sMax*1e-2 {
			t.Errorf("U=%g 时 Q=%g, 期望约 %g", c.u, q, c.q)
		}
	}
}

func TestQUSmallAlphaSaturates(t *testing.T) {
	const sMax = 5000.0
	c := NewQU(360, 380, 420, 440)
	c.Alpha = 2
	if q := ReactivePower(c, 200, 0, sMax); math.Abs(q-sMax) > 1 {
		t.Errorf("U=200 时 Q=%g, 期望约 %g", q, sMax)
	}
	if q := ReactivePower(c, 600, 0, sMax); math.Abs(q+sMax) > 1 {
		t.Errorf("U=600 时 Q=%g, 期望约 %g", q, -sMax)
	}
}

// nearestFeasible 网格上离 s 最近的可行点距离
func nearestFeasible(sMax, qMin, qMax, step float64, s complex128) float64 {
	best := math.Inf(1)
	for p := -sMax; p <= sMax; p += step {
		for q := qMin; q <= qMax; q += step {
			if p*p+q*q > sMax*sMax {
				continue
			}
			best = math.Min(best, cmplx.Abs(s-complex(p, q)))
		}
	}
	return best
}

func TestProjectionEuclideanNearest(t *testing.T) {
	const sMax, step = 100.0, 2.0
	for _, band := range [][2]float64{{-40, 70}, {20, 70}} {
		qMin, qMax := band[0], band[1]
		hard := NewProjection(ProjectionEuclidean)
		hard.Hard = true
		soft := NewProjection(ProjectionEuclidean)
		for p := -300.0; p <= 300; p += 20 {
			for q := -300.0; q <= 300; q += 20 {
				s := complex(p, q)
				h := Project(hard, sMax, qMin, qMax, s)
				if cmplx.Abs(h) > sMax+1e-9 || imag(h) < qMin-1e-9 || imag(h) > qMax+1e-9 {
					t.Fatalf("band %v: (%g,%g) -> %v 不可行", band, p, q, h)
				}
				d, best := cmplx.Abs(s-h), nearestFeasible(sMax, qMin, qMax, step, s)
				if d > best+1e-9 || best > d+2*step {
					t.Errorf("band %v: (%g,%g) -> %v 距离 %g, 网格最近距离 %g", band, p, q, h, d, best)
				}
				if v := Project(soft, sMax, qMin, qMax, s); cmplx.Abs(v-h) > 0.02*sMax {
					t.Errorf("band %v: (%g,%g) 平滑投影 %v 偏离精确投影 %v", band, p, q, v, h)
				}
			}
		}
	}
}

func TestProjectionQBoundKeepsActivePower(t *testing.T) {
	for _, hard := range []bool{false, true} {
		pr := NewProjection(ProjectionEuclidean)
		pr.Hard = hard
		s := Project(pr, 150, -100, 100, complex(-100, 150))
		if cmplx.Abs(s-complex(-100, 100)) > 0.5 {
			t.Errorf("hard=%v: 得到 %v, 期望约 -100+100i", hard, s)
		}
	}
}

func TestProjectionOddInActivePower(t *testing.T) {
	pr := NewProjection(ProjectionKeepQ)
	// 剩余容量接近零时 P=0 保持为零
	if p := real(Project(pr, 150, -150, 150, complex(0, 150))); math.Abs(p) > 1e-12 {
		t.Errorf("P=0 得到 %g", p)
	}
	for _, x := range []float64{0.5, 20, 140, 400} {
		a := real(Project(pr, 150, -150, 150, complex(x, 60)))
		b := real(Project(pr, 150, -150, 150, complex(-x, 60)))
		if math.Abs(a+b) > 1e-9 || a <= 0 {
			t.Errorf("P=±%g 得到 %g 与 %g", x, a, b)
		}
	}
}

func TestProjectionBounds(t *testing.T) {
	const sMax = 1000.0
	qMin, qMax := -300.0, 600.0
	tol := sMax / types.DefaultAlpha
	for _, typ := range []ProjectionType{ProjectionEuclidean, ProjectionKeepP, ProjectionKeepQ} {
		for _, hard := range []bool{false, true} {
			pr := NewProjection(typ)
			pr.Hard = hard
			for p := -3000.0; p <= 3000; p += 250 {
				for q := -3000.0; q <= 3000; q += 250 {
					s := Project(pr, sMax, qMin, qMax, complex(p, q))
					if math.IsNaN(real(s)) || math.IsNaN(imag(s)) {
						t.Fatalf("%s: (%g,%g) 得到 NaN", typ, p, q)
					}
					if cmplx.Abs(s) > sMax+tol {
						t.Errorf("%s hard=%v: (%g,%g) -> |S|=%g > %g", typ, hard, p, q, cmplx.Abs(s), sMax)
					}
					if imag(s) < qMin-tol || imag(s) > qMax+tol {
						t.Errorf("%s hard=%v: (%g,%g) -> Q=%g 超出 [%g,%g]", typ, hard, p, q, imag(s), qMin, qMax)
					}
				}
			}
		}
	}
}

func TestProjectionInteriorUnchanged(t *testing.T) {
	pr := NewProjection(ProjectionEuclidean)
	s := Project(pr, 1000, -1000, 1000, complex(300, 200))
	if cmplx.Abs(s-complex(300, 200)) > 0.5 {
		t.Errorf("可行域内的点被移动: %v", s)
	}
	// keep_p 在可行时保持有功
	s = Project(NewProjection(ProjectionKeepP), 1000, -1000, 1000, complex(800, 900))
	if math.Abs(real(s)-800) > 1 || math.Abs(imag(s)-600) > 5 {
		t.Errorf("keep_p 结果 %v, 期望约 800+600i", s)
	}
}

func TestComputePowers(t *testing.T) {
	fp := PQUConsumption(300, 340, 360, 380, 420, 440, 5000)
	voltages := []float64{280, 350, 400, 460}
	powers := fp.ComputePowers(voltages, complex(2000, 0))
	if len(powers) != len(voltages) {
		t.Fatalf("长度不一致: %d", len(powers))
	}
	if real(powers[0]) > 1 {
		t.Errorf("U=280 有功应被削减, 得到 %v", powers[0])
	}
	if math.Abs(real(powers[2])-2000) > 1 || math.Abs(imag(powers[2])) > 1 {
		t.Errorf("U=400 应为额定功率, 得到 %v", powers[2])
	}
	if imag(powers[3]) > -4000 {
		t.Errorf("U=460 应吸收无功, 得到 %v", powers[3])
	}
}

func TestParameterValidation(t *testing.T) {
	fp := QU(380, 360, 420, 440, 5000)
	err := types.ValidateStruct("flexible_param", "fp", fp)
	if err == nil {
		t.Fatal("阈值顺序错误应校验失败")
	}
	qMin := -6000.0
	fp = ConstantFlexibleParameter()
	fp.SMax = 5000
	fp.QMin = &qMin
	if err := types.ValidateStruct("flexible_param", "fp", fp); err == nil {
		t.Fatal("q_min < -s_max 应校验失败")
	}
	fp = PMaxUProduction(420, 440, 5000)
	fp.ControlQ = NewPMaxUProduction(420, 440)
	if err := types.ValidateStruct("flexible_param", "fp", fp); err == nil {
		t.Fatal("无功控制不支持 p_max_u_production")
	}
	if err := types.ValidateStruct("flexible_param", "fp", PQUProduction(420, 440, 360, 380, 420, 440, 5000)); err != nil {
		t.Fatalf("合法参数校验失败: %v", err)
	}
}

func TestCheckPower(t *testing.T) {
	fp := PMaxUProduction(420, 440, 5000)
	if r := CheckPower(fp, complex(-3000, 100)); len(r) != 0 {
		t.Errorf("合法功率被拒绝: %v", r)
	}
	if r := CheckPower(fp, complex(3000, 0)); len(r) != 1 {
		t.Errorf("发电控制有功为正应报错: %v", r)
	}
	if r := CheckPower(fp, complex(-6000, 0)); len(r) != 1 {
		t.Errorf("超过 s_max 应报错: %v", r)
	}
	if r := CheckPower(ConstantFlexibleParameter(), complex(1e9, 0)); r != nil {
		t.Errorf("恒定控制不检查: %v", r)
	}
}
