package control

import "math"

// Project 将 (P,Q) 投影到 {|S|<=SMax} 与 {QMin<=Q<=QMax} 的交集
func Project(pr Projection, sMax, qMin, qMax float64, s complex128) complex128 {
	if pr.Hard {
		return projectHard(pr.Type, sMax, qMin, qMax, s)
	}
	w, alpha := sMax, pr.Alpha
	p, q := real(s), imag(s)

	m0 := func(x float64) float64 { return SmoothMax0(x, w, alpha) }
	clampQ := func(q float64) float64 { return SmoothMin(q, qMax, w, alpha) + m0(qMin-q) }
	// 剩余容量 sqrt(SMax²-x²), 在边界处平滑
	capacity := func(x float64) float64 {
		return math.Sqrt(SmoothMax0(sMax*sMax-x*x, w*w, alpha))
	}
	// 平滑 clip(x, -lim, lim), 关于 x 为奇函数
	limit := func(x, lim float64) float64 { return SmoothMin(x, lim, w, alpha) + m0(-lim-x) }

	switch pr.Type {
	case ProjectionKeepP:
		p = limit(p, sMax)
		q = limit(clampQ(q), capacity(p))
	case ProjectionKeepQ:
		q = clampQ(q)
		p = limit(p, capacity(q))
	default:
		// 无功取径向投影后截断到 [QMin,QMax], 有功按原值截断到剩余容量
		r := math.Sqrt(p*p + q*q + pr.Epsilon*pr.Epsilon)
		rho := r - m0(r-sMax)
		q = clampQ(q * rho / r)
		p = limit(p, capacity(q))
	}
	return complex(p, q)
}

// projectHard 不可导的精确投影, 仅用于检查
func projectHard(typ ProjectionType, sMax, qMin, qMax float64, s complex128) complex128 {
	p, q := real(s), imag(s)
	capacity := func(x float64) float64 { return math.Sqrt(math.Max(sMax*sMax-x*x, 0)) }
	clip := func(x, lim float64) float64 { return math.Max(-lim, math.Min(lim, x)) }
	switch typ {
	case ProjectionKeepP:
		p = clip(p, sMax)
		q = clip(math.Max(qMin, math.Min(qMax, q)), capacity(p))
	case ProjectionKeepQ:
		q = math.Max(qMin, math.Min(qMax, q))
		p = clip(p, capacity(q))
	default:
		qr := q
		if r := math.Hypot(p, q); r > sMax {
			qr = q * sMax / r
		}
		q = math.Max(qMin, math.Min(qMax, qr))
		p = clip(p, capacity(q))
	}
	return complex(p, q)
}
