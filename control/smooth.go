package control

import "math"

// Softplus 数值稳定的 log(1+exp(z))
func Softplus(z float64) float64 {
	return math.Max(z, 0) + math.Log1p(math.Exp(-math.Abs(z)))
}

// SoftClip 将 x 平滑限制到 (0,1), 在 [0,1] 内近似 x
// (Softplus(αx) - Softplus(α(x-1)))/α, x >= 1/2 时改写为 1 - (...)/α 以免相减抵消
func SoftClip(x, alpha float64) float64 {
	if x < 0.5 {
		return (Softplus(alpha*x) - Softplus(alpha*(x-1))) / alpha
	}
	return 1 + (Softplus(-alpha*x)-Softplus(alpha*(1-x)))/alpha
}

// SmoothMax0 平滑 max(x,0), w 为 x 的量纲尺度
func SmoothMax0(x, w, alpha float64) float64 {
	return w / alpha * Softplus(alpha*x/w)
}

// SmoothMin 平滑 min(a,b), 结果不大于 min(a,b)
func SmoothMin(a, b, w, alpha float64) float64 {
	return a - SmoothMax0(a-b, w, alpha)
}
