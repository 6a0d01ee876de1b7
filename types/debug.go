package types

import "io"

// Step 单次迭代的调试信息
type Step struct {
	Iteration int          // 迭代序号
	State     string       // 求解状态
	Residual  float64      // 最大电流失配(A)
	Damping   float64      // 阻尼因子
	Potential []complex128 // 未知节点电位
}

// Debug 调试接口
type Debug interface {
	Init(nodes []string)
	IsDebug() bool
	Update(step Step)
	Render(w io.Writer) error
	Error(err error)
}
