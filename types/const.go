package types

import "math"

// Sqrt3 线电压与相电位换算系数
var Sqrt3 = math.Sqrt(3)

// 默认参数常量定义
var (
	Tolerance           = 1e-6 // 收敛容差(A)
	MaxIterations       = 50   // 最大迭代次数
	MaxOscillationCount = 25   // 最大震荡次数
	MinDampingFactor    = 0.1  // 最小阻尼因子
	MaxDampingFactor    = 1.0  // 最大阻尼因子
	DenseLimit          = 400  // 稠密求解的最大方程数
	MaxCondition        = 1e15 // 雅可比矩阵条件数上限
	SwitchImpedance     = 1e-6 // 开关环路退化时的等效阻抗(Ω)
	MinLoadPotential    = 1e-9 // 负荷母线最小电位(V)
	FiniteDiffStep      = 1e-7 // 数值微分相对步长
)

// 元件默认值
var (
	DefaultMaxLoading        = 1.0  // 默认最大负载率
	DefaultTap               = 1.0  // 默认分接头
	TapWarnLow               = 0.9  // 分接头告警下限
	TapWarnHigh              = 1.1  // 分接头告警上限
	DefaultAlpha             = 1e3  // 控制/投影默认 alpha
	DefaultControlEpsilon    = 1e-8 // 控制默认 epsilon
	DefaultProjectionEpsilon = 0.01 // 投影默认 epsilon
)

// NetworkJSONVersion 网络文件版本
const NetworkJSONVersion = 2
