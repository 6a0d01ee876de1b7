package control

import (
	"loadflow/types"
)

// ControlType 控制律类型
type ControlType string

const (
	TypeConstant         ControlType = "constant"            // 恒定
	TypePMaxUProduction  ControlType = "p_max_u_production"  // 过压削减发电
	TypePMaxUConsumption ControlType = "p_max_u_consumption" // 低压削减用电
	TypeQU               ControlType = "q_u"                 // 电压无功下垂
)

// ProjectionType 投影方式
type ProjectionType string

const (
	ProjectionEuclidean ProjectionType = "euclidean" // 欧氏投影
	ProjectionKeepP     ProjectionType = "keep_p"    // 保持有功
	ProjectionKeepQ     ProjectionType = "keep_q"    // 保持无功
)

// Control 单个控制律, 电压阈值为线电压(V)
type Control struct {
	Type    ControlType `json:"type" validate:"oneof=constant p_max_u_production p_max_u_consumption q_u"`
	UMin    float64     `json:"u_min" validate:"gte=0"`
	UDown   float64     `json:"u_down" validate:"gte=0"`
	UUp     float64     `json:"u_up" validate:"gte=0"`
	UMax    float64     `json:"u_max" validate:"gte=0"`
	Alpha   float64     `json:"alpha" validate:"gt=0"`
	Epsilon float64     `json:"epsilon" validate:"gt=0"`
}

// SetDefaults 填充缺省值
func (c *Control) SetDefaults() {
	if c.Type == "" {
		c.Type = TypeConstant
	}
	if c.Alpha == 0 {
		c.Alpha = types.DefaultAlpha
	}
	if c.Epsilon == 0 {
		c.Epsilon = types.DefaultControlEpsilon
	}
}

// NewConstantControl 恒定控制
func NewConstantControl() Control {
	return Control{Type: TypeConstant, Alpha: types.DefaultAlpha, Epsilon: types.DefaultControlEpsilon}
}

// NewPMaxUProduction 发电有功控制, 电压高于 uUp 开始削减, 高于 uMax 完全削减
func NewPMaxUProduction(uUp, uMax float64) Control {
	c := NewConstantControl()
	c.Type, c.UUp, c.UMax = TypePMaxUProduction, uUp, uMax
	return c
}

// NewPMaxUConsumption 用电有功控制, 电压低于 uDown 开始削减, 低于 uMin 完全削减
func NewPMaxUConsumption(uMin, uDown float64) Control {
	c := NewConstantControl()
	c.Type, c.UMin, c.UDown = TypePMaxUConsumption, uMin, uDown
	return c
}

// NewQU 无功电压控制
func NewQU(uMin, uDown, uUp, uMax float64) Control {
	c := NewConstantControl()
	c.Type, c.UMin, c.UDown, c.UUp, c.UMax = TypeQU, uMin, uDown, uUp, uMax
	return c
}

// Projection 可行域投影
type Projection struct {
	Type    ProjectionType `json:"type" validate:"oneof=euclidean keep_p keep_q"`
	Alpha   float64        `json:"alpha" validate:"gt=0"`
	Epsilon float64        `json:"epsilon" validate:"gt=0"`
	Hard    bool           `json:"hard,omitempty"` // 精确截断, 求解器默认拒绝
}

// SetDefaults 填充缺省值
func (p *Projection) SetDefaults() {
	if p.Type == "" {
		p.Type = ProjectionEuclidean
	}
	if p.Alpha == 0 {
		p.Alpha = types.DefaultAlpha
	}
	if p.Epsilon == 0 {
		p.Epsilon = types.DefaultProjectionEpsilon
	}
}

// NewProjection 使用缺省平滑参数的投影
func NewProjection(typ ProjectionType) Projection {
	return Projection{Type: typ, Alpha: types.DefaultAlpha, Epsilon: types.DefaultProjectionEpsilon}
}

// FlexibleParameter 柔性负荷参数, 功率均为三相总功率(VA)
type FlexibleParameter struct {
	ControlP   Control    `json:"control_p"`
	ControlQ   Control    `json:"control_q"`
	Projection Projection `json:"projection"`
	SMax       float64    `json:"s_max" validate:"gt=0"`
	QMin       *float64   `json:"q_min"` // 缺省 -SMax
	QMax       *float64   `json:"q_max"` // 缺省 +SMax
}

// SetDefaults 填充缺省值
func (fp *FlexibleParameter) SetDefaults() {
	fp.ControlP.SetDefaults()
	fp.ControlQ.SetDefaults()
	fp.Projection.SetDefaults()
	qMin, qMax := fp.QBounds()
	fp.QMin, fp.QMax = &qMin, &qMax
}

// Clone 深拷贝
func (fp *FlexibleParameter) Clone() *FlexibleParameter {
	if fp == nil {
		return nil
	}
	c := *fp
	if fp.QMin != nil {
		v := *fp.QMin
		c.QMin = &v
	}
	if fp.QMax != nil {
		v := *fp.QMax
		c.QMax = &v
	}
	return &c
}

// QBounds 无功上下限
func (fp *FlexibleParameter) QBounds() (qMin, qMax float64) {
	qMin, qMax = -fp.SMax, fp.SMax
	if fp.QMin != nil {
		qMin = *fp.QMin
	}
	if fp.QMax != nil {
		qMax = *fp.QMax
	}
	return qMin, qMax
}

// IsConstant 有功与无功均为恒定控制
func (fp *FlexibleParameter) IsConstant() bool {
	return fp.ControlP.Type == TypeConstant && fp.ControlQ.Type == TypeConstant
}

// ComputePowers 计算一组线电压下的实际功率
func (fp *FlexibleParameter) ComputePowers(voltages []float64, power complex128) []complex128 {
	out := make([]complex128, len(voltages))
	for i, u := range voltages {
		out[i] = Evaluate(fp, u, power)
	}
	return out
}

// Evaluate 计算柔性负荷在线电压 u 下的实际功率
// 先分别执行有功与无功控制律, 再投影到可行域; 恒定控制不投影
func Evaluate(fp *FlexibleParameter, u float64, s complex128) complex128 {
	if fp.IsConstant() {
		return s
	}
	p := ActivePower(fp.ControlP, u, real(s))
	q := ReactivePower(fp.ControlQ, u, imag(s), fp.SMax)
	qMin, qMax := fp.QBounds()
	return Project(fp.Projection, fp.SMax, qMin, qMax, complex(p, q))
}

func newParameter(p, q Control, sMax float64) *FlexibleParameter {
	fp := &FlexibleParameter{
		ControlP:   p,
		ControlQ:   q,
		Projection: NewProjection(ProjectionEuclidean),
		SMax:       sMax,
	}
	fp.SetDefaults()
	return fp
}

// ConstantFlexibleParameter 恒定功率柔性参数
func ConstantFlexibleParameter() *FlexibleParameter {
	return newParameter(NewConstantControl(), NewConstantControl(), 1)
}

// PMaxUProduction 仅有功发电削减
func PMaxUProduction(uUp, uMax, sMax float64) *FlexibleParameter {
	return newParameter(NewPMaxUProduction(uUp, uMax), NewConstantControl(), sMax)
}

// PMaxUConsumption 仅有功用电削减
func PMaxUConsumption(uMin, uDown, sMax float64) *FlexibleParameter {
	return newParameter(NewPMaxUConsumption(uMin, uDown), NewConstantControl(), sMax)
}

// QU 仅无功电压控制
func QU(uMin, uDown, uUp, uMax, sMax float64) *FlexibleParameter {
	return newParameter(NewConstantControl(), NewQU(uMin, uDown, uUp, uMax), sMax)
}

// PQUProduction 发电有功削减与无功电压控制
func PQUProduction(upUp, upMax, uqMin, uqDown, uqUp, uqMax, sMax float64) *FlexibleParameter {
	return newParameter(NewPMaxUProduction(upUp, upMax), NewQU(uqMin, uqDown, uqUp, uqMax), sMax)
}

// PQUConsumption 用电有功削减与无功电压控制
func PQUConsumption(upMin, upDown, uqMin, uqDown, uqUp, uqMax, sMax float64) *FlexibleParameter {
	return newParameter(NewPMaxUConsumption(upMin, upDown), NewQU(uqMin, uqDown, uqUp, uqMax), sMax)
}
