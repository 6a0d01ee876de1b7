package element

import "loadflow/control"

// LoadKind 负荷类型
type LoadKind string

const (
	LoadPower     LoadKind = "power"     // 恒功率
	LoadCurrent   LoadKind = "current"   // 恒电流
	LoadImpedance LoadKind = "impedance" // 恒阻抗
	LoadFlexible  LoadKind = "flexible"  // 柔性(电压相关)
)

// FlexibleParameter 柔性负荷参数
type FlexibleParameter = control.FlexibleParameter

// Load 负荷, 功率为三相总功率(VA), 电流为相电流(A)
type Load struct {
	ID        string             `json:"id" validate:"required"`
	Bus       string             `json:"bus" validate:"required"`
	Kind      LoadKind           `json:"type" validate:"oneof=power current impedance flexible"`
	Power     complex128         `json:"powers"`
	Current   complex128         `json:"currents"`
	Impedance complex128         `json:"impedances"`
	Flexible  *FlexibleParameter `json:"flexible_param"`
}

// Clone 深拷贝
func (l Load) Clone() Load {
	l.Flexible = l.Flexible.Clone()
	return l
}
