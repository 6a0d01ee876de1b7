package element

// Bus 母线
type Bus struct {
	ID               string     `json:"id" validate:"required"`
	InitialPotential complex128 `json:"initial_potential"`            // 初始电位(V), 零为未设置
	MinVoltage       float64    `json:"min_voltage" validate:"gte=0"` // 线电压下限(V), 零为未设置
	MaxVoltage       float64    `json:"max_voltage" validate:"gte=0"` // 线电压上限(V), 零为未设置
}

// HasLimits 是否设置了电压限值
func (b *Bus) HasLimits() bool { return b.MinVoltage > 0 || b.MaxVoltage > 0 }

// Violated 线电压幅值是否越限, 未设置限值时返回 nil
func (b *Bus) Violated(voltage float64) *bool {
	if !b.HasLimits() {
		return nil
	}
	v := (b.MinVoltage > 0 && voltage < b.MinVoltage) || (b.MaxVoltage > 0 && voltage > b.MaxVoltage)
	return &v
}

// VoltageSource 电压源, 将所在母线电位固定为 Voltage/√3
type VoltageSource struct {
	ID      string     `json:"id" validate:"required"`
	Bus     string     `json:"bus" validate:"required"`
	Voltage complex128 `json:"voltage" validate:"nonzero"` // 线电压(V)
}
