package element

// LineType 线路类型
type LineType string

const (
	LineOverhead    LineType = "OVERHEAD"
	LineUnderground LineType = "UNDERGROUND"
	LineTwisted     LineType = "TWISTED"
)

// LineParameters 线路参数, 阻抗与导纳均为每公里值
type LineParameters struct {
	ID            string     `json:"id" validate:"required"`
	ZLine         complex128 `json:"z_line" validate:"nonzero"`    // 串联阻抗(Ω/km)
	YShunt        complex128 `json:"y_shunt"`                      // 并联导纳(S/km), 零为无并联支路
	MaxCurrent    float64    `json:"max_current" validate:"gte=0"` // 载流量(A), 零为未设置
	LineType      LineType   `json:"line_type" validate:"omitempty,oneof=OVERHEAD UNDERGROUND TWISTED"`
	ConductorType string     `json:"conductor_type" validate:"omitempty,oneof=AL CU AM AA LA"`
	InsulatorType string     `json:"insulator_type" validate:"omitempty,oneof=UNKNOWN HDPE MDPE LDPE XLPE EPR PVC IP NONE"`
	Section       float64    `json:"section" validate:"gte=0"` // 截面(mm²)
}

// Line 线路, π 型等值
type Line struct {
	ID         string  `json:"id" validate:"required"`
	Bus1       string  `json:"bus1" validate:"required"`
	Bus2       string  `json:"bus2" validate:"required,nefield=Bus1"`
	Length     float64 `json:"length" validate:"gt=0"` // 长度(km)
	ParamsID   string  `json:"params_id" validate:"required"`
	MaxLoading float64 `json:"max_loading" validate:"gt=0"`
}

// Admittance 串联阻抗与总并联导纳
func (l *Line) Admittance(params *LineParameters) (z, y complex128) {
	length := complex(l.Length, 0)
	return params.ZLine * length, params.YShunt * length
}

// Currents 两端流入线路的电流
func (l *Line) Currents(params *LineParameters, v1, v2 complex128) (i1, i2 complex128) {
	z, y := l.Admittance(params)
	series := (v1 - v2) / z
	return series + y*v1/2, -series + y*v2/2
}

// Switch 理想开关
type Switch struct {
	ID   string `json:"id" validate:"required"`
	Bus1 string `json:"bus1" validate:"required"`
	Bus2 string `json:"bus2" validate:"required,nefield=Bus1"`
}
