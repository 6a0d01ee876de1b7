package element

import (
	"fmt"
	"math"

	"loadflow/types"
)

// TransformerParameters 单相等值变压器参数
type TransformerParameters struct {
	ID   string     `json:"id" validate:"required"`
	Type string     `json:"type" validate:"oneof=single"`
	Sn   float64    `json:"sn" validate:"gt=0"`    // 额定容量(VA)
	Up   float64    `json:"up" validate:"gt=0"`    // 一次侧额定线电压(V)
	Us   float64    `json:"us" validate:"gt=0"`    // 二次侧额定线电压(V)
	Z2   complex128 `json:"z2" validate:"nonzero"` // 归算到二次侧的串联阻抗(Ω)
	Ym   complex128 `json:"ym"`                    // 励磁导纳(S)
}

// Ratio 变比 k = Us/Up
func (p *TransformerParameters) Ratio() float64 { return p.Us / p.Up }

// FromOpenAndShortCircuitTests 由空载与短路试验数据构造参数
// i0 空载电流(标幺), p0 空载损耗(W), psc 短路损耗(W), vsc 短路电压(标幺)
func FromOpenAndShortCircuitTests(id string, sn, up, us, i0, p0, psc, vsc float64) (*TransformerParameters, error) {
	var reasons []string
	for _, f := range []struct {
		name  string
		value float64
	}{{"sn", sn}, {"up", up}, {"us", us}} {
		if !(f.value > 0) {
			reasons = append(reasons, fmt.Sprintf("%s 必须大于 0, 实际为 %v", f.name, f.value))
		}
	}
	if len(reasons) > 0 {
		return nil, types.NewConfigurationError("transformer_parameters", id, reasons...)
	}

	// 短路试验
	zsc := vsc * us * us / sn
	r2 := psc * us * us / (sn * sn)
	if r2 > zsc {
		reasons = append(reasons, fmt.Sprintf("短路损耗与短路电压不一致: r2=%.6g > |zsc|=%.6g", r2, zsc))
	}
	// 空载试验
	ym := i0 * sn / (up * up)
	g := p0 / (up * up)
	if g > ym {
		reasons = append(reasons, fmt.Sprintf("空载损耗与空载电流不一致: g=%.6g > |ym|=%.6g", g, ym))
	}
	if len(reasons) > 0 {
		return nil, types.NewConfigurationError("transformer_parameters", id, reasons...)
	}
	x2 := math.Sqrt(zsc*zsc - r2*r2)
	b := math.Sqrt(ym*ym - g*g)
	return &TransformerParameters{
		ID:   id,
		Type: "single",
		Sn:   sn,
		Up:   up,
		Us:   us,
		Z2:   complex(r2, x2),
		Ym:   complex(g, -b),
	}, nil
}

// Transformer 变压器, Bus1 为一次侧
type Transformer struct {
	ID         string  `json:"id" validate:"required"`
	Bus1       string  `json:"bus1" validate:"required"`
	Bus2       string  `json:"bus2" validate:"required,nefield=Bus1"`
	ParamsID   string  `json:"params_id" validate:"required"`
	Tap        float64 `json:"tap" validate:"gt=0"`
	MaxLoading float64 `json:"max_loading" validate:"gt=0"`
}

// Ratio 含分接头的变比
func (t *Transformer) Ratio(params *TransformerParameters) float64 {
	return params.Ratio() * t.Tap
}

// Admittance 二端口导纳 Y11, Y12(=Y21), Y22
func (t *Transformer) Admittance(params *TransformerParameters) (y11, y12, y22 complex128) {
	k := complex(t.Ratio(params), 0)
	y2 := 1 / params.Z2
	return params.Ym + k*k*y2, -k * y2, y2
}

// Currents 两端流入变压器的电流
func (t *Transformer) Currents(params *TransformerParameters, v1, v2 complex128) (i1, i2 complex128) {
	y11, y12, y22 := t.Admittance(params)
	return y11*v1 + y12*v2, y12*v1 + y22*v2
}
