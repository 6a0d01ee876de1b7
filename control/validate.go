package control

import (
	"fmt"
	"math/cmplx"

	"loadflow/types"

	"github.com/go-playground/validator/v10"
)

func init() {
	types.Validate.RegisterStructValidation(controlRule, Control{})
	types.Validate.RegisterStructValidation(parameterRule, FlexibleParameter{})
}

// controlRule 控制律阈值顺序
func controlRule(sl validator.StructLevel) {
	c := sl.Current().Interface().(Control)
	switch c.Type {
	case TypePMaxUProduction:
		if !(0 < c.UUp && c.UUp < c.UMax) {
			sl.ReportError(c.UUp, "u_up", "UUp", types.RuleTag, "要求 0 < u_up < u_max")
		}
	case TypePMaxUConsumption:
		if !(0 < c.UMin && c.UMin < c.UDown) {
			sl.ReportError(c.UMin, "u_min", "UMin", types.RuleTag, "要求 0 < u_min < u_down")
		}
	case TypeQU:
		if !(0 < c.UMin && c.UMin < c.UDown && c.UDown < c.UUp && c.UUp < c.UMax) {
			sl.ReportError(c.UMin, "u_min", "UMin", types.RuleTag, "要求 0 < u_min < u_down < u_up < u_max")
		}
	}
}

// parameterRule 控制律类别与无功上下限
func parameterRule(sl validator.StructLevel) {
	fp := sl.Current().Interface().(FlexibleParameter)
	switch fp.ControlP.Type {
	case TypeConstant, TypePMaxUProduction, TypePMaxUConsumption:
	default:
		sl.ReportError(fp.ControlP.Type, "control_p", "ControlP", types.RuleTag,
			fmt.Sprintf("有功控制不支持 %q", fp.ControlP.Type))
	}
	switch fp.ControlQ.Type {
	case TypeConstant, TypeQU:
	default:
		sl.ReportError(fp.ControlQ.Type, "control_q", "ControlQ", types.RuleTag,
			fmt.Sprintf("无功控制不支持 %q", fp.ControlQ.Type))
	}
	if fp.SMax <= 0 {
		return
	}
	qMin, qMax := fp.QBounds()
	if qMin < -fp.SMax {
		sl.ReportError(qMin, "q_min", "QMin", types.RuleTag, "q_min 不能小于 -s_max")
	}
	if qMax > fp.SMax {
		sl.ReportError(qMax, "q_max", "QMax", types.RuleTag, "q_max 不能大于 s_max")
	}
	if qMin > qMax {
		sl.ReportError(qMin, "q_min", "QMin", types.RuleTag, "q_min 不能大于 q_max")
	}
}

// CheckPower 检查柔性负荷额定功率与参数是否一致, 恒定控制不检查
func CheckPower(fp *FlexibleParameter, s complex128) []string {
	if fp.IsConstant() {
		return nil
	}
	var reasons []string
	if cmplx.Abs(s) > fp.SMax {
		reasons = append(reasons, fmt.Sprintf("功率幅值 %.6g VA 大于 s_max %.6g VA", cmplx.Abs(s), fp.SMax))
	}
	qMin, qMax := fp.QBounds()
	if q := imag(s); q < qMin || q > qMax {
		reasons = append(reasons, fmt.Sprintf("无功 %.6g var 超出 [%.6g, %.6g]", q, qMin, qMax))
	}
	switch fp.ControlP.Type {
	case TypePMaxUProduction:
		if real(s) > 0 {
			reasons = append(reasons, "发电控制要求有功 <= 0")
		}
	case TypePMaxUConsumption:
		if real(s) < 0 {
			reasons = append(reasons, "用电控制要求有功 >= 0")
		}
	}
	return reasons
}
