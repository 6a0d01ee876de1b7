package element

import (
	"loadflow/control"
	"loadflow/types"

	"github.com/go-playground/validator/v10"
)

func init() {
	types.Validate.RegisterStructValidation(busRule, Bus{})
	types.Validate.RegisterStructValidation(loadRule, Load{})
}

// busRule 电压上下限顺序
func busRule(sl validator.StructLevel) {
	b := sl.Current().Interface().(Bus)
	if b.MinVoltage > 0 && b.MaxVoltage > 0 && b.MinVoltage > b.MaxVoltage {
		sl.ReportError(b.MinVoltage, "min_voltage", "MinVoltage", types.RuleTag, "min_voltage 不能大于 max_voltage")
	}
}

// loadRule 负荷参数与类型一致
func loadRule(sl validator.StructLevel) {
	l := sl.Current().Interface().(Load)
	switch l.Kind {
	case LoadImpedance:
		if l.Impedance == 0 {
			sl.ReportError(l.Impedance, "impedances", "Impedance", types.RuleTag, "恒阻抗负荷的阻抗不能为零")
		}
	case LoadFlexible:
		if l.Flexible == nil {
			sl.ReportError(l.Flexible, "flexible_param", "Flexible", types.RuleTag, "柔性负荷缺少 flexible_param")
			return
		}
		for _, reason := range control.CheckPower(l.Flexible, l.Power) {
			sl.ReportError(l.Power, "powers", "Power", types.RuleTag, reason)
		}
	}
	if l.Kind != LoadFlexible && l.Flexible != nil {
		sl.ReportError(l.Flexible, "flexible_param", "Flexible", types.RuleTag, "仅柔性负荷可设置 flexible_param")
	}
}
