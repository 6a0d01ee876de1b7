package types

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// RuleTag 结构级校验使用的标签, 参数即错误说明
const RuleTag = "rule"

// Validate 全局校验器, 注册完成后可并发使用
var Validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// 错误信息使用文件字段名
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, key := range []string{"json", "yaml"} {
			name := strings.SplitN(fld.Tag.Get(key), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return fld.Name
	})
	if err := v.RegisterValidation("nonzero", nonZero); err != nil {
		panic(err)
	}
	return v
}

// nonZero 复数/浮点非零校验
func nonZero(fl validator.FieldLevel) bool {
	f := fl.Field()
	switch f.Kind() {
	case reflect.Complex64, reflect.Complex128:
		return f.Complex() != 0
	case reflect.Float32, reflect.Float64:
		return f.Float() != 0
	}
	return !f.IsZero()
}

// ValidateStruct 校验结构体, 失败时返回 ConfigurationError
func ValidateStruct(element, id string, s any) error {
	if err := Validate.Struct(s); err != nil {
		return NewConfigurationError(element, id, Reasons(err)...)
	}
	return nil
}

// Reasons 将校验错误转换为原因列表
func Reasons(err error) []string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return []string{err.Error()}
	}
	out := make([]string, 0, len(ve))
	for _, fe := range ve {
		out = append(out, reason(fe))
	}
	return out
}

func reason(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case RuleTag:
		return fmt.Sprintf("%s: %s", field, fe.Param())
	case "required":
		return fmt.Sprintf("%s 不能为空", field)
	case "nonzero":
		return fmt.Sprintf("%s 不能为零", field)
	case "gt":
		return fmt.Sprintf("%s 必须大于 %s, 实际为 %v", field, fe.Param(), fe.Value())
	case "gte":
		return fmt.Sprintf("%s 必须大于等于 %s, 实际为 %v", field, fe.Param(), fe.Value())
	case "lte":
		return fmt.Sprintf("%s 必须小于等于 %s, 实际为 %v", field, fe.Param(), fe.Value())
	case "oneof":
		return fmt.Sprintf("%s 必须为 [%s] 之一, 实际为 %v", field, fe.Param(), fe.Value())
	case "nefield":
		return fmt.Sprintf("%s 不能与 %s 相同", field, fe.Param())
	case "gtefield":
		return fmt.Sprintf("%s 必须大于等于 %s", field, fe.Param())
	}
	return fmt.Sprintf("%s 校验失败 (%s)", field, fe.Tag())
}
