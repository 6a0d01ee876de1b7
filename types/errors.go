package types

import (
	"errors"
	"fmt"
	"strings"
)

// 错误分类
var (
	ErrValidation = errors.New("网络校验失败") // 输入错误,修正输入前不可重试
	ErrNumerical  = errors.New("数值求解失败") // 迭代错误,可换初值/容差后重试
	ErrNoSource   = fmt.Errorf("%w: 网络中没有电压源", ErrValidation)
)

// ConfigurationError 元件或参数配置错误
type ConfigurationError struct {
	Element string   // 元件类别(bus/line/...)
	ID      string   // 元件ID
	Reasons []string // 错误原因
}

func (e *ConfigurationError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("配置错误 %s: %s", e.Element, strings.Join(e.Reasons, "; "))
	}
	return fmt.Sprintf("配置错误 %s(%s): %s", e.Element, e.ID, strings.Join(e.Reasons, "; "))
}

func (e *ConfigurationError) Unwrap() error { return ErrValidation }

// NewConfigurationError 创建配置错误
func NewConfigurationError(element, id string, reasons ...string) *ConfigurationError {
	return &ConfigurationError{Element: element, ID: id, Reasons: reasons}
}

// DisconnectedNetworkError 网络存在孤立部分
type DisconnectedNetworkError struct {
	BusIDs []string // 与电源不连通的母线
}

func (e *DisconnectedNetworkError) Error() string {
	return fmt.Sprintf("网络不连通, 以下母线无法到达: %s", strings.Join(e.BusIDs, ", "))
}

func (e *DisconnectedNetworkError) Unwrap() error { return ErrValidation }

// ConflictingSourceError 零阻抗路径连接了不同电压的电源
type ConflictingSourceError struct {
	SourceIDs  []string
	Potentials []complex128
}

func (e *ConflictingSourceError) Error() string {
	return fmt.Sprintf("电源 %s 经开关相连但电位不同: %v", strings.Join(e.SourceIDs, ", "), e.Potentials)
}

func (e *ConflictingSourceError) Unwrap() error { return ErrValidation }

// SolverDivergenceError 达到迭代上限或求解被取消
type SolverDivergenceError struct {
	Iterations int     // 已迭代次数
	Residual   float64 // 最后残差(A)
	Cause      error   // 取消原因,可为空
}

func (e *SolverDivergenceError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("求解中止 iter=%d, res=%.3e: %v", e.Iterations, e.Residual, e.Cause)
	}
	return fmt.Sprintf("达到最大迭代次数 iter=%d, res=%.3e", e.Iterations, e.Residual)
}

func (e *SolverDivergenceError) Unwrap() []error {
	if e.Cause != nil {
		return []error{ErrNumerical, e.Cause}
	}
	return []error{ErrNumerical}
}

// IllConditionedError 雅可比矩阵奇异或病态
type IllConditionedError struct {
	Iteration int
	Condition float64
	Cause     error
}

func (e *IllConditionedError) Error() string {
	return fmt.Sprintf("雅可比矩阵病态 iter=%d, cond=%.3e: %v", e.Iteration, e.Condition, e.Cause)
}

func (e *IllConditionedError) Unwrap() []error {
	if e.Cause != nil {
		return []error{ErrNumerical, e.Cause}
	}
	return []error{ErrNumerical}
}

// NumericalDivergenceError 迭代出现非有限值或持续振荡
type NumericalDivergenceError struct {
	Iteration int
	Reason    string
}

func (e *NumericalDivergenceError) Error() string {
	return fmt.Sprintf("数值发散 iter=%d: %s", e.Iteration, e.Reason)
}

func (e *NumericalDivergenceError) Unwrap() error { return ErrNumerical }

// SingularInjectionError 负荷母线电位为零
type SingularInjectionError struct {
	BusID     string
	Potential complex128
}

func (e *SingularInjectionError) Error() string {
	return fmt.Sprintf("负荷母线 %s 电位为零 (%v), 无法计算注入电流", e.BusID, e.Potential)
}

func (e *SingularInjectionError) Unwrap() error { return ErrNumerical }
