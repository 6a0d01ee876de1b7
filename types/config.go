package types

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// LinearSolver 线性方程求解方式
type LinearSolver string

const (
	SolverAuto   LinearSolver = "auto"   // 按规模自动选择
	SolverDense  LinearSolver = "dense"  // gonum 稠密 LU
	SolverSparse LinearSolver = "sparse" // CSR 稀疏 LU
)

// CurrentPhase 恒流负荷的相角参考
type CurrentPhase string

const (
	PhaseFixed    CurrentPhase = "fixed"     // 相角固定于全局参考
	PhaseBusAngle CurrentPhase = "bus_angle" // 相角跟随母线电压
)

// SolverConfig 潮流求解参数
type SolverConfig struct {
	Tolerance           float64       `yaml:"tolerance" validate:"gt=0"`
	MaxIterations       int           `yaml:"max_iterations" validate:"gt=0"`
	MaxOscillationCount int           `yaml:"max_oscillation_count" validate:"gt=0"`
	MinDampingFactor    float64       `yaml:"min_damping_factor" validate:"gt=0,lte=1"`
	MaxDampingFactor    float64       `yaml:"max_damping_factor" validate:"gt=0,lte=1,gtefield=MinDampingFactor"`
	LinearSolver        LinearSolver  `yaml:"linear_solver" validate:"oneof=auto dense sparse"`
	DenseLimit          int           `yaml:"dense_limit" validate:"gt=0"`
	MaxCondition        float64       `yaml:"max_condition" validate:"gt=1"`
	CurrentPhase        CurrentPhase  `yaml:"current_phase" validate:"oneof=fixed bus_angle"`
	SwitchLoopFallback  bool          `yaml:"switch_loop_fallback"`
	SwitchImpedance     float64       `yaml:"switch_impedance" validate:"gt=0"`
	MinLoadPotential    float64       `yaml:"min_load_potential" validate:"gte=0"`
	WarmStart           bool          `yaml:"warm_start"`
	Timeout             time.Duration `yaml:"timeout" validate:"gte=0"`
	AllowHardProjection bool          `yaml:"allow_hard_projection"`
	Trace               bool          `yaml:"trace"`
}

// DefaultSolverConfig 默认求解参数
func DefaultSolverConfig() SolverConfig {
	return SolverConfig{
		Tolerance:           Tolerance,
		MaxIterations:       MaxIterations,
		MaxOscillationCount: MaxOscillationCount,
		MinDampingFactor:    MinDampingFactor,
		MaxDampingFactor:    MaxDampingFactor,
		LinearSolver:        SolverAuto,
		DenseLimit:          DenseLimit,
		MaxCondition:        MaxCondition,
		CurrentPhase:        PhaseFixed,
		SwitchImpedance:     SwitchImpedance,
		MinLoadPotential:    MinLoadPotential,
		WarmStart:           true,
	}
}

// Validate 校验参数
func (c SolverConfig) Validate() error {
	return ValidateStruct("solver", "", c)
}

// ParseSolverConfig 从 YAML 解析参数, 未给出的字段取默认值
func ParseSolverConfig(data []byte) (SolverConfig, error) {
	cfg := DefaultSolverConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("解析求解配置失败: %w", err)
	}
	return cfg, cfg.Validate()
}

// LoadSolverConfig 读取 YAML 配置文件
func LoadSolverConfig(path string) (SolverConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return DefaultSolverConfig(), err
	}
	return ParseSolverConfig(data)
}
