package debug

import (
	"encoding/json"
	"io"
	"math/cmplx"

	"loadflow/types"

	"github.com/rs/zerolog/log"
)

// Record 记录牛顿迭代历史
type Record struct {
	Nodes     []string    // 未知节点(取节点内第一条母线)
	Iteration []int       // 迭代序号
	State     []string    // 求解状态
	Residual  []float64   // 最大电流失配(A)
	Damping   []float64   // 阻尼因子
	Potential [][]float64 // 节点电位幅值(V), 按迭代
	Errors    []string    // 求解错误
}

// Init 初始化
func (list *Record) Init(nodes []string) {
	list.Nodes = append([]string(nil), nodes...)
	list.Iteration = list.Iteration[:0]
	list.State = list.State[:0]
	list.Residual = list.Residual[:0]
	list.Damping = list.Damping[:0]
	list.Potential = list.Potential[:0]
	list.Errors = list.Errors[:0]
}

func (Record) IsDebug() bool { return true }

// Update 记录数据
func (list *Record) Update(step types.Step) {
	list.Iteration = append(list.Iteration, step.Iteration)
	list.State = append(list.State, step.State)
	list.Residual = append(list.Residual, step.Residual)
	list.Damping = append(list.Damping, step.Damping)
	mag := make([]float64, len(step.Potential))
	for i, v := range step.Potential {
		mag[i] = cmplx.Abs(v)
	}
	list.Potential = append(list.Potential, mag)
}

// Render 格式和输出内容
func (list *Record) Render(w io.Writer) error { return json.NewEncoder(w).Encode(list) }

// Error 记录求解错误
func (list *Record) Error(err error) {
	log.Debug().Err(err).Msg("求解错误已记录")
	list.Errors = append(list.Errors, err.Error())
}
