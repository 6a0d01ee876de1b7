package netlist

import (
	"encoding/json"
	"fmt"
)

// Complex 以 [re, im] 序列化的复数
type Complex complex128

func (c Complex) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{real(c), imag(c)})
}

// UnmarshalJSON 接受 [re, im] 或实数
func (c *Complex) UnmarshalJSON(data []byte) error {
	var pair []float64
	if err := json.Unmarshal(data, &pair); err == nil {
		if len(pair) != 2 {
			return fmt.Errorf("复数需要 [re, im] 两个分量, 得到 %d 个", len(pair))
		}
		*c = Complex(complex(pair[0], pair[1]))
		return nil
	}
	var re float64
	if err := json.Unmarshal(data, &re); err != nil {
		return fmt.Errorf("无法解析复数 %s", data)
	}
	*c = Complex(complex(re, 0))
	return nil
}

func ptr(c complex128) *Complex {
	v := Complex(c)
	return &v
}

func value(c *Complex) complex128 {
	if c == nil {
		return 0
	}
	return complex128(*c)
}
