package maths

import (
	"fmt"
	"strings"
)

// denseVector 稠密向量实现
type denseVector[T Number] struct {
	data []T
}

// NewDenseVector 创建新的稠密向量
func NewDenseVector[T Number](length int) Vector[T] {
	return &denseVector[T]{data: make([]T, length)}
}

// NewDenseVectorWithData 从现有数据创建稠密向量(共享底层切片)
func NewDenseVectorWithData[T Number](data []T) Vector[T] {
	return &denseVector[T]{data: data}
}

// Length 返回向量长度
func (v *denseVector[T]) Length() int { return len(v.data) }

// Get 获取指定位置的元素值
func (v *denseVector[T]) Get(index int) T { return v.data[index] }

// Set 设置向量元素值
func (v *denseVector[T]) Set(index int, value T) { v.data[index] = value }

// Increment 增量设置向量元素（累加值）
func (v *denseVector[T]) Increment(index int, value T) { v.data[index] += value }

// ToDense 返回数据副本
func (v *denseVector[T]) ToDense() []T {
	return append([]T(nil), v.data...)
}

// Zero 清空向量
func (v *denseVector[T]) Zero() { clear(v.data) }

// Copy 将自身值复制到 a 向量
func (v *denseVector[T]) Copy(a Vector[T]) {
	if a.Length() != v.Length() {
		panic(fmt.Sprintf("vector dimension mismatch: source %d, target %d", v.Length(), a.Length()))
	}
	if target, ok := a.(*denseVector[T]); ok {
		copy(target.data, v.data)
		return
	}
	for i, value := range v.data {
		a.Set(i, value)
	}
}

// MaxAbs 获取向量中绝对值最大元素的模
func (v *denseVector[T]) MaxAbs() float64 {
	m := 0.0
	for _, value := range v.data {
		if a := Abs(value); a > m {
			m = a
		}
	}
	return m
}

// String 格式化输出
func (v *denseVector[T]) String() string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, value := range v.data {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%.6g", value)
	}
	sb.WriteByte(']')
	return sb.String()
}
