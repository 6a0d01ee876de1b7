package control

// ActivePower 有功控制律, u 为线电压幅值, p 为额定有功
func ActivePower(c Control, u, p float64) float64 {
	switch c.Type {
	case TypePMaxUConsumption:
		return p * (c.Epsilon + (1-c.Epsilon)*SoftClip((u-c.UMin)/(c.UDown-c.UMin), c.Alpha))
	case TypePMaxUProduction:
		return p * (c.Epsilon + (1-c.Epsilon)*SoftClip((c.UMax-u)/(c.UMax-c.UUp), c.Alpha))
	}
	return p
}

// ReactivePower 无功控制律, q 为额定无功
func ReactivePower(c Control, u, q, sMax float64) float64 {
	if c.Type != TypeQU {
		return q
	}
	// 低压区发出无功, 死区为零, 高压区吸收无功
	low := 1 - SoftClip((u-c.UMin)/(c.UDown-c.UMin), c.Alpha)
	high := SoftClip((u-c.UUp)/(c.UMax-c.UUp), c.Alpha)
	return sMax * (low - high)
}
