package strategy

// Premium is the percentage by which the domestic KRW price exceeds the reference USD price converted at rate.
func Premium(domesticKRW, referenceUSD, rate float64) (float64, bool) {
	if domesticKRW <= 0 || referenceUSD <= 0 || rate <= 0 {
		return 0, false
	}
	return (domesticKRW/(referenceUSD*rate) - 1) * 100, true
}

// Deviation is the percentage distance of price from a reference line.
func Deviation(price, line float64) (float64, bool) {
	if line <= 0 {
		return 0, false
	}
	return (price - line) / line * 100, true
}
