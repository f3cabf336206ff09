package pivot

import "math"

// partial is the re-aggregable state behind one output cell. Merging two
// partials gives the same state as accumulating their raw inputs together,
// so every operator can be finalized from any aggregation level.
type partial struct {
	sum   float64
	count int
	min   float64
	max   float64
	nums  int
}

func (p *partial) addNumber(f float64) {
	p.sum += f
	if p.nums == 0 || f < p.min {
		p.min = f
	}
	if p.nums == 0 || f > p.max {
		p.max = f
	}
	p.nums++
	p.count++
}

// addPresent counts a non-numeric, non-missing cell.
func (p *partial) addPresent() { p.count++ }

func (p *partial) merge(q partial) {
	if q.nums > 0 {
		if p.nums == 0 || q.min < p.min {
			p.min = q.min
		}
		if p.nums == 0 || q.max > p.max {
			p.max = q.max
		}
	}
	p.sum += q.sum
	p.nums += q.nums
	p.count += q.count
}

func (p partial) finalize(op AggOp) Value {
	switch op {
	case OpSum:
		return Number(p.sum)
	case OpCount:
		return Number(float64(p.count))
	case OpMean:
		if p.nums == 0 {
			return Missing()
		}
		return Number(p.sum / float64(p.nums))
	case OpMin:
		if p.nums == 0 {
			return Missing()
		}
		return Number(p.min)
	case OpMax:
		if p.nums == 0 {
			return Missing()
		}
		return Number(p.max)
	}
	return Number(math.NaN())
}

func mergeAll(dst, src []partial) {
	for i := range src {
		dst[i].merge(src[i])
	}
}
