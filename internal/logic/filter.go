package logic

import "sort"

// filterSize is the number of samples the median filter holds.
const filterSize = 8

// medianWindow is a fixed-capacity ring of the most recent samples.
// Not safe for concurrent use; Calibrator synchronizes access.
type medianWindow struct {
	buf   [filterSize]uint16
	head  int // next write position
	count int
}

func (w *medianWindow) add(v uint16) {
	w.buf[w.head] = v
	w.head = (w.head + 1) % filterSize
	if w.count < filterSize {
		w.count++
	}
}

func (w *medianWindow) full() bool {
	return w.count == filterSize
}

func (w *medianWindow) sorted() []uint16 {
	out := make([]uint16, w.count)
	copy(out, w.buf[:w.count])
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// median returns the upper middle element for an even count.
// ok is false when the window is empty.
func (w *medianWindow) median() (v uint16, ok bool) {
	if w.count == 0 {
		return 0, false
	}
	s := w.sorted()
	return s[w.count/2], true
}

func (w *medianWindow) highest() uint16 {
	var h uint16
	for i := 0; i < w.count; i++ {
		if w.buf[i] > h {
			h = w.buf[i]
		}
	}
	return h
}

func (w *medianWindow) lowest() uint16 {
	l := uint16(MaxValue)
	for i := 0; i < w.count; i++ {
		if w.buf[i] < l {
			l = w.buf[i]
		}
	}
	return l
}

func (w *medianWindow) clear() {
	*w = medianWindow{}
}
