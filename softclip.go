package opusnative

// softClipPCM bends interleaved samples that exceed [-1, 1] back into range
// with a per-excursion quadratic, keeping the curve continuous across calls
// through mem.
//
// Reference: libopus src/opus.c opus_pcm_soft_clip
func softClipPCM(x []float32, channels int, mem *[2]float32) {
	n := len(x) / channels
	if n == 0 {
		return
	}
	for i, v := range x {
		x[i] = max(-2, min(2, v))
	}

	for c := 0; c < channels; c++ {
		at := func(i int) *float32 { return &x[i*channels+c] }
		a := mem[c]

		// Finish the curve applied at the end of the previous call.
		for i := 0; i < n; i++ {
			v := at(i)
			if *v*a >= 0 {
				break
			}
			*v += a * *v * *v
		}

		curr := 0
		x0 := *at(0)
		for {
			i := curr
			for ; i < n; i++ {
				if v := *at(i); v > 1 || v < -1 {
					break
				}
			}
			if i == n {
				a = 0
				break
			}

			peak := i
			start, end := i, i
			ref := *at(i)
			maxval := abs32(ref)
			for start > 0 && ref**at(start-1) >= 0 {
				start--
			}
			for end < n && ref**at(end) >= 0 {
				if v := abs32(*at(end)); v > maxval {
					maxval = v
					peak = end
				}
				end++
			}
			// The excursion runs into the start of the buffer, so it was
			// partly processed by the previous call.
			special := start == 0 && ref**at(0) >= 0

			a = (maxval - 1) / (maxval * maxval)
			a += a * 2.4e-7
			if ref > 0 {
				a = -a
			}
			for k := start; k < end; k++ {
				v := at(k)
				*v += a * *v * *v
			}

			if special && peak >= 2 {
				offset := x0 - *at(0)
				delta := offset / float32(peak)
				for k := curr; k < peak; k++ {
					offset -= delta
					v := at(k)
					*v = max(-1, min(1, *v+offset))
				}
			}
			curr = end
			if curr == n {
				break
			}
		}
		mem[c] = a
	}
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
