package silk

// nlsfCodebook bundles the two-stage NLSF quantizer of one bandwidth group.
type nlsfCodebook struct {
	order              int
	quantStepSizeQ16   int32
	invQuantStepSizeQ6 int32
	cb1Q8              [][]uint8
	cb1WghtQ9          [][]int16
	cb1ICDF            []uint8 // two halves: unvoiced, voiced
	predQ8             []uint8
	ecSel              []uint8
	ecICDF             []uint8
	deltaMinQ15        []int16
}

func rows8[T ~[10]uint8 | ~[16]uint8](src []T) [][]uint8 {
	out := make([][]uint8, len(src))
	for i := range src {
		out[i] = src[i][:]
	}
	return out
}

func rows16[T ~[10]int16 | ~[16]int16](src []T) [][]int16 {
	out := make([][]int16, len(src))
	for i := range src {
		out[i] = src[i][:]
	}
	return out
}

var nlsfCBNBMB = nlsfCodebook{
	order:              10,
	quantStepSizeQ16:   11796, // 0.18 in Q16
	invQuantStepSizeQ6: 356,
	cb1Q8:              rows8(nlsfCB1NBMBQ8[:]),
	cb1WghtQ9:          rows16(nlsfCB1NBMBWghtQ9[:]),
	cb1ICDF:            nlsfCB1ICDFNBMB[:],
	predQ8:             nlsfPredNBMBQ8[:],
	ecSel:              nlsfCB2SelectNBMB[:],
	ecICDF:             nlsfCB2ICDFNBMB[:],
	deltaMinQ15:        nlsfDeltaMinNBMBQ15[:],
}

var nlsfCBWB = nlsfCodebook{
	order:              16,
	quantStepSizeQ16:   9830, // 0.15 in Q16
	invQuantStepSizeQ6: 427,
	cb1Q8:              rows8(nlsfCB1WBQ8[:]),
	cb1WghtQ9:          rows16(nlsfCB1WBWghtQ9[:]),
	cb1ICDF:            nlsfCB1ICDFWB[:],
	predQ8:             nlsfPredWBQ8[:],
	ecSel:              nlsfCB2SelectWB[:],
	ecICDF:             nlsfCB2ICDFWB[:],
	deltaMinQ15:        nlsfDeltaMinWBQ15[:],
}

var nlsfCB1ICDFNBMB = [64]uint8{
	212, 178, 148, 129, 108, 96, 85, 82,
	79, 77, 61, 59, 57, 56, 51, 49,
	48, 45, 42, 41, 40, 38, 36, 34,
	31, 30, 21, 12, 10, 3, 1, 0,
	255, 245, 244, 236, 233, 225, 217, 203,
	190, 176, 175, 161, 149, 136, 125, 114,
	102, 91, 81, 71, 60, 52, 43, 35,
	28, 20, 19, 18, 12, 11, 5, 0,
}

var nlsfCB1ICDFWB = [64]uint8{
	225, 204, 201, 184, 183, 175, 158, 154,
	153, 135, 119, 115, 113, 110, 109, 99,
	98, 95, 79, 68, 52, 50, 48, 45,
	43, 32, 31, 27, 18, 10, 3, 0,
	255, 251, 235, 230, 212, 201, 196, 182,
	167, 166, 163, 151, 138, 124, 110, 104,
	90, 78, 76, 70, 69, 57, 45, 34,
	24, 21, 11, 6, 5, 4, 3, 0,
}

// Stage-2 residual tables: eight sets of nine symbols (-4..4).
var nlsfCB2ICDFNBMB = [72]uint8{
	255, 254, 253, 238, 14, 3, 2, 1, 0,
	255, 254, 252, 218, 35, 3, 2, 1, 0,
	255, 254, 250, 208, 59, 4, 2, 1, 0,
	255, 254, 246, 194, 71, 10, 2, 1, 0,
	255, 252, 236, 183, 82, 8, 2, 1, 0,
	255, 252, 235, 180, 90, 17, 2, 1, 0,
	255, 248, 224, 171, 97, 30, 4, 1, 0,
	255, 254, 236, 173, 95, 37, 7, 1, 0,
}

var nlsfCB2ICDFWB = [72]uint8{
	255, 254, 253, 244, 12, 3, 2, 1, 0,
	255, 254, 252, 224, 38, 3, 2, 1, 0,
	255, 254, 251, 209, 57, 4, 2, 1, 0,
	255, 254, 244, 195, 69, 4, 2, 1, 0,
	255, 251, 232, 184, 84, 7, 2, 1, 0,
	255, 254, 240, 186, 86, 14, 2, 1, 0,
	255, 254, 239, 178, 91, 30, 5, 1, 0,
	255, 248, 227, 177, 100, 19, 2, 1, 0,
}

// Stage-2 selectors, two per byte. Bits 1-3 (5-7) pick the residual table
// for the even (odd) coefficient, bit 0 (4) picks its predictor.
var nlsfCB2SelectNBMB = [160]uint8{
	16, 0, 0, 0, 0, 99, 66, 36, 36, 34,
	36, 34, 34, 34, 34, 83, 69, 36, 52, 34,
	116, 102, 70, 68, 68, 176, 102, 68, 68, 34,
	65, 85, 68, 84, 36, 116, 141, 152, 139, 170,
	132, 187, 184, 216, 137, 132, 249, 168, 185, 139,
	115, 119, 120, 137, 69, 115, 99, 132, 134, 35,
	68, 119, 8, 89, 66, 33, 72, 88, 51, 84,
	38, 36, 35, 102, 36, 34, 36, 34, 69, 69,
	17, 69, 69, 35, 36, 68, 100, 70, 36, 35,
	67, 118, 141, 153, 167, 53, 85, 85, 84, 85,
	97, 183, 152, 136, 102, 148, 176, 149, 151, 166,
	38, 66, 84, 70, 52, 130, 151, 134, 199, 150,
	135, 183, 153, 166, 108, 187, 200, 165, 217, 140,
	69, 69, 85, 68, 69, 122, 201, 170, 173, 137,
	7, 200, 171, 166, 134, 138, 204, 174, 214, 168,
	9, 7, 7, 7, 7, 71, 70, 114, 136, 152,
}

var nlsfCB2SelectWB = [256]uint8{
	0, 0, 0, 0, 0, 0, 0, 1, 100, 102, 102, 68, 68, 36, 34, 96,
	164, 107, 158, 185, 180, 185, 139, 102, 64, 66, 36, 34, 34, 0, 1, 32,
	208, 139, 141, 191, 152, 185, 155, 104, 96, 171, 104, 166, 102, 102, 102, 132,
	1, 0, 0, 0, 0, 16, 16, 0, 80, 109, 78, 107, 185, 139, 103, 101,
	208, 212, 141, 139, 173, 153, 123, 103, 36, 0, 0, 0, 0, 0, 0, 1,
	48, 0, 0, 0, 0, 0, 0, 32, 68, 135, 123, 119, 119, 103, 69, 98,
	68, 103, 120, 118, 118, 102, 71, 98, 134, 136, 157, 184, 182, 153, 139, 134,
	208, 168, 248, 75, 189, 143, 121, 107, 32, 49, 34, 34, 34, 0, 17, 2,
	210, 235, 139, 123, 185, 137, 105, 134, 98, 135, 104, 182, 100, 183, 171, 134,
	100, 70, 68, 70, 66, 66, 34, 131, 64, 166, 102, 68, 36, 2, 1, 0,
	134, 166, 102, 68, 34, 34, 66, 132, 212, 246, 158, 139, 107, 107, 87, 102,
	100, 219, 125, 122, 137, 118, 103, 132, 114, 135, 137, 105, 171, 106, 50, 34,
	164, 214, 141, 143, 185, 151, 121, 103, 192, 34, 0, 0, 0, 0, 0, 1,
	208, 109, 74, 187, 134, 249, 159, 137, 102, 110, 154, 118, 87, 101, 119, 101,
	0, 2, 0, 36, 36, 66, 68, 35, 96, 164, 102, 100, 36, 0, 2, 33,
	167, 138, 174, 102, 100, 84, 2, 2, 101, 105, 154, 232, 171, 137, 85, 103,
}

// Stage-2 prediction coefficients: order-1 values for each predictor set.
var nlsfPredNBMBQ8 = [18]uint8{
	179, 138, 140, 148, 151, 149, 153, 151, 163,
	116, 67, 82, 59, 92, 72, 100, 89, 92,
}

var nlsfPredWBQ8 = [30]uint8{
	175, 148, 160, 176, 178, 173, 174, 164, 177, 174, 196, 182, 198, 192, 182,
	68, 62, 66, 60, 72, 117, 85, 90, 118, 136, 151, 142, 160, 142, 155,
}

// Minimum spacing between adjacent NLSFs, including the distance to 0 and
// to pi, in Q15.
var nlsfDeltaMinNBMBQ15 = [11]int16{250, 3, 6, 3, 3, 3, 4, 3, 3, 3, 461}

var nlsfDeltaMinWBQ15 = [17]int16{100, 3, 40, 3, 3, 3, 5, 14, 14, 10, 11, 3, 8, 9, 7, 3, 347}
