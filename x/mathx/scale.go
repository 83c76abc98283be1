package mathx

// MapU16 rescales x from [inLo, inHi] to [outLo, outHi], clamping x to the
// input range first. Either range may be descending, which is how a
// mirrored touch axis is calibrated.
func MapU16(x, inLo, inHi, outLo, outHi uint16) uint16 {
	if inLo == inHi {
		return outLo
	}
	x = Clamp(x, inLo, inHi)

	// Position of x along the input range in [0, span].
	pos, span := int64(x)-int64(inLo), int64(inHi)-int64(inLo)
	if span < 0 {
		pos, span = -pos, -span
	}
	out := int64(outLo) + pos*(int64(outHi)-int64(outLo))/span
	return uint16(out)
}
