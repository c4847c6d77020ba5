package utils

// DecompressBoneWeight maps a packed weight byte onto 0..1.
func DecompressBoneWeight(b byte) float32 {
	return float32(b) / 255
}
