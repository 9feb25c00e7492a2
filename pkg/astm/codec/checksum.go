package codec

import "fmt"

// Checksum computes the ASTM frame checksum: the sum of the input bytes
// modulo 256, rendered as two uppercase hexadecimal digits.
func Checksum(data []byte) string {
	var sum byte
	for _, b := range data {
		sum += b
	}
	return fmt.Sprintf("%02X", sum)
}
