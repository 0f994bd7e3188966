package ogg

// The Ogg CRC-32 uses polynomial 0x04c11db7 fed most significant bit
// first, with a zero initial value and no final inversion. It is not the
// IEEE CRC implemented by hash/crc32.

var crcTable [256]uint32

func init() {
	const poly = uint32(0x04c11db7)
	for i := range crcTable {
		crc := uint32(i) << 24
		for j := 0; j < 8; j++ {
			if crc&0x80000000 != 0 {
				crc = crc<<1 ^ poly
			} else {
				crc <<= 1
			}
		}
		crcTable[i] = crc
	}
}

// Checksum computes the Ogg CRC-32 of data.
func Checksum(data []byte) uint32 {
	return ChecksumUpdate(0, data)
}

// ChecksumUpdate continues a running checksum with more data.
func ChecksumUpdate(crc uint32, data []byte) uint32 {
	for _, b := range data {
		crc = crc<<8 ^ crcTable[byte(crc>>24)^b]
	}
	return crc
}
