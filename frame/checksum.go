package frame

import "github.com/sigurn/crc16"

// crcParams describes the CRC-16 variant used on the wire.
var crcParams = crc16.Params{
	Poly:   0x1021,
	Init:   0xF1EF,
	RefIn:  false,
	RefOut: false,
	XorOut: 0x0000,
	Check:  0x6772,
	Name:   "CRC-16/TAPIN",
}

var crcTable = crc16.MakeTable(crcParams)

// Checksum computes the frame CRC over data.
func Checksum(data []byte) uint16 {
	return crc16.Checksum(data, crcTable)
}
