package locate

import "bytes"

// Executable formats recognised by their magic number.
const (
	FormatUnknown = "unknown"
	FormatELF     = "elf"
	FormatPE      = "pe"
	FormatMachO   = "macho"
)

var (
	magicELF = []byte{0x7f, 'E', 'L', 'F'}
	magicPE  = []byte{'M', 'Z'}
	// Mach-O 32/64-bit in both byte orders, plus the universal (fat) header.
	magicMachO = [][]byte{
		{0xfe, 0xed, 0xfa, 0xce},
		{0xce, 0xfa, 0xed, 0xfe},
		{0xfe, 0xed, 0xfa, 0xcf},
		{0xcf, 0xfa, 0xed, 0xfe},
		{0xca, 0xfe, 0xba, 0xbe},
	}
)

// Format identifies the executable format from the leading bytes of a file.
func Format(header []byte) string {
	switch {
	case bytes.HasPrefix(header, magicELF):
		return FormatELF
	case bytes.HasPrefix(header, magicPE):
		return FormatPE
	}
	for _, magic := range magicMachO {
		if bytes.HasPrefix(header, magic) {
			return FormatMachO
		}
	}
	return FormatUnknown
}
