package msgrec

// Attachment is a logical file reconstructed from a DLT-FT FLST/FLDA/FLFI
// sequence (spec.md §3). Its lifetime is owned by parser/dltft.FtScanner:
// constructed on the first FLST, mutated on each FLDA, finalized on FLFI.
type Attachment struct {
	Name        string
	Size        int
	CreatedDate string

	// Messages lists, in encounter order, the index (within the stream
	// that fed the scanner) of every message that contributed to this
	// attachment: the FLST, every FLDA, and the FLFI.
	Messages []int

	Data []byte
}

// AddData appends a DLT-FT data packet's payload to the accumulated file
// contents.
func (a *Attachment) AddData(b []byte) {
	a.Data = append(a.Data, b...)
}
