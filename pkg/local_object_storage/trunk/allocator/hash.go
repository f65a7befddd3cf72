package allocator

// pjwHash is the P. J. Weinberger string hash used to spread trunk files
// over the data sub directories.
func pjwHash(s string) uint32 {
	const (
		highBits      = 0xF0000000
		oneEighth     = 4
		threeQuarters = 24
	)

	var h uint32

	for i := 0; i < len(s); i++ {
		h = h<<oneEighth + uint32(s[i])
		if t := h & highBits; t != 0 {
			h = (h ^ t>>threeQuarters) &^ highBits
		}
	}

	return h
}

// subPath returns the data sub directory pair of the short file name.
func subPath(name string, subdirs uint32) (uint8, uint8) {
	n := pjwHash(name) % (1 << 16)
	return uint8((n >> 8 & 0xFF) % subdirs), uint8((n & 0xFF) % subdirs)
}
