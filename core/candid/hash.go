package candid

// FieldHash derives the wire id of a named field: h = h*223 + b over the UTF-8
// bytes of the name, modulo 2^32.
func FieldHash(name string) uint32 {
	var h uint32
	for i := 0; i < len(name); i++ {
		h = h*223 + uint32(name[i])
	}
	return h
}
