package memcore

// Context supplies the target-architecture facts the memory core needs but
// does not own: pointer width and byte order. The interpreter that drives
// instruction evaluation constructs one Context per target and threads it
// through every MemoryObject/ObjectState it creates.
type Context struct {
	// PointerWidth is the bit width of an address or segment tag on this
	// target (32 or 64 in practice).
	PointerWidth uint

	// LittleEndian is true if multi-byte values are stored least-significant
	// byte first.
	LittleEndian bool
}

// NewContext64 returns a Context for a 64-bit little-endian target, the
// common case for symbolic execution of compiled LLVM IR.
func NewContext64() *Context {
	return &Context{PointerWidth: Width64, LittleEndian: true}
}

// NewContext32 returns a Context for a 32-bit little-endian target.
func NewContext32() *Context {
	return &Context{PointerWidth: Width32, LittleEndian: true}
}
