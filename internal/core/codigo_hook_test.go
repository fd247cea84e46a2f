package core

// SetCodigoGenerator replaces the order codigo source until the returned func is called.
func SetCodigoGenerator(gen func() string) (restore func()) {
	prev := codigoGenerator
	codigoGenerator = gen
	return func() { codigoGenerator = prev }
}
