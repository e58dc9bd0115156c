package assets

// Loader turns the file at path into SPIR-V words.
type Loader interface {
	Load(path string) ([]uint32, error)
}
