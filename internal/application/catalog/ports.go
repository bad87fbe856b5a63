package catalog

// PhotoStore es el colaborador externo de archivos de fotos. El core solo
// persiste la referencia (nombre) que el store devuelve.
type PhotoStore interface {
	// Store guarda el contenido bajo un nombre único derivado de filename y
	// devuelve ese nombre.
	Store(filename string, data []byte) (string, error)
	Delete(name string) error
}
