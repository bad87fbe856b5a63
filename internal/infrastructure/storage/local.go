// Package storage guarda las fotos de productos en el sistema de archivos
// local, bajo nombres únicos para evitar colisiones entre subidas.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/jhoicas/almoxarifado-api/internal/application/catalog"
)

var _ catalog.PhotoStore = (*Local)(nil)

// Local almacenamiento de fotos en disco.
type Local struct {
	dir string
}

// NewLocal crea el almacenamiento y asegura que el directorio exista.
func NewLocal(dir string) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("crear directorio de uploads: %w", err)
	}
	return &Local{dir: dir}, nil
}

// Store guarda el contenido bajo un nombre único (uuid + extensión original)
// y devuelve ese nombre. El caller persiste el nombre, no la ruta.
func (l *Local) Store(filename string, data []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		ext = ".jpg"
	}
	name := uuid.New().String() + ext
	if err := os.WriteFile(filepath.Join(l.dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("guardar foto: %w", err)
	}
	return name, nil
}

// Delete elimina una foto por nombre. Un nombre inexistente no es un error:
// el estado final deseado es el mismo.
func (l *Local) Delete(name string) error {
	if name == "" || strings.Contains(name, string(os.PathSeparator)) || strings.Contains(name, "..") {
		return fmt.Errorf("nombre de foto inválido: %q", name)
	}
	err := os.Remove(filepath.Join(l.dir, name))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("eliminar foto: %w", err)
	}
	return nil
}

// Path devuelve la ruta en disco de una foto (para servirla por HTTP).
func (l *Local) Path(name string) string {
	return filepath.Join(l.dir, name)
}

// Dir devuelve el directorio base de uploads.
func (l *Local) Dir() string { return l.dir }
