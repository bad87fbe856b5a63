// Package imaging normaliza las fotos de productos antes de guardarlas:
// valida el formato real, reduce dimensiones y recomprime a JPEG.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"

	"golang.org/x/image/draw"
)

// MaxDimension lado máximo (ancho o alto) de las fotos almacenadas.
const MaxDimension = 1024

// JPEGQuality calidad de compresión de la salida.
const JPEGQuality = 85

// allowedMIME formatos de entrada aceptados.
var allowedMIME = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

// Result foto procesada lista para almacenar.
type Result struct {
	Data []byte
	MIME string
}

// Process lee la imagen, detecta el MIME real por los bytes (no se confía en
// headers del cliente), reduce si excede MaxDimension y recomprime. La salida
// es siempre JPEG.
func Process(r io.Reader) (*Result, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("leer imagen: %w", err)
	}

	detected := http.DetectContentType(data)
	if !allowedMIME[detected] {
		return nil, fmt.Errorf("formato de imagen no soportado: %s (solo JPEG y PNG)", detected)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decodificar imagen: %w", err)
	}

	img = downscale(img, MaxDimension)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, fmt.Errorf("codificar JPEG: %w", err)
	}
	return &Result{Data: buf.Bytes(), MIME: "image/jpeg"}, nil
}

// downscale reduce la imagen para que ningún lado exceda maxDim, conservando
// la proporción. Interpolación Catmull-Rom. Si ya cabe, devuelve la original.
func downscale(img image.Image, maxDim int) image.Image {
	bounds := img.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()

	if w <= maxDim && h <= maxDim {
		return img
	}

	newW, newH := w, h
	if w > h {
		newW = maxDim
		newH = int(float64(h) * float64(maxDim) / float64(w))
	} else {
		newH = maxDim
		newW = int(float64(w) * float64(maxDim) / float64(h))
	}
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}

func init() {
	image.RegisterFormat("jpeg", "\xff\xd8", jpeg.Decode, jpeg.DecodeConfig)
	image.RegisterFormat("png", "\x89PNG", png.Decode, png.DecodeConfig)
}
