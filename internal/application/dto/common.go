package dto

// ErrorResponse cuerpo de error HTTP.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	// Available acompaña a INSUFFICIENT_STOCK: cantidad disponible actual.
	Available *int64 `json:"available,omitempty"`
}

// PageResponse metadatos de página en respuestas.
type PageResponse struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}
