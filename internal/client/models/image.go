package models

// OptimizedImage is the payload prepared for upload.
type OptimizedImage struct {
	Data          []byte
	ContentType   string
	Filename      string
	OriginalSize  int
	OptimizedSize int
	Width         int
	Height        int
}
