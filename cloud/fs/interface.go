package fs

// Filesystem uploads static operator-facing artifacts — currently just
// the periodic world snapshot.
type Filesystem interface {
	UploadStaticFile(filename string, secondsCache int, data []byte) error
}
