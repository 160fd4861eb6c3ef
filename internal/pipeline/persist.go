package pipeline

import (
	"crypto/sha1"
	"encoding/hex"
	"os"
	"path/filepath"
)

// hashString returns a short stable identifier for s.
func hashString(s string) string {
	sum := sha1.Sum([]byte(s))
	return hex.EncodeToString(sum[:8])
}

// brdFilename derives the output filename from the document's cleaned
// text, so re-running a batch over the same document overwrites its
// previous BRD instead of accumulating copies.
func brdFilename(documentText string) string {
	return "BRD_" + hashString(documentText) + ".txt"
}

func writeBRD(dir, filename, content string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", err
	}
	return path, nil
}
