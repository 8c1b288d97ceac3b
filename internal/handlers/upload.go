package handlers

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
)

const publicRootDir = "./public"

var allowedImageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

// saveImageUpload stores a multipart image under public/uploads and returns
// the relative URL path persisted on the document. The image store is a plain
// passthrough; only the returned path matters to the core.
func saveImageUpload(c *gin.Context, file *multipart.FileHeader) (string, error) {
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedImageExts[ext] {
		return "", fmt.Errorf("unsupported image type %q", ext)
	}

	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	name := hex.EncodeToString(buf) + ext

	if err := os.MkdirAll(filepath.Join(publicRootDir, "uploads"), 0o755); err != nil {
		return "", err
	}

	target := filepath.Join(publicRootDir, "uploads", name)
	if err := c.SaveUploadedFile(file, target); err != nil {
		return "", err
	}

	return "/public/uploads/" + name, nil
}

// safeDeleteUpload removes a previously stored upload, refusing anything that
// escapes the uploads directory.
func safeDeleteUpload(relPath string) error {
	trimmed := strings.TrimSpace(relPath)
	if trimmed == "" {
		return nil
	}

	cleanRel := path.Clean("/" + strings.TrimPrefix(trimmed, "/"))
	cleanRel = strings.TrimPrefix(cleanRel, "/")
	cleanRel = strings.TrimPrefix(cleanRel, "public/")

	if !strings.HasPrefix(cleanRel, "uploads/") {
		return fmt.Errorf("refusing to delete non-upload path: %s", relPath)
	}

	cleanBase, err := filepath.Abs(publicRootDir)
	if err != nil {
		return err
	}
	targetPath := filepath.Join(cleanBase, filepath.FromSlash(cleanRel))
	cleanTarget := filepath.Clean(targetPath)
	if cleanTarget != cleanBase && !strings.HasPrefix(cleanTarget, cleanBase+string(os.PathSeparator)) {
		return fmt.Errorf("refusing to delete path outside public root: %s", relPath)
	}

	if err := os.Remove(cleanTarget); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	return nil
}
