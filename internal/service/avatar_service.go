package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"wayfarer/internal/config"
	"wayfarer/internal/models"

	"github.com/chai2010/webp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	DefaultAvatarUploadDir   = "/tmp/wayfarer/uploads/avatars"
	DefaultAvatarPublicBase  = "/media/avatars"
	DefaultAvatarMaxUploadMB = 5
	AvatarSize               = 512
	AvatarWebPQuality        = 75
)

// AvatarService normalizes uploaded group and community avatars into
// square WebP files addressed by content hash.
type AvatarService struct {
	uploadDir          string
	publicBase         string
	maxUploadSizeBytes int64
}

// NewAvatarService builds an AvatarService from the AVATAR_* settings.
func NewAvatarService(cfg *config.Config) *AvatarService {
	uploadDir := DefaultAvatarUploadDir
	publicBase := DefaultAvatarPublicBase
	maxUploadSizeMB := DefaultAvatarMaxUploadMB

	if cfg != nil {
		if cfg.AvatarUploadDir != "" {
			uploadDir = cfg.AvatarUploadDir
		}
		if cfg.AvatarPublicBase != "" {
			publicBase = strings.TrimRight(cfg.AvatarPublicBase, "/")
		}
		if cfg.AvatarMaxUploadMB > 0 {
			maxUploadSizeMB = cfg.AvatarMaxUploadMB
		}
	}

	return &AvatarService{
		uploadDir:          uploadDir,
		publicBase:         publicBase,
		maxUploadSizeBytes: int64(maxUploadSizeMB) * 1024 * 1024,
	}
}

// UploadDir is where encoded avatars are written; the server serves it statically.
func (s *AvatarService) UploadDir() string { return s.uploadDir }

// PublicBase is the URL prefix avatars are served under.
func (s *AvatarService) PublicBase() string { return s.publicBase }

// Upload validates, center-crops, resizes and re-encodes content, then
// returns the public URL. Uploading the same picture twice yields the same URL.
func (s *AvatarService) Upload(_ context.Context, filename string, content []byte) (string, error) {
	if len(content) == 0 {
		return "", models.NewValidationError("No file uploaded")
	}
	if int64(len(content)) > s.maxUploadSizeBytes {
		return "", models.NewValidationError(fmt.Sprintf("File too large (max %dMB)", s.maxUploadSizeBytes/(1024*1024)))
	}

	detectedType := http.DetectContentType(content)
	if !isAllowedImageMIME(detectedType) && !looksLikeWebP(content) {
		return "", models.NewValidationError("Invalid image type")
	}

	decoded, _, err := image.Decode(bytes.NewReader(content))
	if err != nil {
		return "", models.NewValidationError(fmt.Sprintf("Invalid image file %q", filepath.Base(filename)))
	}

	square := cropSquare(decoded)
	resized := resizeToFit(square, AvatarSize, AvatarSize)

	encoded, err := encodeWebP(resized, AvatarWebPQuality)
	if err != nil {
		return "", models.NewInternalError(err)
	}

	sum := sha256.Sum256(encoded)
	name := hex.EncodeToString(sum[:16]) + ".webp"
	path := filepath.Join(s.uploadDir, name)
	if _, statErr := os.Stat(path); statErr != nil {
		if err := writeBytesToFile(path, encoded); err != nil {
			return "", models.NewInternalError(err)
		}
	}

	return s.publicBase + "/" + name, nil
}

func cropSquare(src image.Image) image.Image {
	b := src.Bounds()
	side := b.Dx()
	if b.Dy() < side {
		side = b.Dy()
	}
	if side <= 0 || (b.Dx() == side && b.Dy() == side) {
		return src
	}
	x := b.Min.X + (b.Dx()-side)/2
	y := b.Min.Y + (b.Dy()-side)/2
	dst := image.NewRGBA(image.Rect(0, 0, side, side))
	draw.Draw(dst, dst.Bounds(), src, image.Point{X: x, Y: y}, draw.Src)
	return dst
}

func resizeToFit(src image.Image, maxWidth, maxHeight int) image.Image {
	bounds := src.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	if w <= 0 || h <= 0 {
		return src
	}
	if w <= maxWidth && h <= maxHeight {
		return src
	}

	scale := float64(maxWidth) / float64(w)
	if s := float64(maxHeight) / float64(h); s < scale {
		scale = s
	}
	newW := max(int(float64(w)*scale), 1)
	newH := max(int(float64(h)*scale), 1)

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}

func encodeWebP(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := webp.Encode(buf, img, &webp.Options{Quality: float32(quality)}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func isAllowedImageMIME(contentType string) bool {
	ct := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	switch ct {
	case "image/jpeg", "image/jpg", "image/png", "image/gif", "image/webp":
		return true
	default:
		return false
	}
}

func looksLikeWebP(content []byte) bool {
	return len(content) >= 12 && string(content[0:4]) == "RIFF" && string(content[8:12]) == "WEBP"
}

func writeBytesToFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
