package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"io"
	"mime"
	"net/http"
	"strings"

	"echoverse/internal/models"
	"echoverse/internal/repository"
	"echoverse/internal/storage"

	"github.com/chai2010/webp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register WebP decoder
)

const (
	AvatarMaxSize     = 512
	AvatarWebPQuality = 80
	DefaultMaxUpload  = 10 << 20
	avatarFilename    = "avatar.webp"
)

// MediaService handles message attachments and avatar processing.
type MediaService struct {
	store    *storage.LocalStorage
	userRepo repository.UserRepository
	maxBytes int64
}

type UploadAttachmentInput struct {
	UserID      uint
	Filename    string
	ContentType string
	Content     []byte
}

// Attachment describes a stored upload referenced by a message.
type Attachment struct {
	FileURL  string `json:"file_url"`
	FileName string `json:"file_name"`
	FileType string `json:"file_type"`
}

func NewMediaService(store *storage.LocalStorage, userRepo repository.UserRepository, maxBytes int64) *MediaService {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUpload
	}
	return &MediaService{
		store:    store,
		userRepo: userRepo,
		maxBytes: maxBytes,
	}
}

// UploadAttachment stores an arbitrary file for use in a direct message.
func (s *MediaService) UploadAttachment(ctx context.Context, in UploadAttachmentInput) (*Attachment, error) {
	if in.UserID == 0 {
		return nil, models.NewValidationError("Invalid user")
	}
	if len(in.Content) == 0 {
		return nil, models.NewValidationError("No file uploaded")
	}
	if int64(len(in.Content)) > s.maxBytes {
		return nil, models.NewValidationError(fmt.Sprintf("File too large (max %dMB)", s.maxBytes/(1<<20)))
	}

	fileType := normalizeContentType(in.ContentType)
	if fileType == "" || fileType == "application/octet-stream" {
		fileType = http.DetectContentType(in.Content)
	}

	_, url, err := s.store.Save(bytes.NewReader(in.Content), in.Filename)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	displayName := in.Filename
	if displayName == "" {
		displayName = "file"
	}

	return &Attachment{
		FileURL:  url,
		FileName: displayName,
		FileType: fileType,
	}, nil
}

// UploadAvatar decodes an image, downscales it to fit 512x512, re-encodes it
// as webp, stores it, and points the user's profile at the new file.
func (s *MediaService) UploadAvatar(ctx context.Context, userID uint, content []byte, contentType string) (*models.User, error) {
	if userID == 0 {
		return nil, models.NewValidationError("Invalid user")
	}
	if len(content) == 0 {
		return nil, models.NewValidationError("No file uploaded")
	}
	if int64(len(content)) > s.maxBytes {
		return nil, models.NewValidationError(fmt.Sprintf("File too large (max %dMB)", s.maxBytes/(1<<20)))
	}

	detected := http.DetectContentType(content)
	if !isAllowedImageMIME(detected) {
		return nil, models.NewValidationError("Invalid image type")
	}
	if provided := normalizeContentType(contentType); strings.HasPrefix(provided, "image/") && !isAllowedImageMIME(provided) {
		return nil, models.NewValidationError("Invalid image type")
	}

	decoded, _, err := image.Decode(bytes.NewReader(content))
	if err != nil {
		return nil, models.NewValidationError("Invalid image file")
	}

	resized := resizeToFit(decoded, AvatarMaxSize, AvatarMaxSize)
	encoded, err := encodeWebP(resized, AvatarWebPQuality)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	_, url, err := s.store.Save(bytes.NewReader(encoded), avatarFilename)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	oldURL := user.AvatarURL
	user.AvatarURL = url
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	if old := storedNameFromURL(oldURL); old != "" {
		_ = s.store.Remove(old)
	}

	return user, nil
}

// OpenStored returns a reader for a previously stored file.
func (s *MediaService) OpenStored(name string) (io.ReadCloser, error) {
	return s.store.Open(name)
}

func storedNameFromURL(url string) string {
	if url == "" {
		return ""
	}
	idx := strings.LastIndex(url, "/")
	if idx < 0 || idx == len(url)-1 {
		return ""
	}
	return url[idx+1:]
}

// resizeToFit scales the image down to fit within the bounds, preserving
// aspect ratio. Images already small enough are returned unchanged.
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

	scaleW := float64(maxWidth) / float64(w)
	scaleH := float64(maxHeight) / float64(h)
	scale := scaleW
	if scaleH < scale {
		scale = scaleH
	}
	newW := int(float64(w) * scale)
	newH := int(float64(h) * scale)
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}

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
	switch normalizeContentType(contentType) {
	case "image/jpeg", "image/jpg", "image/png", "image/gif", "image/webp":
		return true
	default:
		return false
	}
}

func normalizeContentType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return strings.ToLower(strings.TrimSpace(mediaType))
}
