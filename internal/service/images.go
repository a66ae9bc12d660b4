package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif" // register decoders for DecodeConfig
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/marioigor1982/leco-imoveis-site-simples/internal/core"
	"github.com/marioigor1982/leco-imoveis-site-simples/internal/domain/model"
	apperrors "github.com/marioigor1982/leco-imoveis-site-simples/internal/errors"
	_ "golang.org/x/image/webp"
)

// allowedImageTypes maps sniffed content types to stored file extensions.
var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Upload is one file from the admin form.
type Upload struct {
	Filename string
	Size     int64
	Body     io.Reader
}

// ImageServiceOptions groups dependencies for ImageService.
type ImageServiceOptions struct {
	Store       core.ImageStore // Required
	MediaPrefix string          // URL prefix the store serves from; default "/media/"
	Logger      *slog.Logger
}

// ImageService validates and stores listing photos.
type ImageService struct {
	store  core.ImageStore
	prefix string
	logger *slog.Logger
}

// NewImageService constructs an ImageService.
func NewImageService(opts ImageServiceOptions) *ImageService {
	if opts.Store == nil {
		panic("ImageService requires a Store")
	}
	prefix := opts.MediaPrefix
	if prefix == "" {
		prefix = "/media/"
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &ImageService{store: opts.Store, prefix: prefix, logger: logger.With("component", "image_service")}
}

// Save verifies and stores every upload, returning their public URLs in order.
// Nothing is stored unless all uploads pass verification.
func (s *ImageService) Save(ctx context.Context, uploads []Upload) ([]string, error) {
	if len(uploads) > model.MaxImages {
		return nil, apperrors.ValidationField("images", fmt.Sprintf("Máximo de %d imagens por imóvel.", model.MaxImages))
	}
	type verified struct {
		info core.ObjectInfo
		data []byte
	}
	checked := make([]verified, 0, len(uploads))
	for _, up := range uploads {
		data, contentType, err := verifyImage(up)
		if err != nil {
			return nil, err
		}
		key := "properties/" + uuid.NewString() + allowedImageTypes[contentType]
		checked = append(checked, verified{
			info: core.ObjectInfo{Key: key, ContentType: contentType, Size: int64(len(data))},
			data: data,
		})
	}

	urls := make([]string, 0, len(checked))
	for _, v := range checked {
		url, err := s.store.Put(ctx, v.info, bytes.NewReader(v.data))
		if err != nil {
			s.Remove(ctx, urls)
			return nil, fmt.Errorf("store image: %w", err)
		}
		urls = append(urls, url)
	}
	return urls, nil
}

// Open returns a stored image for serving.
func (s *ImageService) Open(ctx context.Context, key string) (io.ReadCloser, core.ObjectInfo, error) {
	if key == "" || strings.Contains(key, "..") {
		return nil, core.ObjectInfo{}, apperrors.NotFound("imagem não encontrada")
	}
	return s.store.Open(ctx, key)
}

// Remove deletes images this store owns. URLs hosted elsewhere are skipped.
func (s *ImageService) Remove(ctx context.Context, urls []string) {
	for _, u := range urls {
		key, ok := strings.CutPrefix(u, s.prefix)
		if !ok || key == "" {
			continue
		}
		if err := s.store.Delete(ctx, key); err != nil {
			s.logger.WarnContext(ctx, "delete image failed", "key", key, "error", err)
		}
	}
}

func verifyImage(up Upload) ([]byte, string, error) {
	name := up.Filename
	if up.Size > model.MaxImageBytes {
		return nil, "", apperrors.ValidationField("images", fmt.Sprintf("%s excede o limite de 5 MB.", name))
	}
	data, err := io.ReadAll(io.LimitReader(up.Body, model.MaxImageBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("read upload %s: %w", name, err)
	}
	if len(data) > model.MaxImageBytes {
		return nil, "", apperrors.ValidationField("images", fmt.Sprintf("%s excede o limite de 5 MB.", name))
	}
	contentType := http.DetectContentType(data)
	if _, ok := allowedImageTypes[contentType]; !ok {
		return nil, "", apperrors.ValidationField("images", fmt.Sprintf("%s não é uma imagem JPEG, PNG, WebP ou GIF.", name))
	}
	if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
		return nil, "", apperrors.ValidationField("images", fmt.Sprintf("%s não pôde ser lida como imagem.", name))
	}
	return data, contentType, nil
}
