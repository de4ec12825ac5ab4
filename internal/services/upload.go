package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"log/slog"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"golang.org/x/image/draw"

	"github.com/maxcyking/ngo-library-sub001/internal/models"
	"github.com/maxcyking/ngo-library-sub001/internal/storage"
)

const (
	DefaultMaxUploadBytes = 5 << 20
	DefaultMaxImageSide   = 1600
	// DefaultMaxImagePixels bounds the decoded size of an upload; a small
	// compressed file can declare very large dimensions.
	DefaultMaxImagePixels = 40_000_000
	jpegQuality           = 82
)

var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

var (
	ErrFileTooLarge    = fmt.Errorf("%w: file too large", ErrValidation)
	ErrUnsupportedFile = fmt.Errorf("%w: unsupported file type", ErrValidation)
	ErrEmptyFile       = fmt.Errorf("%w: empty file", ErrValidation)
	ErrNoImageToDelete = fmt.Errorf("%w: no image to delete", ErrValidation)
)

// CoverSetter is the part of BookService the uploader needs.
type CoverSetter interface {
	GetBookByID(ctx context.Context, id int32) (*models.BookResponse, error)
	SetCoverImage(ctx context.Context, id int32, url *string, actorID int32) (*models.BookResponse, error)
}

// EventImageSetter is the part of EventService the uploader needs.
type EventImageSetter interface {
	GetEvent(ctx context.Context, id int32) (*models.EventResponse, error)
	SetEventImage(ctx context.Context, id int32, url *string, actorID int32) (*models.EventResponse, error)
}

// PreparedImage is a validated and possibly recompressed upload.
type PreparedImage struct {
	Data        []byte
	ContentType string
	Extension   string
	Width       int
	Height      int
}

// UploadService validates images and stores them under the storage prefixes.
type UploadService struct {
	store     storage.Store
	books     CoverSetter
	events    EventImageSetter
	maxBytes  int64
	maxSide   int
	maxPixels int
	logger    *slog.Logger
}

func NewUploadService(store storage.Store, books CoverSetter, events EventImageSetter, logger *slog.Logger) *UploadService {
	if logger == nil {
		logger = slog.Default()
	}
	return &UploadService{
		store:     store,
		books:     books,
		events:    events,
		maxBytes:  DefaultMaxUploadBytes,
		maxSide:   DefaultMaxImageSide,
		maxPixels: DefaultMaxImagePixels,
		logger:    logger,
	}
}

// SetLimits overrides the size and dimension limits; zero keeps the default.
func (s *UploadService) SetLimits(maxBytes int64, maxSide int) {
	if maxBytes > 0 {
		s.maxBytes = maxBytes
	}
	if maxSide > 0 {
		s.maxSide = maxSide
	}
}

// SetMaxPixels overrides the decoded width*height ceiling; zero keeps the default.
func (s *UploadService) SetMaxPixels(n int) {
	if n > 0 {
		s.maxPixels = n
	}
}

// PrepareImage reads at most the size limit, checks the sniffed content type
// and downscales/recompresses JPEG and PNG input.
func (s *UploadService) PrepareImage(r io.Reader) (*PreparedImage, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}
	if int64(len(data)) > s.maxBytes {
		return nil, fmt.Errorf("%w: limit is %d bytes", ErrFileTooLarge, s.maxBytes)
	}

	mtype := mimetype.Detect(data)
	contentType := strings.SplitN(mtype.String(), ";", 2)[0]
	ext, ok := allowedImageTypes[contentType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFile, contentType)
	}

	img := &PreparedImage{Data: data, ContentType: contentType, Extension: ext}
	if contentType != "image/jpeg" && contentType != "image/png" {
		return img, nil
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: corrupt image: %v", ErrUnsupportedFile, err)
	}
	if int64(cfg.Width)*int64(cfg.Height) > int64(s.maxPixels) {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrFileTooLarge, cfg.Width, cfg.Height, s.maxPixels)
	}

	compressed, w, h, err := compressImage(data, contentType, s.maxSide)
	if err != nil {
		return nil, fmt.Errorf("%w: corrupt image: %v", ErrUnsupportedFile, err)
	}
	img.Width, img.Height = w, h
	if len(compressed) < len(data) {
		img.Data = compressed
	}
	return img, nil
}

// UploadBookCover replaces a book's cover image and removes the previous object.
func (s *UploadService) UploadBookCover(ctx context.Context, bookID int32, r io.Reader, actorID int32) (*models.BookResponse, error) {
	book, err := s.books.GetBookByID(ctx, bookID)
	if err != nil {
		return nil, err
	}
	info, err := s.put(ctx, storage.PrefixBookCovers, fmt.Sprintf("book-%d-", bookID), r)
	if err != nil {
		return nil, err
	}

	url := info.URL
	updated, err := s.books.SetCoverImage(ctx, bookID, &url, actorID)
	if err != nil {
		s.remove(ctx, info.URL)
		return nil, err
	}
	s.remove(ctx, deref(book.CoverImageURL))
	return updated, nil
}

func (s *UploadService) DeleteBookCover(ctx context.Context, bookID int32, actorID int32) (*models.BookResponse, error) {
	book, err := s.books.GetBookByID(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if deref(book.CoverImageURL) == "" {
		return nil, ErrNoImageToDelete
	}
	updated, err := s.books.SetCoverImage(ctx, bookID, nil, actorID)
	if err != nil {
		return nil, err
	}
	s.remove(ctx, *book.CoverImageURL)
	return updated, nil
}

// UploadEventImage replaces an event's image and removes the previous object.
func (s *UploadService) UploadEventImage(ctx context.Context, eventID int32, r io.Reader, actorID int32) (*models.EventResponse, error) {
	event, err := s.events.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	info, err := s.put(ctx, storage.PrefixEvents, fmt.Sprintf("event-%d-", eventID), r)
	if err != nil {
		return nil, err
	}

	url := info.URL
	updated, err := s.events.SetEventImage(ctx, eventID, &url, actorID)
	if err != nil {
		s.remove(ctx, info.URL)
		return nil, err
	}
	s.remove(ctx, deref(event.ImageURL))
	return updated, nil
}

func (s *UploadService) DeleteEventImage(ctx context.Context, eventID int32, actorID int32) (*models.EventResponse, error) {
	event, err := s.events.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if deref(event.ImageURL) == "" {
		return nil, ErrNoImageToDelete
	}
	updated, err := s.events.SetEventImage(ctx, eventID, nil, actorID)
	if err != nil {
		return nil, err
	}
	s.remove(ctx, *event.ImageURL)
	return updated, nil
}

// UploadGalleryImage stores a standalone image and returns its object info.
func (s *UploadService) UploadGalleryImage(ctx context.Context, r io.Reader) (storage.Info, error) {
	return s.put(ctx, storage.PrefixGallery, "", r)
}

func (s *UploadService) put(ctx context.Context, prefix, namePrefix string, r io.Reader) (storage.Info, error) {
	img, err := s.PrepareImage(r)
	if err != nil {
		return storage.Info{}, err
	}
	key := prefix + namePrefix + uuid.NewString() + img.Extension
	info, err := s.store.Put(ctx, key, bytes.NewReader(img.Data), storage.PutOptions{ContentType: img.ContentType})
	if err != nil {
		return storage.Info{}, fmt.Errorf("failed to store image: %w", err)
	}
	s.logger.Info("image stored", "key", info.Key, "size", info.Size, "content_type", img.ContentType)
	return info, nil
}

// remove deletes an object previously returned by URL; foreign URLs are left alone.
func (s *UploadService) remove(ctx context.Context, url string) {
	if url == "" {
		return
	}
	key, ok := s.store.KeyFromURL(url)
	if !ok {
		return
	}
	if err := s.store.Delete(ctx, key); err != nil && !errors.Is(err, storage.ErrNotFound) {
		s.logger.Warn("failed to delete image", "key", key, "error", err)
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// compressImage decodes data, downscales it so neither side exceeds maxSide and
// re-encodes it in its original format.
func compressImage(data []byte, contentType string, maxSide int) ([]byte, int, int, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, 0, 0, err
	}
	dst := downscale(src, maxSide)
	b := dst.Bounds()

	var buf bytes.Buffer
	switch contentType {
	case "image/jpeg":
		err = jpeg.Encode(&buf, dst, &jpeg.Options{Quality: jpegQuality})
	default:
		enc := png.Encoder{CompressionLevel: png.BestCompression}
		err = enc.Encode(&buf, dst)
	}
	if err != nil {
		return nil, 0, 0, err
	}
	return buf.Bytes(), b.Dx(), b.Dy(), nil
}

// downscale resamples src to fit within maxSide x maxSide.
func downscale(src image.Image, maxSide int) image.Image {
	sb := src.Bounds()
	sw, sh := sb.Dx(), sb.Dy()
	if maxSide <= 0 || (sw <= maxSide && sh <= maxSide) {
		return src
	}

	dw, dh := maxSide, sh*maxSide/sw
	if sh > sw {
		dw, dh = sw*maxSide/sh, maxSide
	}
	dw, dh = max(dw, 1), max(dh, 1)

	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, sb, draw.Src, nil)
	return dst
}
