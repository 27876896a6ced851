// Package imagestore ingests raw image payloads from field values,
// persists the bytes and returns stable references. Reuse semantics: an
// existing id with no new payload returns the stored record unchanged; an
// existing id with a new payload replaces the stored image, deleting the
// old one only after the new file is confirmed written.
package imagestore

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"imposter/internal/domain"
	"imposter/internal/domain/fieldtree"
	"imposter/internal/domain/models"
	"imposter/internal/domain/repositories"
)

// supportedExtensions is the closed set of accepted image file extensions.
var supportedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
}

// Store couples a blob sink with the stored-image record repository.
type Store struct {
	blobs    BlobStore
	records  repositories.ImageRepository
	maxBytes int
	logger   *slog.Logger
	now      func() time.Time
}

// New creates an image store. maxBytes bounds the Base64 payload length
// before decoding.
func New(blobs BlobStore, records repositories.ImageRepository, maxBytes int, logger *slog.Logger) *Store {
	return &Store{
		blobs:    blobs,
		records:  records,
		maxBytes: maxBytes,
		logger:   logger,
		now:      time.Now,
	}
}

// Ingest resolves one image leaf into a stored image. prior is the
// previously persisted leaf for the same field, if any; its id makes the
// leaf eligible for reuse and for replacement.
func (s *Store) Ingest(ctx context.Context, collection string, leaf, prior fieldtree.Params) (*models.StoredImage, error) {
	filename := leaf.String("filename")
	if filename == "" {
		filename = prior.String("filename")
	}
	existingID := leaf.String("id")
	if existingID == "" {
		existingID = prior.String("id")
	}

	if !leaf.Has("data") {
		if existingID != "" {
			img, err := s.records.GetByID(ctx, existingID)
			if err == nil {
				return img, nil
			}
			s.logger.Warn("referenced image record missing", "id", existingID)
		}
		return nil, &domain.ImageError{Kind: domain.NoImageData, Filename: filename}
	}

	raw, ok := leaf["data"].(string)
	if !ok {
		return nil, &domain.ImageError{Kind: domain.DecodeError, Filename: filename, Detail: "image data must be a string"}
	}

	decoded, err := s.decodePayload(raw, filename)
	if err != nil {
		return nil, err
	}

	img, err := s.write(ctx, collection, filename, decoded)
	if err != nil {
		return nil, err
	}

	// Replacement: drop the old image only now that the new file is live,
	// so the field stays resolvable throughout.
	if existingID != "" {
		s.Remove(ctx, existingID)
	}

	return img, nil
}

// decodePayload normalizes a Base64 payload (optionally data-URI framed),
// enforces the size cap and the extension allow-list, and decodes it.
func (s *Store) decodePayload(data, filename string) ([]byte, error) {
	if strings.Contains(data, "data:") && strings.Contains(data, ";base64,") {
		header, payload, _ := strings.Cut(data, ";base64,")
		subtype := header[strings.LastIndex(header, "/")+1:]
		if !supportedExtensions["."+strings.ToLower(subtype)] {
			return nil, &domain.ImageError{Kind: domain.UnsupportedExtension, Filename: filename}
		}
		data = payload
	}

	if len(data) > s.maxBytes {
		return nil, &domain.ImageError{Kind: domain.FileTooLarge, Filename: filename}
	}
	if data == "" {
		return nil, &domain.ImageError{Kind: domain.NoImageData, Filename: filename}
	}

	ext := strings.ToLower(path.Ext(filename))
	if !supportedExtensions[ext] {
		return nil, &domain.ImageError{Kind: domain.UnsupportedExtension, Filename: filename}
	}

	decoded, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, &domain.ImageError{Kind: domain.DecodeError, Filename: filename, Detail: err.Error()}
	}
	return decoded, nil
}

// write persists new image bytes under the collection using a random token
// plus the slug-cased original filename, then records the reference.
func (s *Store) write(ctx context.Context, collection, filename string, data []byte) (*models.StoredImage, error) {
	ext := strings.ToLower(path.Ext(filename))
	stem := strings.TrimSuffix(path.Base(filename), path.Ext(filename))
	token := strings.ReplaceAll(uuid.New().String(), "-", "")[:16]

	blobPath := path.Join(collection, token+"_"+Slugify(stem)+ext)
	url, err := s.blobs.Write(blobPath, data)
	if err != nil {
		return nil, fmt.Errorf("store image %s: %w", filename, err)
	}

	img := &models.StoredImage{
		ID:         uuid.New().String(),
		Collection: collection,
		Path:       blobPath,
		URL:        url,
		Created:    s.now(),
	}
	if err := s.records.Create(ctx, img); err != nil {
		// Keep the store consistent: no record, no file.
		if delErr := s.blobs.Delete(blobPath); delErr != nil {
			s.logger.Error("orphaned blob after failed record insert", "path", blobPath, "error", delErr)
		}
		return nil, fmt.Errorf("record image %s: %w", filename, err)
	}

	return img, nil
}

// Remove deletes a stored image record, its blob and any cached crop
// variants derived from it. Missing records are logged, not fatal: a
// dangling reference must not block a replacement or a rollback.
func (s *Store) Remove(ctx context.Context, id string) {
	old, err := s.records.GetByID(ctx, id)
	if err != nil {
		s.logger.Warn("removed image record not found", "id", id)
		return
	}
	if err := s.records.Delete(ctx, id); err != nil {
		s.logger.Error("delete image record", "id", id, "error", err)
		return
	}
	if err := s.blobs.Delete(old.Path); err != nil {
		s.logger.Error("delete image blob", "path", old.Path, "error", err)
	}

	ext := path.Ext(old.Path)
	stem := strings.TrimSuffix(old.Path, ext)
	variants, err := s.blobs.Glob(stem + "_crop_*" + ext)
	if err != nil {
		s.logger.Error("list crop variants", "path", old.Path, "error", err)
		return
	}
	for _, variant := range variants {
		if err := s.blobs.Delete(variant); err != nil {
			s.logger.Error("delete crop variant", "path", variant, "error", err)
		}
	}
}

// SaveFile decodes a standalone payload (template thumbnails) and writes it
// under the given collection with a fixed name, returning the URL. No
// record is kept; the template row owns the reference.
func (s *Store) SaveFile(collection, name, data string) (string, error) {
	filename := name + ".jpg"
	decoded, err := s.decodePayload(data, filename)
	if err != nil {
		return "", err
	}
	url, err := s.blobs.Write(path.Join(collection, Slugify(name)+".jpg"), decoded)
	if err != nil {
		return "", fmt.Errorf("store file %s: %w", filename, err)
	}
	return url, nil
}

// NormalizedLeaf is the persisted form of an image leaf: reference only,
// payload keys explicitly nulled.
func NormalizedLeaf(img *models.StoredImage) fieldtree.Params {
	return fieldtree.Params{
		"id":       img.ID,
		"filename": nil,
		"data":     nil,
		"url":      img.URL,
	}
}
