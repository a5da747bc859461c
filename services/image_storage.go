package services

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// ErrInvalidImage signale un fichier qui n'est pas une image acceptée
var ErrInvalidImage = errors.New("image invalide")

// ErrImageTooLarge signale un fichier au-delà de la taille autorisée
var ErrImageTooLarge = errors.New("image trop volumineuse")

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// ImageStorage enregistre les images téléversées dans un répertoire servi sous /uploads/
type ImageStorage struct {
	dir      string
	maxBytes int64
}

// NewImageStorage crée le stockage et son répertoire racine
func NewImageStorage(dir string, maxMB int) (*ImageStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("impossible de créer %s: %w", dir, err)
	}
	if maxMB <= 0 {
		maxMB = 5
	}
	return &ImageStorage{dir: dir, maxBytes: int64(maxMB) << 20}, nil
}

// MaxBytes retourne la taille maximale d'une image
func (s *ImageStorage) MaxBytes() int64 {
	return s.maxBytes
}

// Dir retourne le répertoire racine
func (s *ImageStorage) Dir() string {
	return s.dir
}

// Save lit l'image, vérifie son type réel et l'écrit sous un nom aléatoire.
// Retourne l'URL publique (/uploads/<categorie>/<fichier>).
func (s *ImageStorage) Save(categorie string, r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("erreur lors de la lecture de l'image: %w", err)
	}
	if int64(len(data)) > s.maxBytes {
		return "", ErrImageTooLarge
	}

	ext, ok := imageExtensions[http.DetectContentType(data)]
	if !ok {
		return "", ErrInvalidImage
	}

	dir := filepath.Join(s.dir, categorie)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("impossible de créer %s: %w", dir, err)
	}

	name := uuid.NewString() + ext
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return "", fmt.Errorf("erreur lors de l'écriture de l'image: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, bytes.NewReader(data)); err != nil {
		return "", fmt.Errorf("erreur lors de l'écriture de l'image: %w", err)
	}

	url := "/uploads/" + categorie + "/" + name
	log.WithFields(log.Fields{"url": url, "taille": len(data)}).Info("🖼️  Image enregistrée")
	return url, nil
}
