package services

import (
	"context"
	"fmt"
	"mime/multipart"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"

	"astromania_back_end/internal/database"
)

func imageBucket() string {
	if b := os.Getenv("MINIO_BUCKET"); b != "" {
		return b
	}
	return "astromania-images"
}

// UploadImage pousse un fichier multipart vers MinIO et rend l'URL publique
// et la clé objet (pour la suppression future).
func UploadImage(ctx context.Context, prefix string, file *multipart.FileHeader) (string, string, error) {
	if database.MinIO == nil {
		return "", "", fmt.Errorf("MinIO non initialisé")
	}

	f, err := file.Open()
	if err != nil {
		return "", "", err
	}
	defer f.Close()

	// Clé unique : jamais réutiliser le nom du fichier client tel quel
	objectKey := fmt.Sprintf("%s/%s%s", prefix, uuid.NewString(), filepath.Ext(file.Filename))

	_, err = database.MinIO.PutObject(ctx, imageBucket(), objectKey, f, file.Size,
		minio.PutObjectOptions{ContentType: file.Header.Get("Content-Type")})
	if err != nil {
		return "", "", err
	}

	scheme := "http"
	if os.Getenv("MINIO_USE_SSL") == "true" {
		scheme = "https"
	}
	url := fmt.Sprintf("%s://%s/%s/%s", scheme, os.Getenv("MINIO_ENDPOINT"), imageBucket(), objectKey)
	return url, objectKey, nil
}

// DeleteImage supprime un objet du bucket d'images
func DeleteImage(ctx context.Context, objectKey string) error {
	if database.MinIO == nil || objectKey == "" {
		return nil
	}
	return database.MinIO.RemoveObject(ctx, imageBucket(), objectKey, minio.RemoveObjectOptions{})
}
