package services

import (
	"context"
	"fmt"
	"mime/multipart"
	"os"
	"path"
	"strconv"
	"time"

	"github.com/minio/minio-go/v7"

	"foodcourt_back_end/internal/database"
)

// UploadMenuImage stocke l'image d'un plat dans MinIO et retourne son URL
func UploadMenuImage(ctx context.Context, menuItemID int64, file *multipart.FileHeader) (string, error) {
	if database.MinIO == nil {
		return "", fmt.Errorf("MinIO non initialisé")
	}

	f, err := file.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()

	bucket := os.Getenv("MINIO_BUCKET")
	if bucket == "" {
		bucket = "foodcourt-images"
	}

	// Nom d'objet stable par plat pour que le remplacement écrase l'ancien
	objectName := path.Join("menu",
		strconv.FormatInt(menuItemID, 10)+path.Ext(file.Filename))

	_, err = database.MinIO.PutObject(ctx, bucket, objectName, f, file.Size,
		minio.PutObjectOptions{ContentType: file.Header.Get("Content-Type")})
	if err != nil {
		return "", err
	}

	scheme := "http"
	if os.Getenv("MINIO_USE_SSL") == "true" {
		scheme = "https"
	}
	url := fmt.Sprintf("%s://%s/%s/%s?v=%d",
		scheme, os.Getenv("MINIO_ENDPOINT"), bucket, objectName, time.Now().Unix())
	return url, nil
}
