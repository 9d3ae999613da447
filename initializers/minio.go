package initializers

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"gopkg.in/yaml.v3"
)

type StorageConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	MaxSize   int64
	FileTypes []string
	Expiry    time.Duration
}

var MinioClient *minio.Client
var Conf StorageConfig

// uploadsPolicy is the optional YAML policy file. When present it
// overrides the environment for upload-related settings.
type uploadsPolicy struct {
	MaxFileSize        int64    `yaml:"max_file_size"`
	AllowedFileTypes   []string `yaml:"allowed_file_types"`
	PresignedURLExpiry int      `yaml:"presigned_url_expiry"` // seconds
}

func loadUploadsPolicy() (*uploadsPolicy, error) {
	path := strings.TrimSpace(os.Getenv("UPLOADS_CONFIG_FILE"))
	if path == "" {
		path = "config/uploads.yaml"
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var p uploadsPolicy
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// InitMinio configures the object storage client and ensures the bucket
// exists. Attachments (seating charts, roster files) live here.
func InitMinio() error {
	Conf = StorageConfig{
		Endpoint:  os.Getenv("MINIO_ENDPOINT"),
		AccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		SecretKey: os.Getenv("MINIO_SECRET_KEY"),
		Bucket:    os.Getenv("MINIO_BUCKET"),
		UseSSL:    strings.EqualFold(os.Getenv("MINIO_USE_SSL"), "true"),
		MaxSize:   envInt64("MAX_FILE_SIZE", 10485760),
		FileTypes: envFileTypes("ALLOWED_FILE_TYPES"),
		Expiry:    time.Duration(envInt64("PRESIGNED_URL_EXPIRY", 3600)) * time.Second,
	}

	if p, err := loadUploadsPolicy(); err == nil && p != nil {
		if p.MaxFileSize > 0 {
			Conf.MaxSize = p.MaxFileSize
		}
		if len(p.AllowedFileTypes) > 0 {
			Conf.FileTypes = p.AllowedFileTypes
		}
		if p.PresignedURLExpiry > 0 {
			Conf.Expiry = time.Duration(p.PresignedURLExpiry) * time.Second
		}
	}

	client, err := minio.New(Conf.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(Conf.AccessKey, Conf.SecretKey, ""),
		Secure: Conf.UseSSL,
	})
	if err != nil {
		return err
	}
	MinioClient = client

	exists, err := client.BucketExists(context.Background(), Conf.Bucket)
	if err != nil {
		return err
	}
	if !exists {
		if err := client.MakeBucket(context.Background(), Conf.Bucket, minio.MakeBucketOptions{}); err != nil {
			return err
		}
	}
	return nil
}

func envInt64(key string, def int64) int64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return def
	}
	return v
}

func envFileTypes(key string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return []string{"image/jpeg", "image/png", "application/pdf", "text/csv"}
	}
	return strings.Split(raw, ",")
}

func baseMIME(mime string) string {
	return strings.TrimSpace(strings.Split(mime, ";")[0])
}

// CheckFileAllowed validates size and MIME type against the policy.
func CheckFileAllowed(size int64, mime string) error {
	if size > Conf.MaxSize {
		return fmt.Errorf("file size exceeds the limit")
	}
	incoming := baseMIME(mime)
	for _, t := range Conf.FileTypes {
		if baseMIME(t) == incoming {
			return nil
		}
	}
	return fmt.Errorf("file type is not allowed")
}

// GenerateAttachmentURL returns a presigned download URL for an object.
func GenerateAttachmentURL(id, fileName string) (string, error) {
	params := make(url.Values)
	params.Set("response-content-disposition", fmt.Sprintf("inline; filename=%q", sanitizeFilename(fileName)))
	presigned, err := MinioClient.PresignedGetObject(context.Background(), Conf.Bucket, id, Conf.Expiry, params)
	if err != nil {
		return "", fmt.Errorf("failed to create presigned url: %w", err)
	}
	return presigned.String(), nil
}

func sanitizeFilename(name string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r < 32 || r == 127:
			return -1
		case r == '"' || r == '\\' || r == '/':
			return -1
		}
		return r
	}, name)
	cleaned = strings.ReplaceAll(cleaned, "..", "")
	cleaned = strings.Join(strings.Fields(cleaned), " ")
	if cleaned == "" {
		return "file"
	}
	return cleaned
}
