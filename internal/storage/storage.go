package storage

import "fmt"

// Storage 面单等文件的存储接口，返回可供下载的路径或URL
type Storage interface {
	Save(path string, data []byte, contentType string) (string, error)
}

// Config 存储后端配置
type Config struct {
	Backend            string // local / s3 / gcs
	LocalPath          string
	S3Region           string
	S3Bucket           string
	GCSProjectID       string
	GCSBucketName      string
	GCSCredentialsFile string
}

// New 根据配置选择存储后端，默认使用本地存储
func New(cfg Config) (Storage, error) {
	switch cfg.Backend {
	case "s3":
		return NewS3Client(cfg.S3Region, cfg.S3Bucket)
	case "gcs":
		return NewGCSClient(cfg.GCSProjectID, cfg.GCSBucketName, cfg.GCSCredentialsFile)
	case "local", "":
		return NewLocalStorage(cfg.LocalPath)
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.Backend)
	}
}
