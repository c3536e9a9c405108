package service

import (
	"github.com/huayan-lab/labtrack/internal/config"
	"github.com/huayan-lab/labtrack/internal/lab/repository"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/redis/go-redis/v9"
)

// Services 服务集合
type Services struct {
	Auth        *AuthService
	Material    *MaterialService
	Record      *RecordService
	Quote       *QuoteService
	Certificate *CertificateService
	Dashboard   *DashboardService
	Export      *ExportService
}

// NewServices 创建服务集合
func NewServices(repos *repository.Repositories, rdb *redis.Client, cfg *config.Config) *Services {
	// 初始化MinIO客户端。连不上不阻断启动，证书上传会返回错误。
	var minioClient *minio.Client
	if cfg.MinIO.Endpoint != "" {
		var err error
		minioClient, err = minio.New(cfg.MinIO.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.MinIO.AccessKey, cfg.MinIO.SecretKey, ""),
			Secure: cfg.MinIO.UseSSL,
		})
		if err != nil {
			minioClient = nil
		}
	}

	materialSvc := NewMaterialService(repos.Material, repos.Record, repos.Quote, repos.Certificate, repos.ActivityLog)

	return &Services{
		Auth:        NewAuthService(repos.User, rdb, cfg),
		Material:    materialSvc,
		Record:      NewRecordService(repos.Record, repos.Material, repos.ActivityLog),
		Quote:       NewQuoteService(repos.Quote, repos.Material, repos.ActivityLog),
		Certificate: NewCertificateService(repos.Certificate, repos.Material, repos.ActivityLog, minioClient, cfg.MinIO.Bucket),
		Dashboard:   NewDashboardService(repos.Material, rdb),
		Export:      NewExportService(repos.Material),
	}
}
