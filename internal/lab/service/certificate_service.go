package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/huayan-lab/labtrack/internal/lab/entity"
	"github.com/huayan-lab/labtrack/internal/lab/repository"
	"github.com/minio/minio-go/v7"
)

// ErrStorageUnavailable 对象存储不可用
var ErrStorageUnavailable = errors.New("object storage not configured")

// CertificateService 终审记录与证书服务。证书文件进对象存储，
// 数据库只存编号和存储key。
type CertificateService struct {
	repo        *repository.CertificateRepository
	material    *repository.MaterialRepository
	activity    *repository.ActivityLogRepository
	minioClient *minio.Client
	bucketName  string
}

// NewCertificateService 创建证书服务
func NewCertificateService(
	repo *repository.CertificateRepository,
	material *repository.MaterialRepository,
	activity *repository.ActivityLogRepository,
	minioClient *minio.Client,
	bucketName string,
) *CertificateService {
	return &CertificateService{
		repo:        repo,
		material:    material,
		activity:    activity,
		minioClient: minioClient,
		bucketName:  bucketName,
	}
}

// CreateApprovalRequest 创建终审记录请求
type CreateApprovalRequest struct {
	Decision string `json:"decision" binding:"required"` // approved/rejected
	Comment  string `json:"comment"`
}

// CreateApproval 为材料建终审记录
func (s *CertificateService) CreateApproval(ctx context.Context, materialID, userID string, req *CreateApprovalRequest) (*entity.ApprovalRecord, error) {
	m, err := s.material.FindByID(ctx, materialID)
	if err != nil {
		return nil, err
	}

	approval := &entity.ApprovalRecord{
		ID:         uuid.New().String()[:32],
		MaterialID: m.ID,
		Stage:      m.Stage,
		Decision:   req.Decision,
		Comment:    req.Comment,
		ApprovedBy: userID,
	}

	if err := s.repo.CreateApproval(ctx, approval); err != nil {
		return nil, fmt.Errorf("创建终审记录失败: %w", err)
	}

	s.activity.LogActivity(ctx, "approval", approval.ID, m.Code, "record_create",
		fmt.Sprintf("终审: %s", req.Decision), userID, "")

	return approval, nil
}

// ListApprovals 材料的终审记录
func (s *CertificateService) ListApprovals(ctx context.Context, materialID string) ([]entity.ApprovalRecord, error) {
	return s.repo.FindApprovals(ctx, materialID)
}

// Upload 上传证书文件并建档
func (s *CertificateService) Upload(ctx context.Context, materialID, userID string, reader io.Reader, fileName string, fileSize int64, contentType string) (*entity.Certificate, error) {
	m, err := s.material.FindByID(ctx, materialID)
	if err != nil {
		return nil, err
	}

	if s.minioClient == nil {
		return nil, ErrStorageUnavailable
	}

	certNo, err := s.repo.GenerateCertNo(ctx)
	if err != nil {
		return nil, fmt.Errorf("生成证书编号失败: %w", err)
	}

	objectName := fmt.Sprintf("certificates/%s/%s%s",
		time.Now().Format("2006/01/02"), uuid.New().String()[:8], filepath.Ext(fileName))

	_, err = s.minioClient.PutObject(ctx, s.bucketName, objectName, reader, fileSize, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return nil, fmt.Errorf("上传证书文件失败: %w", err)
	}

	cert := &entity.Certificate{
		ID:         uuid.New().String()[:32],
		MaterialID: m.ID,
		CertNo:     certNo,
		FileName:   fileName,
		FileKey:    objectName,
		FileSize:   fileSize,
		MimeType:   contentType,
		IssuedBy:   userID,
	}

	if err := s.repo.CreateCertificate(ctx, cert); err != nil {
		return nil, fmt.Errorf("创建证书记录失败: %w", err)
	}

	s.activity.LogActivity(ctx, "certificate", cert.ID, m.Code, "record_create",
		fmt.Sprintf("签发证书: %s", certNo), userID, "")

	return cert, nil
}

// List 材料的证书列表
func (s *CertificateService) List(ctx context.Context, materialID string) ([]entity.Certificate, error) {
	return s.repo.FindCertificates(ctx, materialID)
}

// Download 下载证书文件
func (s *CertificateService) Download(ctx context.Context, id string) (*entity.Certificate, io.ReadCloser, error) {
	cert, err := s.repo.FindCertificateByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	if s.minioClient == nil {
		return nil, nil, ErrStorageUnavailable
	}

	object, err := s.minioClient.GetObject(ctx, s.bucketName, cert.FileKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, nil, fmt.Errorf("读取证书文件失败: %w", err)
	}

	return cert, object, nil
}
