package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/huayan-lab/labtrack/internal/lab/entity"
	"gorm.io/gorm"
)

// CertificateRepository 终审记录与证书仓库
type CertificateRepository struct {
	db *gorm.DB
}

func NewCertificateRepository(db *gorm.DB) *CertificateRepository {
	return &CertificateRepository{db: db}
}

// CreateApproval 创建终审记录
func (r *CertificateRepository) CreateApproval(ctx context.Context, approval *entity.ApprovalRecord) error {
	return r.db.WithContext(ctx).Create(approval).Error
}

// FindApprovals 查询材料的终审记录
func (r *CertificateRepository) FindApprovals(ctx context.Context, materialID string) ([]entity.ApprovalRecord, error) {
	var approvals []entity.ApprovalRecord
	err := r.db.WithContext(ctx).
		Where("material_id = ?", materialID).
		Order("created_at ASC").
		Find(&approvals).Error
	return approvals, err
}

// CountApprovals 统计材料的终审记录数
func (r *CertificateRepository) CountApprovals(ctx context.Context, materialID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.ApprovalRecord{}).
		Where("material_id = ?", materialID).
		Count(&count).Error
	return count, err
}

// CreateCertificate 创建证书记录
func (r *CertificateRepository) CreateCertificate(ctx context.Context, cert *entity.Certificate) error {
	return r.db.WithContext(ctx).Create(cert).Error
}

// FindCertificateByID 根据ID查找证书
func (r *CertificateRepository) FindCertificateByID(ctx context.Context, id string) (*entity.Certificate, error) {
	var cert entity.Certificate
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&cert).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &cert, nil
}

// FindCertificates 查询材料的证书
func (r *CertificateRepository) FindCertificates(ctx context.Context, materialID string) ([]entity.Certificate, error) {
	var certs []entity.Certificate
	err := r.db.WithContext(ctx).
		Where("material_id = ?", materialID).
		Order("created_at ASC").
		Find(&certs).Error
	return certs, err
}

// GenerateCertNo 生成证书编号 CERT-{year}-{4位}
func (r *CertificateRepository) GenerateCertNo(ctx context.Context) (string, error) {
	year := time.Now().Format("2006")
	prefix := fmt.Sprintf("CERT-%s-", year)

	var maxNo string
	err := r.db.WithContext(ctx).
		Model(&entity.Certificate{}).
		Select("COALESCE(MAX(cert_no), '')").
		Where("cert_no LIKE ?", prefix+"%").
		Scan(&maxNo).Error
	if err != nil {
		return "", err
	}

	var seq int
	if maxNo != "" {
		fmt.Sscanf(maxNo, "CERT-"+year+"-%04d", &seq)
	}
	seq++
	return fmt.Sprintf("CERT-%s-%04d", year, seq), nil
}
