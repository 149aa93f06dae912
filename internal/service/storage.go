package service

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"clm-server/internal/config"
	"clm-server/internal/pkg/utils"
)

// UploadTarget 预签名上传目标
type UploadTarget struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// ObjectStorage 合同文件存储接口
type ObjectStorage interface {
	ObjectExists(ctx context.Context, key string) (bool, error)
	PresignUpload(ctx context.Context, key string) (*UploadTarget, error)
	PresignDownload(ctx context.Context, key string) (string, error)
	DeleteObject(ctx context.Context, key string) error
}

// S3Storage 基于 S3 的文件存储
type S3Storage struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
	expiry  time.Duration
}

// NewS3Storage 创建 S3 存储服务
func NewS3Storage(cfg *config.StorageConfig) (*S3Storage, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID, cfg.SecretAccessKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("加载 S3 配置失败: %w", err)
	}

	client := s3.NewFromConfig(awsCfg)
	return &S3Storage{
		client:  client,
		presign: s3.NewPresignClient(client),
		bucket:  cfg.Bucket,
		expiry:  time.Duration(cfg.PresignExpiry) * time.Second,
	}, nil
}

// ObjectExists 检查对象是否已上传
func (s *S3Storage) ObjectExists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// PresignUpload 生成预签名上传链接，key 为空时自动生成唯一对象键
func (s *S3Storage) PresignUpload(ctx context.Context, key string) (*UploadTarget, error) {
	if key == "" {
		key = generateObjectKey()
	}

	req, err := s.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.expiry))
	if err != nil {
		return nil, fmt.Errorf("生成上传链接失败: %w", err)
	}

	return &UploadTarget{Key: key, URL: req.URL}, nil
}

// PresignDownload 生成预签名下载链接
func (s *S3Storage) PresignDownload(ctx context.Context, key string) (string, error) {
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.expiry))
	if err != nil {
		return "", fmt.Errorf("生成下载链接失败: %w", err)
	}
	return req.URL, nil
}

// DeleteObject 删除对象
func (s *S3Storage) DeleteObject(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	return err
}

// generateObjectKey 生成唯一对象键
func generateObjectKey() string {
	name := fmt.Sprintf("%s-%d.pdf", utils.GenerateUUID(), time.Now().Unix())
	return path.Join("contracts", name)
}

// SanitizeObjectKey 规范化调用方提供的对象键，防止路径穿越
func SanitizeObjectKey(key string) string {
	key = strings.TrimPrefix(path.Clean("/"+key), "/")
	return key
}
