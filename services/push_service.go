package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awssns "github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/goccy/go-json"
	"github.com/skayplayerv1-cmyk/app-caloria-fotografica/models"
	"gorm.io/gorm"
)

// snsPublisher is the slice of the SNS client the push service uses.
type snsPublisher interface {
	CreatePlatformEndpoint(ctx context.Context, in *awssns.CreatePlatformEndpointInput, optFns ...func(*awssns.Options)) (*awssns.CreatePlatformEndpointOutput, error)
	Publish(ctx context.Context, in *awssns.PublishInput, optFns ...func(*awssns.Options)) (*awssns.PublishOutput, error)
}

type PushService struct {
	db          *gorm.DB
	sns         snsPublisher
	platformArn string
}

// NewPushService builds an SNS-backed push sender. An empty platformArn keeps the service
// usable for device toggling but RegisterDevice fails with ErrPushNotConfigured.
func NewPushService(ctx context.Context, db *gorm.DB, region, platformArn string) (*PushService, error) {
	if region == "" {
		region = "ap-south-1"
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &PushService{
		db:          db,
		sns:         awssns.NewFromConfig(cfg),
		platformArn: platformArn,
	}, nil
}

func tokenHash(tok string) string {
	h := sha256.Sum256([]byte(tok))
	return hex.EncodeToString(h[:])
}

func (p *PushService) appArn(platform string) (string, error) {
	switch strings.ToLower(platform) {
	case "android", "ios":
		// both go through the FCM platform application
		if p.platformArn == "" {
			return "", ErrPushNotConfigured
		}
		return p.platformArn, nil
	default:
		return "", ErrInvalidPlatform
	}
}

func (p *PushService) RegisterDevice(ctx context.Context, userID, platform, token string) (*models.UserDevice, error) {
	appArn, err := p.appArn(platform)
	if err != nil {
		return nil, err
	}

	out, err := p.sns.CreatePlatformEndpoint(ctx, &awssns.CreatePlatformEndpointInput{
		PlatformApplicationArn: aws.String(appArn),
		Token:                  aws.String(token),
	})
	if err != nil {
		return nil, fmt.Errorf("create sns endpoint: %w", err)
	}

	hash := tokenHash(token)
	var existing models.UserDevice
	err = p.db.WithContext(ctx).Where("user_id = ? AND token_hash = ?", userID, hash).First(&existing).Error
	switch {
	case err == nil:
		existing.EndpointARN = aws.ToString(out.EndpointArn)
		existing.Platform = strings.ToLower(platform)
		existing.Enabled = true
		existing.UpdatedAt = time.Now()
		if err := p.db.WithContext(ctx).Save(&existing).Error; err != nil {
			return nil, err
		}
		return &existing, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}

	dev := &models.UserDevice{
		UserID:      userID,
		Platform:    strings.ToLower(platform),
		TokenHash:   hash,
		EndpointARN: aws.ToString(out.EndpointArn),
		Enabled:     true,
	}
	if err := p.db.WithContext(ctx).Create(dev).Error; err != nil {
		return nil, err
	}
	return dev, nil
}

// SetNotifications enables or disables every device of the user and returns how many changed.
func (p *PushService) SetNotifications(ctx context.Context, userID string, enabled bool) (int64, error) {
	res := p.db.WithContext(ctx).
		Model(&models.UserDevice{}).
		Where("user_id = ?", userID).
		Updates(map[string]any{"enabled": enabled, "updated_at": time.Now()})
	return res.RowsAffected, res.Error
}

func (p *PushService) PushToUser(ctx context.Context, userID, title, body string, data map[string]string) {
	var devices []models.UserDevice
	if err := p.db.WithContext(ctx).Where("user_id = ? AND enabled = ?", userID, true).Find(&devices).Error; err != nil {
		slog.WarnContext(ctx, "load push devices failed", "user_id", userID, "err", err)
		return
	}
	if len(devices) == 0 {
		return
	}

	gcm, _ := json.Marshal(map[string]any{
		"notification": map[string]string{"title": title, "body": body},
		"data":         data,
	})
	raw, _ := json.Marshal(map[string]string{
		"default": body,
		"GCM":     string(gcm),
	})

	for _, d := range devices {
		_, err := p.sns.Publish(ctx, &awssns.PublishInput{
			MessageStructure: aws.String("json"),
			Message:          aws.String(string(raw)),
			TargetArn:        aws.String(d.EndpointARN),
		})
		if err != nil {
			slog.WarnContext(ctx, "sns publish failed", "user_id", userID, "endpoint", d.EndpointARN, "err", err)
		}
	}
}
