package cron

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/bizledger-backend/pkg/db"
	"github.com/angelmondragon/bizledger-backend/pkg/logger"
	"github.com/angelmondragon/bizledger-backend/pkg/metrics"
)

const (
	notificationRetentionJobName = "notification_retention"
	defaultRetentionDays         = 30
)

type notificationPurger interface {
	DeleteOlderThan(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error)
}

type NotificationRetentionJobParams struct {
	Logger        *logger.Logger
	DB            db.TxRunner
	Notifications notificationPurger
	Metrics       *metrics.CronJobMetrics
	RetentionDays int
}

// NotificationRetentionJob deletes notifications created before now minus the retention window.
type NotificationRetentionJob struct {
	logg      *logger.Logger
	db        db.TxRunner
	repo      notificationPurger
	metrics   *metrics.CronJobMetrics
	retention time.Duration
	now       func() time.Time
}

func NewNotificationRetentionJob(params NotificationRetentionJobParams) (*NotificationRetentionJob, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if params.Notifications == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	days := params.RetentionDays
	if days <= 0 {
		days = defaultRetentionDays
	}
	return &NotificationRetentionJob{
		logg:      params.Logger,
		db:        params.DB,
		repo:      params.Notifications,
		metrics:   params.Metrics,
		retention: time.Duration(days) * 24 * time.Hour,
		now:       time.Now,
	}, nil
}

func (j *NotificationRetentionJob) Name() string { return notificationRetentionJobName }

func (j *NotificationRetentionJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.retention)
	var deleted int64
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		n, err := j.repo.DeleteOlderThan(ctx, tx, cutoff)
		deleted = n
		return err
	})
	if err != nil {
		return fmt.Errorf("purge notifications before %s: %w", cutoff.Format(time.RFC3339), err)
	}

	j.metrics.AddDeleted(j.Name(), deleted)
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"cutoff":       cutoff,
		"rows_deleted": deleted,
	}), "notifications.purged")
	return nil
}
