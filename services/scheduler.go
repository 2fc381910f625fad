// services/scheduler.go
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/gosimple/slug"
	"github.com/sirupsen/logrus"
)

// UploadFunc stores body under key and returns its public URL.
type UploadFunc func(ctx context.Context, key string, body []byte) (string, error)

// ArchiveKey names the object a state dump is archived under.
func ArchiveKey(arenaName string, at time.Time) string {
	return fmt.Sprintf("snapshots/%s/%s.json", slug.Make(arenaName), at.UTC().Format("20060102T150405Z"))
}

// ArchiveSnapshot uploads the current state dump once.
func ArchiveSnapshot(ctx context.Context, actor *Actor, arenaName string, upload UploadFunc) (string, error) {
	state, err := actor.Snapshot(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to take snapshot: %w", err)
	}
	body, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode snapshot: %w", err)
	}
	url, err := upload(ctx, ArchiveKey(arenaName, time.Now()), body)
	RecordSnapshot("r2", err)
	if err != nil {
		return "", err
	}
	return url, nil
}

// StartArchiveScheduler archives the state dump every interval.
func StartArchiveScheduler(actor *Actor, arenaName string, interval time.Duration, upload UploadFunc, log *logrus.Entry) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()

			url, err := ArchiveSnapshot(ctx, actor, arenaName, upload)
			if err != nil {
				log.WithError(err).Error("[Scheduler] ❌ failed to archive arena state")
				return
			}
			log.WithField("url", url).Info("[Scheduler] ✅ arena state archived")
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to schedule archive job: %w", err)
	}

	sched.Start()
	return sched, nil
}
