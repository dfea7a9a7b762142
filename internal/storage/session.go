package storage

import (
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog/log"

	"github.com/charleshuang3/errgate/internal/gormw"
	"github.com/charleshuang3/errgate/internal/models"
)

var (
	logger = log.With().Str("component", "storage").Logger()
)

func CreateSession(db *gormw.DB, session *models.Session) error {
	return db.Create(session).Error
}

func GetSessionByToken(db *gormw.DB, token string) (*models.Session, error) {
	s := &models.Session{}
	err := db.Where("token = ?", token).First(&s).Error
	return s, err
}

func RevokeSession(db *gormw.DB, token string) error {
	return db.Model(&models.Session{Token: token}).Update("revoked", true).Error
}

// Session rows will exists in database forever if not register a cleaner.
func RegisterSessionsCleaner(scheduler gocron.Scheduler, db *gormw.DB) {
	_, _ = scheduler.NewJob(
		gocron.CronJob(
			// 4am Daily
			"0 4 * * *",
			false,
		),
		gocron.NewTask(
			func() {
				logger.Info().Msg("Cleaning up expired sessions")
				yesterday := time.Now().AddDate(0, 0, -1)
				db.Where("expires_at < ?", yesterday).Delete(&models.Session{})
			},
		),
	)
}
