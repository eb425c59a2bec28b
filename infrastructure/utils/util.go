package utils

import (
	"time"

	"catalog-sync/infrastructure/logger"

	"github.com/golang-jwt/jwt"
)

// SignTriggerToken mints an HS256 job trigger token for subject that expires
// ttl after now. Schedulers send it instead of the raw cron secret.
func SignTriggerToken(secret, subject string, ttl time.Duration, now time.Time) (string, error) {
	claims := jwt.StandardClaims{
		Subject:   subject,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(ttl).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Error while signing trigger token")
		return "", err
	}
	return token, nil
}
