package middleware

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"catalog-sync/domain/dto"
	"catalog-sync/infrastructure/logger"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt"
)

// CronAuth guards job triggers. A request passes when its bearer token equals
// secret or is an HS256 JWT signed with it. An empty secret disables the check.
func CronAuth(secret string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if secret == "" {
			ctx.Next()
			return
		}
		res := dto.Res{ResponseCode: "401", ResponseMessage: "Unauthorized"}

		token, ok := strings.CutPrefix(ctx.GetHeader("Authorization"), "Bearer ")
		if !ok || token == "" {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, res)
			return
		}
		if subtle.ConstantTimeCompare([]byte(token), []byte(secret)) == 1 {
			ctx.Set("cron_subject", "secret")
			ctx.Next()
			return
		}

		claims, parsed, err := getClaim(token, secret)
		if err == nil && parsed != nil && parsed.Valid {
			ctx.Set("cron_subject", claims.Subject)
			ctx.Next()
			return
		}
		res.ResponseMessage = reason(err)
		logger.GetLogger().
			WithField("path", ctx.FullPath()).
			WithField("reason", res.ResponseMessage).
			Warn("rejected job trigger")
		ctx.AbortWithStatusJSON(http.StatusUnauthorized, res)
	}
}

func reason(err error) string {
	var ve *jwt.ValidationError
	if errors.As(err, &ve) {
		switch {
		case ve.Errors&jwt.ValidationErrorMalformed != 0:
			return "That's not even a token"
		case ve.Errors&(jwt.ValidationErrorExpired|jwt.ValidationErrorNotValidYet) != 0:
			// expired or not active yet
			return "Timing is everything"
		}
	}
	if err != nil {
		return fmt.Sprintf("Couldn't handle this token: %v", err)
	}
	return "Unauthorized"
}

func getClaim(token, secretKey string) (jwt.StandardClaims, *jwt.Token, error) {
	var claims jwt.StandardClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secretKey), nil
	})
	return claims, parsed, err
}
