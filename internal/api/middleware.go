package api

import (
	"context"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/random"
	"github.com/sinanour/cultivate-sub001/internal/domain"
	"github.com/sinanour/cultivate-sub001/internal/pkg/constants"
	"github.com/spf13/viper"
)

// RequestIDMiddleware tags every request with an id carried in the request
// context for log correlation.
func RequestIDMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		reqID := ctx.Request().Header.Get(echo.HeaderXRequestID)
		if reqID == "" {
			reqID = random.String(16)
		}
		ctx.Response().Header().Set(echo.HeaderXRequestID, reqID)

		reqCtx := context.WithValue(ctx.Request().Context(), constants.CtxKeyRequestID, reqID)
		ctx.SetRequest(ctx.Request().WithContext(reqCtx))
		return next(ctx)
	}
}

// AuthMiddleware decodes the caller's bearer token into their authorized-area
// set. The area list in the claims is already descendant-expanded and
// deny-subtracted by the identity service; it is carried opaquely from here on.
func (svc *APIService) AuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		header := ctx.Request().Header.Get(echo.HeaderAuthorization)
		if !strings.HasPrefix(header, "Bearer ") {
			return constants.ErrUnauthorized
		}

		token, err := jwt.Parse(strings.TrimPrefix(header, "Bearer "), func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return []byte(viper.GetString(constants.ViperKeyJWTSecret)), nil
		})
		if err != nil || !token.Valid {
			return constants.ErrUnauthorized
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return constants.ErrUnauthorized
		}

		restricted, _ := claims[constants.ClaimGeoRestricted].(bool)
		var areaIDs []string
		if raw, ok := claims[constants.ClaimAuthorizedAreaIDs].([]any); ok {
			for _, v := range raw {
				if id, ok := v.(string); ok {
					areaIDs = append(areaIDs, id)
				}
			}
		}

		ctx.Set(constants.CtxKeyAuthorizedAreas, domain.NewAuthorizedAreas(areaIDs, restricted))
		return next(ctx)
	}
}
