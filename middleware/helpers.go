package middleware

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/golang-jwt/jwt/v4"
)

const jwtClaimSubject = "sub"

// ClaimsFromContext returns the claims stored by Authenticate.
func ClaimsFromContext(ctx context.Context) (jwt.MapClaims, bool) {
	claims, ok := ctx.Value(claimsContextKey).(jwt.MapClaims)
	return claims, ok
}

// SubjectFromContext returns the "sub" claim of the authenticated caller.
// Numeric subjects are formatted without a fraction.
func SubjectFromContext(ctx context.Context) (string, error) {
	claims, ok := ClaimsFromContext(ctx)
	if !ok {
		return "", errors.New("claims not found in context")
	}

	sub, ok := claims[jwtClaimSubject]
	if !ok {
		return "", fmt.Errorf("missing '%s' claim in token", jwtClaimSubject)
	}

	switch v := sub.(type) {
	case string:
		if v == "" {
			return "", fmt.Errorf("empty '%s' claim", jwtClaimSubject)
		}
		return v, nil
	case float64:
		if v != float64(int64(v)) {
			return "", fmt.Errorf("'%s' claim is not an integer: %f", jwtClaimSubject, v)
		}
		return strconv.FormatInt(int64(v), 10), nil
	default:
		return "", fmt.Errorf("invalid type for '%s' claim: %T", jwtClaimSubject, sub)
	}
}
