package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"shiftreport.com/shiftreport/security"
	"shiftreport.com/shiftreport/web/common"
)

const claimsKey = "claims"

func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// Authentication checks for a valid, unrevoked Bearer access token.
func Authentication(issuer *security.TokenIssuer, blacklist security.TokenBlacklist) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, ok := bearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, common.NewErrorResponse("authentication credentials were not provided"))
			return
		}

		claims, err := issuer.Parse(tokenStr, security.AccessToken)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, common.NewErrorResponse(err.Error()))
			return
		}

		revoked, err := blacklist.IsRevoked(c.Request.Context(), claims.ID)
		if err != nil {
			_ = c.Error(err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, common.NewErrorResponse("internal server error"))
			return
		}
		if revoked {
			c.AbortWithStatusJSON(http.StatusUnauthorized, common.NewErrorResponse("token has been revoked"))
			return
		}

		// Pass claims into context
		c.Set(claimsKey, claims)
		c.Next()
	}
}

// Identity returns the claims stored by Authentication, or nil.
func Identity(c *gin.Context) *security.IdentityClaims {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*security.IdentityClaims)
	return claims
}
