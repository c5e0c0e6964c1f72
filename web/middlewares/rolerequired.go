package middlewares

import (
	"slices"

	"github.com/gin-gonic/gin"

	"shiftreport.com/shiftreport/core"
	"shiftreport.com/shiftreport/model"
	"shiftreport.com/shiftreport/web/common"
)

const userKey = "user"

// RequireRole admits callers whose stored role is one of roles. The role is read
// from the database so a role change applies to tokens already issued.
func RequireRole(users *core.UserDirectory, roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := users.GetCurrentUser(c.Request.Context(), Identity(c))
		if err != nil {
			common.RespondError(c, err)
			c.Abort()
			return
		}
		if !slices.Contains(roles, user.Role) {
			common.RespondError(c, core.ErrAuthorization)
			c.Abort()
			return
		}
		c.Set(userKey, user)
		c.Next()
	}
}
