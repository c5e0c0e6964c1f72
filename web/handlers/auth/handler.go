package auth

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"shiftreport.com/shiftreport/core"
	"shiftreport.com/shiftreport/security"
	"shiftreport.com/shiftreport/web/common"
)

type CredentialsDTO struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type RefreshDTO struct {
	Refresh string `json:"refresh" binding:"required"`
}

type AccessDTO struct {
	Access string `json:"access"`
}

type Endpoint struct {
	users     *core.UserDirectory
	issuer    *security.TokenIssuer
	blacklist security.TokenBlacklist
}

func Register(r gin.IRoutes, users *core.UserDirectory, issuer *security.TokenIssuer, blacklist security.TokenBlacklist) {
	endpoint := &Endpoint{users: users, issuer: issuer, blacklist: blacklist}
	r.POST("/token/", endpoint.Obtain)
	r.POST("/token/refresh/", endpoint.Refresh)
	r.POST("/token/blacklist/", endpoint.Blacklist)
}

func (ep *Endpoint) Obtain(c *gin.Context) {
	var body CredentialsDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		common.RespondBindingError(c, err)
		return
	}
	user, err := ep.users.Authenticate(c.Request.Context(), body.Username, body.Password)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	pair, err := ep.issuer.Issue(user)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, pair)
}

func (ep *Endpoint) Refresh(c *gin.Context) {
	claims, ok := ep.refreshClaims(c)
	if !ok {
		return
	}
	user, err := ep.users.GetCurrentUser(c.Request.Context(), claims)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	access, err := ep.issuer.IssueAccess(user)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, AccessDTO{Access: access})
}

// Blacklist revokes a refresh token until it would have expired.
func (ep *Endpoint) Blacklist(c *gin.Context) {
	claims, ok := ep.refreshClaims(c)
	if !ok {
		return
	}
	if err := ep.blacklist.Revoke(c.Request.Context(), claims.ID, claims.TTL(time.Now())); err != nil {
		common.RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (ep *Endpoint) refreshClaims(c *gin.Context) (*security.IdentityClaims, bool) {
	var body RefreshDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		common.RespondBindingError(c, err)
		return nil, false
	}
	claims, err := ep.issuer.Parse(body.Refresh, security.RefreshToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, common.NewErrorResponse(err.Error()))
		return nil, false
	}
	revoked, err := ep.blacklist.IsRevoked(c.Request.Context(), claims.ID)
	if err != nil {
		common.RespondError(c, err)
		return nil, false
	}
	if revoked {
		c.JSON(http.StatusUnauthorized, common.NewErrorResponse("token is blacklisted"))
		return nil, false
	}
	return claims, true
}
