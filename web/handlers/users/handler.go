package users

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"shiftreport.com/shiftreport/core"
	"shiftreport.com/shiftreport/model"
	"shiftreport.com/shiftreport/web/common"
	"shiftreport.com/shiftreport/web/middlewares"
)

type CreateUserDTO struct {
	Username  string `json:"username" binding:"required,max=150"`
	Password  string `json:"password" binding:"required"`
	Role      string `json:"role" binding:"required,oneof=employee supervisor manager"`
	Name      string `json:"name" binding:"max=150"`
	FirstName string `json:"first_name" binding:"max=150"`
	LastName  string `json:"last_name" binding:"max=150"`
}

// UpdateUserDTO is a partial update. Role is only honoured on the manager endpoint.
type UpdateUserDTO struct {
	Username  *string `json:"username" binding:"omitempty,max=150"`
	Password  *string `json:"password"`
	Role      *string `json:"role" binding:"omitempty,oneof=employee supervisor manager"`
	Name      *string `json:"name" binding:"omitempty,max=150"`
	FirstName *string `json:"first_name" binding:"omitempty,max=150"`
	LastName  *string `json:"last_name" binding:"omitempty,max=150"`
}

func (d *UpdateUserDTO) update() core.UserUpdate {
	u := core.UserUpdate{
		Username:  d.Username,
		Password:  d.Password,
		Name:      d.Name,
		FirstName: d.FirstName,
		LastName:  d.LastName,
	}
	if d.Role != nil {
		role := model.Role(*d.Role)
		u.Role = &role
	}
	return u
}

type Endpoint struct {
	users *core.UserDirectory
}

// RegisterPublic mounts the open registration endpoint.
func RegisterPublic(r gin.IRoutes, users *core.UserDirectory) {
	endpoint := &Endpoint{users: users}
	r.POST("/users/", endpoint.Create)
}

// Register mounts the endpoints that need an authenticated caller.
func Register(r *gin.RouterGroup, users *core.UserDirectory) {
	endpoint := &Endpoint{users: users}
	r.GET("/users/me/", endpoint.Me)
	r.PUT("/users/me/", endpoint.UpdateMe)
	r.PATCH("/users/me/", endpoint.UpdateMe)
	r.GET("/users/:id/", endpoint.Get)

	managers := r.Group("/", middlewares.RequireRole(users, model.RoleManager))
	managers.PATCH("/users/:id/", endpoint.Update)
	managers.DELETE("/users/:id/", endpoint.Delete)

	r.GET("/employees/", endpoint.listByRole(model.RoleEmployee))
	r.GET("/supervisors/", endpoint.listByRole(model.RoleSupervisor))
	r.GET("/managers/", endpoint.listByRole(model.RoleManager))
}

func (ep *Endpoint) Create(c *gin.Context) {
	var body CreateUserDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		common.RespondBindingError(c, err)
		return
	}

	user, err := ep.users.CreateUser(c.Request.Context(), core.NewUser{
		Username:  body.Username,
		Password:  body.Password,
		Role:      model.Role(body.Role),
		Name:      body.Name,
		FirstName: body.FirstName,
		LastName:  body.LastName,
	})
	if err != nil {
		common.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (ep *Endpoint) Me(c *gin.Context) {
	user, err := ep.users.GetCurrentUser(c.Request.Context(), middlewares.Identity(c))
	if err != nil {
		common.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (ep *Endpoint) UpdateMe(c *gin.Context) {
	var body UpdateUserDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		common.RespondBindingError(c, err)
		return
	}
	if body.Role != nil {
		c.JSON(http.StatusForbidden, common.NewFieldErrorResponse("role", "You cannot change your own role."))
		return
	}

	me, err := ep.users.GetCurrentUser(c.Request.Context(), middlewares.Identity(c))
	if err != nil {
		common.RespondError(c, err)
		return
	}
	user, err := ep.users.UpdateUser(c.Request.Context(), me.ID, body.update())
	if err != nil {
		common.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (ep *Endpoint) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	user, err := ep.users.GetUser(c.Request.Context(), id)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (ep *Endpoint) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var body UpdateUserDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		common.RespondBindingError(c, err)
		return
	}
	user, err := ep.users.UpdateUser(c.Request.Context(), id, body.update())
	if err != nil {
		common.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (ep *Endpoint) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := ep.users.DeleteUser(c.Request.Context(), id); err != nil {
		common.RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (ep *Endpoint) listByRole(role model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		users, err := ep.users.ListByRole(c.Request.Context(), role)
		if err != nil {
			common.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, users)
	}
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, common.NewErrorResponse("Invalid id"))
		return uuid.Nil, false
	}
	return id, true
}
