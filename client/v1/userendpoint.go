package v1

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"shiftreport.com/shiftreport/model"
	"shiftreport.com/shiftreport/web/handlers/users"
)

type UserEndpoint struct {
	transport *Transport
}

func (e *UserEndpoint) Register(ctx context.Context, dto *users.CreateUserDTO) (*model.User, error) {
	resp, err := e.transport.Post(ctx, "/users/", dto)
	if err != nil {
		return nil, err
	}
	return decode[model.User](resp)
}

func (e *UserEndpoint) Me(ctx context.Context) (*model.User, error) {
	resp, err := e.transport.Get(ctx, "/users/me/", nil)
	if err != nil {
		return nil, err
	}
	return decode[model.User](resp)
}

func (e *UserEndpoint) UpdateMe(ctx context.Context, dto *users.UpdateUserDTO) (*model.User, error) {
	resp, err := e.transport.Do(ctx, "PATCH", "/users/me/", dto, nil)
	if err != nil {
		return nil, err
	}
	return decode[model.User](resp)
}

func (e *UserEndpoint) Update(ctx context.Context, id uuid.UUID, dto *users.UpdateUserDTO) (*model.User, error) {
	resp, err := e.transport.Do(ctx, "PATCH", fmt.Sprintf("/users/%s/", id), dto, nil)
	if err != nil {
		return nil, err
	}
	return decode[model.User](resp)
}

// ListByRole calls /employees/, /supervisors/ or /managers/.
func (e *UserEndpoint) ListByRole(ctx context.Context, role model.Role) ([]model.User, error) {
	resp, err := e.transport.Get(ctx, fmt.Sprintf("/%ss/", role), nil)
	if err != nil {
		return nil, err
	}
	out, err := decode[[]model.User](resp)
	if err != nil {
		return nil, err
	}
	return *out, nil
}
