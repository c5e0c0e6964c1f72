package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"shiftreport.com/shiftreport/model"
	"shiftreport.com/shiftreport/security"
)

type NewUser struct {
	Username  string
	Password  string
	Role      model.Role
	Name      string
	FirstName string
	LastName  string
}

// UserUpdate is a partial update; nil fields are left untouched.
type UserUpdate struct {
	Username  *string
	Password  *string
	Role      *model.Role
	Name      *string
	FirstName *string
	LastName  *string
}

type UserDirectory struct {
	dm *DatabaseManager
}

func NewUserDirectory(dm *DatabaseManager) *UserDirectory {
	return &UserDirectory{dm: dm}
}

func (d *UserDirectory) CreateUser(ctx context.Context, input NewUser) (*model.User, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" {
		return nil, invalid("username", "this field may not be blank")
	}
	if !input.Role.Valid() {
		return nil, invalid("role", "%q is not a valid choice", input.Role)
	}
	hash, err := security.HashPassword(input.Password)
	if err != nil {
		if errors.Is(err, security.ErrPasswordTooShort) {
			return nil, invalid("password", "%s", err.Error())
		}
		return nil, err
	}

	user := &model.User{
		Username:     username,
		PasswordHash: hash,
		Role:         input.Role,
		Name:         input.Name,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
	}

	err = d.dm.Transaction(ctx, func(tx *gorm.DB) error {
		if err := ensureUsernameFree(tx, username, uuid.Nil); err != nil {
			return err
		}
		if err := tx.Create(user).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return usernameTaken()
			}
			return fmt.Errorf("failed to create user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// GetCurrentUser resolves the caller's record from its token claims.
func (d *UserDirectory) GetCurrentUser(ctx context.Context, identity *security.IdentityClaims) (*model.User, error) {
	if identity == nil {
		return nil, ErrAuthentication
	}
	id, err := identity.UserID()
	if err != nil {
		return nil, ErrAuthentication
	}
	user, err := d.GetUser(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("%w: user no longer exists", ErrAuthentication)
	}
	return user, err
}

func (d *UserDirectory) GetUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	err := d.dm.Exec(ctx, func(db *gorm.DB) error {
		return db.First(&user, "id = ?", id).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return &user, nil
}

func (d *UserDirectory) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	err := d.dm.Exec(ctx, func(db *gorm.DB) error {
		return db.Where("username = ?", strings.TrimSpace(username)).First(&user).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("user %s: %w", username, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return &user, nil
}

// ListByRole returns every user holding role, ordered by username.
func (d *UserDirectory) ListByRole(ctx context.Context, role model.Role) ([]model.User, error) {
	if !role.Valid() {
		return nil, invalid("role", "%q is not a valid choice", role)
	}
	users := []model.User{}
	err := d.dm.Exec(ctx, func(db *gorm.DB) error {
		return db.Where("role = ?", role).Order("username, id").Find(&users).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (d *UserDirectory) UpdateUser(ctx context.Context, id uuid.UUID, input UserUpdate) (*model.User, error) {
	updates := map[string]interface{}{}
	if input.Username != nil {
		username := strings.TrimSpace(*input.Username)
		if username == "" {
			return nil, invalid("username", "this field may not be blank")
		}
		updates["username"] = username
	}
	if input.Password != nil {
		hash, err := security.HashPassword(*input.Password)
		if err != nil {
			if errors.Is(err, security.ErrPasswordTooShort) {
				return nil, invalid("password", "%s", err.Error())
			}
			return nil, err
		}
		updates["password_hash"] = hash
	}
	if input.Role != nil {
		if !input.Role.Valid() {
			return nil, invalid("role", "%q is not a valid choice", *input.Role)
		}
		updates["role"] = *input.Role
	}
	if input.Name != nil {
		updates["name"] = *input.Name
	}
	if input.FirstName != nil {
		updates["first_name"] = *input.FirstName
	}
	if input.LastName != nil {
		updates["last_name"] = *input.LastName
	}

	var user model.User
	err := d.dm.Transaction(ctx, func(tx *gorm.DB) error {
		if err := tx.First(&user, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("user %s: %w", id, ErrNotFound)
			}
			return err
		}
		if username, ok := updates["username"].(string); ok && username != user.Username {
			if err := ensureUsernameFree(tx, username, id); err != nil {
				return err
			}
		}
		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&user).Updates(updates).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return usernameTaken()
			}
			return fmt.Errorf("failed to update user: %w", err)
		}
		return tx.First(&user, "id = ?", id).Error
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// DeleteUser removes the user with its performance entries and supervisor links.
// Reports the user supervised are kept.
func (d *UserDirectory) DeleteUser(ctx context.Context, id uuid.UUID) error {
	return d.dm.Transaction(ctx, func(tx *gorm.DB) error {
		var user model.User
		if err := tx.First(&user, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("user %s: %w", id, ErrNotFound)
			}
			return err
		}
		for _, s := range model.Shifts {
			if err := tx.Table(s.PerformanceTable()).Where("employee_id = ?", id).Delete(&model.PerformanceEntry{}).Error; err != nil {
				return fmt.Errorf("failed to delete %s performance: %w", s, err)
			}
			if err := tx.Table(s.SupervisorTable()).Where("user_id = ?", id).Delete(&model.ReportSupervisor{}).Error; err != nil {
				return fmt.Errorf("failed to delete %s supervisor links: %w", s, err)
			}
		}
		return tx.Delete(&user).Error
	})
}

// Authenticate checks credentials. Unknown usernames and wrong passwords fail alike.
func (d *UserDirectory) Authenticate(ctx context.Context, username, password string) (*model.User, error) {
	user, err := d.GetByUsername(ctx, username)
	if errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("%w: no active account found with the given credentials", ErrAuthentication)
	}
	if err != nil {
		return nil, err
	}
	if !security.VerifyPassword(password, user.PasswordHash) {
		return nil, fmt.Errorf("%w: no active account found with the given credentials", ErrAuthentication)
	}
	return user, nil
}

func ensureUsernameFree(tx *gorm.DB, username string, except uuid.UUID) error {
	var count int64
	q := tx.Model(&model.User{}).Where("username = ?", username)
	if except != uuid.Nil {
		q = q.Where("id <> ?", except)
	}
	if err := q.Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return usernameTaken()
	}
	return nil
}

func usernameTaken() error {
	return invalid("username", "a user with that username already exists")
}

// DisplayNames maps every user id to its display name.
func (d *UserDirectory) DisplayNames(ctx context.Context) (map[uuid.UUID]string, error) {
	var users []model.User
	err := d.dm.Exec(ctx, func(db *gorm.DB) error {
		return db.Select("id", "username", "name", "first_name", "last_name").Find(&users).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}
	names := make(map[uuid.UUID]string, len(users))
	for i := range users {
		names[users[i].ID] = users[i].DisplayName()
	}
	return names, nil
}
