package memory

import (
	"sort"

	"github.com/jhoicas/Kardex-api/internal/domain"
	"github.com/jhoicas/Kardex-api/internal/domain/entity"
	"github.com/jhoicas/Kardex-api/internal/domain/repository"
)

var _ repository.UserRepository = (*UserRepo)(nil)

// UserRepo implementación en memoria de UserRepository.
type UserRepo struct {
	store *Store
}

// NewUserRepository construye el repositorio sobre el store.
func NewUserRepository(store *Store) *UserRepo {
	return &UserRepo{store: store}
}

// Create persiste un usuario nuevo.
func (r *UserRepo) Create(user *entity.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, u := range r.store.users {
		if u.Username == user.Username {
			return domain.ErrDuplicate
		}
	}
	cp := *user
	r.store.users[user.ID] = &cp
	return nil
}

// GetByID devuelve el usuario o nil si no existe.
func (r *UserRepo) GetByID(id string) (*entity.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	u, ok := r.store.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

// GetByUsername devuelve el usuario o nil si no existe.
func (r *UserRepo) GetByUsername(username string) (*entity.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	for _, u := range r.store.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

// List devuelve los usuarios ordenados por username.
func (r *UserRepo) List() ([]*entity.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	out := make([]*entity.User, 0, len(r.store.users))
	for _, u := range r.store.users {
		cp := *u
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}
