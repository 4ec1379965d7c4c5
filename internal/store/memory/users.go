package memory

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/dkeye/nestrischamps-rooms/internal/domain"
)

type userRecord struct {
	ID              string `yaml:"id"`
	Login           string `yaml:"login"`
	DisplayName     string `yaml:"display_name"`
	CountryCode     string `yaml:"country_code"`
	ProfileImageURL string `yaml:"profile_image_url"`
	Secret          string `yaml:"secret"`
}

type usersFile struct {
	Users []userRecord `yaml:"users"`
}

// UserStore is an in-memory user directory, typically seeded from yaml.
type UserStore struct {
	mu       sync.RWMutex
	byID     map[domain.UserID]*domain.User
	byLogin  map[string]*domain.User
	bySecret map[string]*domain.User
}

func NewUserStore() *UserStore {
	return &UserStore{
		byID:     make(map[domain.UserID]*domain.User),
		byLogin:  make(map[string]*domain.User),
		bySecret: make(map[string]*domain.User),
	}
}

// LoadFile builds a store from a yaml users file.
func LoadFile(path string) (*UserStore, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f)
}

func Load(r io.Reader) (*UserStore, error) {
	var doc usersFile
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	s := NewUserStore()
	for i, rec := range doc.Users {
		u := domain.User{
			ID:              domain.UserID(rec.ID),
			Login:           rec.Login,
			DisplayName:     rec.DisplayName,
			CountryCode:     rec.CountryCode,
			ProfileImageURL: rec.ProfileImageURL,
			Secret:          rec.Secret,
		}
		if err := s.Put(u); err != nil {
			return nil, fmt.Errorf("user #%d: %w", i, err)
		}
	}
	return s, nil
}

// Put adds or replaces a user. Logins and secrets must stay unique.
func (s *UserStore) Put(u domain.User) error {
	if err := u.Validate(); err != nil {
		return err
	}
	if u.DisplayName == "" {
		u.DisplayName = u.Login
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if other, ok := s.byLogin[u.Login]; ok && other.ID != u.ID {
		return fmt.Errorf("%w: duplicate login %q", domain.ErrBadUser, u.Login)
	}
	if other, ok := s.bySecret[u.Secret]; ok && u.Secret != "" && other.ID != u.ID {
		return fmt.Errorf("%w: duplicate secret", domain.ErrBadUser)
	}
	if old, ok := s.byID[u.ID]; ok {
		delete(s.byLogin, old.Login)
		delete(s.bySecret, old.Secret)
	}
	stored := u
	s.byID[u.ID] = &stored
	s.byLogin[u.Login] = &stored
	if u.Secret != "" {
		s.bySecret[u.Secret] = &stored
	}
	return nil
}

func (s *UserStore) UserByID(_ context.Context, id domain.UserID) (*domain.User, error) {
	return get(&s.mu, s.byID, id)
}

func (s *UserStore) UserByLogin(_ context.Context, login string) (*domain.User, error) {
	return get(&s.mu, s.byLogin, login)
}

func (s *UserStore) UserBySecret(_ context.Context, secret string) (*domain.User, error) {
	return get(&s.mu, s.bySecret, secret)
}

func get[K comparable](mu *sync.RWMutex, m map[K]*domain.User, k K) (*domain.User, error) {
	mu.RLock()
	defer mu.RUnlock()
	u, ok := m[k]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}
