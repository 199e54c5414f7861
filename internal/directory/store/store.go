package store

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"medcred/internal/directory/models"
	dErrors "medcred/pkg/domain-errors"
	"medcred/pkg/validation"
)

// ErrNotFound is returned when no user carries the requested ID.
var ErrNotFound = dErrors.New(dErrors.CodeNotFound, "user not found")

// directoryFile is the object form of the users file. A bare list of users is
// accepted as well.
type directoryFile struct {
	Users        []models.User `yaml:"users"`
	ActiveUserID string        `yaml:"activeUserId"`
}

// InMemoryStore is the read-only user table loaded at startup.
// It is never mutated after construction, so reads need no locking.
type InMemoryStore struct {
	users        map[models.UserID]models.User
	order        []models.UserID
	activeUserID models.UserID
}

// New builds a store from an explicit user list.
// Duplicate or invalid entries are rejected.
func New(users []models.User) (*InMemoryStore, error) {
	s := &InMemoryStore{users: make(map[models.UserID]models.User, len(users))}
	for i, u := range users {
		if err := validation.Validate(u); err != nil {
			return nil, fmt.Errorf("user #%d: %w", i, err)
		}
		if _, dup := s.users[u.ID]; dup {
			return nil, fmt.Errorf("user #%d: duplicate id %q", i, u.ID)
		}
		s.users[u.ID] = u
		s.order = append(s.order, u.ID)
	}
	return s, nil
}

// Load reads a YAML or JSON users file. The document is either a list of
// users or an object with a "users" list and an optional "activeUserId".
func Load(path string) (*InMemoryStore, error) {
	data, err := os.ReadFile(filepath.Clean(path)) // #nosec G304 -- path comes from operator config
	if err != nil {
		return nil, fmt.Errorf("read users file: %w", err)
	}
	return Parse(data)
}

// Parse decodes the users document held in data.
func Parse(data []byte) (*InMemoryStore, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parse users file: %w", err)
	}
	if len(root.Content) == 0 {
		return nil, fmt.Errorf("parse users file: document is empty")
	}

	var (
		doc  directoryFile
		err  error
		node = root.Content[0]
	)
	switch node.Kind {
	case yaml.SequenceNode:
		err = node.Decode(&doc.Users)
	case yaml.MappingNode:
		err = node.Decode(&doc)
	default:
		return nil, fmt.Errorf("parse users file: expected a list or an object")
	}
	if err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}

	s, err := New(doc.Users)
	if err != nil {
		return nil, err
	}
	s.activeUserID = models.UserID(doc.ActiveUserID)
	return s, nil
}

// FindByID returns the user with the given ID or ErrNotFound.
func (s *InMemoryStore) FindByID(id models.UserID) (models.User, error) {
	u, ok := s.users[id]
	if !ok {
		return models.User{}, ErrNotFound
	}
	return u, nil
}

// List returns all users in file order.
func (s *InMemoryStore) List() []models.User {
	out := make([]models.User, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.users[id])
	}
	return out
}

// InitialActiveID returns the active user named by the file, if any.
func (s *InMemoryStore) InitialActiveID() models.UserID {
	return s.activeUserID
}
