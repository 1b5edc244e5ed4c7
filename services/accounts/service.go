package accounts

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"filterflix/models"
)

var (
	ErrStorageDirRequired  = errors.New("storage directory not provided")
	ErrCredentialsRequired = errors.New("username and password are required")
	ErrDuplicateUser       = errors.New("username already exists")
	ErrInvalidCredentials  = errors.New("invalid username or password")
	ErrUserNotFound        = errors.New("user not found")
	ErrInvalidAction       = errors.New("invalid favorites action")
	ErrGuestAccount        = errors.New("guest accounts cannot save favorites")
	ErrMovieRequired       = errors.New("movie title and service are required")
)

const (
	defaultAdminUsername = "admin"
	defaultAdminPassword = "admin123"
)

// Service manages persistence of FilterFlix accounts and their favorites
// lists. The whole collection lives in one JSON file rewritten atomically on
// every mutation; all writes serialize through a single mutex.
type Service struct {
	mu       sync.RWMutex
	path     string
	accounts map[string]models.Account
}

// NewService creates an account service storing data inside the provided
// directory. An empty store is seeded with a default admin account.
func NewService(storageDir string) (*Service, error) {
	if strings.TrimSpace(storageDir) == "" {
		return nil, ErrStorageDirRequired
	}

	if err := os.MkdirAll(storageDir, 0o755); err != nil {
		return nil, fmt.Errorf("create accounts dir: %w", err)
	}

	svc := &Service{
		path:     filepath.Join(storageDir, "users.json"),
		accounts: make(map[string]models.Account),
	}

	if err := svc.load(); err != nil {
		return nil, err
	}

	if err := svc.ensureDefaultAdmin(); err != nil {
		return nil, err
	}

	return svc, nil
}

// Register creates a new account with a bcrypt password hash and an empty
// favorites list. Username uniqueness is enforced here and only here; there
// is no rename.
func (s *Service) Register(username, password string) error {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return ErrCredentialsRequired
	}
	if strings.EqualFold(username, models.GuestUsername) {
		return ErrGuestAccount
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[username]; exists {
		return ErrDuplicateUser
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	s.accounts[username] = models.Account{
		Username:     username,
		PasswordHash: string(hash),
		Favorites:    []models.MovieRecord{},
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.saveLocked(); err != nil {
		delete(s.accounts, username)
		return err
	}

	return nil
}

// Authenticate verifies the credentials and returns the account's public
// view. Unknown usernames and wrong passwords fail identically so callers
// cannot probe which usernames exist; bcrypt's comparison is constant-time.
func (s *Service) Authenticate(username, password string) (models.PublicAccount, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return models.PublicAccount{}, ErrInvalidCredentials
	}

	s.mu.RLock()
	account, ok := s.accounts[username]
	s.mu.RUnlock()

	if !ok {
		return models.PublicAccount{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return models.PublicAccount{}, ErrInvalidCredentials
	}

	return account.Public(), nil
}

// Exists reports whether an account with the given username is registered.
func (s *Service) Exists(username string) bool {
	username = strings.TrimSpace(username)
	if username == "" {
		return false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.accounts[username]
	return ok
}

// Favorites returns the account's favorites list, possibly empty.
func (s *Service) Favorites(username string) ([]models.MovieRecord, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, ErrUserNotFound
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	account, ok := s.accounts[username]
	if !ok {
		return nil, ErrUserNotFound
	}

	return account.Public().Favorites, nil
}

// SetFavorite adds or removes a movie from the account's favorites and
// returns the resulting list. Membership is keyed by movie identity; both
// actions are idempotent. The mutation is persisted before returning.
func (s *Service) SetFavorite(username string, movie models.MovieRecord, action models.FavoriteAction) ([]models.MovieRecord, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, ErrUserNotFound
	}
	if strings.EqualFold(username, models.GuestUsername) {
		return nil, ErrGuestAccount
	}
	if action != models.FavoriteAdd && action != models.FavoriteRemove {
		return nil, ErrInvalidAction
	}
	if strings.TrimSpace(movie.Title) == "" || strings.TrimSpace(movie.Service) == "" {
		return nil, ErrMovieRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[username]
	if !ok {
		return nil, ErrUserNotFound
	}

	identity := movie.Identity()
	updated := make([]models.MovieRecord, 0, len(account.Favorites)+1)
	present := false
	for _, favorite := range account.Favorites {
		if favorite.Identity() == identity {
			present = true
			if action == models.FavoriteRemove {
				continue
			}
		}
		updated = append(updated, favorite)
	}
	if action == models.FavoriteAdd && !present {
		updated = append(updated, movie)
	}

	previous := account.Favorites
	account.Favorites = updated
	s.accounts[username] = account

	if err := s.saveLocked(); err != nil {
		account.Favorites = previous
		s.accounts[username] = account
		return nil, err
	}

	return account.Public().Favorites, nil
}

func (s *Service) ensureDefaultAdmin() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.accounts) > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(defaultAdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash default password: %w", err)
	}

	s.accounts[defaultAdminUsername] = models.Account{
		Username:     defaultAdminUsername,
		PasswordHash: string(hash),
		Favorites:    []models.MovieRecord{},
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.saveLocked(); err != nil {
		return err
	}

	log.Printf("[accounts] seeded default %s account", defaultAdminUsername)
	return nil
}

func (s *Service) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("open accounts file: %w", err)
	}
	defer file.Close()

	dec := json.NewDecoder(file)
	var stored []models.Account
	if err := dec.Decode(&stored); err != nil {
		return fmt.Errorf("decode accounts: %w", err)
	}

	s.accounts = make(map[string]models.Account, len(stored))
	for _, account := range stored {
		if strings.TrimSpace(account.Username) == "" {
			continue
		}
		if account.Favorites == nil {
			account.Favorites = []models.MovieRecord{}
		}
		s.accounts[account.Username] = account
	}

	return nil
}

func (s *Service) saveLocked() error {
	accounts := make([]models.Account, 0, len(s.accounts))
	for _, account := range s.accounts {
		accounts = append(accounts, account)
	}

	sort.Slice(accounts, func(i, j int) bool {
		return accounts[i].Username < accounts[j].Username
	})

	tmp := s.path + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create accounts temp file: %w", err)
	}

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(accounts); err != nil {
		file.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("encode accounts: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("sync accounts: %w", err)
	}

	if err := file.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("close accounts temp file: %w", err)
	}

	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace accounts file: %w", err)
	}

	return nil
}
