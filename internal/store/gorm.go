package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Diogo-AA/UrlShortener/internal/models"
	"github.com/Diogo-AA/UrlShortener/pkg/utils"
)

// lockForUpdate adds a row lock on dialects that support it. sqlite
// serializes writers on its own.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

// Users is the gorm-backed UserStore.
type Users struct {
	db *gorm.DB
}

func NewUsers(db *gorm.DB) *Users {
	return &Users{db: db}
}

// Create inserts the user and issues their first API key in one transaction.
func (s *Users) Create(ctx context.Context, username, passwordHash string) (*models.User, *models.APIKey, error) {
	user := &models.User{
		ID:           utils.GenerateID(),
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
	}
	now := time.Now()
	key := &models.APIKey{
		ID:             utils.GenerateID(),
		UserID:         user.ID,
		Key:            utils.GenerateAPIKey(),
		ExpirationDate: now.Add(models.KeyValidity),
		LastUpdated:    now,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.User
		err := tx.Where("username = ?", username).First(&existing).Error
		if err == nil {
			return ErrUsernameTaken
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if err := tx.Create(user).Error; err != nil {
			return err
		}
		return tx.Create(key).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, nil, ErrUsernameTaken
	}
	if err != nil {
		return nil, nil, err
	}

	return user, key, nil
}

func (s *Users) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Users) UpdatePassword(ctx context.Context, userID, passwordHash string) (bool, error) {
	res := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Update("password_hash", passwordHash)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// Delete removes the user together with their credential and links. The
// cascade is explicit so it also holds on sqlite, where foreign key
// enforcement is off by default.
func (s *Users) Delete(ctx context.Context, userID string) (bool, error) {
	var removed bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&models.Link{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", userID).Delete(&models.APIKey{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.User{}, "id = ?", userID)
		if res.Error != nil {
			return res.Error
		}
		removed = res.RowsAffected == 1
		return nil
	})
	if err != nil {
		return false, err
	}
	return removed, nil
}

// Credentials is the gorm-backed CredentialStore.
type Credentials struct {
	db *gorm.DB
}

func NewCredentials(db *gorm.DB) *Credentials {
	return &Credentials{db: db}
}

func (s *Credentials) GetByUserID(ctx context.Context, userID string) (*models.APIKey, error) {
	var key models.APIKey
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &key, nil
}

func (s *Credentials) GetByKey(ctx context.Context, rawKey string) (*models.APIKey, error) {
	var key models.APIKey
	err := s.db.WithContext(ctx).Where("key = ?", rawKey).First(&key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &key, nil
}

// rotationAllowed is the cooldown gate: a rotation at exactly the cooldown
// boundary is still throttled.
func rotationAllowed(lastUpdated, now time.Time, cooldown time.Duration) bool {
	return now.Sub(lastUpdated) > cooldown
}

// Rotate replaces the key value and resets the validity window. The cooldown
// check and the update run in one transaction, with the row locked on
// postgres, so two concurrent rotations cannot both pass the check.
func (s *Credentials) Rotate(ctx context.Context, userID string, cooldown, validity time.Duration) (*models.APIKey, error) {
	var rotated models.APIKey
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var key models.APIKey
		err := lockForUpdate(tx).Where("user_id = ?", userID).First(&key).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNoCredential
		}
		if err != nil {
			return err
		}

		now := time.Now()
		if !rotationAllowed(key.LastUpdated, now, cooldown) {
			return ErrRotationThrottled
		}

		key.Key = utils.GenerateAPIKey()
		key.ExpirationDate = now.Add(validity)
		key.LastUpdated = now

		res := tx.Model(&models.APIKey{}).Where("user_id = ?", userID).Updates(map[string]interface{}{
			"key":             key.Key,
			"expiration_date": key.ExpirationDate,
			"last_updated":    key.LastUpdated,
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			return ErrNoCredential
		}

		rotated = key
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &rotated, nil
}

// Links is the gorm-backed LinkStore.
type Links struct {
	db *gorm.DB
}

func NewLinks(db *gorm.DB) *Links {
	return &Links{db: db}
}

func (s *Links) Create(ctx context.Context, ownerID, code, originalURL string) (*models.Link, error) {
	link := &models.Link{
		ID:          utils.GenerateID(),
		UserID:      ownerID,
		Code:        code,
		OriginalURL: originalURL,
		CreatedAt:   time.Now(),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Link
		err := tx.Where("user_id = ? AND original_url = ?", ownerID, originalURL).First(&existing).Error
		if err == nil {
			return ErrDuplicateURL
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		err = tx.Where("code = ?", code).First(&existing).Error
		if err == nil {
			return ErrCodeTaken
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		return tx.Create(link).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// A concurrent create got past the pre-insert checks and committed
		// first; the surviving row tells us which constraint fired.
		var existing models.Link
		lookupErr := s.db.WithContext(ctx).
			Where("user_id = ? AND original_url = ?", ownerID, originalURL).
			First(&existing).Error
		if lookupErr == nil {
			return nil, ErrDuplicateURL
		}
		return nil, ErrCodeTaken
	}
	if err != nil {
		return nil, err
	}

	return link, nil
}

func (s *Links) Delete(ctx context.Context, ownerID, code string) (bool, error) {
	res := s.db.WithContext(ctx).
		Where("user_id = ? AND code = ?", ownerID, code).
		Delete(&models.Link{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (s *Links) GetByCode(ctx context.Context, code string) (*models.Link, error) {
	var link models.Link
	err := s.db.WithContext(ctx).Where("code = ?", code).First(&link).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &link, nil
}

func (s *Links) ListByOwner(ctx context.Context, ownerID string, limit int) ([]models.Link, error) {
	links := []models.Link{}
	err := s.db.WithContext(ctx).
		Where("user_id = ?", ownerID).
		Order("created_at").
		Limit(limit).
		Find(&links).Error
	if err != nil {
		return nil, err
	}
	return links, nil
}

// Errors is the gorm-backed ErrorStore.
type Errors struct {
	db *gorm.DB
}

func NewErrors(db *gorm.DB) *Errors {
	return &Errors{db: db}
}

func (s *Errors) Record(ctx context.Context, rec *models.ErrorRecord) error {
	return s.db.WithContext(ctx).Create(rec).Error
}
