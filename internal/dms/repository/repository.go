package repository

import (
	"errors"

	"gorm.io/gorm"
)

// ErrNotFound is returned when a looked-up record does not exist. Services
// translate it into an apperr.NotFound for callers.
var ErrNotFound = errors.New("record not found")

// Repositories bundles every repository over one gorm handle.
type Repositories struct {
	Drawing     *DrawingRepository
	Revision    *RevisionRepository
	CadSource   *CadSourceRepository
	Transmittal *TransmittalRepository
	User        *UserRepository
	Directory   *DirectoryRepository
}

// NewRepositories creates the repository bundle.
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Drawing:     NewDrawingRepository(db),
		Revision:    NewRevisionRepository(db),
		CadSource:   NewCadSourceRepository(db),
		Transmittal: NewTransmittalRepository(db),
		User:        NewUserRepository(db),
		Directory:   NewDirectoryRepository(db),
	}
}

func translateNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
