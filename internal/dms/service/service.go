package service

import (
	"context"

	"github.com/minio/minio-go/v7"
	"github.com/planroomhq/planroom/internal/config"
	"github.com/planroomhq/planroom/internal/dms/entity"
	"github.com/planroomhq/planroom/internal/dms/repository"
	"github.com/planroomhq/planroom/internal/shared/mailer"
	"github.com/planroomhq/planroom/internal/shared/storage"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Services bundles the domain services behind one handle.
type Services struct {
	Drawing     *DrawingService
	CadSource   *CadSourceService
	Transmittal *TransmittalService
	User        *UserService
	Directory   *DirectoryService
}

// NewServices wires the service bundle. Storage, mail, and object-store
// clients may be nil when unconfigured; the services degrade instead of
// failing at startup.
func NewServices(repos *repository.Repositories, rdb *redis.Client, provider storage.Provider,
	dispatcher mailer.Dispatcher, minioClient *minio.Client, cfg *config.Config, logger *zap.Logger) *Services {
	return &Services{
		Drawing:     NewDrawingService(repos.Drawing, repos.Revision, minioClient, cfg.MinIO.Bucket),
		CadSource:   NewCadSourceService(repos.CadSource, repos.Drawing, provider, rdb, cfg.CAD.GraceWindow),
		Transmittal: NewTransmittalService(repos.Transmittal, repos.Drawing, dispatcher, logger),
		User:        NewUserService(repos.User),
		Directory:   NewDirectoryService(repos.Directory),
	}
}

// UserService exposes the team directory.
type UserService struct {
	repo *repository.UserRepository
}

func NewUserService(repo *repository.UserRepository) *UserService {
	return &UserService{repo: repo}
}

func (s *UserService) Get(ctx context.Context, id string) (*entity.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, translateRepoErr(err, "user not found")
	}
	return user, nil
}

func (s *UserService) ListAll(ctx context.Context) ([]entity.User, error) {
	return s.repo.ListActive(ctx)
}

func (s *UserService) Search(ctx context.Context, query string) ([]entity.User, error) {
	return s.repo.Search(ctx, query)
}

// DirectoryService exposes floors and sections for the filter pickers.
type DirectoryService struct {
	repo *repository.DirectoryRepository
}

func NewDirectoryService(repo *repository.DirectoryRepository) *DirectoryService {
	return &DirectoryService{repo: repo}
}

func (s *DirectoryService) ListFloors(ctx context.Context, projectID string) ([]entity.Floor, error) {
	return s.repo.ListFloors(ctx, projectID)
}

func (s *DirectoryService) ListSections(ctx context.Context, projectID string) ([]entity.Section, error) {
	return s.repo.ListSections(ctx, projectID)
}
