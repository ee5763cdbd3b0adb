package app

import (
	"github.com/sirupsen/logrus"

	"github.com/eslsoft/finquest/internal/infrastructure/config"
	"github.com/eslsoft/finquest/internal/infrastructure/server"
	"github.com/eslsoft/finquest/internal/repository"
	"github.com/eslsoft/finquest/internal/usecase"
)

// Container aggregates the application dependencies produced by Wire.
type Container struct {
	Config      *config.Config
	Logger      *logrus.Logger
	Server      *server.Server
	Progress    repository.ProgressRepository
	Content     usecase.ContentUsecase
	Progression usecase.ProgressionUsecase
}
