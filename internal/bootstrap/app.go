package bootstrap

import (
	"log/slog"

	"gorm.io/gorm"

	cache "github.com/krisalay/query-cache"
	"github.com/krisalay/query-cache/internal/bootstrap/config"
	"github.com/krisalay/query-cache/internal/properties"
)

// App is everything a command needs once the fx graph is built.
type App struct {
	Config     config.Config
	Logger     *slog.Logger
	DB         *gorm.DB
	Cache      *cache.QueryCache
	Properties *properties.Service
}
