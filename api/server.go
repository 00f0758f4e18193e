package api

import (
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/flipzy/transactions-backend/db"
	"github.com/flipzy/transactions-backend/models"
	"github.com/flipzy/transactions-backend/services/catalog"
	"github.com/flipzy/transactions-backend/services/monitoring/logging"
	"github.com/flipzy/transactions-backend/services/monitoring/tasks"
	"github.com/flipzy/transactions-backend/services/notification"
	"github.com/flipzy/transactions-backend/utils"
	"github.com/gin-gonic/gin"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
)

type Server struct {
	router    *gin.Engine
	store     db.Store
	config    *utils.Config
	logger    *logging.Logger
	scheduler *tasks.TaskScheduler
	publisher notification.Publisher
	catalog   catalog.Lookup
}

func NewServer(envPath string) *Server {
	c, err := utils.LoadConfig(envPath)
	if err != nil {
		panic(fmt.Sprintf("Could not load config: %v", err))
	}

	l := logging.NewLoggerWithConfig(c)

	var store db.Store
	if c.DBDriver == "postgres" {
		conn, err := sql.Open(c.DBDriver, utils.GetDBSource(c, c.DBName))
		if err != nil {
			panic(fmt.Sprintf("Could not load DB: %v", err))
		}

		m, err := migrate.New(
			"file://db/migrations",
			utils.GetDBSource(c, c.DBName),
		)
		if err != nil {
			log.Fatalf("Unable to instantiate the database schema migrator - %v", err)
		}

		if err := m.Up(); err != nil {
			if err != migrate.ErrNoChange {
				log.Fatalf("Unable to migrate up to the latest database schema - %v", err)
			}
		}

		store = db.NewSQLStore(conn)
	} else {
		store = db.NewMemoryStore()
	}

	var publisher notification.Publisher = notification.NewLogPublisher(l)
	if c.RedisHost != "" {
		publisher = notification.NewRedisPublisher(
			fmt.Sprintf("%s:%s", c.RedisHost, c.RedisPort),
			c.RedisPassword,
			l,
		)
	}

	var lookup catalog.Lookup = catalog.NewStaticCatalog()
	if c.CatalogBaseURL != "" {
		lookup = catalog.NewCatalogClient(c.CatalogBaseURL, l)
	}

	g := gin.Default()
	g.Use(CORSMiddleware())
	g.Use(l.LoggingMiddleWare())
	RegisterValidations()

	return &Server{
		router:    g,
		store:     store,
		config:    c,
		logger:    l,
		scheduler: tasks.NewTaskScheduler(l),
		publisher: publisher,
		catalog:   lookup,
	}
}

func (s *Server) settlementDelay() time.Duration {
	return time.Duration(s.config.SettlementDelayMS) * time.Millisecond
}

func (s *Server) Start() {

	dr := models.SuccessResponse{
		Status:  "success",
		Message: "Transaction Service running",
		Version: utils.REVISION,
	}

	s.router.GET("/", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, dr)
	})

	/// Register Object Routers Below
	Wallet{}.router(s)
	Transaction{}.router(s)
	Operation{}.router(s)

	s.router.Run(fmt.Sprintf(":%v", s.config.ServerPort))
}
