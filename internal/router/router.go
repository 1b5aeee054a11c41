package router

import (
	"database/sql"
	"net/http"
	"os"

	mem "grooming-service/internal/adapters/storage/memory"
	pg "grooming-service/internal/adapters/storage/postgres"
	"grooming-service/internal/domain/appointments"
	"grooming-service/internal/domain/catalogs"
	"grooming-service/internal/domain/clients"
	"grooming-service/internal/domain/pets"
	"grooming-service/internal/domain/visits"
	"grooming-service/internal/middleware"
	"grooming-service/internal/platform/logger"
	"grooming-service/internal/ports/auth"

	_ "grooming-service/docs"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Options struct {
	AuthVerifier auth.AuthVerifier // puede ser nil (modo dev)

	// Opcional: si viene, usa Postgres. Si no, in-memory.
	DB *sql.DB

	Logger logger.Logger
}

func NewRouter(opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	if opts.Logger != nil {
		r.Use(middleware.RequestLogger(opts.Logger))
	}

	r.Use(middleware.AuthContext(opts.AuthVerifier))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/swagger/*", httpSwagger.WrapHandler)

	var (
		clientRepo  clients.Repository
		petRepo     pets.Repository
		apptRepo    appointments.Repository
		visitRepo   visits.Repository
		catalogRepo catalogs.Repository
	)

	// Si no te pasan DB explícita, intenta por env (para dev/handoff)
	db := opts.DB
	if db == nil {
		if dsn := os.Getenv("DB_DSN"); dsn != "" {
			opened, err := pg.Open(dsn)
			if err == nil {
				db = opened
			}
		}
	}

	if db != nil {
		clientRepo = pg.NewClientsRepo(db)
		petRepo = pg.NewPetsRepo(db)
		apptRepo = pg.NewAppointmentsRepo(db)
		visitRepo = pg.NewVisitsRepo(db)
		catalogRepo = pg.NewCatalogsRepo(db)
	} else {
		clientRepo = mem.NewClientRepo()
		petRepo = mem.NewPetRepo()
		appts := mem.NewAppointmentRepo()
		apptRepo = appts
		visitRepo = mem.NewVisitRepo(appts)
		catalogRepo = mem.NewCatalogRepo()
	}

	// Services por módulo
	clientsSvc := clients.NewService(clientRepo)
	petsSvc := pets.NewService(petRepo)
	apptsSvc := appointments.NewService(apptRepo)
	visitsSvc := visits.NewService(visitRepo)
	catalogsSvc := catalogs.NewService(catalogRepo)

	// Rutas por módulo
	clients.RegisterRoutes(r, clientsSvc)
	pets.RegisterRoutes(r, petsSvc)
	appointments.RegisterRoutes(r, apptsSvc, petsSvc)
	visits.RegisterRoutes(r, visitsSvc, petsSvc)
	catalogs.RegisterRoutes(r, catalogsSvc)

	return r
}
