package api

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"HouseBot/internal/config"
	"HouseBot/internal/http-server/handlers/booking"
	"HouseBot/internal/http-server/handlers/catalog"
	"HouseBot/internal/http-server/handlers/errors"
	"HouseBot/internal/http-server/handlers/health"
	"HouseBot/internal/http-server/handlers/telegram"
	"HouseBot/internal/http-server/middleware/authenticate"
	"HouseBot/internal/lib/sl"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

type Server struct {
	conf       *config.Config
	httpServer *http.Server
	log        *slog.Logger
}

type Handler interface {
	catalog.Core
	booking.Core
}

// NewRouter mounts the Telegram webhook and the authenticated admin API.
// updates may be nil when the bot is disabled or polls.
func NewRouter(conf *config.Config, log *slog.Logger, handler Handler, updates telegram.UpdateHandler) http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	if conf.Listen.Timeout > 0 {
		router.Use(middleware.Timeout(conf.Listen.Timeout))
	}
	router.Use(render.SetContentType(render.ContentTypeJSON))

	router.NotFound(errors.NotFound(log))
	router.MethodNotAllowed(errors.NotAllowed(log))

	router.Get("/health", health.Health())
	if updates != nil {
		router.Post("/telegram/webhook", telegram.Webhook(log, updates, conf.Telegram.WebhookSecret))
	}

	router.Route("/api/v1", func(v1 chi.Router) {
		v1.Use(authenticate.New(log, conf.Listen.ApiKey))

		v1.Route("/countries", func(r chi.Router) {
			r.Get("/", catalog.ListCountries(log, handler))
			r.Post("/", catalog.CreateCountry(log, handler))
		})
		v1.Route("/cities", func(r chi.Router) {
			r.Get("/", catalog.ListCities(log, handler))
			r.Post("/", catalog.CreateCity(log, handler))
		})
		v1.Route("/houses", func(r chi.Router) {
			r.Get("/", catalog.ListHouses(log, handler))
			r.Post("/", catalog.CreateHouse(log, handler))
			r.Get("/{id}", catalog.GetHouse(log, handler))
		})
		v1.Route("/bookings", func(r chi.Router) {
			r.Get("/", booking.List(log, handler))
			r.Post("/", booking.Create(log, handler))
			r.Get("/{id}", booking.Get(log, handler))
			r.Patch("/{id}", booking.Update(log, handler))
			r.Put("/{id}", booking.Replace(log, handler))
			r.Delete("/{id}", booking.Delete(log, handler))
		})
	})

	return router
}

func New(conf *config.Config, log *slog.Logger, handler Handler, updates telegram.UpdateHandler) error {

	server := Server{
		conf: conf,
		log:  log.With(sl.Module("api.server")),
	}

	httpLog := slog.NewLogLogger(log.Handler(), slog.LevelError)
	server.httpServer = &http.Server{
		Handler:  NewRouter(conf, log, handler, updates),
		ErrorLog: httpLog,
	}

	serverAddress := fmt.Sprintf("%s:%s", conf.Listen.BindIP, conf.Listen.Port)
	listener, err := net.Listen("tcp", serverAddress)
	if err != nil {
		return err
	}

	server.log.Info("starting api server", slog.String("address", serverAddress))

	return server.httpServer.Serve(listener)
}
