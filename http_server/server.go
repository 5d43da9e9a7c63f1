package http_server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/voyage-finance/voyage-recovery/http_server/controllers"
	"github.com/voyage-finance/voyage-recovery/http_server/routes"
)

const shutdownTimeout = 5 * time.Second

func NewRouter(deps controllers.RecoveryDeps) *mux.Router {
	// creates a new instance of a mux router
	router := mux.NewRouter().StrictSlash(true)
	routes.RecoveryRoute(router, deps)
	routes.MetricsRoute(router)
	return router
}

// HandleRequests serves router on port until ctx is done.
func HandleRequests(ctx context.Context, port string, router http.Handler) error {
	server := &http.Server{
		Addr:              fmt.Sprintf(":%v", port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Recovery-Server is running under the port: %v\n", port)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
