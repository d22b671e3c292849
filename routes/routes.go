package routes

import (
	"github.com/gorilla/mux"

	"corecatalog/handlers"
)

// Setup configures and returns a new router with all defined routes for the application.
func Setup(container *handlers.Container) *mux.Router {
	router := mux.NewRouter().StrictSlash(true)

	catalog := handlers.NewCatalogHandlers(container)
	status := handlers.NewStatusHandlers(container)

	// GET routes for querying the catalog.
	setupGetRoutes(router, catalog, status)

	// POST routes for cache control.
	setupPostRoutes(router, catalog)

	return router
}

// setupGetRoutes defines all routes that handle GET requests.
func setupGetRoutes(router *mux.Router, catalog *handlers.CatalogHandlers, status *handlers.StatusHandlers) {
	router.HandleFunc("/healthz", status.Health).Methods("GET").Name("Health")
	router.HandleFunc("/remotes", catalog.ListRemotes).Methods("GET").Name("ListRemotes")
	router.HandleFunc("/images", catalog.ListImages).Methods("GET").Name("ListImages")
	router.HandleFunc("/images/{alias}", catalog.GetImage).Methods("GET").Name("GetImage")
	router.HandleFunc("/hashes/{hash}", catalog.GetImageByHash).Methods("GET").Name("GetImageByHash")
	router.HandleFunc("/failures", catalog.ListFailures).Methods("GET").Name("ListFailures")
}

// setupPostRoutes defines all routes that handle POST requests.
func setupPostRoutes(router *mux.Router, catalog *handlers.CatalogHandlers) {
	router.HandleFunc("/refresh", catalog.Refresh).Methods("POST").Name("Refresh")
	router.HandleFunc("/clear", catalog.Clear).Methods("POST").Name("Clear")
}
