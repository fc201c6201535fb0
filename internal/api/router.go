package api

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/erazemk/predal/internal/items"
)

// NewRouter creates the API router with all endpoints registered. It panics
// when db or store is nil.
func NewRouter(db *sql.DB, store *items.Store, jwtSecret string) http.Handler {
	if db == nil || store == nil {
		panic("api: NewRouter requires a database and an item store")
	}

	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: db, JWTSecret: jwtSecret}
	itemsHandler := &ItemsHandler{Store: store, Now: time.Now}
	imagesHandler := &ImagesHandler{DB: db, Store: store}

	authMW := AuthMiddleware(jwtSecret, db)

	// Public: login.
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.Handle("POST /api/auth/logout", authMW(http.HandlerFunc(authHandler.Logout)))

	// Items.
	mux.Handle("GET /api/items", authMW(http.HandlerFunc(itemsHandler.Search)))
	mux.Handle("POST /api/items", authMW(http.HandlerFunc(itemsHandler.Create)))
	mux.Handle("GET /api/items/new", authMW(http.HandlerFunc(itemsHandler.New)))
	mux.Handle("GET /api/items/pending", authMW(http.HandlerFunc(itemsHandler.Pending)))
	mux.Handle("GET /api/items/{id}", authMW(http.HandlerFunc(itemsHandler.Get)))
	mux.Handle("PUT /api/items/{id}", authMW(http.HandlerFunc(itemsHandler.Update)))
	mux.Handle("DELETE /api/items/{id}", authMW(http.HandlerFunc(itemsHandler.Delete)))
	mux.Handle("POST /api/items/{id}/discard", authMW(http.HandlerFunc(itemsHandler.Discard)))

	// Labels.
	mux.Handle("GET /api/labels", authMW(http.HandlerFunc(itemsHandler.Labels)))

	// Images.
	mux.Handle("PUT /api/items/{id}/image", authMW(http.HandlerFunc(imagesHandler.Upload)))
	mux.Handle("GET /api/images/{ref}", authMW(http.HandlerFunc(imagesHandler.Get)))

	return mux
}
