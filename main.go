package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"watchlog/config"
	"watchlog/handlers"
	"watchlog/internal/logging"
	"watchlog/internal/storage"
	catalogsvc "watchlog/services/catalog"
	collectionsvc "watchlog/services/collection"
	"watchlog/utils"
)

func main() {
	configPath := flag.String("config", defaultConfigPath(), "path to the settings file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		log.Fatalf("[main] %v", err)
	}
}

func defaultConfigPath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return dir + "/watchlog/config.toml"
	}
	return "config.toml"
}

func run(configPath string) error {
	manager := config.NewManager(configPath)
	settings, err := manager.Load()
	if err != nil {
		return err
	}

	logCloser := logging.Setup(settings.Log)
	defer logCloser.Close()

	if settings.APIKey == "" {
		key, err := utils.GenerateAPIKey()
		if err != nil {
			return err
		}
		settings.APIKey = key
		if err := manager.Save(settings); err != nil {
			return err
		}
		log.Printf("[main] Generated a new API key and saved it to %s", configPath)
	}

	backend, err := storage.OpenSQLite(settings.DatabasePath())
	if err != nil {
		if errors.Is(err, storage.ErrLocked) {
			return errors.New("another watchlog instance is already using the data directory")
		}
		return err
	}

	store := storage.NewStore(backend,
		storage.WithRetries(settings.Storage.RetryAttempts),
		storage.WithRetryDelay(time.Duration(settings.Storage.RetryDelayMS)*time.Millisecond),
	)
	defer store.Close()

	ctx := context.Background()
	if err := store.MigrateData(ctx, collectionsvc.DataMigrations); err != nil {
		return err
	}

	collection := collectionsvc.NewService(store)
	collection.Subscribe(func(e collectionsvc.Event) {
		log.Printf("[events] %s itemID=%q status=%q", e.Type, e.ItemID, e.Status)
	})

	pairingCode, err := utils.GeneratePairingCode()
	if err != nil {
		return err
	}
	log.Printf("[main] Pairing code for this session: %s", pairingCode)

	router := utils.NewRouter()

	authHandler := handlers.NewAuthHandler(settings.APIKey, pairingCode)
	router.HandleFunc("/auth/pair", authHandler.Pair).Methods(http.MethodPost)

	collectionHandler := handlers.NewCollectionHandler(collection)
	router.HandleFunc("/profile", collectionHandler.CreateProfile).Methods(http.MethodPost)
	router.HandleFunc("/profile", collectionHandler.GetProfile).Methods(http.MethodGet)
	router.HandleFunc("/profile", collectionHandler.UpdateProfile).Methods(http.MethodPatch)
	router.HandleFunc("/collection/items", collectionHandler.AddItem).Methods(http.MethodPost)
	router.HandleFunc("/collection/items", collectionHandler.ListCollections).Methods(http.MethodGet)
	router.HandleFunc("/collection/items/search", collectionHandler.SearchItems).Methods(http.MethodGet)
	router.HandleFunc("/collection/items/{itemID}", collectionHandler.RemoveItem).Methods(http.MethodDelete)
	router.HandleFunc("/collection/items/{itemID}", collectionHandler.UpdateItem).Methods(http.MethodPatch)
	router.HandleFunc("/collection/media/{mediaID}", collectionHandler.LookupByMediaID).Methods(http.MethodGet)
	router.HandleFunc("/collection/{status}", collectionHandler.ListByStatus).Methods(http.MethodGet)
	router.HandleFunc("/collection/{status}", collectionHandler.ClearCollection).Methods(http.MethodDelete)
	router.HandleFunc("/state", collectionHandler.GetAppState).Methods(http.MethodGet)
	router.HandleFunc("/state", collectionHandler.SaveAppState).Methods(http.MethodPatch)
	router.HandleFunc("/settings/theme", collectionHandler.GetTheme).Methods(http.MethodGet)
	router.HandleFunc("/settings/theme", collectionHandler.SetTheme).Methods(http.MethodPut)

	statsHandler := handlers.NewStatsHandler(collection)
	router.HandleFunc("/stats", statsHandler.Get).Methods(http.MethodGet)

	backupHandler := handlers.NewBackupHandler(store)
	router.HandleFunc("/backup", backupHandler.Export).Methods(http.MethodGet)
	router.HandleFunc("/backup", backupHandler.Restore).Methods(http.MethodPost)

	if settings.Catalog.APIKey != "" {
		opts := []catalogsvc.Option{}
		if settings.Catalog.BaseURL != "" {
			opts = append(opts, catalogsvc.WithBaseURL(settings.Catalog.BaseURL))
		}
		if settings.Catalog.Language != "" {
			opts = append(opts, catalogsvc.WithLanguage(settings.Catalog.Language))
		}
		catalog, err := catalogsvc.New(settings.Catalog.APIKey, opts...)
		if err != nil {
			return err
		}
		catalogHandler := handlers.NewCatalogHandler(catalog)
		router.HandleFunc("/catalog/search", catalogHandler.Search).Methods(http.MethodGet)
		router.HandleFunc("/catalog/details", catalogHandler.DetailsBatch).Methods(http.MethodPost)
		router.HandleFunc("/catalog/{mediaType}/{id}", catalogHandler.Details).Methods(http.MethodGet)
	} else {
		log.Printf("[main] WARN: no catalog API key configured, catalog routes disabled")
	}

	server := &http.Server{
		Addr:    settings.Listen,
		Handler: utils.RequireAPIKey(settings.APIKey, router),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[main] Listening on %s", settings.Listen)
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		log.Printf("[main] Received %s, shutting down", sig)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
