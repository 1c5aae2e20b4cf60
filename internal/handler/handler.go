package handler

import (
	"catalog-service/internal/catalog"
	"catalog-service/internal/store"
	"catalog-service/internal/sync"
)

// Package-level collaborators, wired once at startup.
var (
	catalogService *catalog.Service
	syncProcessor  *sync.Processor
	dataStore      store.Store
)

// Init wires the handlers to their collaborators
func Init(svc *catalog.Service, processor *sync.Processor, st store.Store) {
	catalogService = svc
	syncProcessor = processor
	dataStore = st
}
