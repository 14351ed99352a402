package handlers

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ebogdum/hotfs/events"
	"github.com/ebogdum/hotfs/hotfolder"
	"github.com/ebogdum/hotfs/internal/logutil"
	"github.com/ebogdum/hotfs/server/middleware"
)

// HotfolderResponse is the detailed view of one hotfolder
type HotfolderResponse struct {
	hotfolder.Status
	Files []hotfolder.TrackedFile `json:"files"`
}

// ReleaseResponse acknowledges a release request
type ReleaseResponse struct {
	Hotfolder string `json:"hotfolder"`
	URI       string `json:"uri"`
}

// V1ListHotfolders handles GET /v1/hotfolders
func V1ListHotfolders(manager *hotfolder.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list := manager.List()
		statuses := make([]hotfolder.Status, 0, len(list))
		for _, h := range list {
			statuses = append(statuses, h.Status())
		}
		SendJSONResponse(w, statuses)
	}
}

// V1GetHotfolder handles GET /v1/hotfolders/{id}
func V1GetHotfolder(manager *hotfolder.Manager, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h, ok := lookupHotfolder(w, r, manager, logger)
		if !ok {
			return
		}
		SendJSONResponse(w, HotfolderResponse{Status: h.Status(), Files: h.Tracked()})
	}
}

// V1ReleaseFile handles POST /v1/hotfolders/{id}/release?uri=. The file is
// forgotten and reported again on a later scan if it is still present.
func V1ReleaseFile(manager *hotfolder.Manager, resolver Resolver, broadcaster *events.Broadcaster, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h, ok := lookupHotfolder(w, r, manager, logger)
		if !ok {
			return
		}

		uri, err := uriParam(r)
		if err != nil {
			SendErrorResponse(w, logger, err, http.StatusBadRequest)
			return
		}

		f, err := resolver.ResolveString(r.Context(), uri)
		if err != nil {
			SendErrorResponse(w, logger, err, http.StatusInternalServerError)
			return
		}
		defer f.Close()

		h.Release(f)

		redacted := logutil.RedactURI(f.URI())
		broadcaster.Publish(events.Event{
			Type:      events.EventRelease,
			Hotfolder: h.ID(),
			URI:       redacted,
			Name:      f.Name(),
		})

		clientID, _ := middleware.GetClientID(r.Context())
		logger.Info("Released file via API",
			zap.String("hotfolder", h.ID()),
			zap.String("uri", redacted),
			zap.String("client_id", clientID))

		SendJSONResponse(w, ReleaseResponse{Hotfolder: h.ID(), URI: redacted})
	}
}

func lookupHotfolder(w http.ResponseWriter, r *http.Request, manager *hotfolder.Manager, logger *zap.Logger) (*hotfolder.Hotfolder, bool) {
	id := chi.URLParam(r, "id")
	h, ok := manager.Get(id)
	if !ok {
		SendErrorResponse(w, logger, fmt.Errorf("%w: %q", errHotfolderNotFound, id), http.StatusNotFound)
		return nil, false
	}
	return h, true
}
