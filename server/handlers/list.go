package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/ebogdum/hotfs/backends"
	"github.com/ebogdum/hotfs/hotfolder"
	"github.com/ebogdum/hotfs/internal/logutil"
	"github.com/ebogdum/hotfs/internal/pathutil"
	"github.com/ebogdum/hotfs/server/middleware"
)

const maxListDepth = 1000

// Resolver turns request URIs into handles
type Resolver interface {
	ResolveString(ctx context.Context, uri string) (backends.File, error)
}

// FileInfo describes one listed entry
type FileInfo struct {
	URI       string `json:"uri"`
	Name      string `json:"name"`
	Directory bool   `json:"directory"`
	Size      int64  `json:"size"`
	Modified  int64  `json:"modified"`
}

// ListResponse represents the response for listing operations
type ListResponse struct {
	URI       string     `json:"uri"`
	Recursive bool       `json:"recursive"`
	MaxDepth  int        `json:"max_depth,omitempty"`
	Count     int        `json:"count"`
	Items     []FileInfo `json:"items"`
}

// V1List handles GET /v1/list?uri=&recursive=&visible=&glob=&sort=&order=&max_depth=
func V1List(resolver Resolver, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
		defer cancel()

		q := r.URL.Query()
		uri, err := uriParam(r)
		if err != nil {
			SendErrorResponse(w, logger, err, http.StatusBadRequest)
			return
		}

		recursive, err := queryBool(q.Get("recursive"), false)
		if err != nil {
			SendErrorResponse(w, logger, err, http.StatusBadRequest)
			return
		}
		visible, err := queryBool(q.Get("visible"), true)
		if err != nil {
			SendErrorResponse(w, logger, err, http.StatusBadRequest)
			return
		}
		maxDepth := 0
		if s := q.Get("max_depth"); s != "" {
			maxDepth, err = strconv.Atoi(s)
			if err != nil || maxDepth < 0 {
				SendErrorResponse(w, logger, fmt.Errorf("%w: max_depth must be a non-negative integer", backends.ErrInvalidInput), http.StatusBadRequest)
				return
			}
			if maxDepth > maxListDepth {
				maxDepth = maxListDepth
			}
		}

		include, recurse := "all", "none"
		if visible {
			include = "visible"
		}
		if recursive {
			recurse = include
		}

		grab, err := hotfolder.IncludeFilter(include, q.Get("glob"))
		if err != nil {
			SendErrorResponse(w, logger, err, http.StatusBadRequest)
			return
		}
		move, err := hotfolder.RecurseFilter(recurse, maxDepth)
		if err != nil {
			SendErrorResponse(w, logger, err, http.StatusBadRequest)
			return
		}
		key, err := backends.ParseSortKey(q.Get("sort"))
		if err != nil {
			SendErrorResponse(w, logger, err, http.StatusBadRequest)
			return
		}
		order, err := backends.ParseOrder(q.Get("order"))
		if err != nil {
			SendErrorResponse(w, logger, err, http.StatusBadRequest)
			return
		}

		root, err := resolver.ResolveString(ctx, uri)
		if err != nil {
			SendErrorResponse(w, logger, err, http.StatusInternalServerError)
			return
		}
		defer root.Close()

		isDir, err := root.IsDirectory(ctx)
		if err != nil {
			SendErrorResponse(w, logger, err, http.StatusInternalServerError)
			return
		}
		if !isDir {
			SendErrorResponse(w, logger, fmt.Errorf("%w: %s is not a directory", backends.ErrNotFound, logutil.RedactURI(root.URI())), http.StatusNotFound)
			return
		}

		files, err := root.List(ctx, grab, move, backends.SortBy(key, order))
		if err != nil {
			SendErrorResponse(w, logger, err, http.StatusInternalServerError)
			return
		}

		items := make([]FileInfo, 0, len(files))
		for _, f := range files {
			items = append(items, describe(ctx, f))
			f.Close()
		}

		response := ListResponse{
			URI:       logutil.RedactURI(root.URI()),
			Recursive: recursive,
			Count:     len(items),
			Items:     items,
		}
		if recursive {
			response.MaxDepth = maxDepth
		}

		w.Header().Set("X-Hotfs-Count", strconv.Itoa(len(items)))
		SendJSONResponse(w, response)

		clientID, _ := middleware.GetClientID(r.Context())
		logger.Info("Listed via API",
			logutil.URI("uri", root.URI()),
			zap.String("client_id", clientID),
			zap.Bool("recursive", recursive),
			zap.Int("items_count", len(items)))
	}
}

// describe reads the attributes of f; attributes that cannot be read are
// left zero since the entry may vanish between listing and stat.
func describe(ctx context.Context, f backends.File) FileInfo {
	info := FileInfo{
		URI:  logutil.RedactURI(f.URI()),
		Name: f.Name(),
	}
	info.Directory, _ = f.IsDirectory(ctx)
	if !info.Directory {
		info.Size, _ = f.Length(ctx)
	}
	info.Modified, _ = f.LastModified(ctx)
	return info
}

func queryBool(s string, def bool) (bool, error) {
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("%w: invalid boolean %q", backends.ErrInvalidInput, s)
	}
	return v, nil
}

// uriParam returns the uri query value after rejecting control characters
// and paths that climb above their root
func uriParam(r *http.Request) (string, error) {
	uri := r.URL.Query().Get("uri")
	if uri == "" {
		return "", fmt.Errorf("%w: uri is required", backends.ErrInvalidInput)
	}
	if err := pathutil.ValidatePath(uri); err != nil {
		return "", fmt.Errorf("%w: uri: %v", backends.ErrInvalidInput, err)
	}
	if u, err := url.Parse(uri); err == nil && u.Path != "" {
		if err := pathutil.ValidatePath(u.Path); err != nil {
			return "", fmt.Errorf("%w: uri: %v", backends.ErrInvalidInput, err)
		}
	}
	return uri, nil
}
