package v1

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/filedepot/filedepot/storage"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
)

// defaultMaxBodyBytes leaves room for a max-size file after base64 expansion.
var defaultMaxBodyBytes = int64(16 << 20) //16MB

// Engine is the part of the storage engine the HTTP layer relies on.
// *storage.Store implements it.
type Engine interface {
	Upload(name string, content []byte, fileType string, tags []string) error
	Download(name string) (storage.File, error)
	Delete(name string) error
	UpdateMetadata(name string, tags []string) error
	CreateVersion(name string, content []byte) (string, error)
	SearchByTags(tags []string) []storage.File
	Analytics() storage.Analytics
	TypeDistribution() map[string]int
}

type Options struct {
	MaxBodyBytes int64
}

type Option func(*Options)

func WithMaxBodyBytes(n int64) Option {
	return func(o *Options) {
		o.MaxBodyBytes = n
	}
}

func NewController(e Engine, opts ...Option) Controller {
	o := Options{
		MaxBodyBytes: defaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return Controller{
		engine:       e,
		maxBodyBytes: o.MaxBodyBytes,
		metrics:      newMetrics(e),
	}
}

type Controller struct {
	engine       Engine
	maxBodyBytes int64
	metrics      apiMetrics
}

type uploadRequest struct {
	Name     string   `json:"name"`
	Content  []byte   `json:"content"`
	FileType string   `json:"file_type"`
	Tags     []string `json:"tags"`
}

type metadataUpdateRequest struct {
	// Tags replaces the tag list when present. Absent or null leaves tags untouched.
	Tags *[]string `json:"tags"`
}

type versionRequest struct {
	Content []byte `json:"content"`
}

type versionResponse struct {
	VersionID string `json:"version_id"`
}

func (c *Controller) UploadFile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, c.maxBodyBytes)
		defer r.Body.Close()

		var req uploadRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			log.Debug().Err(err).Msg("invalid upload payload")
			writeDecodeError(w, err)
			return
		}
		if req.Name == "" {
			writeError(w, http.StatusBadRequest, errors.New("name is required"))
			return
		}

		if err := c.engine.Upload(req.Name, req.Content, req.FileType, req.Tags); err != nil {
			log.Debug().Err(err).Str("file_name", req.Name).Msg("upload rejected")
			writeEngineError(w, err)
			return
		}
		c.metrics.uploads.Add(r.Context(), 1)

		log.Info().
			Str("file_name", req.Name).
			Int("file_size", len(req.Content)).
			Str("file_type", req.FileType).
			Msg("File Uploaded")

		w.WriteHeader(http.StatusCreated)
	}
}

func (c *Controller) DownloadFile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		name := vars["name"]

		f, err := c.engine.Download(name)
		if err != nil {
			log.Debug().Err(err).Str("file_name", name).Msg("download failed")
			writeEngineError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, f)
	}
}

func (c *Controller) DeleteFile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		name := vars["name"]

		if err := c.engine.Delete(name); err != nil {
			log.Debug().Err(err).Str("file_name", name).Msg("delete failed")
			writeEngineError(w, err)
			return
		}
		c.metrics.deletes.Add(r.Context(), 1)

		log.Info().Str("file_name", name).Msg("File Deleted")
		w.WriteHeader(http.StatusNoContent)
	}
}

func (c *Controller) UpdateFileMetadata() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, c.maxBodyBytes)
		defer r.Body.Close()

		vars := mux.Vars(r)
		name := vars["name"]

		var req metadataUpdateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			log.Debug().Err(err).Msg("invalid metadata payload")
			writeDecodeError(w, err)
			return
		}

		var err error
		if req.Tags == nil {
			err = c.engine.UpdateMetadata(name, nil)
		} else {
			err = c.engine.UpdateMetadata(name, *req.Tags)
		}
		if err != nil {
			log.Debug().Err(err).Str("file_name", name).Msg("metadata update failed")
			writeEngineError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (c *Controller) CreateFileVersion() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, c.maxBodyBytes)
		defer r.Body.Close()

		vars := mux.Vars(r)
		name := vars["name"]

		var req versionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			log.Debug().Err(err).Msg("invalid version payload")
			writeDecodeError(w, err)
			return
		}

		versionID, err := c.engine.CreateVersion(name, req.Content)
		if err != nil {
			log.Debug().Err(err).Str("file_name", name).Msg("version snapshot failed")
			writeEngineError(w, err)
			return
		}

		log.Info().
			Str("file_name", name).
			Str("version_id", versionID).
			Msg("Version Recorded")

		writeJSON(w, http.StatusCreated, versionResponse{VersionID: versionID})
	}
}

func (c *Controller) SearchFiles() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tags := r.URL.Query()["tag"]
		log.Debug().Strs("tags", tags).Msg("Check request query")

		writeJSON(w, http.StatusOK, c.engine.SearchByTags(tags))
	}
}

func (c *Controller) GetAnalytics() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, c.engine.Analytics())
	}
}

func (c *Controller) GetTypeDistribution() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, c.engine.TypeDistribution())
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		writeError(w, http.StatusInternalServerError, errors.New("unable to encode response"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(b)
}

func writeDecodeError(w http.ResponseWriter, err error) {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		writeError(w, http.StatusRequestEntityTooLarge, errors.New("request body too large"))
		return
	}
	writeError(w, http.StatusBadRequest, errors.New("invalid request body"))
}

func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrFileNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, storage.ErrStorageLimit):
		writeError(w, http.StatusRequestEntityTooLarge, err)
	case errors.Is(err, storage.ErrFileAlreadyExists):
		writeError(w, http.StatusConflict, err)
	case errors.Is(err, storage.ErrInvalidOperation), errors.Is(err, storage.ErrInvalidFileType):
		writeError(w, http.StatusBadRequest, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}

type cError struct {
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, code int, err error) {
	b, _ := json.Marshal(cError{Message: err.Error()})
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(b)
}
