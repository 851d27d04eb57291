package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/code-payments/moderation-gateway/moderation"
)

// Uploads beyond this are spooled to disk by the multipart parser.
const maxMultipartMemory = 32 << 20

const uploadField = "file"

type Handler struct {
	log    *zap.Logger
	server *moderation.Server
}

func NewHandler(log *zap.Logger, server *moderation.Server) *Handler {
	return &Handler{
		log:    log,
		server: server,
	}
}

// textRequest uses pointers so a missing field can be told apart from a
// zero value. Unknown fields are ignored.
type textRequest struct {
	UserID *int64  `json:"user_id"`
	Text   *string `json:"text"`
}

// HandleModerateText serves POST /moderate-text.
func (h *Handler) HandleModerateText(w http.ResponseWriter, r *http.Request) {
	log := h.log.With(zap.String("request_id", RequestIDFromContext(r.Context())))

	var req textRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			field := typeErr.Field
			if field == "" {
				field = "body"
			}
			WriteError(w, http.StatusUnprocessableEntity, CodeValidation, field+" has the wrong type")
			return
		}
		WriteError(w, http.StatusBadRequest, CodeInvalidRequest, "invalid JSON body")
		return
	}
	if req.UserID == nil {
		WriteError(w, http.StatusUnprocessableEntity, CodeValidation, "user_id is required")
		return
	}
	if req.Text == nil {
		WriteError(w, http.StatusUnprocessableEntity, CodeValidation, "text is required")
		return
	}

	result, err := h.server.ModerateText(r.Context(), &moderation.TextRequest{
		UserID: *req.UserID,
		Text:   *req.Text,
	})
	if err != nil {
		writeModerationError(w, log, err)
		return
	}

	WriteJSON(w, http.StatusOK, result)
}

// HandleModerateImage serves POST /moderate-image with a multipart "file".
func (h *Handler) HandleModerateImage(w http.ResponseWriter, r *http.Request) {
	log := h.log.With(zap.String("request_id", RequestIDFromContext(r.Context())))

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			WriteError(w, http.StatusUnprocessableEntity, CodeValidation, "multipart upload with a file field is required")
			return
		}
		WriteError(w, http.StatusBadRequest, CodeInvalidRequest, "invalid multipart body")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile(uploadField)
	if err != nil {
		WriteError(w, http.StatusUnprocessableEntity, CodeValidation, "file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		log.Warn("Failed to read upload", zap.Error(err))
		WriteError(w, http.StatusBadRequest, CodeInvalidRequest, "failed to read upload")
		return
	}

	result, err := h.server.ModerateImage(r.Context(), &moderation.ImageRequest{
		Filename: header.Filename,
		Data:     data,
	})
	if err != nil {
		writeModerationError(w, log, err)
		return
	}

	WriteJSON(w, http.StatusOK, result)
}

type healthStatus struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// HandleHealth serves GET /health.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, healthStatus{
		Status:    "healthy",
		Timestamp: time.Now(),
	})
}
