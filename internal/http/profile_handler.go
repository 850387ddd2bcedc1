package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/21521147/book-hunter-project/internal/identity/domain"
)

// IdentityAPI is the slice of the identity service the edge exposes.
type IdentityAPI interface {
	GetProfile(ctx context.Context, userID string) (*domain.User, error)
	Register(ctx context.Context, userID, email string) (*domain.User, error)
	UpdateProfile(ctx context.Context, userID string, update domain.ProfileUpdate) error
	AddFavorite(ctx context.Context, userID string, bookID int64) error
	RemoveFavorite(ctx context.Context, userID string, bookID int64) error
	ListFavorites(ctx context.Context, userID string) ([]int64, error)
}

type ProfileHandler struct {
	identity IdentityAPI
	timeout  time.Duration
}

func NewProfileHandler(identity IdentityAPI, timeout time.Duration) *ProfileHandler {
	return &ProfileHandler{identity: identity, timeout: timeout}
}

type RegisterRequestDTO struct {
	Email string `json:"email"`
}

type UpdateProfileRequestDTO struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	user, err := h.identity.GetProfile(ctx, userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, user)
}

func (h *ProfileHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	var req RegisterRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Email == "" {
		respondError(w, http.StatusBadRequest, "invalid_email", "email is required")
		return
	}

	user, err := h.identity.Register(ctx, userID, req.Email)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, user)
}

func (h *ProfileHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	var req UpdateProfileRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	err := h.identity.UpdateProfile(ctx, userID, domain.ProfileUpdate{
		Name:    req.Name,
		Phone:   req.Phone,
		Address: req.Address,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	user, err := h.identity.GetProfile(ctx, userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, user)
}

func (h *ProfileHandler) ListFavorites(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	favorites, err := h.identity.ListFavorites(ctx, userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if favorites == nil {
		favorites = []int64{}
	}

	respondJSON(w, http.StatusOK, map[string][]int64{"favorites": favorites})
}

func (h *ProfileHandler) AddFavorite(w http.ResponseWriter, r *http.Request) {
	h.favorite(w, r, h.identity.AddFavorite)
}

func (h *ProfileHandler) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	h.favorite(w, r, h.identity.RemoveFavorite)
}

func (h *ProfileHandler) favorite(w http.ResponseWriter, r *http.Request, apply func(context.Context, string, int64) error) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	bookID, ok := bookIDParam(w, r)
	if !ok {
		return
	}

	if err := apply(ctx, userID, bookID); err != nil {
		handleServiceError(w, err)
		return
	}

	favorites, err := h.identity.ListFavorites(ctx, userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string][]int64{"favorites": favorites})
}
