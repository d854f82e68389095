package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"user-account-service/internal/http/middleware"
	"user-account-service/internal/http/response"
	"user-account-service/internal/repository"
	"user-account-service/internal/service"
)

const maxMultipartMemory = 10 << 20

type UserHandler struct {
	userSvc   service.UserServiceInterface
	avatarSvc service.AvatarServiceInterface
}

func NewUserHandler(userSvc service.UserServiceInterface, avatarSvc service.AvatarServiceInterface) *UserHandler {
	return &UserHandler{
		userSvc:   userSvc,
		avatarSvc: avatarSvc,
	}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *UserHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid request body", nil)
		return
	}

	summary, err := h.userSvc.Signup(r.Context(), req.Email, req.Password)
	if err != nil {
		var verr *service.ValidationError
		switch {
		case errors.As(err, &verr):
			response.Error(w, r, http.StatusBadRequest, "VALIDATION_ERROR", verr.Message, nil)
		case errors.Is(err, repository.ErrEmailTaken):
			response.Error(w, r, http.StatusConflict, "CONFLICT", "email is already in use", nil)
		default:
			response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to sign up", nil)
		}
		return
	}
	response.JSON(w, r, http.StatusCreated, map[string]interface{}{"user": summary})
}

func (h *UserHandler) Verify(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "verificationToken")
	if err := h.userSvc.Verify(r.Context(), token); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "user not found", nil)
			return
		}
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to verify email", nil)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]interface{}{"message": "verification successful"})
}

func (h *UserHandler) ReVerify(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid request body", nil)
		return
	}

	if err := h.userSvc.ReVerify(r.Context(), req.Email); err != nil {
		switch {
		case errors.Is(err, repository.ErrUserNotFound):
			response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "user not found", nil)
		case errors.Is(err, service.ErrAlreadyVerified):
			response.Error(w, r, http.StatusBadRequest, "ALREADY_VERIFIED", "verification has already been passed", nil)
		default:
			response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to re-send verification email", nil)
		}
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]interface{}{"message": "verification email sent"})
}

func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid request body", nil)
		return
	}

	result, err := h.userSvc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		var verr *service.ValidationError
		switch {
		case errors.As(err, &verr):
			response.Error(w, r, http.StatusBadRequest, "VALIDATION_ERROR", verr.Message, nil)
		case errors.Is(err, service.ErrEmailNotVerified):
			response.Error(w, r, http.StatusUnauthorized, "EMAIL_UNVERIFIED", "email is not verified", nil)
		case errors.Is(err, service.ErrBadCredentials):
			response.Error(w, r, http.StatusBadRequest, "BAD_CREDENTIALS", "email or password is wrong", nil)
		default:
			response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to log in", nil)
		}
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]interface{}{
		"token": result.Token,
		"user":  result.User,
	})
}

func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "not authorized", nil)
		return
	}
	if err := h.userSvc.Logout(r.Context(), user.ID); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "user not found", nil)
			return
		}
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "an error occurred during logout", nil)
		return
	}
	response.NoContent(w)
}

func (h *UserHandler) Current(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "not authorized", nil)
		return
	}
	summary, err := h.userSvc.Current(r.Context(), user.ID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "user not found", nil)
			return
		}
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to load current user", nil)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]interface{}{
		"email":        summary.Email,
		"subscription": summary.Subscription,
	})
}

func (h *UserHandler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "not authorized", nil)
		return
	}

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "no file uploaded", nil)
		return
	}
	file, header, err := r.FormFile("avatar")
	if err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "no file uploaded", nil)
		return
	}
	defer func() { _ = file.Close() }()

	avatarURL, err := h.avatarSvc.UpdateAvatar(r.Context(), user.ID, header.Filename, file)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrImageProcessing):
			response.Error(w, r, http.StatusUnprocessableEntity, "IMAGE_PROCESSING", "failed to process image", nil)
		case errors.Is(err, repository.ErrUserNotFound):
			response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "user not found", nil)
		default:
			response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to update avatar", nil)
		}
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]interface{}{"avatar_url": avatarURL})
}
