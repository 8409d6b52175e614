package handler

import (
	"net/http"
	"time"

	"tush00nka/chitchat/internal/model"
	"tush00nka/chitchat/internal/pkg/auth"
	"tush00nka/chitchat/internal/pkg/httputils"
	"tush00nka/chitchat/internal/pkg/logging"
	"tush00nka/chitchat/internal/service"

	"github.com/gorilla/mux"
)

type AuthHandler struct {
	authService   service.AuthService
	userService   service.UserService
	friendService service.FriendService
	log           logging.Logger
}

func NewAuthHandler(
	authService service.AuthService,
	userService service.UserService,
	friendService service.FriendService,
	log logging.Logger,
) *AuthHandler {
	return &AuthHandler{
		authService:   authService,
		userService:   userService,
		friendService: friendService,
		log:           log,
	}
}

func (h *AuthHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/auth/register", h.register).Methods("POST", "OPTIONS")
	router.HandleFunc("/auth/verify", h.verify).Methods("POST", "OPTIONS")
	router.HandleFunc("/auth/resend_code", h.resendCode).Methods("POST", "OPTIONS")
	router.HandleFunc("/auth/login", h.login).Methods("POST", "OPTIONS")

	session := RequireSession(h.authService, h.log)
	router.Handle("/auth/add_friend", session(http.HandlerFunc(h.addFriend))).Methods("POST", "OPTIONS")
	router.Handle("/auth/remove_friend", session(http.HandlerFunc(h.removeFriend))).Methods("DELETE", "OPTIONS")
	router.Handle("/auth/user", session(http.HandlerFunc(h.getSelf))).Methods("GET", "OPTIONS")
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// @Summary Register
// @Description Create an unverified account and email a verification code
// @ID register
// @Tags auth
// @Accept json
// @Produce json
// @Param registerData body RegisterRequest true "Register data"
// @Success 200 {object} response.MessageResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /auth/register [post]
func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request) {
	var request RegisterRequest
	if err := httputils.DecodeJSON(r, &request); err != nil {
		respondError(w, r, h.log, err)
		return
	}

	err := h.authService.Register(r.Context(), service.RegisterInput{
		Name:     request.Name,
		Email:    request.Email,
		Password: request.Password,
	})
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}

	httputils.ResponseMessage(w, http.StatusOK, "Verification code sent to your email")
}

type VerifyRequest struct {
	Email            string `json:"email"`
	VerificationCode string `json:"verificationCode"`
}

// @Summary Verify email
// @Description Confirm an account with the emailed code
// @ID verify
// @Tags auth
// @Accept json
// @Produce json
// @Param verifyData body VerifyRequest true "Verification data"
// @Success 200 {object} response.MessageResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /auth/verify [post]
func (h *AuthHandler) verify(w http.ResponseWriter, r *http.Request) {
	var request VerifyRequest
	if err := httputils.DecodeJSON(r, &request); err != nil {
		respondError(w, r, h.log, err)
		return
	}

	if err := h.authService.Verify(r.Context(), request.Email, request.VerificationCode); err != nil {
		respondError(w, r, h.log, err)
		return
	}

	httputils.ResponseMessage(w, http.StatusOK, "Account verified successfully")
}

type ResendCodeRequest struct {
	Email string `json:"email"`
}

// @Summary Resend verification code
// @Description Issue a fresh code for an unverified account
// @ID resend-code
// @Tags auth
// @Accept json
// @Produce json
// @Param resendData body ResendCodeRequest true "Account email"
// @Success 200 {object} response.MessageResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /auth/resend_code [post]
func (h *AuthHandler) resendCode(w http.ResponseWriter, r *http.Request) {
	var request ResendCodeRequest
	if err := httputils.DecodeJSON(r, &request); err != nil {
		respondError(w, r, h.log, err)
		return
	}

	if err := h.authService.ResendCode(r.Context(), request.Email); err != nil {
		respondError(w, r, h.log, err)
		return
	}

	httputils.ResponseMessage(w, http.StatusOK, "Verification code sent to your email")
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      *model.User `json:"user"`
}

// @Summary Login
// @Description Exchange credentials of a verified account for a session token
// @ID login
// @Tags auth
// @Accept json
// @Produce json
// @Param loginData body LoginRequest true "Login data"
// @Success 200 {object} LoginResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 403 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var request LoginRequest
	if err := httputils.DecodeJSON(r, &request); err != nil {
		respondError(w, r, h.log, err)
		return
	}

	result, err := h.authService.Login(r.Context(), request.Email, request.Password)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}

	httputils.ResponseJSON(w, http.StatusOK, LoginResponse{
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
		User:      result.User,
	})
}

type AddFriendRequest struct {
	FriendCode string `json:"friendCode"`
}

type AddFriendResponse struct {
	NewFriend *model.User `json:"newFriend"`
}

// @Summary Add friend
// @Description Append the owner of a friend code to the caller's friends
// @ID add-friend
// @Tags friends
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param friendData body AddFriendRequest true "Friend code"
// @Success 200 {object} AddFriendResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 401 {object} response.ErrorResponse
// @Failure 403 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /auth/add_friend [post]
func (h *AuthHandler) addFriend(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var request AddFriendRequest
	if err := httputils.DecodeJSON(r, &request); err != nil {
		respondError(w, r, h.log, err)
		return
	}

	friend, err := h.friendService.AddFriend(r.Context(), userID, request.FriendCode)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}

	httputils.ResponseJSON(w, http.StatusOK, AddFriendResponse{NewFriend: friend})
}

type RemoveFriendRequest struct {
	FriendID string `json:"friendId"`
}

// @Summary Remove friend
// @Description Drop a friend and delete all messages exchanged with them
// @ID remove-friend
// @Tags friends
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param friendData body RemoveFriendRequest true "Friend id"
// @Success 200 {object} response.MessageResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 401 {object} response.ErrorResponse
// @Failure 403 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /auth/remove_friend [delete]
func (h *AuthHandler) removeFriend(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var request RemoveFriendRequest
	if err := httputils.DecodeJSON(r, &request); err != nil {
		respondError(w, r, h.log, err)
		return
	}

	if err := h.friendService.RemoveFriend(r.Context(), userID, request.FriendID); err != nil {
		respondError(w, r, h.log, err)
		return
	}

	httputils.ResponseMessage(w, http.StatusOK, "Friend and associated messages removed successfully")
}

// @Summary Current user
// @Description Profile of the token holder
// @ID get-self
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.User
// @Failure 401 {object} response.ErrorResponse
// @Failure 403 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /auth/user [get]
func (h *AuthHandler) getSelf(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	user, err := h.userService.GetUser(r.Context(), userID)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}

	httputils.ResponseJSON(w, http.StatusOK, user)
}
