package handler

import (
	"net/http"

	"tush00nka/chitchat/internal/pkg/httputils"
	"tush00nka/chitchat/internal/pkg/logging"
	"tush00nka/chitchat/internal/service"

	"github.com/gorilla/mux"
)

type UserHandler struct {
	userService service.UserService
	log         logging.Logger
}

func NewUserHandler(userService service.UserService, log logging.Logger) *UserHandler {
	return &UserHandler{userService: userService, log: log}
}

func (h *UserHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/users", h.listUsers).Methods("GET", "OPTIONS")
	router.HandleFunc("/users/{id}", h.getUser).Methods("GET", "OPTIONS")
}

// @Summary List users
// @Description All registered users
// @ID list-users
// @Tags users
// @Produce json
// @Success 200 {array} model.User
// @Failure 500 {object} response.ErrorResponse
// @Router /users [get]
func (h *UserHandler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.ListUsers(r.Context())
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}

	httputils.ResponseJSON(w, http.StatusOK, users)
}

// @Summary Get user
// @Description Get user by id
// @ID get-user
// @Tags users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} model.User
// @Failure 404 {object} response.ErrorResponse
// @Router /users/{id} [get]
func (h *UserHandler) getUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.userService.GetUser(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}

	httputils.ResponseJSON(w, http.StatusOK, user)
}
