package handler

import (
	"net/http"

	"tush00nka/chitchat/internal/pkg/httputils"
	"tush00nka/chitchat/internal/pkg/logging"
	"tush00nka/chitchat/internal/service"

	"github.com/gorilla/mux"
)

type MessageHandler struct {
	messageService service.MessageService
	log            logging.Logger
}

func NewMessageHandler(messageService service.MessageService, log logging.Logger) *MessageHandler {
	return &MessageHandler{messageService: messageService, log: log}
}

func (h *MessageHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/messages", h.sendMessage).Methods("POST", "OPTIONS")
	router.HandleFunc("/messages/{userId}/{friendId}", h.getHistory).Methods("GET", "OPTIONS")
}

type SendMessageRequest struct {
	Text     string `json:"text"`
	Sender   string `json:"sender"`
	Receiver string `json:"receiver"`
}

// @Summary Send message
// @Description Store a message between two users. Live delivery goes over /ws.
// @ID send-message
// @Tags messages
// @Accept json
// @Produce json
// @Param messageData body SendMessageRequest true "Message data"
// @Success 201 {object} model.Message
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /messages [post]
func (h *MessageHandler) sendMessage(w http.ResponseWriter, r *http.Request) {
	var request SendMessageRequest
	if err := httputils.DecodeJSON(r, &request); err != nil {
		respondError(w, r, h.log, err)
		return
	}

	msg, err := h.messageService.SendMessage(r.Context(), request.Sender, request.Receiver, request.Text)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}

	httputils.ResponseJSON(w, http.StatusCreated, msg)
}

// @Summary Chat history
// @Description Messages between two users in either direction, oldest first
// @ID get-history
// @Tags messages
// @Produce json
// @Param userId path string true "User ID"
// @Param friendId path string true "Friend ID"
// @Success 200 {array} model.Message
// @Failure 500 {object} response.ErrorResponse
// @Router /messages/{userId}/{friendId} [get]
func (h *MessageHandler) getHistory(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	messages, err := h.messageService.GetHistory(r.Context(), vars["userId"], vars["friendId"])
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}

	httputils.ResponseJSON(w, http.StatusOK, messages)
}
