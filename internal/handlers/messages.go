package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/frikords/apiserver/types"
)

func (api *API) listMessages(w http.ResponseWriter, r *http.Request, viewer *types.Identity) {
	if roomID := queryInt(r, "room_id"); roomID > 0 {
		if viewer == nil {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		msgs, err := api.messages.ListRoom(r.Context(), *viewer, roomID)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"messages": msgs})
		return
	}

	msgs, err := api.messages.ListChannel(r.Context(), viewer, r.URL.Query().Get("channel"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": msgs})
}

type postMessageRequest struct {
	Content string `json:"content"`
	Channel string `json:"channel"`
	RoomID  int    `json:"room_id"`
}

func (api *API) postMessage(w http.ResponseWriter, r *http.Request, viewer *types.Identity) {
	var req postMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	msg, err := api.messages.Post(r.Context(), *viewer, req.Channel, req.RoomID, req.Content)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": msg})
}

type messageIDRequest struct {
	MessageID int `json:"msg_id"`
}

func (api *API) deleteMessage(w http.ResponseWriter, r *http.Request, viewer *types.Identity) {
	var req messageIDRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if err := api.messages.Delete(r.Context(), *viewer, req.MessageID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

type editMessageRequest struct {
	MessageID int    `json:"msg_id"`
	Content   string `json:"content"`
}

func (api *API) editMessage(w http.ResponseWriter, r *http.Request, viewer *types.Identity) {
	var req editMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	content, err := api.messages.Edit(r.Context(), *viewer, req.MessageID, req.Content)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "content": content})
}

type reactRequest struct {
	MessageID int    `json:"msg_id"`
	Emoji     string `json:"emoji"`
}

func (api *API) react(w http.ResponseWriter, r *http.Request, viewer *types.Identity) {
	var req reactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	result, err := api.messages.React(r.Context(), *viewer, req.MessageID, req.Emoji)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "reaction": result})
}
