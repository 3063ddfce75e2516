package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/frikords/apiserver/types"
)

func (api *API) listDMs(w http.ResponseWriter, r *http.Request, viewer *types.Identity) {
	msgs, err := api.dms.Conversation(r.Context(), *viewer, queryInt(r, "user_id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": msgs})
}

type sendDMRequest struct {
	UserID  int    `json:"user_id"`
	Content string `json:"content"`
}

func (api *API) sendDM(w http.ResponseWriter, r *http.Request, viewer *types.Identity) {
	var req sendDMRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	msg, err := api.dms.Send(r.Context(), *viewer, req.UserID, req.Content)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": msg})
}

func (api *API) deleteDM(w http.ResponseWriter, r *http.Request, viewer *types.Identity) {
	var req messageIDRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if err := api.dms.Delete(r.Context(), *viewer, req.MessageID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
