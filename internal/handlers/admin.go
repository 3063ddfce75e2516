package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/frikords/apiserver/types"
)

func (api *API) adminStats(w http.ResponseWriter, r *http.Request, _ *types.Identity) {
	stats, err := api.admin.Stats(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"stats": stats})
}

func (api *API) adminLogs(w http.ResponseWriter, r *http.Request, _ *types.Identity) {
	entries, err := api.admin.Logs(r.Context(), r.URL.Query().Get("level"), queryInt(r, "limit"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"logs": entries})
}

func (api *API) adminUsers(w http.ResponseWriter, r *http.Request, _ *types.Identity) {
	users, err := api.admin.Users(r.Context(), r.URL.Query().Get("q"), queryInt(r, "limit"), queryInt(r, "offset"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": users})
}

func (api *API) adminMessages(w http.ResponseWriter, r *http.Request, _ *types.Identity) {
	msgs, err := api.admin.Messages(r.Context(), r.URL.Query().Get("channel"), queryInt(r, "room_id"), queryInt(r, "limit"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": msgs})
}

type adminBanRequest struct {
	UserID int `json:"user_id"`
	// Ban defaults to true when the field is absent.
	Ban *bool `json:"ban"`
}

func (api *API) adminBan(w http.ResponseWriter, r *http.Request, viewer *types.Identity) {
	var req adminBanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	ban := req.Ban == nil || *req.Ban
	if err := api.admin.Ban(r.Context(), *viewer, req.UserID, ban); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

type adminClearRequest struct {
	MessageID int    `json:"msg_id"`
	RoomID    int    `json:"room_id"`
	Channel   string `json:"channel"`
}

func (api *API) adminClear(w http.ResponseWriter, r *http.Request, viewer *types.Identity) {
	var req adminClearRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	cleared, err := api.admin.Clear(r.Context(), *viewer, req.MessageID, req.RoomID, req.Channel)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "cleared": cleared})
}

type adminSetBadgeRequest struct {
	UserID int    `json:"user_id"`
	Badge  string `json:"badge"`
}

func (api *API) adminSetBadge(w http.ResponseWriter, r *http.Request, viewer *types.Identity) {
	var req adminSetBadgeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if err := api.admin.SetBadge(r.Context(), *viewer, req.UserID, req.Badge); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
