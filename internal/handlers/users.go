package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/frikords/apiserver/types"
)

func (api *API) profile(w http.ResponseWriter, r *http.Request, _ *types.Identity) {
	profile, err := api.users.Profile(r.Context(), queryInt(r, "user_id"), r.URL.Query().Get("username"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"profile": profile})
}

type uploadAvatarRequest struct {
	Avatar string `json:"avatar"`
}

func (api *API) uploadAvatar(w http.ResponseWriter, r *http.Request, viewer *types.Identity) {
	var req uploadAvatarRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	url, err := api.users.UploadAvatar(r.Context(), *viewer, req.Avatar)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "avatar_url": url})
}

func (api *API) getSettings(w http.ResponseWriter, r *http.Request, viewer *types.Identity) {
	settings, err := api.users.Settings(r.Context(), *viewer)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"settings": settings})
}

type updateSettingsRequest struct {
	Username     string `json:"username"`
	FavoriteGame string `json:"favorite_game"`
}

func (api *API) updateSettings(w http.ResponseWriter, r *http.Request, viewer *types.Identity) {
	var req updateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	settings, err := api.users.UpdateSettings(r.Context(), *viewer, req.Username, req.FavoriteGame)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "settings": settings})
}

func (api *API) online(w http.ResponseWriter, r *http.Request, _ *types.Identity) {
	users, err := api.users.Online(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"online": len(users), "users": users})
}
