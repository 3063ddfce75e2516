package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/frikords/apiserver/types"
)

func (api *API) friendsGet(w http.ResponseWriter, r *http.Request, viewer *types.Identity) {
	switch sub := r.URL.Query().Get("sub"); sub {
	case "", "list":
		friends, err := api.friends.List(r.Context(), *viewer)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"friends": friends})
	case "requests":
		reqs, err := api.friends.Requests(r.Context(), *viewer)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"requests": reqs})
	default:
		writeError(w, http.StatusBadRequest, "unknown sub action")
	}
}

type friendActionRequest struct {
	Sub       string `json:"sub"`
	Username  string `json:"username"`
	UserID    int    `json:"user_id"`
	RequestID int    `json:"request_id"`
}

func (api *API) friendsPost(w http.ResponseWriter, r *http.Request, viewer *types.Identity) {
	var req friendActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if req.Sub == "" {
		req.Sub = r.URL.Query().Get("sub")
	}

	var err error
	switch req.Sub {
	case "send":
		err = api.friends.Send(r.Context(), *viewer, req.UserID, req.Username)
	case "accept":
		err = api.friends.Accept(r.Context(), *viewer, req.RequestID)
	case "decline":
		err = api.friends.Decline(r.Context(), *viewer, req.RequestID)
	default:
		writeError(w, http.StatusBadRequest, "unknown sub action")
		return
	}
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
