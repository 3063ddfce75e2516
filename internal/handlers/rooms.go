package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/frikords/apiserver/types"
)

func (api *API) listRooms(w http.ResponseWriter, r *http.Request, viewer *types.Identity) {
	rooms, err := api.rooms.List(r.Context(), viewer)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rooms": rooms})
}

type createRoomRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	IsPublic    bool   `json:"is_public"`
}

func (api *API) createRoom(w http.ResponseWriter, r *http.Request, viewer *types.Identity) {
	var req createRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	room, invite, err := api.rooms.Create(r.Context(), *viewer, req.Name, req.Description, req.IsPublic)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "room": room, "invite_code": invite})
}

type joinRoomRequest struct {
	Code string `json:"code"`
}

func (api *API) joinRoom(w http.ResponseWriter, r *http.Request, viewer *types.Identity) {
	var req joinRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	result, err := api.rooms.Join(r.Context(), *viewer, req.Code)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":        true,
		"room_id":        result.RoomID,
		"room_name":      result.RoomName,
		"already_member": result.AlreadyMember,
	})
}

type createInviteRequest struct {
	RoomID int `json:"room_id"`
}

func (api *API) createInvite(w http.ResponseWriter, r *http.Request, viewer *types.Identity) {
	var req createInviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	code, err := api.rooms.Invite(r.Context(), *viewer, req.RoomID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "invite_code": code})
}

type inviteFriendRequest struct {
	RoomID   int `json:"room_id"`
	FriendID int `json:"friend_id"`
}

func (api *API) inviteFriend(w http.ResponseWriter, r *http.Request, viewer *types.Identity) {
	var req inviteFriendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	alreadyMember, err := api.rooms.InviteFriend(r.Context(), *viewer, req.RoomID, req.FriendID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "already_member": alreadyMember})
}
