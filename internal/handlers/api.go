package handlers

import (
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/frikords/apiserver/internal/services"
	"github.com/frikords/apiserver/types"
)

type authLevel int

const (
	// authPublic ignores credentials entirely.
	authPublic authLevel = iota
	// authOptional resolves a token when present; anonymous otherwise.
	authOptional
	// authUser requires a valid session.
	authUser
	// authAdmin additionally requires the admin flag.
	authAdmin
)

// ratePolicy is a fixed-window quota keyed per authenticated user.
type ratePolicy struct {
	prefix        string
	limit         int
	windowSeconds int
}

// apiHandler is one action endpoint; viewer is nil for anonymous calls.
type apiHandler func(w http.ResponseWriter, r *http.Request, viewer *types.Identity)

type routeKey struct {
	action string
	method string
}

type route struct {
	auth    authLevel
	rate    *ratePolicy
	handler apiHandler
}

// API dispatches the single /api endpoint by its action query parameter.
type API struct {
	auth     *services.AuthService
	messages *services.MessageService
	rooms    *services.RoomService
	friends  *services.FriendService
	dms      *services.DirectMessageService
	users    *services.UserService
	admin    *services.AdminService
	audit    *services.AuditService
	limiter  *services.RateLimiter

	routes map[routeKey]route
}

func NewAPI(
	auth *services.AuthService,
	messages *services.MessageService,
	rooms *services.RoomService,
	friends *services.FriendService,
	dms *services.DirectMessageService,
	users *services.UserService,
	admin *services.AdminService,
	audit *services.AuditService,
	limiter *services.RateLimiter,
) *API {
	api := &API{
		auth:     auth,
		messages: messages,
		rooms:    rooms,
		friends:  friends,
		dms:      dms,
		users:    users,
		admin:    admin,
		audit:    audit,
		limiter:  limiter,
	}
	api.routes = map[routeKey]route{
		{"messages", http.MethodGet}:    {auth: authOptional, handler: api.listMessages},
		{"messages", http.MethodPost}:   {auth: authUser, rate: &ratePolicy{"msg", 5, 10}, handler: api.postMessage},
		{"delete_msg", http.MethodPost}: {auth: authUser, handler: api.deleteMessage},
		{"edit_msg", http.MethodPost}:   {auth: authUser, handler: api.editMessage},
		{"react", http.MethodPost}:      {auth: authUser, handler: api.react},

		{"rooms", http.MethodGet}:          {auth: authOptional, handler: api.listRooms},
		{"rooms", http.MethodPost}:         {auth: authUser, rate: &ratePolicy{"rooms", 3, 3600}, handler: api.createRoom},
		{"join", http.MethodPost}:          {auth: authUser, handler: api.joinRoom},
		{"invite", http.MethodPost}:        {auth: authUser, handler: api.createInvite},
		{"invite_friend", http.MethodPost}: {auth: authUser, handler: api.inviteFriend},

		{"profile", http.MethodGet}:        {auth: authPublic, handler: api.profile},
		{"upload_avatar", http.MethodPost}: {auth: authUser, handler: api.uploadAvatar},
		{"settings", http.MethodGet}:       {auth: authUser, handler: api.getSettings},
		{"settings", http.MethodPost}:      {auth: authUser, handler: api.updateSettings},
		{"online", http.MethodGet}:         {auth: authPublic, handler: api.online},

		{"friends", http.MethodGet}:  {auth: authUser, handler: api.friendsGet},
		{"friends", http.MethodPost}: {auth: authUser, handler: api.friendsPost},

		{"dm", http.MethodGet}:         {auth: authUser, handler: api.listDMs},
		{"dm", http.MethodPost}:        {auth: authUser, rate: &ratePolicy{"dm", 10, 10}, handler: api.sendDM},
		{"delete_dm", http.MethodPost}: {auth: authUser, handler: api.deleteDM},

		{"admin_stats", http.MethodGet}:      {auth: authAdmin, handler: api.adminStats},
		{"admin_logs", http.MethodGet}:       {auth: authAdmin, handler: api.adminLogs},
		{"admin_users", http.MethodGet}:      {auth: authAdmin, handler: api.adminUsers},
		{"admin_messages", http.MethodGet}:   {auth: authAdmin, handler: api.adminMessages},
		{"admin_ban", http.MethodPost}:       {auth: authAdmin, handler: api.adminBan},
		{"admin_clear", http.MethodPost}:     {auth: authAdmin, handler: api.adminClear},
		{"admin_set_badge", http.MethodPost}: {auth: authAdmin, handler: api.adminSetBadge},
	}
	return api
}

// ServeHTTP resolves the action, authenticates, applies the action's
// quota and hands off to the endpoint.
func (api *API) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	action := r.URL.Query().Get("action")
	if action == "" {
		action = "messages"
	}

	rt, ok := api.routes[routeKey{action, r.Method}]
	if !ok {
		writeError(w, http.StatusNotFound, "unknown action")
		return
	}

	viewer, err := api.resolveViewer(r, rt.auth)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if rt.auth == authAdmin && !viewer.IsAdmin {
		writeError(w, http.StatusForbidden, "admin access required")
		return
	}

	if rt.rate != nil {
		key := fmt.Sprintf("%s:%d", rt.rate.prefix, viewer.UserID)
		allowed, err := api.limiter.Allow(r.Context(), key, rt.rate.limit, rt.rate.windowSeconds)
		if err != nil {
			log.Printf("rate limit check %s: %v", key, err)
		}
		if !allowed {
			api.audit.Record(r.Context(), types.AuditWarn, "ratelimit", "rate limit exceeded", key, clientIP(r), viewer.UserID)
			w.Header().Set("Retry-After", strconv.Itoa(rt.rate.windowSeconds))
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
	}

	rt.handler(w, r, viewer)
}

// resolveViewer authenticates according to the route's requirement. A
// present but invalid token always fails, even on optional routes.
func (api *API) resolveViewer(r *http.Request, level authLevel) (*types.Identity, error) {
	if level == authPublic {
		return nil, nil
	}
	token := bearerToken(r)
	if token == "" {
		if level == authOptional {
			return nil, nil
		}
		return nil, services.Unauthorized("authentication required")
	}
	identity, err := api.auth.Authenticate(r.Context(), token)
	if err != nil {
		return nil, err
	}
	return &identity, nil
}
