package api

import (
	"net/http"

	"github.com/billbuddy/billbuddy/internal/middleware"
	"github.com/billbuddy/billbuddy/internal/models"
	"github.com/billbuddy/billbuddy/internal/service"
	"github.com/billbuddy/billbuddy/internal/storage"
)

type groupRequest struct {
	Name     string `json:"name"`
	Currency string `json:"currency"`
	Image    string `json:"image"`
}

type groupResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Currency    string `json:"currency"`
	Image       string `json:"image,omitempty"`
	InviteToken string `json:"inviteToken,omitempty"`
	Active      bool   `json:"active"`
	CreatedAt   int64  `json:"createdAt"`
}

func toGroupResponse(g *models.Group) groupResponse {
	return groupResponse{
		ID:          g.ID,
		Name:        g.Name,
		Currency:    g.Currency,
		Image:       g.Image,
		InviteToken: g.InviteToken,
		Active:      g.Active,
		CreatedAt:   g.CreatedAt,
	}
}

type memberResponse struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Active bool   `json:"active"`
}

func toMemberResponses(members []storage.MemberInfo) []memberResponse {
	out := make([]memberResponse, len(members))
	for i, m := range members {
		out[i] = memberResponse{ID: m.ID, Name: m.Name, Email: m.Email, Active: m.Active}
	}
	return out
}

func (a *API) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	var req groupRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	group, err := a.groups.CreateGroup(r.Context(), middleware.GetAccountID(r.Context()), service.CreateGroupRequest{
		Name:     req.Name,
		Currency: req.Currency,
		Image:    req.Image,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toGroupResponse(group))
}

func (a *API) handleListGroups(w http.ResponseWriter, r *http.Request) {
	filter := storage.GroupFilter(r.URL.Query().Get("filter"))
	if filter == "" {
		filter = storage.GroupsAll
	}

	groups, err := a.groups.ListGroups(r.Context(), middleware.GetAccountID(r.Context()), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]groupResponse, len(groups))
	for i, g := range groups {
		out[i] = toGroupResponse(g)
	}
	writeJSON(w, http.StatusOK, map[string]any{"groups": out})
}

func (a *API) handleGetGroup(w http.ResponseWriter, r *http.Request) {
	group, err := a.groups.GetGroup(r.Context(), middleware.GetAccountID(r.Context()), r.PathValue("groupID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toGroupResponse(group))
}

func (a *API) handleUpdateGroup(w http.ResponseWriter, r *http.Request) {
	var req groupRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	group, err := a.groups.UpdateGroup(r.Context(), middleware.GetAccountID(r.Context()), r.PathValue("groupID"), service.UpdateGroupRequest{
		Name:     req.Name,
		Currency: req.Currency,
		Image:    req.Image,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toGroupResponse(group))
}

func (a *API) handleArchiveGroup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Archived bool `json:"archived"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := a.groups.SetArchived(r.Context(), middleware.GetAccountID(r.Context()), r.PathValue("groupID"), req.Archived); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleListMembers(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"

	members, err := a.groups.ListMembers(r.Context(), middleware.GetAccountID(r.Context()), r.PathValue("groupID"), activeOnly)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"members": toMemberResponses(members)})
}

func (a *API) handleInviteMembers(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Invites []struct {
			Email string `json:"email"`
			Name  string `json:"name"`
		} `json:"invites"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	invites := make([]service.Invite, len(req.Invites))
	for i, in := range req.Invites {
		invites[i] = service.Invite{Email: in.Email, Name: in.Name}
	}

	members, err := a.groups.InviteMembers(r.Context(), middleware.GetAccountID(r.Context()), r.PathValue("groupID"), invites)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"members": toMemberResponses(members)})
}

func (a *API) handleRemoveMembers(w http.ResponseWriter, r *http.Request) {
	var req struct {
		MemberIDs []string `json:"memberIds"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := a.groups.RemoveMembers(r.Context(), middleware.GetAccountID(r.Context()), r.PathValue("groupID"), req.MemberIDs); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleAcceptInvite(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	group, err := a.groups.AcceptInviteToken(r.Context(), middleware.GetAccountID(r.Context()), req.Token)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toGroupResponse(group))
}
