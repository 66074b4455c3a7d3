package api

import (
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/taskhub/taskhub-api/internal/api/shared"
	"github.com/taskhub/taskhub-api/internal/service"
)

// TeamHandler handles team and membership requests.
type TeamHandler struct {
	teamService *service.TeamService
	validator   *validator.Validate
}

// NewTeamHandler creates a new TeamHandler.
func NewTeamHandler(teamService *service.TeamService) *TeamHandler {
	return &TeamHandler{
		teamService: teamService,
		validator:   validator.New(),
	}
}

// Create handles POST /teams.
func (h *TeamHandler) Create(w http.ResponseWriter, r *http.Request) error {
	userID, err := userIDFromContext(r)
	if err != nil {
		return err
	}

	var req CreateTeamRequest
	if err := DecodeJSON(r, &req); err != nil {
		return err
	}
	if err := h.validator.Struct(req); err != nil {
		return err
	}

	team, err := h.teamService.Create(r.Context(), userID, req.Name)
	if err != nil {
		return err
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, DataResponse{
		Success: true,
		Data:    newTeamResponse(team),
	})
	return nil
}

// List handles GET /teams, returning the teams the user belongs to.
func (h *TeamHandler) List(w http.ResponseWriter, r *http.Request) error {
	userID, err := userIDFromContext(r)
	if err != nil {
		return err
	}

	teams, err := h.teamService.List(r.Context(), userID)
	if err != nil {
		return err
	}

	responses := make([]TeamResponse, 0, len(teams))
	for _, team := range teams {
		responses = append(responses, newTeamResponse(team))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, DataResponse{
		Success: true,
		Data:    responses,
	})
	return nil
}

// Get handles GET /teams/{id}.
func (h *TeamHandler) Get(w http.ResponseWriter, r *http.Request) error {
	userID, err := userIDFromContext(r)
	if err != nil {
		return err
	}
	teamID, err := pathUUID(r, "id")
	if err != nil {
		return err
	}

	team, err := h.teamService.Get(r.Context(), userID, teamID)
	if err != nil {
		return err
	}

	shared.RespondWithJSON(w, r, http.StatusOK, DataResponse{
		Success: true,
		Data:    newTeamResponse(team),
	})
	return nil
}

// AddMember handles POST /teams/{id}/members.
func (h *TeamHandler) AddMember(w http.ResponseWriter, r *http.Request) error {
	actorID, err := userIDFromContext(r)
	if err != nil {
		return err
	}
	teamID, err := pathUUID(r, "id")
	if err != nil {
		return err
	}

	var req AddMemberRequest
	if err := DecodeJSON(r, &req); err != nil {
		return err
	}
	if err := h.validator.Struct(req); err != nil {
		return err
	}

	if err := h.teamService.AddMember(r.Context(), actorID, teamID, req.UserID); err != nil {
		return err
	}

	w.WriteHeader(http.StatusNoContent)
	return nil
}

// RemoveMember handles DELETE /teams/{id}/members/{userID}. Members may
// remove themselves; only the owner may remove others.
func (h *TeamHandler) RemoveMember(w http.ResponseWriter, r *http.Request) error {
	actorID, err := userIDFromContext(r)
	if err != nil {
		return err
	}
	teamID, err := pathUUID(r, "id")
	if err != nil {
		return err
	}
	memberID, err := pathUUID(r, "userID")
	if err != nil {
		return err
	}

	if err := h.teamService.RemoveMember(r.Context(), actorID, teamID, memberID); err != nil {
		return err
	}

	w.WriteHeader(http.StatusNoContent)
	return nil
}

// ListMembers handles GET /teams/{id}/members.
func (h *TeamHandler) ListMembers(w http.ResponseWriter, r *http.Request) error {
	userID, err := userIDFromContext(r)
	if err != nil {
		return err
	}
	teamID, err := pathUUID(r, "id")
	if err != nil {
		return err
	}

	members, err := h.teamService.ListMembers(r.Context(), userID, teamID)
	if err != nil {
		return err
	}

	responses := make([]TeamMemberResponse, 0, len(members))
	for _, m := range members {
		responses = append(responses, TeamMemberResponse{
			UserID:   m.UserID,
			JoinedAt: m.JoinedAt,
		})
	}
	shared.RespondWithJSON(w, r, http.StatusOK, DataResponse{
		Success: true,
		Data:    responses,
	})
	return nil
}

// Delete handles DELETE /teams/{id}.
func (h *TeamHandler) Delete(w http.ResponseWriter, r *http.Request) error {
	actorID, err := userIDFromContext(r)
	if err != nil {
		return err
	}
	teamID, err := pathUUID(r, "id")
	if err != nil {
		return err
	}

	if err := h.teamService.Delete(r.Context(), actorID, teamID); err != nil {
		return err
	}

	w.WriteHeader(http.StatusNoContent)
	return nil
}
