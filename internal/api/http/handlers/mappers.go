package handlers

import (
	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/domain"
)

func userResponse(u *domain.User) dto.UserResponse {
	roles := u.Roles
	if roles == nil {
		roles = []string{}
	}
	return dto.UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Roles:     roles,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func userRef(ref *domain.UserRef) *dto.UserRefResponse {
	if ref == nil {
		return nil
	}
	return &dto.UserRefResponse{ID: ref.ID, Name: ref.Name, Email: ref.Email, Roles: ref.Roles}
}

func ticketResponse(t *domain.Ticket) dto.TicketResponse {
	return dto.TicketResponse{
		ID:          t.ID,
		Code:        t.Code,
		Title:       t.Title,
		Description: t.Description,
		Status:      string(t.Status),
		Priority:    string(t.Priority),
		CreatedBy:   userRef(t.Creator),
		AssignedTo:  userRef(t.Assignee),
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
		CompletedAt: t.CompletedAt,
	}
}

func replyResponse(r *domain.TicketReply) dto.ReplyResponse {
	return dto.ReplyResponse{
		ID:        r.ID,
		TicketID:  r.TicketID,
		Content:   r.Content,
		User:      userRef(r.Author),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func roleResponse(r *domain.Role) dto.RoleResponse {
	perms := r.Permissions
	if perms == nil {
		perms = []string{}
	}
	return dto.RoleResponse{
		ID:          r.ID,
		Name:        r.Name,
		Permissions: perms,
		UsersCount:  r.UsersCount,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func permissionResponse(p *domain.Permission) dto.PermissionResponse {
	return dto.PermissionResponse{ID: p.ID, Name: p.Name, CreatedAt: p.CreatedAt, UpdatedAt: p.UpdatedAt}
}

func categoryResponse(c *domain.Category) dto.CategoryResponse {
	resp := dto.CategoryResponse{
		ID:          c.ID,
		Name:        c.Name,
		Slug:        c.Slug,
		Description: c.Description,
		ParentID:    c.ParentID,
		IsActive:    c.IsActive,
		SortOrder:   c.SortOrder,
		Image:       c.Image,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
	for i := range c.Children {
		resp.Children = append(resp.Children, categoryResponse(&c.Children[i]))
	}
	return resp
}

func activityResponse(a *domain.Activity) dto.ActivityResponse {
	props := a.Properties
	if props == nil {
		props = map[string]any{}
	}
	return dto.ActivityResponse{
		ID:          a.ID,
		LogName:     a.LogName,
		Description: a.Description,
		SubjectType: a.SubjectType,
		SubjectID:   a.SubjectID,
		CauserID:    a.CauserID,
		Event:       string(a.Event),
		Properties:  props,
		CreatedAt:   a.CreatedAt,
	}
}
