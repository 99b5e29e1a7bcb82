package http

import (
	"github.com/google/uuid"

	"github.com/Andreo9078/orgdirectory/internal/core/domain"
)

// The domain graph is cyclic (organization <-> building, activity
// parent <-> children), so responses are rebuilt as acyclic DTOs:
// nested objects are summaries that stop before the back-reference.

// ActivitySummary is an activity without tree edges.
type ActivitySummary struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Depth int       `json:"depth"`
}

// ActivityResponse carries one tree level downward plus the parent id.
type ActivityResponse struct {
	ID       uuid.UUID          `json:"id"`
	Name     string             `json:"name"`
	Depth    int                `json:"depth"`
	ParentID *uuid.UUID         `json:"parent_id,omitempty"`
	Children []ActivityResponse `json:"children"`
}

// BuildingSummary is a building without its organization list.
type BuildingSummary struct {
	ID       uuid.UUID       `json:"id"`
	Address  string          `json:"address"`
	Location domain.GeoPoint `json:"location"`
}

// OrganizationSummary names an organization inside a building listing.
type OrganizationSummary struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// OrganizationResponse is the full directory card.
type OrganizationResponse struct {
	ID         uuid.UUID         `json:"id"`
	Name       string            `json:"name"`
	Building   *BuildingSummary  `json:"building,omitempty"`
	Phones     []string          `json:"phones"`
	Activities []ActivitySummary `json:"activities"`
}

// BuildingResponse lists a building with its tenants.
type BuildingResponse struct {
	ID            uuid.UUID             `json:"id"`
	Address       string                `json:"address"`
	Location      domain.GeoPoint       `json:"location"`
	Organizations []OrganizationSummary `json:"organizations"`
}

func toOrganizationResponse(org *domain.Organization) OrganizationResponse {
	resp := OrganizationResponse{
		ID:         org.ID,
		Name:       org.Name,
		Phones:     []string{},
		Activities: []ActivitySummary{},
	}
	if org.Building != nil {
		resp.Building = &BuildingSummary{
			ID:       org.Building.ID,
			Address:  org.Building.Name,
			Location: org.Building.Location,
		}
	}
	for _, p := range org.Phones {
		resp.Phones = append(resp.Phones, p.Number)
	}
	for _, a := range org.Activities {
		resp.Activities = append(resp.Activities, ActivitySummary{
			ID:    a.ID,
			Name:  a.Name,
			Depth: a.Depth,
		})
	}
	return resp
}

func toOrganizationResponses(orgs []*domain.Organization) []OrganizationResponse {
	out := make([]OrganizationResponse, 0, len(orgs))
	for _, org := range orgs {
		out = append(out, toOrganizationResponse(org))
	}
	return out
}

func toBuildingResponse(b *domain.Building) BuildingResponse {
	resp := BuildingResponse{
		ID:            b.ID,
		Address:       b.Name,
		Location:      b.Location,
		Organizations: []OrganizationSummary{},
	}
	for _, org := range b.Organizations {
		resp.Organizations = append(resp.Organizations, OrganizationSummary{
			ID:   org.ID,
			Name: org.Name,
		})
	}
	return resp
}

func toActivityResponse(a *domain.Activity) ActivityResponse {
	resp := ActivityResponse{
		ID:       a.ID,
		Name:     a.Name,
		Depth:    a.Depth,
		Children: []ActivityResponse{},
	}
	if a.Parent != nil {
		id := a.Parent.ID
		resp.ParentID = &id
	}
	for _, c := range a.Children {
		resp.Children = append(resp.Children, toActivityResponse(c))
	}
	return resp
}
