package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/Andreo9078/orgdirectory/internal/core/domain"
	"github.com/Andreo9078/orgdirectory/internal/core/ports"
)

// orgFilterParams reads the shared organization filter query
// parameters: name, activity_id, building_id, offset, limit.
func orgFilterParams(c *fiber.Ctx) (ports.OrgFilter, error) {
	var f ports.OrgFilter

	offset, limit, err := pageParams(c)
	if err != nil {
		return f, err
	}
	f.Offset, f.Limit = offset, limit
	f.Name = c.Query("name")

	if raw := c.Query("activity_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return f, errors.New("activity_id must be a valid UUID")
		}
		f.ActivityID = id
	}
	if raw := c.Query("building_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return f, errors.New("building_id must be a valid UUID")
		}
		f.BuildingID = id
	}
	return f, nil
}

func pathID(c *fiber.Ctx) (uuid.UUID, error) {
	return uuid.Parse(c.Params("id"))
}

// ListOrganizationsHandler returns organizations matching the filter.
func ListOrganizationsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		f, err := orgFilterParams(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		orgs, err := deps.Organizations.List(c.Context(), f)
		if err != nil {
			return errInternal(c, err.Error())
		}

		data := toOrganizationResponses(orgs)
		pg := Pagination{Offset: f.Offset, Limit: f.Limit, Count: len(data)}
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: data, Pagination: pg})
	}
}

// OrganizationsInRadiusHandler performs a geodesic radius search.
func OrganizationsInRadiusHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		lat := c.QueryFloat("lat", 91)
		lon := c.QueryFloat("lon", 181)
		radius := c.QueryFloat("radius", 0)

		if lat < -90 || lat > 90 {
			return errBadRequest(c, "lat is required and must be between -90 and 90")
		}
		if lon < -180 || lon > 180 {
			return errBadRequest(c, "lon is required and must be between -180 and 180")
		}
		if radius <= 0 {
			return errBadRequest(c, "radius must be a positive number of meters")
		}

		f, err := orgFilterParams(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		center := domain.GeoPoint{Latitude: lat, Longitude: lon}
		orgs, err := deps.Organizations.ListInRadius(c.Context(), center, radius, f)
		if err != nil {
			return errInternal(c, err.Error())
		}

		data := toOrganizationResponses(orgs)
		pg := Pagination{Offset: f.Offset, Limit: f.Limit, Count: len(data)}
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: data, Pagination: pg})
	}
}

// OrganizationsInBBoxHandler searches inside an axis-aligned box.
func OrganizationsInBBoxHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		swLat := c.QueryFloat("sw_lat", 91)
		swLon := c.QueryFloat("sw_lon", 181)
		neLat := c.QueryFloat("ne_lat", 91)
		neLon := c.QueryFloat("ne_lon", 181)

		for _, v := range []float64{swLat, neLat} {
			if v < -90 || v > 90 {
				return errBadRequest(c, "sw_lat and ne_lat are required and must be between -90 and 90")
			}
		}
		for _, v := range []float64{swLon, neLon} {
			if v < -180 || v > 180 {
				return errBadRequest(c, "sw_lon and ne_lon are required and must be between -180 and 180")
			}
		}

		box := domain.Bounds{
			SouthWest: domain.GeoPoint{Latitude: swLat, Longitude: swLon},
			NorthEast: domain.GeoPoint{Latitude: neLat, Longitude: neLon},
		}
		if !box.Valid() {
			return errBadRequest(c, "south-west corner must not exceed north-east corner")
		}

		f, err := orgFilterParams(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		orgs, err := deps.Organizations.ListInBBox(c.Context(), box, f)
		if err != nil {
			return errInternal(c, err.Error())
		}

		data := toOrganizationResponses(orgs)
		pg := Pagination{Offset: f.Offset, Limit: f.Limit, Count: len(data)}
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: data, Pagination: pg})
	}
}

// OrganizationsByActivityHandler searches the activity subtree rooted
// at the given category.
func OrganizationsByActivityHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rootID, err := pathID(c)
		if err != nil {
			return errBadRequest(c, "activity id must be a valid UUID")
		}

		f, err := orgFilterParams(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		orgs, err := deps.Organizations.ListByActivitySubtree(c.Context(), rootID, f)
		if err != nil {
			return errInternal(c, err.Error())
		}

		data := toOrganizationResponses(orgs)
		pg := Pagination{Offset: f.Offset, Limit: f.Limit, Count: len(data)}
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: data, Pagination: pg})
	}
}

// GetOrganizationHandler returns a single organization.
func GetOrganizationHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := pathID(c)
		if err != nil {
			return errBadRequest(c, "organization id must be a valid UUID")
		}

		org, err := deps.Organizations.Get(c.Context(), id)
		if err != nil {
			return errInternal(c, err.Error())
		}
		if org == nil {
			return errNotFound(c, "organization not found")
		}
		return c.JSON(toOrganizationResponse(org))
	}
}

// ListBuildingsHandler returns buildings with their tenant lists.
func ListBuildingsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		offset, limit, err := pageParams(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		buildings, err := deps.Buildings.List(c.Context(), ports.Page{Offset: offset, Limit: limit})
		if err != nil {
			return errInternal(c, err.Error())
		}

		data := make([]BuildingResponse, 0, len(buildings))
		for _, b := range buildings {
			data = append(data, toBuildingResponse(b))
		}
		pg := Pagination{Offset: offset, Limit: limit, Count: len(data)}
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: data, Pagination: pg})
	}
}

// GetBuildingHandler returns a single building.
func GetBuildingHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := pathID(c)
		if err != nil {
			return errBadRequest(c, "building id must be a valid UUID")
		}

		b, err := deps.Buildings.Get(c.Context(), id)
		if err != nil {
			return errInternal(c, err.Error())
		}
		if b == nil {
			return errNotFound(c, "building not found")
		}
		return c.JSON(toBuildingResponse(b))
	}
}

// ListActivitiesHandler returns the activity taxonomy ordered by depth.
func ListActivitiesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		offset, limit, err := pageParams(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		activities, err := deps.Activities.List(c.Context(), ports.Page{Offset: offset, Limit: limit})
		if err != nil {
			return errInternal(c, err.Error())
		}

		data := make([]ActivitySummary, 0, len(activities))
		for _, a := range activities {
			data = append(data, ActivitySummary{ID: a.ID, Name: a.Name, Depth: a.Depth})
		}
		pg := Pagination{Offset: offset, Limit: limit, Count: len(data)}
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: data, Pagination: pg})
	}
}

// GetActivityHandler returns a single activity with one subtree level.
func GetActivityHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := pathID(c)
		if err != nil {
			return errBadRequest(c, "activity id must be a valid UUID")
		}

		a, err := deps.Activities.Get(c.Context(), id)
		if err != nil {
			return errInternal(c, err.Error())
		}
		if a == nil {
			return errNotFound(c, "activity not found")
		}
		return c.JSON(toActivityResponse(a))
	}
}

type createActivityRequest struct {
	Name string `json:"name"`
}

// CreateChildActivityHandler attaches a new category under a parent.
// A parent already at the depth cap yields 422.
func CreateChildActivityHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		parentID, err := pathID(c)
		if err != nil {
			return errBadRequest(c, "activity id must be a valid UUID")
		}

		var req createActivityRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "request body must be JSON with a name field")
		}
		if req.Name == "" {
			return errBadRequest(c, "name must not be empty")
		}

		child, err := deps.Activities.CreateChild(c.Context(), parentID, req.Name)
		switch {
		case errors.Is(err, domain.ErrDoesNotExist):
			return errNotFound(c, "parent activity not found")
		case errors.Is(err, domain.ErrMaxDepthExceeded):
			return errUnprocessable(c, "activity tree depth limit reached")
		case err != nil:
			return errInternal(c, err.Error())
		}

		invalidateResponses(c, deps.Cache)
		return c.Status(fiber.StatusCreated).JSON(toActivityResponse(child))
	}
}
