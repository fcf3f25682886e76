package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Pensezy/EduTrack-CM-sub003/core"
	"github.com/Pensezy/EduTrack-CM-sub003/core/link"
	"github.com/Pensezy/EduTrack-CM-sub003/core/person"
)

type personApi struct {
	registry *person.Registry
	links    *link.Aggregator
}

func registerPersonAPI(g *echo.Group, registry *person.Registry, links *link.Aggregator) {
	api := personApi{registry: registry, links: links}

	pg := g.Group("/people")
	pg.GET("", api.personSearch)
	pg.POST("", api.personResolve)
	pg.POST("/check-duplicate", api.personCheckDuplicate)
	pg.POST("/similar", api.personSimilar)
	pg.GET("/:id", api.personRetrieve)
	pg.PUT("/:id", api.personUpdate)
	pg.GET("/:id/links", api.linkQuery)
	pg.POST("/:id/links", api.linkCreate)
	pg.GET("/:id/summary", api.personSummary)
}

type (
	ResolveResponse struct {
		Person  person.Person `json:"person"`
		Created bool          `json:"created"`
	}

	DuplicateResponse struct {
		Duplicate bool           `json:"duplicate"`
		Person    *person.Person `json:"person,omitempty"`
	}

	NewLinkRequest struct {
		SchoolID string `json:"school_id"`
		link.Details
	}
)

// Handlers

func (api *personApi) personSearch(ctx echo.Context) error {
	people, err := api.registry.Search(ctx.Request().Context(), ctx.QueryParam("search"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, people)
}

// personResolve returns the identity owning the candidate's contact, creating it if there is none.
func (api *personApi) personResolve(ctx echo.Context) error {
	data := new(person.Candidate)
	if err := ctx.Bind(data); err != nil {
		return err
	}

	p, created, err := api.registry.GetOrCreate(ctx.Request().Context(), *data)
	if err != nil {
		return err
	}

	code := http.StatusOK
	if created {
		code = http.StatusCreated
	}
	return ctx.JSON(code, ResolveResponse{Person: p, Created: created})
}

func (api *personApi) personCheckDuplicate(ctx echo.Context) error {
	data := new(person.Contact)
	if err := ctx.Bind(data); err != nil {
		return err
	}

	p, found, err := api.registry.CheckDuplicate(ctx.Request().Context(), *data)
	if err != nil {
		return err
	}

	res := DuplicateResponse{Duplicate: found}
	if found {
		res.Person = &p
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *personApi) personSimilar(ctx echo.Context) error {
	data := new(person.Candidate)
	if err := ctx.Bind(data); err != nil {
		return err
	}

	similar, err := api.registry.FindSimilar(ctx.Request().Context(), *data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, similar)
}

func (api *personApi) personRetrieve(ctx echo.Context) error {
	p, err := api.registry.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *personApi) personUpdate(ctx echo.Context) error {
	data := new(person.UpdatePerson)
	if err := ctx.Bind(data); err != nil {
		return err
	}

	p, err := api.registry.Update(ctx.Request().Context(), ctx.Param("id"), *data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *personApi) linkQuery(ctx echo.Context) error {
	links, err := api.links.ListLinksForPerson(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, links)
}

func (api *personApi) linkCreate(ctx echo.Context) error {
	data := new(NewLinkRequest)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	data.SchoolID = core.CleanString(data.SchoolID)
	if data.SchoolID == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "school_id", Error: "school_id is a required field"})
	}
	if err := ensureSchoolAccess(ctx, data.SchoolID); err != nil {
		return err
	}

	l, err := api.links.AddLink(ctx.Request().Context(), ctx.Param("id"), data.SchoolID, data.Details)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, l)
}

func (api *personApi) personSummary(ctx echo.Context) error {
	view, err := api.links.Aggregate(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, view)
}
