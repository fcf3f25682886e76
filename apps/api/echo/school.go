package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Pensezy/EduTrack-CM-sub003/core/link"
	"github.com/Pensezy/EduTrack-CM-sub003/core/school"
)

type schoolApi struct {
	service *school.Service
	links   *link.Aggregator
}

func registerSchoolAPI(g *echo.Group, service *school.Service, links *link.Aggregator) {
	api := schoolApi{service: service, links: links}

	sg := g.Group("/schools")
	sg.GET("", api.schoolQuery)
	sg.POST("", api.schoolCreate, adminMiddleware())
	sg.GET("/:id", api.schoolRetrieve)
	sg.GET("/:id/students", api.studentQuery)
	sg.POST("/:id/students", api.studentCreate)
	sg.GET("/:id/links", api.linkQuery)
}

// Handlers

func (api *schoolApi) schoolQuery(ctx echo.Context) error {
	isActive, err := boolQueryParam(ctx, "is_active")
	if err != nil {
		return err
	}
	schools, err := api.service.Query(ctx.Request().Context(), school.QueryFilter{
		Search:   ctx.QueryParam("search"),
		IsActive: isActive,
	})
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, schools)
}

func (api *schoolApi) schoolCreate(ctx echo.Context) error {
	data := new(school.NewSchool)
	if err := ctx.Bind(data); err != nil {
		return err
	}

	sch, err := api.service.Create(ctx.Request().Context(), *data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, sch)
}

func (api *schoolApi) schoolRetrieve(ctx echo.Context) error {
	sch, err := api.service.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sch)
}

func (api *schoolApi) studentQuery(ctx echo.Context) error {
	students, err := api.service.QueryStudents(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *schoolApi) studentCreate(ctx echo.Context) error {
	schoolID := ctx.Param("id")
	if err := ensureSchoolAccess(ctx, schoolID); err != nil {
		return err
	}

	data := new(school.NewStudent)
	if err := ctx.Bind(data); err != nil {
		return err
	}

	std, err := api.service.AddStudent(ctx.Request().Context(), schoolID, *data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, std)
}

func (api *schoolApi) linkQuery(ctx echo.Context) error {
	active, err := boolQueryParam(ctx, "active")
	if err != nil {
		return err
	}

	links, err := api.links.ListLinksForSchool(ctx.Request().Context(), ctx.Param("id"), active != nil && *active)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, links)
}
