package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Pensezy/EduTrack-CM-sub003/core/link"
)

type linkApi struct {
	links *link.Aggregator
}

func registerLinkAPI(g *echo.Group, links *link.Aggregator) {
	api := linkApi{links: links}

	lg := g.Group("/links")
	lg.GET("/:id", api.linkRetrieve)
	lg.PUT("/:id", api.linkUpdate, api.schoolAccessMiddleware())
	lg.POST("/:id/deactivate", api.linkDeactivate, api.schoolAccessMiddleware())
}

// Handlers

func (api *linkApi) linkRetrieve(ctx echo.Context) error {
	l, err := api.links.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, l)
}

func (api *linkApi) linkUpdate(ctx echo.Context) error {
	data := new(link.Details)
	if err := ctx.Bind(data); err != nil {
		return err
	}

	l, err := api.links.Update(ctx.Request().Context(), ctx.Param("id"), *data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, l)
}

func (api *linkApi) linkDeactivate(ctx echo.Context) error {
	l, err := api.links.Deactivate(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, l)
}

// schoolAccessMiddleware restricts link changes to staff of the link's school.
func (api *linkApi) schoolAccessMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			l, err := api.links.Get(ctx.Request().Context(), ctx.Param("id"))
			if err != nil {
				return err
			}
			if err := ensureSchoolAccess(ctx, l.SchoolID); err != nil {
				return err
			}
			return next(ctx)
		}
	}
}
