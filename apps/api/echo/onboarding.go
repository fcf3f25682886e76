package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Pensezy/EduTrack-CM-sub003/core/link"
	"github.com/Pensezy/EduTrack-CM-sub003/core/onboarding"
	"github.com/Pensezy/EduTrack-CM-sub003/core/person"
)

type onboardingApi struct {
	workflow *onboarding.Workflow
}

func registerOnboardingAPI(g *echo.Group, workflow *onboarding.Workflow) {
	api := onboardingApi{workflow: workflow}

	og := g.Group("/onboarding")
	og.POST("", api.sessionStart)

	// session endpoints
	sg := og.Group("/:id", api.sessionAccessMiddleware())
	sg.GET("", api.sessionRetrieve)
	sg.DELETE("", api.sessionCancel)
	sg.POST("/search", api.sessionSearch)
	sg.POST("/select", api.sessionSelect)
	sg.POST("/create-new", api.sessionDeclareNew)
	sg.POST("/check-duplicate", api.sessionCheckDuplicate)
	sg.POST("/submit", api.sessionSubmit)
}

type (
	SearchRequest struct {
		Term string `json:"term"`
	}

	SelectRequest struct {
		GlobalID string `json:"global_id"`
	}
)

// Handlers

func (api *onboardingApi) sessionStart(ctx echo.Context) error {
	data := new(onboarding.NewSession)
	if err := ctx.Bind(data); err != nil {
		return err
	}
	if err := ensureSchoolAccess(ctx, data.SchoolID); err != nil {
		return err
	}

	sess, err := api.workflow.Start(ctx.Request().Context(), *data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, sess)
}

func (api *onboardingApi) sessionRetrieve(ctx echo.Context) error {
	sess, err := api.workflow.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sess)
}

func (api *onboardingApi) sessionCancel(ctx echo.Context) error {
	if err := api.workflow.Cancel(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *onboardingApi) sessionSearch(ctx echo.Context) error {
	data := new(SearchRequest)
	if err := ctx.Bind(data); err != nil {
		return err
	}

	sess, err := api.workflow.Search(ctx.Request().Context(), ctx.Param("id"), data.Term)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sess)
}

func (api *onboardingApi) sessionSelect(ctx echo.Context) error {
	data := new(SelectRequest)
	if err := ctx.Bind(data); err != nil {
		return err
	}

	sess, err := api.workflow.SelectExisting(ctx.Request().Context(), ctx.Param("id"), data.GlobalID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sess)
}

func (api *onboardingApi) sessionDeclareNew(ctx echo.Context) error {
	data := new(person.Candidate)
	if err := ctx.Bind(data); err != nil {
		return err
	}

	sess, err := api.workflow.DeclareNew(ctx.Request().Context(), ctx.Param("id"), *data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sess)
}

func (api *onboardingApi) sessionCheckDuplicate(ctx echo.Context) error {
	data := new(person.Contact)
	if err := ctx.Bind(data); err != nil {
		return err
	}

	sess, err := api.workflow.CheckForDuplicate(ctx.Request().Context(), ctx.Param("id"), *data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sess)
}

func (api *onboardingApi) sessionSubmit(ctx echo.Context) error {
	data := new(link.Details)
	if err := ctx.Bind(data); err != nil {
		return err
	}

	sess, err := api.workflow.Submit(ctx.Request().Context(), ctx.Param("id"), *data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sess)
}

// sessionAccessMiddleware restricts a session to staff of the school it onboards for.
func (api *onboardingApi) sessionAccessMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			sess, err := api.workflow.Get(ctx.Request().Context(), ctx.Param("id"))
			if err != nil {
				return err
			}
			if err := ensureSchoolAccess(ctx, sess.SchoolID); err != nil {
				return err
			}
			return next(ctx)
		}
	}
}
