package controller

import (
	"course-pr-be/internal/dto"
	"course-pr-be/internal/pkg/serverutils"
	"course-pr-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IPRController interface {
	RegisterRoutes(r fiber.Router)
	Dispatch(ctx *fiber.Ctx) error
	ListSubmissions(ctx *fiber.Ctx) error
}

type prController struct {
	prService         service.IPREntryService
	submissionService service.ISubmissionService
}

func NewPRController(prService service.IPREntryService, submissionService service.ISubmissionService) IPRController {
	return &prController{
		prService:         prService,
		submissionService: submissionService,
	}
}

func (c *prController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/pr/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Post("dispatch", c.Dispatch)
	h.Get("submissions", c.ListSubmissions)
}

// Dispatch feeds one transport message into the edit assistant and returns
// the reply fragments.
func (c *prController) Dispatch(ctx *fiber.Ctx) error {
	var req dto.DispatchRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.prService.Dispatch(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success dispatch message", res))
}

func (c *prController) ListSubmissions(ctx *fiber.Ctx) error {
	courseCode := ctx.Query("course_code")
	limit := ctx.QueryInt("limit", 50)

	res, err := c.submissionService.List(ctx.Context(), courseCode, limit)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list submissions", res))
}
