package controller

import (
	"product-notes-be/internal/dto"
	"product-notes-be/internal/pkg/apperror"
	"product-notes-be/internal/pkg/serverutils"
	"product-notes-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IProductNoteController interface {
	RegisterRoutes(r fiber.Router)
	List(ctx *fiber.Ctx) error
	Action(ctx *fiber.Ctx) error
}

type productNoteController struct {
	productNoteService service.IProductNoteService
	auth               fiber.Handler
}

// NewProductNoteController protects its routes with auth, which must set the
// shop local (see serverutils.SessionTokenMiddleware).
func NewProductNoteController(productNoteService service.IProductNoteService, auth fiber.Handler) IProductNoteController {
	return &productNoteController{
		productNoteService: productNoteService,
		auth:               auth,
	}
}

func (c *productNoteController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/notes")
	h.Use(c.auth)
	h.Get("", c.List)
	h.Post("", c.Action)
}

func (c *productNoteController) List(ctx *fiber.Ctx) error {
	shop := serverutils.ShopFrom(ctx)

	res, err := c.productNoteService.ListEnriched(ctx.UserContext(), shop)
	if err != nil {
		return err
	}

	return ctx.JSON(res)
}

// Action dispatches on actionType. Anything other than add, update, delete
// or sync is answered with "Invalid action".
func (c *productNoteController) Action(ctx *fiber.Ctx) error {
	var req dto.NoteActionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	shop := serverutils.ShopFrom(ctx)
	var (
		res *dto.ActionResponse
		err error
	)

	switch req.ActionType {
	case dto.ActionAdd:
		add := dto.AddNotesRequest{Products: req.Products, Note: req.Note}
		if err := serverutils.ValidateRequest(add); err != nil {
			return err
		}
		res, err = c.productNoteService.Add(ctx.UserContext(), shop, &add)

	case dto.ActionUpdate:
		id, perr := parseNoteId(req.NoteId)
		if perr != nil {
			return perr
		}
		update := dto.UpdateNoteRequest{Id: id, Note: req.Note}
		if err := serverutils.ValidateRequest(update); err != nil {
			return err
		}
		res, err = c.productNoteService.Update(ctx.UserContext(), shop, &update)

	case dto.ActionDelete:
		id, perr := parseNoteId(req.NoteId)
		if perr != nil {
			return perr
		}
		res, err = c.productNoteService.Delete(ctx.UserContext(), shop, &dto.DeleteNoteRequest{Id: id})

	case dto.ActionSync:
		sync := dto.SyncNotesRequest{Products: req.Products, Note: req.Note}
		if err := serverutils.ValidateRequest(sync); err != nil {
			return err
		}
		res, err = c.productNoteService.Sync(ctx.UserContext(), shop, &sync)

	default:
		return apperror.ErrUnrecognizedAction
	}

	if err != nil {
		return err
	}
	return ctx.JSON(res)
}

func parseNoteId(raw string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, apperror.Validation("noteId is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperror.Validation("noteId must be a valid id")
	}
	return id, nil
}
