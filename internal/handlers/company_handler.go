package handlers

import (
	"encoding/json"

	"github.com/ahmetcoskunkizilkaya/punchcard-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/punchcard-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/punchcard-backend/internal/search"
	"github.com/ahmetcoskunkizilkaya/punchcard-backend/internal/services"
	"github.com/ahmetcoskunkizilkaya/punchcard-backend/internal/validation"
	"github.com/gofiber/fiber/v2"
)

type CompanyHandler struct {
	companies *services.CompanyService
}

func NewCompanyHandler(companies *services.CompanyService) *CompanyHandler {
	return &CompanyHandler{companies: companies}
}

// List pages through companies: GET /companies?page=&max=
func (h *CompanyHandler) List(c *fiber.Ctx) error {
	from := c.QueryInt("page", 0)
	size := c.QueryInt("max", services.DefaultPageSize)

	docs, err := h.companies.List(c.UserContext(), from, size)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(documentsResponse(docs))
}

// Search runs a free-text query: POST /companies/search {"search": "..."}
func (h *CompanyHandler) Search(c *fiber.Ctx) error {
	var req dto.SearchCompaniesRequest
	if len(c.Body()) > 0 {
		if err := decodeStrict(c.Body(), &req); err != nil {
			return fail(c, err)
		}
	}

	docs, err := h.companies.Search(c.UserContext(), req.Search)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(documentsResponse(docs))
}

func (h *CompanyHandler) Get(c *fiber.Ctx) error {
	company, err := h.companies.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(companyResponse(company))
}

func (h *CompanyHandler) Create(c *fiber.Ctx) error {
	var req validation.CompanyCandidate
	if err := decodeStrict(c.Body(), &req); err != nil {
		// A taken title outranks a bad body.
		var loose validation.CompanyCandidate
		if json.Unmarshal(c.Body(), &loose) == nil && loose.Title != "" {
			if titleErr := h.companies.CheckTitle(c.UserContext(), loose.Title); titleErr != nil {
				return fail(c, titleErr)
			}
		}
		return fail(c, err)
	}

	company, err := h.companies.Create(c.UserContext(), &req)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.CreateCompanyResponse{ID: company.PublicID})
}

func (h *CompanyHandler) Update(c *fiber.Ctx) error {
	var req validation.CompanyCandidate
	if err := decodeStrict(c.Body(), &req); err != nil {
		// A missing target outranks a bad body.
		if _, getErr := h.companies.Get(c.UserContext(), c.Params("id")); getErr != nil {
			return fail(c, getErr)
		}
		return fail(c, err)
	}

	if _, err := h.companies.Update(c.UserContext(), c.Params("id"), &req); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *CompanyHandler) Delete(c *fiber.Ctx) error {
	if err := h.companies.Delete(c.UserContext(), c.Params("id")); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Reindex rebuilds the search index from the record store.
func (h *CompanyHandler) Reindex(c *fiber.Ctx) error {
	n, err := h.companies.Reindex(c.UserContext())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(dto.ReindexResponse{Indexed: n})
}

func companyResponse(m *models.Company) dto.CompanyResponse {
	return dto.CompanyResponse{
		ID:                m.PublicID,
		Title:             m.Title,
		Description:       m.Description,
		URL:               m.URL,
		PunchcardLifetime: m.PunchcardLifetime,
	}
}

func documentsResponse(docs []search.Document) []dto.CompanyResponse {
	out := make([]dto.CompanyResponse, 0, len(docs))
	for _, d := range docs {
		out = append(out, dto.CompanyResponse{
			ID:                d.ID,
			Title:             d.Title,
			Description:       d.Description,
			URL:               d.URL,
			PunchcardLifetime: d.PunchcardLifetime,
		})
	}
	return out
}
