package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/admin-backoffice/internal/api/dto"
	"github.com/spec-kit/admin-backoffice/internal/auth"
	"github.com/spec-kit/admin-backoffice/internal/domain"
	"github.com/spec-kit/admin-backoffice/internal/repository"
	"github.com/spec-kit/admin-backoffice/internal/service"
)

// StaffHandler exposes staff administration endpoints.
type StaffHandler struct {
	staffService *service.StaffService
}

// NewStaffHandler constructs handler.
func NewStaffHandler(staffService *service.StaffService) *StaffHandler {
	return &StaffHandler{staffService: staffService}
}

// Create handles POST /staffs.
func (h *StaffHandler) Create(c *fiber.Ctx) error {
	acting, err := requireStaffPrincipal(c)
	if err != nil {
		return err
	}

	var req dto.StaffCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Name == "" || req.Email == "" || req.Password == "" || req.Role == "" {
		return fiber.NewError(http.StatusBadRequest, "name, email, password, role required")
	}

	staff, err := h.staffService.AddStaff(c.UserContext(), acting,
		req.Name, req.Email, req.Password,
		domain.StaffRole(req.Role), parsePermissions(req.Permissions))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": staffResponse(staff)})
}

// List handles GET /staffs.
func (h *StaffHandler) List(c *fiber.Ctx) error {
	if _, err := requireStaffPrincipal(c); err != nil {
		return err
	}

	filter := parseStaffFilter(c)
	list, err := h.staffService.ListStaff(c.UserContext(), filter)
	if err != nil {
		return err
	}
	resp := make([]dto.StaffResponse, 0, len(list))
	for i := range list {
		resp = append(resp, staffResponse(&list[i]))
	}
	return c.JSON(fiber.Map{"data": resp})
}

// Get handles GET /staffs/:id.
func (h *StaffHandler) Get(c *fiber.Ctx) error {
	if _, err := requireStaffPrincipal(c); err != nil {
		return err
	}

	staff, err := h.staffService.GetStaff(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": staffResponse(staff)})
}

// Update handles PUT /staffs/:id.
func (h *StaffHandler) Update(c *fiber.Ctx) error {
	acting, err := requireStaffPrincipal(c)
	if err != nil {
		return err
	}

	var req dto.StaffUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	updated, err := h.staffService.UpdateStaff(c.UserContext(), acting, c.Params("id"), staffUpdate(req))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": staffResponse(updated)})
}

// UpdateSelf handles PUT /staffs/me.
func (h *StaffHandler) UpdateSelf(c *fiber.Ctx) error {
	acting, err := requireStaffPrincipal(c)
	if err != nil {
		return err
	}

	var req dto.StaffUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	updated, err := h.staffService.UpdateSelf(c.UserContext(), acting, staffUpdate(req))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": staffResponse(updated)})
}

// Remove handles DELETE /staffs/:id.
func (h *StaffHandler) Remove(c *fiber.Ctx) error {
	acting, err := requireStaffPrincipal(c)
	if err != nil {
		return err
	}

	if err := h.staffService.RemoveStaff(c.UserContext(), acting, c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"status": "removed"}})
}

func requireStaffPrincipal(c *fiber.Ctx) (*domain.Staff, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Staff == nil {
		return nil, fiber.NewError(http.StatusUnauthorized, "authentication required")
	}
	return principal.Staff, nil
}

func parseStaffFilter(c *fiber.Ctx) repository.StaffFilter {
	var filter repository.StaffFilter
	if roleStr := c.Query("role"); roleStr != "" {
		role := domain.StaffRole(roleStr)
		filter.Role = &role
	}
	if statusStr := c.Query("status"); statusStr != "" {
		status := domain.StaffStatus(statusStr)
		filter.Status = &status
	}
	page := parseIntQuery(c, "page", 1)
	pageSize := parseIntQuery(c, "page_size", 50)
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize
	return filter
}

func parseIntQuery(c *fiber.Ctx, key string, defaultVal int) int {
	if val := c.Query(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultVal
}

func staffUpdate(req dto.StaffUpdateRequest) service.StaffUpdate {
	var update service.StaffUpdate
	update.Name = req.Name
	update.Email = req.Email
	if req.Role != nil {
		role := domain.StaffRole(*req.Role)
		update.Role = &role
	}
	if req.Status != nil {
		status := domain.StaffStatus(*req.Status)
		update.Status = &status
	}
	update.Permissions = parsePermissions(req.Permissions)
	return update
}

func staffResponse(staff *domain.Staff) dto.StaffResponse {
	perms := make([]string, 0, len(staff.Permissions))
	for _, p := range staff.Permissions {
		perms = append(perms, string(p))
	}
	return dto.StaffResponse{
		ID:          staff.ID,
		Name:        staff.Name,
		Email:       staff.Email,
		Role:        string(staff.Role),
		Status:      string(staff.Status),
		Permissions: perms,
	}
}
