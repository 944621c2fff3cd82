package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/grishakov/marketplace/internal/models"
)

type ContactHandler struct {
	DB *gorm.DB
}

func (h *ContactHandler) List(c echo.Context) error {
	user := CurrentUser(c)

	var contacts []models.Contact
	if err := h.DB.Where("user_id = ?", user.ID).Find(&contacts).Error; err != nil {
		return fail(c, http.StatusInternalServerError, CodeInternal, err.Error())
	}
	return c.JSON(http.StatusOK, contacts)
}

func (h *ContactHandler) Create(c echo.Context) error {
	user := CurrentUser(c)

	var req struct {
		Region   string `json:"region"`
		City     string `json:"city"`
		Street   string `json:"street"`
		House    string `json:"house"`
		Flat     string `json:"flat"`
		Comments string `json:"comments"`
	}
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, CodeValidation, "malformed request body")
	}
	if req.Region == "" || req.City == "" || req.Street == "" || req.House == "" {
		return fail(c, http.StatusBadRequest, CodeValidation, "region, city, street and house are required")
	}

	contact := models.Contact{
		UserID:   user.ID,
		Region:   req.Region,
		City:     req.City,
		Street:   req.Street,
		House:    req.House,
		Flat:     req.Flat,
		Comments: req.Comments,
	}
	if err := h.DB.Create(&contact).Error; err != nil {
		return fail(c, http.StatusInternalServerError, CodeInternal, err.Error())
	}
	return c.JSON(http.StatusCreated, contact)
}

func (h *ContactHandler) Update(c echo.Context) error {
	user := CurrentUser(c)

	var req struct {
		ContactID uint    `json:"contact_id"`
		Region    *string `json:"region"`
		City      *string `json:"city"`
		Street    *string `json:"street"`
		House     *string `json:"house"`
		Flat      *string `json:"flat"`
		Comments  *string `json:"comments"`
	}
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, CodeValidation, "malformed request body")
	}
	if req.ContactID == 0 {
		return fail(c, http.StatusBadRequest, CodeValidation, "contact_id is required")
	}

	var contact models.Contact
	err := h.DB.Where("id = ? AND user_id = ?", req.ContactID, user.ID).First(&contact).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(c, http.StatusNotFound, CodeNotFound, "contact not found")
	}
	if err != nil {
		return fail(c, http.StatusInternalServerError, CodeInternal, err.Error())
	}

	if req.Region != nil {
		contact.Region = *req.Region
	}
	if req.City != nil {
		contact.City = *req.City
	}
	if req.Street != nil {
		contact.Street = *req.Street
	}
	if req.House != nil {
		contact.House = *req.House
	}
	if req.Flat != nil {
		contact.Flat = *req.Flat
	}
	if req.Comments != nil {
		contact.Comments = *req.Comments
	}

	if err := h.DB.Save(&contact).Error; err != nil {
		return fail(c, http.StatusInternalServerError, CodeInternal, err.Error())
	}
	return c.JSON(http.StatusOK, contact)
}

func (h *ContactHandler) Delete(c echo.Context) error {
	user := CurrentUser(c)

	var req struct {
		ContactID uint `json:"contact_id"`
	}
	if err := c.Bind(&req); err != nil || req.ContactID == 0 {
		return fail(c, http.StatusBadRequest, CodeValidation, "contact_id is required")
	}

	result := h.DB.Where("id = ? AND user_id = ?", req.ContactID, user.ID).Delete(&models.Contact{})
	if result.Error != nil {
		return fail(c, http.StatusInternalServerError, CodeInternal, result.Error.Error())
	}
	if result.RowsAffected == 0 {
		return fail(c, http.StatusNotFound, CodeNotFound, "contact not found")
	}
	return succeed(c, http.StatusOK, echo.Map{"message": "contact deleted"})
}
