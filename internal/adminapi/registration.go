package adminapi

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/pkrm0306/gp-backend/internal/registration"
	"github.com/pkrm0306/gp-backend/internal/webserver"
)

type bulkPayload struct {
	Products []registration.ProductInput `json:"products" validate:"required,min=1,dive"`
}

// registerRegistrationRoutes registers the product registration endpoints
func registerRegistrationRoutes() {
	webserver.ApiPOST("/product-registration/single", registerSingle)
	webserver.ApiPOST("/product-registration/bulk", registerBulk)
	webserver.ApiPUT("/product-registration/:id", updateRegistration)
	webserver.ApiGET("/product-registration/:id", getRegistration)
}

func registerSingle(c echo.Context) error {
	var payload registration.ProductInput
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse product", err.Error())
	}
	if err := c.Validate(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid product registration", validationDetails(err))
	}

	product, err := GetAppContext(c).Registration().RegisterSingle(c.Request().Context(), payload)
	if err != nil {
		return failErr(c, err)
	}
	return created(c, "Product registered successfully", product)
}

func registerBulk(c echo.Context) error {
	var payload bulkPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse products", err.Error())
	}
	if len(payload.Products) == 0 {
		return fail(c, http.StatusBadRequest, "BAD_REQUEST", "At least one product is required", nil)
	}
	if err := c.Validate(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid bulk registration", validationDetails(err))
	}

	manufacturerID, vendorID := sharedOwner(payload.Products)
	if manufacturerID == "" || vendorID == "" {
		return fail(c, http.StatusBadRequest, "BAD_REQUEST",
			"All products in a batch must share the same manufacturerId and vendorId", nil)
	}

	products, err := GetAppContext(c).Registration().RegisterBulk(c.Request().Context(), manufacturerID, vendorID, payload.Products)
	if err != nil {
		return failErr(c, err)
	}
	return created(c, "Products registered successfully", products)
}

// sharedOwner returns the manufacturer and vendor every item agrees on, or
// empty strings when they differ.
func sharedOwner(items []registration.ProductInput) (string, string) {
	mid := strings.TrimSpace(items[0].ManufacturerID)
	vid := strings.TrimSpace(items[0].VendorID)
	for _, item := range items[1:] {
		if !strings.EqualFold(strings.TrimSpace(item.ManufacturerID), mid) ||
			!strings.EqualFold(strings.TrimSpace(item.VendorID), vid) {
			return "", ""
		}
	}
	return mid, vid
}

func updateRegistration(c echo.Context) error {
	var payload registration.UpdateInput
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse product update", err.Error())
	}

	product, err := GetAppContext(c).Registration().UpdateProduct(c.Request().Context(), c.Param("id"), payload)
	if err != nil {
		return failErr(c, err)
	}
	return ok(c, product)
}

func getRegistration(c echo.Context) error {
	product, err := GetAppContext(c).Registration().GetProduct(c.Request().Context(), c.Param("id"))
	if err != nil {
		return failErr(c, err)
	}
	return ok(c, product)
}
