package handlers

import (
	"errors"
	"fmt"
	"log"
	"reflect"
	"strings"

	"stockswap/internal/models"
	"stockswap/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// NewValidator returns a validator that reports fields by their JSON/query names.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "query"} {
			name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return f.Name
	})
	return v
}

// errInvalidBody marks a body that could not be decoded at all.
type errInvalidBody struct{ err error }

func (e errInvalidBody) Error() string { return e.err.Error() }

// bindBody decodes the JSON body into out and validates it.
func bindBody(c *fiber.Ctx, v *validator.Validate, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		return errInvalidBody{err}
	}
	return v.Struct(out)
}

// bindPagination reads page/limit; out-of-range values are rejected, absent ones defaulted.
func bindPagination(c *fiber.Ctx, v *validator.Validate) (models.Pagination, error) {
	var p models.Pagination
	if err := c.QueryParser(&p); err != nil {
		return p, errInvalidBody{err}
	}
	if err := v.Struct(p); err != nil {
		return p, err
	}
	return p.Normalize(), nil
}

// badInput writes the 400 response for a bindBody/bindPagination failure.
func badInput(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		errorMessages := make(map[string]string)
		for _, e := range validationErrors {
			errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  errorMessages,
		})
	}
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message": "Invalid request",
		"error":   err.Error(),
	})
}

// StatusFor maps a service error kind onto an HTTP status.
func StatusFor(err error) int {
	switch services.KindOf(err) {
	case services.KindNotFound:
		return fiber.StatusNotFound
	case services.KindForbidden:
		return fiber.StatusForbidden
	case services.KindBadRequest:
		return fiber.StatusBadRequest
	case services.KindConflict:
		return fiber.StatusConflict
	case services.KindUnauthorized:
		return fiber.StatusUnauthorized
	}
	return fiber.StatusInternalServerError
}

// respondError renders err as {"message", "error"}. Unclassified errors become a 500
// with fallback as the message.
func respondError(c *fiber.Ctx, err error, fallback string) error {
	status := StatusFor(err)
	var se *services.ServiceError
	if !errors.As(err, &se) {
		log.Printf("%s [%s %s]: %v", fallback, c.Method(), c.Path(), err)
		return c.Status(status).JSON(fiber.Map{
			"message": fallback,
			"error":   err.Error(),
		})
	}

	body := fiber.Map{"message": se.Message}
	if se.Err != nil {
		body["error"] = se.Err.Error()
	} else {
		body["error"] = se.Kind.String()
	}
	return c.Status(status).JSON(body)
}

// ErrorHandler is the app-wide fallback for errors returned by handlers and middleware.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(fiber.Map{"message": fe.Message})
	}
	return respondError(c, err, "Internal server error")
}
