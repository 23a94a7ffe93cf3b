package handler

import (
    "errors"
    "net/http"
    "reflect"
    "strconv"
    "strings"

    "github.com/go-playground/validator/v10"
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/neustalgic-grooves/internal/store"
)

// RequestValidator adapts go-playground/validator to echo.Validator.
type RequestValidator struct {
    v *validator.Validate
}

// NewValidator returns a validator reporting fields by their JSON names.
func NewValidator() *RequestValidator {
    v := validator.New(validator.WithRequiredStructEnabled())
    v.RegisterTagNameFunc(func(f reflect.StructField) string {
        for _, tag := range []string{"json", "form"} {
            name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
            if name == "-" {
                return ""
            }
            if name != "" {
                return name
            }
        }
        return f.Name
    })
    return &RequestValidator{v: v}
}

// Validate implements echo.Validator.
func (rv *RequestValidator) Validate(i interface{}) error { return rv.v.Struct(i) }

// FieldError is one entry of a validation failure response.
type FieldError struct {
    Field   string `json:"field"`
    Message string `json:"message"`
}

func fieldMessage(fe validator.FieldError) string {
    f := fe.Field()
    switch fe.Tag() {
    case "required":
        return f + " is required"
    case "email":
        return "Please provide a valid email"
    case "oneof":
        return "Valid " + f + " is required (one of: " + fe.Param() + ")"
    case "datetime":
        return f + " must be a date formatted " + fe.Param()
    case "min":
        if fe.Kind() == reflect.String {
            return f + " must be at least " + fe.Param() + " characters long"
        }
        return f + " must be at least " + fe.Param()
    case "max":
        if fe.Kind() == reflect.String {
            return f + " must be at most " + fe.Param() + " characters long"
        }
        return f + " must be at most " + fe.Param()
    }
    return f + " is invalid"
}

// errorBody is the single-message error shape used across the API.
func errorBody(msg string) map[string]string { return map[string]string{"error": msg} }

// decode binds the request into req and validates it.  On failure the 400
// response has already been written and ok is false.
func decode(c echo.Context, req interface{}) (ok bool, err error) {
    if err := c.Bind(req); err != nil {
        return false, c.JSON(http.StatusBadRequest, errorBody("invalid request body"))
    }
    if err := c.Validate(req); err != nil {
        var ves validator.ValidationErrors
        if !errors.As(err, &ves) {
            return false, c.JSON(http.StatusBadRequest, errorBody(err.Error()))
        }
        out := make([]FieldError, 0, len(ves))
        for _, fe := range ves {
            out = append(out, FieldError{Field: fe.Field(), Message: fieldMessage(fe)})
        }
        return false, c.JSON(http.StatusBadRequest, map[string]any{"errors": out})
    }
    return true, nil
}

// storeError maps store sentinels onto responses.  Anything unexpected is
// logged and reported as a 500 without leaking details.
func storeError(c echo.Context, err error, notFound, conflict string) error {
    switch {
    case errors.Is(err, store.ErrNotFound):
        return c.JSON(http.StatusNotFound, errorBody(notFound))
    case errors.Is(err, store.ErrDuplicate) && conflict != "":
        return c.JSON(http.StatusConflict, errorBody(conflict))
    }
    c.Logger().Errorf("%s %s: %v", c.Request().Method, c.Path(), err)
    return c.JSON(http.StatusInternalServerError, errorBody("server error"))
}

// pagination reads ?page= and ?limit=.  Bad values fall back to defaults.
func pagination(c echo.Context, defLimit int) store.Pagination {
    page, _ := strconv.Atoi(c.QueryParam("page"))
    limit, _ := strconv.Atoi(c.QueryParam("limit"))
    return store.Pagination{Page: page, Limit: limit}.Normalize(defLimit)
}
