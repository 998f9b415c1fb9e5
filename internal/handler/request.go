package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/hitoshi/taskapi/internal/model"
)

// maxRequestBodyBytes はリクエストボディの上限サイズ。
const maxRequestBodyBytes = 1 << 20

var validate = newValidator()

// newValidator はエラーのフィールド名にJSONタグ名を使うvalidatorを生成する。
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decodeAndValidate はリクエストボディをJSONとしてデコードし、検証する。
// 失敗した場合はVALIDATION_ERRORの*model.APIErrorを返す。
func decodeAndValidate(r *http.Request, v any) error {
	if err := decodeJSON(r, v); err != nil {
		return err
	}
	return validateRequest(v)
}

// decodeJSON はリクエストボディをvにデコードする。
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBodyBytes))
	if err := dec.Decode(v); err != nil {
		var typeErr *json.UnmarshalTypeError
		switch {
		case errors.Is(err, io.EOF):
			return model.NewValidationError("request body is required")
		case errors.As(err, &typeErr):
			field := typeErr.Field
			if field == "" {
				field = "body"
			}
			return model.NewValidationError("request body has an invalid field type", model.FieldError{
				Field:   field,
				Rule:    "type",
				Message: fmt.Sprintf("%s must be of type %s", field, typeErr.Type.String()),
			})
		default:
			return model.NewValidationError("request body is not valid JSON: " + err.Error())
		}
	}
	return nil
}

// validateRequest はstructタグに従ってvを検証する。
// vがValidate() errorを実装している場合はそちらを使う。
func validateRequest(v any) error {
	if custom, ok := v.(interface{ Validate() error }); ok {
		return custom.Validate()
	}
	return toAPIError(validate.Struct(v))
}

// toAPIError はvalidatorのエラーをVALIDATION_ERRORに変換する。
func toAPIError(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return model.NewValidationError(err.Error())
	}

	fields := make([]model.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fieldError(fe.Field(), fe.Tag(), fe.Param()))
	}
	return model.NewValidationError("request validation failed", fields...)
}

// validateVar は単一の値を検証し、違反があればFieldErrorを返す。
func validateVar(field string, value any, tag string) *model.FieldError {
	err := validate.Var(value, tag)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := fieldError(field, verrs[0].Tag(), verrs[0].Param())
		return &fe
	}
	fe := fieldError(field, "invalid", "")
	return &fe
}

func fieldError(field, rule, param string) model.FieldError {
	var msg string
	switch rule {
	case "required":
		msg = field + " is required"
	case "min":
		msg = fmt.Sprintf("%s must be at least %s characters", field, param)
	case "max":
		msg = fmt.Sprintf("%s must be at most %s characters", field, param)
	case "email":
		msg = field + " must be a valid email address"
	default:
		msg = field + " is invalid"
	}
	return model.FieldError{Field: field, Rule: rule, Message: msg}
}

// parseIDParam はURLパスの{id}を整数として取り出す。
func parseIDParam(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, model.NewValidationError("path parameter is invalid", model.FieldError{
			Field:   "id",
			Rule:    "int",
			Message: "id must be an integer",
		})
	}
	return id, nil
}

// parseNonNegativeIntQuery はクエリパラメータを0以上の整数として取り出す。
// パラメータがない場合はdefaultValを返す。
func parseNonNegativeIntQuery(r *http.Request, name string, defaultVal int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return defaultVal, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, model.NewValidationError("query parameter is invalid", model.FieldError{
			Field:   name,
			Rule:    "int",
			Message: name + " must be an integer",
		})
	}
	if v < 0 {
		return 0, model.NewValidationError("query parameter is invalid", model.FieldError{
			Field:   name,
			Rule:    "gte",
			Message: name + " must be greater than or equal to 0",
		})
	}
	return v, nil
}
