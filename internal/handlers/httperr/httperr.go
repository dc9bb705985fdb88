package httperr

import (
	"errors"
	"net/http"

	"github.com/GlebRadaev/settlement/internal/domain"
	"github.com/GlebRadaev/settlement/pkg/utils"
)

func Status(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidState), errors.Is(err, domain.ErrAlreadyProcessed):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInsufficientBalance):
		return http.StatusPaymentRequired
	case errors.Is(err, domain.ErrValidation):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// Respond writes the status for err. Internal failures get a generic
// message so driver errors never reach the client.
func Respond(w http.ResponseWriter, err error) {
	code := Status(err)
	if code == http.StatusInternalServerError {
		utils.RespondWithError(w, code, "Internal server error")
		return
	}
	utils.RespondWithError(w, code, err.Error())
}
