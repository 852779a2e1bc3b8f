package bucket

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/ethanbaker/bucket/pkg/factoid"
	"github.com/ethanbaker/bucket/pkg/sdk"
	"github.com/ethanbaker/bucket/pkg/store"
	"github.com/gin-gonic/gin"
)

type controller struct {
	backend Backend
}

// getInventory handles GET requests for the current holding
func (ctrl *controller) getInventory(c *gin.Context) {
	inv := sdk.Inventory{
		Items: ctrl.backend.Items(),
		Size:  ctrl.backend.InventorySize(),
	}

	c.JSON(sdk.NewSuccessResponse("Inventory retrieved successfully", inv).AsGinResponse())
}

// getFacts handles GET requests for all factoids of a trigger
func (ctrl *controller) getFacts(c *gin.Context) {
	fact := c.Param("fact")

	rows, err := ctrl.backend.Lookup(c.Request.Context(), fact)
	if err != nil {
		c.JSON(sdk.NewErrorResponse(statusFor(err), "Failed to look up factoids", err).AsGinResponse())
		return
	}

	out := make([]sdk.Factoid, 0, len(rows))
	for _, row := range rows {
		out = append(out, toSDKFactoid(row))
	}

	c.JSON(sdk.NewSuccessResponse("Factoids retrieved successfully", out).AsGinResponse())
}

// deleteFact handles DELETE requests for a factoid id
func (ctrl *controller) deleteFact(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(sdk.NewErrorResponse(http.StatusBadRequest, "Invalid factoid id", err).AsGinResponse())
		return
	}

	row, err := ctrl.backend.Forget(c.Request.Context(), uint(id))
	if err != nil {
		c.JSON(sdk.NewErrorResponse(statusFor(err), "Failed to delete factoid", err).AsGinResponse())
		return
	}

	c.JSON(sdk.NewSuccessResponse("Factoid deleted successfully", toSDKFactoid(row)).AsGinResponse())
}

// getFriend handles GET requests for a nick's reputation
func (ctrl *controller) getFriend(c *gin.Context) {
	friend, err := ctrl.backend.Friend(c.Request.Context(), c.Param("nick"))
	if err != nil {
		c.JSON(sdk.NewErrorResponse(statusFor(err), "Failed to retrieve friend", err).AsGinResponse())
		return
	}

	c.JSON(sdk.NewSuccessResponse("Friend retrieved successfully", sdk.Friend{
		Nick:     friend.Nick,
		Friendly: friend.Friendly,
		LastSeen: friend.LastSeen,
	}).AsGinResponse())
}

// statusFor maps store errors onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrDataIntegrity):
		return http.StatusConflict
	case errors.Is(err, store.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func toSDKFactoid(row *store.Factoid) sdk.Factoid {
	return sdk.Factoid{
		ID:        row.ID,
		Fact:      row.Fact,
		Verb:      row.Verb,
		Tidbit:    row.Tidbit,
		Protected: row.Protected,
		Literal:   factoid.Literal(row),
	}
}
