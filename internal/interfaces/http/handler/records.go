package handler

import (
	"slices"

	"github.com/erp/smarterp/internal/application/records"
	"github.com/erp/smarterp/internal/domain/shared"
	"github.com/erp/smarterp/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// DefaultListLimit bounds list endpoints when the client passes no limit
const DefaultListLimit = 100

// recordEndpoints implements the CRUD endpoints shared by the plain
// collections. Only fields in sortable may be used as order_by.
type recordEndpoints[T any, PT shared.DocumentPtr[T]] struct {
	BaseHandler
	service      *records.Service[T, PT]
	sortable     []string
	defaultOrder shared.Order
}

func newRecordEndpoints[T any, PT shared.DocumentPtr[T]](service *records.Service[T, PT], defaultOrder shared.Order, sortable ...string) *recordEndpoints[T, PT] {
	return &recordEndpoints[T, PT]{
		service:      service,
		sortable:     append(sortable, defaultOrder.Field),
		defaultOrder: defaultOrder,
	}
}

func (e *recordEndpoints[T, PT]) query(c *gin.Context) (shared.Query, int, bool) {
	var req dto.ListQuery
	if err := c.ShouldBindQuery(&req); err != nil {
		e.BindError(c, err)
		return shared.Query{}, 0, false
	}

	order := e.defaultOrder
	if req.OrderBy != "" {
		if !slices.Contains(e.sortable, req.OrderBy) {
			e.HandleError(c, shared.NewValidationError("order_by", "cannot sort by "+req.OrderBy))
			return shared.Query{}, 0, false
		}
		order = shared.Order{Field: req.OrderBy, Direction: shared.Asc}
	}
	if req.Order != "" {
		order.Direction = shared.Direction(req.Order)
	}

	limit := req.Limit
	if limit == 0 {
		limit = DefaultListLimit
	}
	return shared.NewQuery().OrderBy(order.Field, order.Direction).Limit(limit), limit, true
}

func (e *recordEndpoints[T, PT]) list(c *gin.Context) {
	q, limit, ok := e.query(c)
	if !ok {
		return
	}
	items, err := e.service.List(c.Request.Context(), q)
	if err != nil {
		e.HandleError(c, err)
		return
	}
	if items == nil {
		items = []T{}
	}
	e.List(c, items, len(items), limit)
}

func (e *recordEndpoints[T, PT]) get(c *gin.Context) {
	rec, err := e.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		e.HandleError(c, err)
		return
	}
	e.Success(c, rec)
}

func (e *recordEndpoints[T, PT]) create(c *gin.Context) {
	rec := new(T)
	if err := c.ShouldBindJSON(rec); err != nil {
		e.BindError(c, err)
		return
	}
	created, err := e.service.Create(c.Request.Context(), rec)
	if err != nil {
		e.HandleError(c, err)
		return
	}
	e.Created(c, created)
}

func (e *recordEndpoints[T, PT]) update(c *gin.Context) {
	var fields shared.Fields
	if err := c.ShouldBindJSON(&fields); err != nil {
		e.BindError(c, err)
		return
	}
	updated, err := e.service.Update(c.Request.Context(), c.Param("id"), fields)
	if err != nil {
		e.HandleError(c, err)
		return
	}
	e.Success(c, updated)
}

func (e *recordEndpoints[T, PT]) delete(c *gin.Context) {
	if err := e.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		e.HandleError(c, err)
		return
	}
	e.NoContent(c)
}
