package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"marketrelay/internal/fault"
	"marketrelay/internal/model"
	"marketrelay/logger"
)

// SearchRequest initiates a discovery action.
type SearchRequest struct {
	Intent model.Intent `json:"intent"`
}

// SelectRequest initiates a quote action for chosen items.
type SelectRequest struct {
	Selected model.SelectedItems `json:"selected"`
}

// OrderStatusActionRequest initiates an order-status query.
type OrderStatusActionRequest struct {
	OrderID string `json:"order_id"`
}

// renderFault logs the fault once and writes the envelope with the
// fault's mapped status. This is the only place faults get logged.
func (s *Server) renderFault(c *gin.Context, protoCtx model.Context, flt fault.Fault) {
	s.log.WithComponent("server").WithFields(logger.Fields{
		"path":       c.FullPath(),
		"message_id": protoCtx.MessageID,
		"code":       flt.Detail().Code,
	}).Error(flt.Error())

	detail := flt.Detail()
	c.JSON(flt.Status(), model.ClientResponse[model.AckMessage]{Context: protoCtx, Error: &detail})
}

func (s *Server) handleSearch(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.renderFault(c, model.Context{Action: model.ActionSearch}, fault.BadRequest)
		return
	}

	protoCtx := model.NewContext(model.ActionSearch)
	if flt := s.services.Dispatcher.Dispatch(c.Request.Context(), protoCtx, req.Intent); flt != nil {
		s.renderFault(c, protoCtx, flt)
		return
	}
	c.JSON(http.StatusOK, model.ClientResponse[model.AckMessage]{Context: protoCtx, Message: model.NewAckMessage()})
}

func (s *Server) handleSelect(c *gin.Context) {
	var req SelectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.renderFault(c, model.Context{Action: model.ActionSelect}, fault.BadRequest)
		return
	}

	protoCtx := model.NewContext(model.ActionSelect)
	if flt := s.services.Dispatcher.Dispatch(c.Request.Context(), protoCtx, req.Selected); flt != nil {
		s.renderFault(c, protoCtx, flt)
		return
	}
	c.JSON(http.StatusOK, model.ClientResponse[model.AckMessage]{Context: protoCtx, Message: model.NewAckMessage()})
}

func (s *Server) handleOrderStatus(c *gin.Context) {
	var req OrderStatusActionRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.OrderID == "" {
		s.renderFault(c, model.Context{Action: model.ActionOrderStatus}, fault.BadRequest)
		return
	}

	protoCtx := model.NewContext(model.ActionOrderStatus)
	payload := model.OrderStatusRequest{OrderID: req.OrderID}
	if flt := s.services.Dispatcher.Dispatch(c.Request.Context(), protoCtx, payload); flt != nil {
		s.renderFault(c, protoCtx, flt)
		return
	}
	c.JSON(http.StatusOK, model.ClientResponse[model.AckMessage]{Context: protoCtx, Message: model.NewAckMessage()})
}

func (s *Server) handleOnSearchCallback(c *gin.Context) {
	var payload model.OnSearch
	if err := c.ShouldBindJSON(&payload); err != nil {
		s.renderFault(c, model.Context{Action: model.ActionSearch}, fault.BadRequest)
		return
	}

	record := model.SearchRecord{Context: payload.Context, Catalog: payload.Catalog, Error: payload.Error}
	if flt := s.services.SearchIngest.Ingest(c.Request.Context(), record); flt != nil {
		s.renderFault(c, payload.Context, flt)
		return
	}
	c.JSON(http.StatusOK, model.ClientResponse[model.AckMessage]{Context: payload.Context, Message: model.NewAckMessage()})
}

func (s *Server) handleOnSelectCallback(c *gin.Context) {
	var payload model.OnSelect
	if err := c.ShouldBindJSON(&payload); err != nil {
		s.renderFault(c, model.Context{Action: model.ActionSelect}, fault.BadRequest)
		return
	}

	record := model.SelectRecord{Context: payload.Context, Quote: payload.Quote, Error: payload.Error}
	if flt := s.services.SelectIngest.Ingest(c.Request.Context(), record); flt != nil {
		s.renderFault(c, payload.Context, flt)
		return
	}
	c.JSON(http.StatusOK, model.ClientResponse[model.AckMessage]{Context: payload.Context, Message: model.NewAckMessage()})
}

func (s *Server) handleOnOrderStatusCallback(c *gin.Context) {
	var payload model.OnOrderStatus
	if err := c.ShouldBindJSON(&payload); err != nil {
		s.renderFault(c, model.Context{Action: model.ActionOrderStatus}, fault.BadRequest)
		return
	}

	record := model.OrderStatusRecord{Context: payload.Context, Order: payload.Order, Error: payload.Error}
	if flt := s.services.StatusIngest.Ingest(c.Request.Context(), record); flt != nil {
		s.renderFault(c, payload.Context, flt)
		return
	}
	c.JSON(http.StatusOK, model.ClientResponse[model.AckMessage]{Context: payload.Context, Message: model.NewAckMessage()})
}

func (s *Server) handleOnSearchPoll(c *gin.Context) {
	messageID := c.Query("messageId")
	response, flt := s.services.SearchPoll.PollOne(c.Request.Context(), messageID)
	if flt != nil {
		s.renderFault(c, model.Context{MessageID: messageID, Action: model.ActionSearch}, flt)
		return
	}
	c.JSON(http.StatusOK, response)
}

func (s *Server) handleOnSelectPoll(c *gin.Context) {
	messageID := c.Query("messageId")
	response, flt := s.services.SelectPoll.PollOne(c.Request.Context(), messageID)
	if flt != nil {
		s.renderFault(c, model.Context{MessageID: messageID, Action: model.ActionSelect}, flt)
		return
	}
	c.JSON(http.StatusOK, response)
}

func (s *Server) handleOnOrderStatusPoll(c *gin.Context) {
	messageID := c.Query("messageId")
	response, flt := s.services.StatusPoll.PollOne(c.Request.Context(), messageID)
	if flt != nil {
		s.renderFault(c, model.Context{MessageID: messageID, Action: model.ActionOrderStatus}, flt)
		return
	}
	c.JSON(http.StatusOK, response)
}

// handleOnOrderStatusBatchPoll serves the batch contract: one envelope per
// requested id, per-item failures isolated to their slot. Only the request
// shape itself can fail the call as a whole.
func (s *Server) handleOnOrderStatusBatchPoll(c *gin.Context) {
	identity := s.services.Resolver.Resolve(c.GetHeader("Authorization"))
	if identity.Anonymous() {
		detail := model.Error{Code: "REL_401", Message: "authentication required for batch polling"}
		s.log.WithComponent("server").WithFields(logger.Fields{
			"path": c.FullPath(),
			"code": detail.Code,
		}).Warn(detail.Message)
		c.JSON(http.StatusUnauthorized, []model.ClientResponse[model.Order]{{Error: &detail}})
		return
	}

	messageIDs := splitMessageIDs(c.Query("messageIds"))
	responses, flt := s.services.StatusPoll.PollMany(c.Request.Context(), identity, messageIDs)
	if flt != nil {
		detail := flt.Detail()
		s.log.WithComponent("server").WithFields(logger.Fields{
			"path": c.FullPath(),
			"code": detail.Code,
		}).Error(flt.Error())
		c.JSON(flt.Status(), []model.ClientResponse[model.Order]{{Error: &detail}})
		return
	}
	c.JSON(http.StatusOK, responses)
}

func splitMessageIDs(raw string) []string {
	var out []string
	for _, id := range strings.Split(raw, ",") {
		if id = strings.TrimSpace(id); id != "" {
			out = append(out, id)
		}
	}
	return out
}
