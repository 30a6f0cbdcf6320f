package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"garment-tracker/internal/config"
	"garment-tracker/internal/core"
	"garment-tracker/internal/export"
	"garment-tracker/internal/metrics"
)

const moduleName = "app"

type appService struct {
	orders    core.OrderService
	stages    core.StageService
	reporting core.ReportingService
	exporter  *export.Exporter
	log       logrus.FieldLogger
}

// NewAppService constructs an appService that satisfies ApplicationService.
func NewAppService(
	orders core.OrderService,
	stages core.StageService,
	reporting core.ReportingService,
	exporter *export.Exporter,
	log logrus.FieldLogger,
) ApplicationService {
	return &appService{
		orders:    orders,
		stages:    stages,
		reporting: reporting,
		exporter:  exporter,
		log:       log,
	}
}

// logFailure logs unexpected failures. Domain errors the caller can act on
// (validation, sequence, already processed, not found) are logged at debug.
func (s *appService) logFailure(funcName, what string, data any, err error) {
	if metrics.Outcome(err) != "error" {
		s.log.WithFields(logrus.Fields{"funcName": funcName, "reason": err.Error()}).Debug(what)
		return
	}
	config.LogError(s.log, moduleName, funcName, what, data, err)
}

func (s *appService) orderResult(o *core.Order) *OrderResult {
	return &OrderResult{Order: o, NextStages: core.NextStages(o.Status)}
}

// ── Orders ───────────────────────────────────────────────────────────────────

func (s *appService) CreateOrder(ctx context.Context, req CreateOrderRequest) (*OrderResult, error) {
	o, err := s.orders.CreateOrder(ctx, req.NewOrderInput, req.ActingUser)
	metrics.ObserveOrder("create", err)
	if err != nil {
		s.logFailure("CreateOrder", "creating order", req.NewOrderInput, err)
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"order_id": o.ID, "created_by": o.CreatedBy}).Info("order created")
	return s.orderResult(o), nil
}

func (s *appService) GetOrder(ctx context.Context, orderID int) (*OrderResult, error) {
	o, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return s.orderResult(o), nil
}

func (s *appService) ListOrders(ctx context.Context, req ListOrdersRequest) (*OrderListResult, error) {
	filter, err := req.toFilter()
	if err != nil {
		return nil, err
	}
	orders, err := s.orders.ListOrders(ctx, filter)
	if err != nil {
		s.logFailure("ListOrders", "listing orders", req, err)
		return nil, err
	}
	if orders == nil {
		orders = []core.Order{}
	}
	return &OrderListResult{Orders: orders}, nil
}

func (s *appService) ReviseOrder(ctx context.Context, orderID int, in core.ReviseOrderInput) (*OrderResult, error) {
	o, err := s.orders.ReviseOrder(ctx, orderID, in)
	metrics.ObserveOrder("revise", err)
	if err != nil {
		s.logFailure("ReviseOrder", fmt.Sprintf("revising order %d", orderID), in, err)
		return nil, err
	}
	return s.orderResult(o), nil
}

func (s *appService) DeleteOrder(ctx context.Context, orderID int) error {
	err := s.orders.DeleteOrder(ctx, orderID)
	metrics.ObserveOrder("delete", err)
	if err != nil {
		s.logFailure("DeleteOrder", fmt.Sprintf("deleting order %d", orderID), nil, err)
		return err
	}
	s.log.WithField("order_id", orderID).Info("order deleted")
	return nil
}

// ── Stages ───────────────────────────────────────────────────────────────────

// finishStage logs, counts and re-reads the order after a Record call.
func (s *appService) finishStage(ctx context.Context, stage core.StageKind, orderID int, input, record any, err error) (*StageResult, error) {
	metrics.ObserveStage(stage, err)
	if err != nil {
		s.logFailure("Record", fmt.Sprintf("recording %s for order %d", stage, orderID), input, err)
		return nil, err
	}
	o, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{
		"order_id": orderID,
		"stage":    stage,
		"status":   o.Status,
	}).Info("stage recorded")
	return &StageResult{Stage: stage, Record: record, Order: s.orderResult(o)}, nil
}

func (s *appService) RecordFabricPurchase(ctx context.Context, orderID int, in core.FabricPurchaseInput, actingUser string) (*StageResult, error) {
	rec, err := s.stages.RecordFabricPurchase(ctx, orderID, in, actingUser)
	return s.finishStage(ctx, core.StageFabricPurchase, orderID, in, rec, err)
}

func (s *appService) RecordDyeingSent(ctx context.Context, orderID int, in core.DyeingSentInput, actingUser string) (*StageResult, error) {
	rec, err := s.stages.RecordDyeingSent(ctx, orderID, in, actingUser)
	return s.finishStage(ctx, core.StageDyeingSent, orderID, in, rec, err)
}

func (s *appService) RecordDyeingReceived(ctx context.Context, orderID int, in core.DyeingReceivedInput, actingUser string) (*StageResult, error) {
	rec, err := s.stages.RecordDyeingReceived(ctx, orderID, in, actingUser)
	return s.finishStage(ctx, core.StageDyeingReceived, orderID, in, rec, err)
}

func (s *appService) RecordClothCutting(ctx context.Context, orderID int, in core.ClothCuttingInput, actingUser string) (*StageResult, error) {
	rec, err := s.stages.RecordClothCutting(ctx, orderID, in, actingUser)
	return s.finishStage(ctx, core.StageClothCutting, orderID, in, rec, err)
}

func (s *appService) RecordStitching(ctx context.Context, orderID int, in core.StitchingInput, actingUser string) (*StageResult, error) {
	rec, err := s.stages.RecordStitching(ctx, orderID, in, actingUser)
	return s.finishStage(ctx, core.StageStitching, orderID, in, rec, err)
}

func (s *appService) RecordExtraWork(ctx context.Context, orderID int, in core.ExtraWorkInput, actingUser string) (*StageResult, error) {
	rec, err := s.stages.RecordExtraWork(ctx, orderID, in, actingUser)
	return s.finishStage(ctx, core.StageExtraWork, orderID, in, rec, err)
}

func (s *appService) RecordFinishingAndPacking(ctx context.Context, orderID int, in core.FinishingAndPackingInput, actingUser string) (*StageResult, error) {
	rec, err := s.stages.RecordFinishingAndPacking(ctx, orderID, in, actingUser)
	return s.finishStage(ctx, core.StageFinishingAndPacking, orderID, in, rec, err)
}

func (s *appService) RecordDispatch(ctx context.Context, orderID int, in core.DispatchInput, actingUser string) (*StageResult, error) {
	rec, err := s.stages.RecordDispatch(ctx, orderID, in, actingUser)
	return s.finishStage(ctx, core.StageDispatch, orderID, in, rec, err)
}

func (s *appService) RecordStage(ctx context.Context, req RecordStageRequest) (*StageResult, error) {
	kind, err := core.ParseStageKind(req.Stage)
	if err != nil {
		return nil, err
	}
	switch kind {
	case core.StageFabricPurchase:
		var in core.FabricPurchaseInput
		if err := decodeForm(req.Payload, &in); err != nil {
			return nil, err
		}
		return s.RecordFabricPurchase(ctx, req.OrderID, in, req.ActingUser)
	case core.StageDyeingSent:
		var in core.DyeingSentInput
		if err := decodeForm(req.Payload, &in); err != nil {
			return nil, err
		}
		return s.RecordDyeingSent(ctx, req.OrderID, in, req.ActingUser)
	case core.StageDyeingReceived:
		var in core.DyeingReceivedInput
		if err := decodeForm(req.Payload, &in); err != nil {
			return nil, err
		}
		return s.RecordDyeingReceived(ctx, req.OrderID, in, req.ActingUser)
	case core.StageClothCutting:
		var in core.ClothCuttingInput
		if err := decodeForm(req.Payload, &in); err != nil {
			return nil, err
		}
		return s.RecordClothCutting(ctx, req.OrderID, in, req.ActingUser)
	case core.StageStitching:
		var in core.StitchingInput
		if err := decodeForm(req.Payload, &in); err != nil {
			return nil, err
		}
		return s.RecordStitching(ctx, req.OrderID, in, req.ActingUser)
	case core.StageExtraWork:
		var in core.ExtraWorkInput
		if err := decodeForm(req.Payload, &in); err != nil {
			return nil, err
		}
		return s.RecordExtraWork(ctx, req.OrderID, in, req.ActingUser)
	case core.StageFinishingAndPacking:
		var in core.FinishingAndPackingInput
		if err := decodeForm(req.Payload, &in); err != nil {
			return nil, err
		}
		return s.RecordFinishingAndPacking(ctx, req.OrderID, in, req.ActingUser)
	case core.StageDispatch:
		var in core.DispatchInput
		if err := decodeForm(req.Payload, &in); err != nil {
			return nil, err
		}
		return s.RecordDispatch(ctx, req.OrderID, in, req.ActingUser)
	}
	return nil, core.NewValidationError("stage", "unknown stage kind %q", req.Stage)
}

// decodeForm strictly decodes a JSON stage form. Unknown fields and malformed
// values are validation errors.
func decodeForm(payload json.RawMessage, v any) error {
	if len(bytes.TrimSpace(payload)) == 0 {
		return core.NewValidationError("payload", "is required")
	}
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return core.NewValidationError(typeErr.Field, "must be a %s", typeErr.Type)
		}
		return core.NewValidationError("payload", "%v", err)
	}
	return nil
}

// ── Reads and reports ────────────────────────────────────────────────────────

func (s *appService) GetOrderSheet(ctx context.Context, orderID int) (*core.OrderSheet, error) {
	return s.reporting.GetOrderSheet(ctx, orderID)
}

func (s *appService) StatusSummary(ctx context.Context) (*core.StatusSummary, error) {
	return s.reporting.StatusSummary(ctx)
}

func (s *appService) DyerBacklog(ctx context.Context) ([]core.DyerBacklogLine, error) {
	lines, err := s.reporting.DyerBacklog(ctx)
	if lines == nil && err == nil {
		lines = []core.DyerBacklogLine{}
	}
	return lines, err
}

func (s *appService) MonthlyRevenue(ctx context.Context, year int) ([]core.MonthlyRevenueLine, error) {
	if year == 0 {
		year = time.Now().Year()
	}
	return s.reporting.MonthlyRevenue(ctx, year)
}

func (s *appService) TopCustomers(ctx context.Context, limit int) ([]core.CustomerTotal, error) {
	out, err := s.reporting.TopCustomers(ctx, limit)
	if out == nil && err == nil {
		out = []core.CustomerTotal{}
	}
	return out, err
}

func (s *appService) ExportOrders(ctx context.Context, w io.Writer) (int, error) {
	defer metrics.ObserveExport(time.Now())
	n, err := s.exporter.Write(ctx, w)
	if err != nil {
		s.logFailure("ExportOrders", "writing order workbook", nil, err)
		return n, err
	}
	return n, nil
}
