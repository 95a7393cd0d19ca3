package console

import (
	"context"
	"encoding/json"
	"errors"

	"go.uber.org/zap"

	"duoadmin/domain/action"
	"duoadmin/domain/audit"
	"duoadmin/domain/entity"
	"duoadmin/domain/listing"
	"duoadmin/domain/session"
	"duoadmin/domain/shared"
	"duoadmin/infrastructure/persistence"
	"duoadmin/pkg/logger"
)

// Perform validates and dispatches an operator action.
//
// Steps run in order and the first failure stops the chain; steps that
// already succeeded are not undone. On success the patch is applied to the
// session's page of the entity. The returned Result is filled in whenever a
// step ran, even when err is not nil.
func (s *ApplicationService) Perform(ctx context.Context, sess session.Session, req action.Request) (action.Result, error) {
	res := action.Result{Entity: req.Entity, Kind: req.Kind, TargetID: req.TargetID}
	if _, ok := entity.Parse(string(req.Entity)); !ok {
		return res, shared.NewNotFoundError("entity", string(req.Entity))
	}

	var target listing.Item
	if req.Kind.NeedsTarget() && req.TargetID != "" {
		t, err := s.target(ctx, sess, req.Entity, req.TargetID)
		if err != nil {
			return res, err
		}
		target = t
	}

	plan, err := action.Build(req, target)
	if err != nil {
		return res, err
	}

	release, err := s.guard.Acquire(ctx, guardKey(sess, req))
	if err != nil {
		return res, err
	}
	defer release()

	// A started chain runs to completion even if the caller goes away.
	runCtx := context.WithoutCancel(ctx)
	res, err = s.run(runCtx, sess, req, plan)

	if res.OK {
		s.applyPatch(sess, req.Entity, plan)
	}
	s.record(runCtx, sess, res)
	return res, err
}

// Create dispatches a create action; the page is reloaded on success.
func (s *ApplicationService) Create(ctx context.Context, sess session.Session, e entity.Entity, fields map[string]any) (action.Result, error) {
	return s.Perform(ctx, sess, action.Request{Entity: e, Kind: action.Create, Payload: action.Payload{Fields: fields}})
}

func (s *ApplicationService) run(ctx context.Context, sess session.Session, req action.Request, plan action.Plan) (action.Result, error) {
	res := action.Result{
		Entity:   req.Entity,
		Kind:     req.Kind,
		TargetID: req.TargetID,
		Steps:    make([]action.StepOutcome, 0, len(plan.Steps)),
		Patch:    action.Patch{Kind: action.PatchNone},
	}
	log := logger.WithRequestID(persistence.RequestIDFromContext(ctx)).With(
		zap.String("entity", string(req.Entity)),
		zap.String("kind", string(req.Kind)),
		zap.String("target_id", req.TargetID),
	)

	for i, step := range plan.Steps {
		err := s.executor.Execute(ctx, sess, step)
		if err != nil {
			msg := userMessage(err)
			res.Steps = append(res.Steps, action.StepOutcome{Op: step.Op, TargetID: step.TargetID, Message: msg})
			res.Message = msg
			res.Partial = i > 0
			if res.Partial {
				log.Warn("Action stopped after partial success",
					zap.String("failed_op", string(step.Op)), zap.Int("completed_steps", i), zap.Error(err))
			} else {
				log.Info("Action rejected", zap.String("op", string(step.Op)), zap.Error(err))
			}
			return res, err
		}
		res.Steps = append(res.Steps, action.StepOutcome{Op: step.Op, TargetID: step.TargetID, OK: true})
	}

	res.OK = true
	res.Message = plan.SuccessMessage
	res.Patch = plan.Patch
	log.Info("Action completed")
	return res, nil
}

// applyPatch updates the acting page, and marks pages of other entities a
// step touched for reload.
func (s *ApplicationService) applyPatch(sess session.Session, e entity.Entity, plan action.Plan) {
	if slot, ok := s.pages.lookup(sess.Key(), e); ok {
		slot.apply(plan.Patch)
	}
	for _, step := range plan.Steps {
		if step.Entity == e {
			continue
		}
		if slot, ok := s.pages.lookup(sess.Key(), step.Entity); ok {
			slot.markStale()
		}
	}
}

// target finds the addressed entity in the loaded page, or fetches it.
func (s *ApplicationService) target(ctx context.Context, sess session.Session, e entity.Entity, id string) (listing.Item, error) {
	if slot, ok := s.pages.lookup(sess.Key(), e); ok {
		if it, found := slot.find(id); found {
			return it, nil
		}
	}
	return s.loader.Detail(ctx, sess, e, id)
}

func (s *ApplicationService) record(ctx context.Context, sess session.Session, res action.Result) {
	if s.auditRepo == nil {
		return
	}
	rid := persistence.RequestIDFromContext(ctx)
	entry := audit.NewEntry(s.newID(), rid, sess.Actor(), res, s.now())
	if err := s.auditRepo.Save(ctx, entry); err != nil {
		logger.WithRequestID(rid).Error("Failed to write audit entry",
			zap.String("entity", string(res.Entity)),
			zap.String("kind", string(res.Kind)),
			zap.String("target_id", res.TargetID),
			zap.Bool("ok", res.OK),
			zap.Bool("partial", res.Partial),
			zap.Error(err),
		)
	}
}

// Audit returns recent audit entries.
func (s *ApplicationService) Audit(ctx context.Context, q audit.Query) ([]audit.Entry, error) {
	if s.auditRepo == nil {
		return []audit.Entry{}, nil
	}
	return s.auditRepo.Recent(ctx, q)
}

func guardKey(sess session.Session, req action.Request) string {
	if req.Kind == action.Create {
		return string(req.Entity) + "/new/" + sess.Key()
	}
	return string(req.Entity) + "/" + req.TargetID
}

// userMessage is the operator-facing text of a failed step.
func userMessage(err error) string {
	var de *shared.DomainError
	switch {
	case errors.Is(err, shared.ErrRejected):
		if errors.As(err, &de) && de.Message != "" {
			return de.Message
		}
		return action.FailureMessage
	case errors.Is(err, shared.ErrUnavailable):
		return "Không thể kết nối tới máy chủ, vui lòng thử lại"
	case errors.Is(err, shared.ErrUnauthorized):
		return "Phiên đăng nhập đã hết hạn, vui lòng đăng nhập lại"
	case errors.Is(err, shared.ErrForbidden):
		return "Bạn không có quyền thực hiện thao tác này"
	case errors.Is(err, shared.ErrNotFound):
		return "Không tìm thấy dữ liệu"
	}
	return action.FailureMessage
}

func decodeRecord(raw []byte) map[string]any {
	record := map[string]any{}
	if len(raw) == 0 {
		return record
	}
	if err := json.Unmarshal(raw, &record); err != nil {
		return map[string]any{}
	}
	return record
}
