package action

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"duoadmin/domain/entity"
	"duoadmin/domain/listing"
	"duoadmin/domain/shared"
	"duoadmin/domain/status"
)

// ResolvedByBan is the resolution recorded on a report whose player was banned.
const ResolvedByBan = "Đã xử lý vi phạm"

var validate = validator.New(validator.WithRequiredStructEnabled())

var allowed = map[entity.Entity][]Kind{
	entity.User:   {Lock, Unlock, SetRoles, Delete, Create, Update},
	entity.Gamer:  {Ban, Unban, Delete, Create},
	entity.Game:   {Create, Update, Delete},
	entity.Order:  {Delete},
	entity.Report: {ResolveReport, BanReported, UnbanReported},
}

// Supported lists the kinds accepted for e.
func Supported(e entity.Entity) []Kind {
	return append([]Kind{}, allowed[e]...)
}

// NeedsTarget reports whether the kind acts on an existing entity.
func (k Kind) NeedsTarget() bool { return k != Create }

// Build checks req against its target and plans it. target is the loaded item
// the action addresses; it is ignored for Create. No step is planned when an
// error is returned.
func Build(req Request, target listing.Item) (Plan, error) {
	if !supports(req.Entity, req.Kind) {
		return Plan{}, shared.NewValidationError(string(req.Entity), "kind",
			fmt.Sprintf("action %q is not supported for %s", req.Kind, req.Entity))
	}
	if req.Kind.NeedsTarget() && strings.TrimSpace(req.TargetID) == "" {
		return Plan{}, shared.NewValidationError(string(req.Entity), "id", "target id is required")
	}

	switch req.Kind {
	case Ban:
		return planBan(req)
	case Unban:
		return Plan{
			Steps:          []Step{{Op: OpUnbanPlayer, Entity: entity.Gamer, TargetID: req.TargetID}},
			Patch:          Patch{Kind: PatchStatus, TargetID: req.TargetID, Status: status.GamerAvailable},
			SuccessMessage: "Đã mở khóa game thủ",
		}, nil
	case Lock:
		return Plan{
			Steps:          []Step{{Op: OpLockUser, Entity: entity.User, TargetID: req.TargetID}},
			Patch:          Patch{Kind: PatchStatus, TargetID: req.TargetID, Status: status.UserLocked},
			SuccessMessage: "Đã khóa tài khoản",
		}, nil
	case Unlock:
		return Plan{
			Steps:          []Step{{Op: OpUnlockUser, Entity: entity.User, TargetID: req.TargetID}},
			Patch:          Patch{Kind: PatchStatus, TargetID: req.TargetID, Status: status.UserActive},
			SuccessMessage: "Đã mở khóa tài khoản",
		}, nil
	case SetRoles:
		return planRoles(req)
	case Delete:
		return planDelete(req, target)
	case Update:
		return planUpdate(req)
	case Create:
		return planCreate(req)
	case ResolveReport:
		return planResolve(req)
	case BanReported:
		return planBanReported(req, target)
	case UnbanReported:
		playerID := target.Field("reportedPlayerId")
		if playerID == "" {
			return Plan{}, shared.NewValidationError(string(entity.Report), "reportedPlayerId", "report has no reported player")
		}
		return Plan{
			Steps:          []Step{{Op: OpUnbanPlayer, Entity: entity.Gamer, TargetID: playerID}},
			Patch:          Patch{Kind: PatchNone},
			SuccessMessage: "Đã bỏ ban người chơi",
		}, nil
	}
	return Plan{}, shared.NewValidationError(string(req.Entity), "kind", "unknown action")
}

func supports(e entity.Entity, k Kind) bool {
	for _, a := range allowed[e] {
		if a == k {
			return true
		}
	}
	return false
}

func planBan(req Request) (Plan, error) {
	body := BanBody{
		Reason:      strings.TrimSpace(req.Payload.Reason),
		Description: strings.TrimSpace(req.Payload.Description),
	}
	if err := check(req.Entity, body); err != nil {
		return Plan{}, err
	}
	return Plan{
		Steps:          []Step{{Op: OpBanPlayer, Entity: entity.Gamer, TargetID: req.TargetID, Body: body}},
		Patch:          Patch{Kind: PatchStatus, TargetID: req.TargetID, Status: status.GamerBanned},
		SuccessMessage: "Đã ban game thủ",
	}, nil
}

// planBanReported bans the reported player with the report's own reason and
// description, then resolves the report. The operator may override either.
func planBanReported(req Request, report listing.Item) (Plan, error) {
	body := BanBody{
		Reason:      firstNonBlank(req.Payload.Reason, report.Field("reason")),
		Description: firstNonBlank(req.Payload.Description, report.Field("description")),
	}
	if err := check(entity.Report, body); err != nil {
		return Plan{}, err
	}
	playerID := report.Field("reportedPlayerId")
	if playerID == "" {
		return Plan{}, shared.NewValidationError(string(entity.Report), "reportedPlayerId", "report has no reported player")
	}

	resolved := ReportStatusBody{Status: "RESOLVED", Resolution: ResolvedByBan}
	return Plan{
		Steps: []Step{
			{Op: OpBanPlayer, Entity: entity.Gamer, TargetID: playerID, Body: body},
			{Op: OpSetReportStatus, Entity: entity.Report, TargetID: req.TargetID, Body: resolved},
		},
		Patch:          Patch{Kind: PatchStatus, TargetID: req.TargetID, Status: status.ReportResolved},
		SuccessMessage: "Đã ban người chơi và xử lý báo cáo",
	}, nil
}

func planResolve(req Request) (Plan, error) {
	body := ReportStatusBody{
		Status:     strings.ToUpper(strings.TrimSpace(req.Payload.Status)),
		Resolution: strings.TrimSpace(req.Payload.Resolution),
	}
	if err := check(entity.Report, body); err != nil {
		return Plan{}, err
	}
	return Plan{
		Steps:          []Step{{Op: OpSetReportStatus, Entity: entity.Report, TargetID: req.TargetID, Body: body}},
		Patch:          Patch{Kind: PatchStatus, TargetID: req.TargetID, Status: strings.ToLower(body.Status)},
		SuccessMessage: "Đã cập nhật trạng thái báo cáo",
	}, nil
}

func planRoles(req Request) (Plan, error) {
	roles := make([]string, 0, len(req.Payload.Roles))
	for _, r := range req.Payload.Roles {
		r = strings.ToUpper(strings.TrimSpace(r))
		if r == "" {
			continue
		}
		if !status.IsRole(r) {
			return Plan{}, shared.NewValidationError(string(entity.User), "roles", "unknown role "+r)
		}
		roles = append(roles, r)
	}
	if len(roles) == 0 {
		return Plan{}, shared.NewValidationError(string(entity.User), "roles", "at least one role is required")
	}
	return Plan{
		Steps:          []Step{{Op: OpSetRoles, Entity: entity.User, TargetID: req.TargetID, Body: roles}},
		Patch:          Patch{Kind: PatchRoles, TargetID: req.TargetID, Roles: roles},
		SuccessMessage: "Đã cập nhật vai trò",
	}, nil
}

func planDelete(req Request, target listing.Item) (Plan, error) {
	if req.Entity == entity.Order && target.StatusRaw != status.OrderCompleted {
		return Plan{}, shared.NewConflictError(string(entity.Order), "only completed orders can be deleted")
	}
	return Plan{
		Steps:          []Step{{Op: OpDelete, Entity: req.Entity, TargetID: req.TargetID}},
		Patch:          Patch{Kind: PatchRemove, TargetID: req.TargetID},
		SuccessMessage: "Đã xóa thành công",
	}, nil
}

func planUpdate(req Request) (Plan, error) {
	if len(req.Payload.Fields) == 0 {
		return Plan{}, shared.NewValidationError(string(req.Entity), "fields", "nothing to update")
	}
	return Plan{
		Steps:          []Step{{Op: OpUpdate, Entity: req.Entity, TargetID: req.TargetID, Body: req.Payload.Fields}},
		Patch:          Patch{Kind: PatchReload},
		SuccessMessage: "Đã cập nhật thành công",
	}, nil
}

var createRequired = map[entity.Entity][]string{
	entity.User:  {"email", "password"},
	entity.Game:  {"name"},
	entity.Gamer: {"userId", "username", "gameId", "pricePerHour"},
}

func planCreate(req Request) (Plan, error) {
	for _, f := range createRequired[req.Entity] {
		v, ok := req.Payload.Fields[f]
		if s, isString := v.(string); !ok || (isString && strings.TrimSpace(s) == "") {
			return Plan{}, shared.NewValidationError(string(req.Entity), f, f+" is required")
		}
	}
	if req.Entity == entity.Gamer {
		if n, ok := number(req.Payload.Fields["pricePerHour"]); !ok || n <= 0 {
			return Plan{}, shared.NewValidationError(string(req.Entity), "pricePerHour", "pricePerHour must be a positive number")
		}
	}
	return Plan{
		Steps:          []Step{{Op: OpCreate, Entity: req.Entity, Body: req.Payload.Fields}},
		Patch:          Patch{Kind: PatchReload},
		SuccessMessage: "Đã tạo mới thành công",
	}, nil
}

// number accepts a JSON number or a numeric string, as form inputs send either.
func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// check runs the struct validator and converts the first failure.
func check(e entity.Entity, body any) error {
	err := validate.Struct(body)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			return shared.NewValidationError(string(e), field, field+" is required")
		case "oneof":
			return shared.NewValidationError(string(e), field, fmt.Sprintf("%s must be one of %s", field, fe.Param()))
		}
		return shared.NewValidationError(string(e), field, fe.Error())
	}
	return shared.NewValidationError(string(e), "", err.Error())
}
