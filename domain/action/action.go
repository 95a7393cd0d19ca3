// Package action describes the mutations an operator can request on a managed
// entity, checks them before anything is sent upstream, and plans them as an
// ordered list of upstream steps plus the patch to apply on success.
package action

import (
	"duoadmin/domain/entity"
)

// Kind names an operator action.
type Kind string

const (
	Ban           Kind = "ban"
	Unban         Kind = "unban"
	Lock          Kind = "lock"
	Unlock        Kind = "unlock"
	SetRoles      Kind = "roles"
	Delete        Kind = "delete"
	Update        Kind = "update"
	Create        Kind = "create"
	ResolveReport Kind = "resolve"
	BanReported   Kind = "ban-reported"
	UnbanReported Kind = "unban-reported"
)

// Op is one upstream mutation. The transport maps it to a method and path.
type Op string

const (
	OpBanPlayer       Op = "ban_player"
	OpUnbanPlayer     Op = "unban_player"
	OpLockUser        Op = "lock_user"
	OpUnlockUser      Op = "unlock_user"
	OpSetRoles        Op = "set_roles"
	OpDelete          Op = "delete"
	OpUpdate          Op = "update"
	OpCreate          Op = "create"
	OpSetReportStatus Op = "set_report_status"
)

// Step is one upstream call of a plan. Entity is the collection the call
// addresses, which is not always the collection the action started from.
type Step struct {
	Op       Op            `json:"op"`
	Entity   entity.Entity `json:"entity"`
	TargetID string        `json:"targetId,omitempty"`
	Body     any           `json:"-"`
}

// Payload is the operator input of an action. Which members matter depends
// on the kind.
type Payload struct {
	Reason      string         `json:"reason"`
	Description string         `json:"description"`
	Status      string         `json:"status"`
	Resolution  string         `json:"resolution"`
	Roles       []string       `json:"roles"`
	Fields      map[string]any `json:"fields"`
}

// Request asks for kind on the target entity. TargetID is empty for Create.
type Request struct {
	Entity   entity.Entity
	Kind     Kind
	TargetID string
	Payload  Payload
}

// BanBody is sent to the ban endpoint.
type BanBody struct {
	Reason      string `json:"reason" validate:"required"`
	Description string `json:"description,omitempty"`
}

// ReportStatusBody is sent to the report status endpoint.
type ReportStatusBody struct {
	Status     string `json:"status" validate:"required,oneof=RESOLVED IGNORED PENDING"`
	Resolution string `json:"resolution"`
}

// PatchKind selects how a successful action changes the loaded collection.
type PatchKind string

const (
	PatchNone   PatchKind = "none"
	PatchStatus PatchKind = "status"
	PatchRemove PatchKind = "remove"
	PatchFields PatchKind = "fields"
	PatchRoles  PatchKind = "roles"
	// PatchReload discards the loaded collection; the next view refetches it.
	PatchReload PatchKind = "reload"
)

// Patch is the local change implied by a successful action.
type Patch struct {
	Kind     PatchKind         `json:"kind"`
	TargetID string            `json:"targetId,omitempty"`
	Status   string            `json:"status,omitempty"`
	Fields   map[string]string `json:"fields,omitempty"`
	Roles    []string          `json:"roles,omitempty"`
}

// Plan is the validated form of a Request.
type Plan struct {
	Steps          []Step
	Patch          Patch
	SuccessMessage string
}

// StepOutcome records what happened to one step.
type StepOutcome struct {
	Op       Op     `json:"op"`
	TargetID string `json:"targetId,omitempty"`
	OK       bool   `json:"ok"`
	Message  string `json:"message,omitempty"`
}

// Result is the outcome of a dispatched action.
type Result struct {
	Entity   entity.Entity `json:"entity"`
	Kind     Kind          `json:"kind"`
	TargetID string        `json:"targetId,omitempty"`
	OK       bool          `json:"ok"`
	Message  string        `json:"message"`
	// Partial is set when a later step failed after an earlier one succeeded.
	// Earlier steps are not rolled back.
	Partial bool          `json:"partial"`
	Steps   []StepOutcome `json:"steps"`
	Patch   Patch         `json:"patch"`
}

// FailureMessage is shown when the upstream rejects an action without saying why.
const FailureMessage = "Thao tác thất bại, vui lòng thử lại"
