// Package status maps raw entity statuses to display labels.
//
// Every page resolves statuses through the one table below, so a status shown
// on a list row, a detail view and a summary card always reads the same.
package status

import (
	"strings"

	"duoadmin/domain/entity"
)

// Label is the presentation of one status value.
type Label struct {
	Text       string `json:"text"`
	ColorClass string `json:"colorClass"`
	Icon       string `json:"icon,omitempty"`
	// Known is false when the raw value is not declared for the entity.
	Known bool `json:"known"`
}

const (
	colorAmber   = "bg-amber-100 text-amber-700"
	colorEmerald = "bg-emerald-100 text-emerald-700"
	colorGreen   = "bg-green-100 text-green-800"
	colorBlue    = "bg-blue-100 text-blue-700"
	colorGray    = "bg-gray-100 text-gray-600"
	colorRed     = "bg-red-100 text-red-700"
	colorYellow  = "bg-yellow-100 text-yellow-800"
	colorPurple  = "bg-purple-100 text-purple-700"
)

// Order statuses.
const (
	OrderPending    = "PENDING"
	OrderConfirmed  = "CONFIRMED"
	OrderInProgress = "IN_PROGRESS"
	OrderCompleted  = "COMPLETED"
	OrderCancelled  = "CANCELLED"
)

// Report statuses, lower-cased on load.
const (
	ReportPending  = "pending"
	ReportResolved = "resolved"
	ReportIgnored  = "ignored"
	ReportBanned   = "banned"
)

// Gamer statuses.
const (
	GamerAvailable = "AVAILABLE"
	GamerLocked    = "LOCKED"
	GamerPending   = "PENDING"
	GamerBanned    = "BANNED"
)

// User statuses, derived from the account flags.
const (
	UserActive   = "active"
	UserLocked   = "locked"
	UserInactive = "inactive"
)

// Game statuses.
const (
	GameActive      = "active"
	GameInactive    = "inactive"
	GameMaintenance = "maintenance"
)

// Transaction statuses, shared by deposits and withdrawals.
const (
	TxProcessed = "processed"
	TxPending   = "pending"
	TxRejected  = "rejected"
)

type entry struct {
	raw   string
	label Label
}

func known(text, color, icon string) Label {
	return Label{Text: text, ColorClass: color, Icon: icon, Known: true}
}

// table keeps declaration order so Declared can list values the way the
// filter dropdowns show them.
var table = map[entity.Entity][]entry{
	entity.Order: {
		{OrderPending, known("Chờ xác nhận", colorAmber, "fa-clock")},
		{OrderConfirmed, known("Đã xác nhận", colorEmerald, "fa-check")},
		{OrderInProgress, known("Đang diễn ra", colorBlue, "fa-play")},
		{OrderCompleted, known("Đã hoàn thành", colorGray, "fa-check-double")},
		{OrderCancelled, known("Bị hủy", colorRed, "fa-times")},
	},
	entity.Report: {
		{ReportPending, known("Đang chờ xử lý", colorAmber, "fa-hourglass-half")},
		{ReportResolved, known("Đã xử lý", colorEmerald, "fa-check-circle")},
		{ReportIgnored, known("Đã bỏ qua", colorGray, "fa-eye-slash")},
		{ReportBanned, known("Đã ban", colorRed, "fa-ban")},
	},
	entity.Gamer: {
		{GamerAvailable, known("Hoạt động", colorGreen, "fa-check-circle")},
		{GamerLocked, known("Khóa", colorRed, "fa-lock")},
		{GamerPending, known("Chờ duyệt", colorYellow, "fa-hourglass-half")},
		{GamerBanned, known("Bị khóa", colorRed, "fa-ban")},
	},
	entity.User: {
		{UserActive, known("Hoạt động", colorGreen, "fa-check-circle")},
		{UserLocked, known("Bị khóa", colorRed, "fa-ban")},
		{UserInactive, known("Không hoạt động", colorGray, "fa-minus-circle")},
	},
	entity.Game: {
		{GameActive, known("Hoạt động", colorGreen, "fa-check-circle")},
		{GameInactive, known("Không hoạt động", colorGray, "fa-pause-circle")},
		{GameMaintenance, known("Bảo trì", colorYellow, "fa-tools")},
	},
	entity.Deposit: {
		{TxProcessed, known("Đã xử lý", colorGreen, "fa-check-circle")},
		{TxPending, known("Đang chờ", colorYellow, "fa-clock")},
		{TxRejected, known("Không thành công", colorRed, "fa-times-circle")},
	},
	entity.Withdrawal: {
		{TxProcessed, known("Đã rút", colorGreen, "fa-check-circle")},
		{TxPending, known("Đang chờ", colorYellow, "fa-clock")},
		{TxRejected, known("Không thành công", colorRed, "fa-times-circle")},
	},
}

// Unknown is the label of any undeclared value.
var Unknown = Label{Text: "Không xác định", ColorClass: colorGray, Icon: "fa-question-circle"}

// Resolve returns the label of raw for e. Undeclared values get Unknown with
// the raw value appended, never an error.
func Resolve(e entity.Entity, raw string) Label {
	for _, en := range table[e] {
		if en.raw == raw {
			return en.label
		}
	}
	l := Unknown
	if raw != "" {
		l.Text = Unknown.Text + " (" + raw + ")"
	}
	return l
}

// Declared lists the status values declared for e, in display order.
func Declared(e entity.Entity) []string {
	entries := table[e]
	out := make([]string, 0, len(entries))
	for _, en := range entries {
		out = append(out, en.raw)
	}
	return out
}

// Roles.
const (
	RoleAdmin = "ADMIN"
	RoleGamer = "GAMER"
	RoleUser  = "USER"
)

var roles = map[string]Label{
	RoleAdmin: known("Admin", colorPurple, "fa-user-shield"),
	RoleGamer: known("Game thủ", colorBlue, "fa-gamepad"),
	RoleUser:  known("Người dùng", colorGray, "fa-user"),
}

// ResolveRole returns the badge of an account role. Unknown roles show as
// plain users.
func ResolveRole(role string) Label {
	if l, ok := roles[strings.ToUpper(role)]; ok {
		return l
	}
	l := roles[RoleUser]
	l.Known = false
	return l
}

// IsRole reports whether role is one the marketplace grants.
func IsRole(role string) bool {
	_, ok := roles[role]
	return ok
}
