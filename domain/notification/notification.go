// Package notification holds the operator's notification feed: what happened
// on the marketplace (top-ups, withdrawals, reports, donations) that an admin
// should look at.
package notification

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Notification types sent by the marketplace.
const (
	TypeTopUp    = "TOPUP"
	TypeWithdraw = "WITHDRAW"
	TypeReport   = "REPORT"
	TypeVNPay    = "VNPAY"
	TypeDonate   = "DONATE"
)

// Notification is one entry of the feed.
type Notification struct {
	ID        string     `json:"id"`
	Type      string     `json:"type"`
	Title     string     `json:"title"`
	Icon      string     `json:"icon"`
	Content   string     `json:"content"`
	Read      bool       `json:"isRead"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
	Age       string     `json:"age,omitempty"`
}

// Stats counts the feed.
type Stats struct {
	Total  int `json:"total"`
	Unread int `json:"unread"`
}

// Query selects part of the feed. Type wins over UnreadOnly.
type Query struct {
	UnreadOnly bool
	Type       string
}

type presentation struct {
	title string
	icon  string
}

var presentations = map[string]presentation{
	TypeTopUp:    {"Nạp tiền", "fas fa-arrow-up text-green-600"},
	TypeWithdraw: {"Rút tiền", "fas fa-arrow-down text-red-600"},
	TypeReport:   {"Báo cáo vi phạm", "fas fa-exclamation-triangle text-orange-600"},
	TypeVNPay:    {"Thanh toán VNPay", "fas fa-credit-card text-blue-600"},
	TypeDonate:   {"Quyên góp", "fas fa-gift text-purple-600"},
}

var fallback = presentation{"Thông báo", "fas fa-bell text-gray-600"}

// NormalizeType upper-cases and trims a type name.
func NormalizeType(t string) string {
	return strings.ToUpper(strings.TrimSpace(t))
}

// Describe returns the title and icon for a notification type. Unknown types
// get the generic bell.
func Describe(t string) (title, icon string) {
	p, ok := presentations[NormalizeType(t)]
	if !ok {
		p = fallback
	}
	return p.title, p.icon
}

// Age renders how long ago at was, relative to now.
func Age(at, now time.Time) string {
	d := now.Sub(at)
	switch {
	case d < time.Hour:
		return "Vừa xong"
	case d < 24*time.Hour:
		return fmt.Sprintf("%d giờ trước", int(d/time.Hour))
	}
	return at.Format("2/1/2006")
}

// Present fills the derived fields of n.
func (n *Notification) Present(now time.Time) {
	n.Type = NormalizeType(n.Type)
	n.Title, n.Icon = Describe(n.Type)
	if n.CreatedAt != nil {
		n.Age = Age(*n.CreatedAt, now)
	}
}

// SortNewestFirst orders by creation time, newest first; undated entries go last.
func SortNewestFirst(items []Notification) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i].CreatedAt, items[j].CreatedAt
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		}
		return a.After(*b)
	})
}

// Clamp keeps the counters consistent: never negative, unread never above total.
func (s Stats) Clamp() Stats {
	if s.Total < 0 {
		s.Total = 0
	}
	if s.Unread < 0 {
		s.Unread = 0
	}
	if s.Unread > s.Total {
		s.Total = s.Unread
	}
	return s
}
