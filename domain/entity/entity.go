// Package entity names the collections the console manages and describes, per
// collection, which fields the list pages search, filter, sort and export.
package entity

import "strings"

// Entity identifies one managed collection.
type Entity string

const (
	User       Entity = "users"
	Game       Entity = "games"
	Order      Entity = "orders"
	Gamer      Entity = "gamers"
	Report     Entity = "reports"
	Deposit    Entity = "deposits"
	Withdrawal Entity = "withdrawals"
)

// All lists every managed collection in menu order.
func All() []Entity {
	return []Entity{User, Game, Order, Gamer, Report, Deposit, Withdrawal}
}

// Parse accepts the collection name case-insensitively.
func Parse(s string) (Entity, bool) {
	e := Entity(strings.ToLower(strings.TrimSpace(s)))
	_, ok := descriptors[e]
	return e, ok
}

func (e Entity) String() string { return string(e) }

// Column is one exported/displayed column.
type Column struct {
	Key   string
	Title string
}

// Descriptor is the static list-page configuration of a collection.
type Descriptor struct {
	// SearchFields are matched by the free-text search, case-insensitively.
	SearchFields []string
	// EnumFields accept exact-match filters; "status" always means the raw status.
	EnumFields []string
	// NumericFields accept min/max range filters and sort numerically.
	NumericFields []string
	// DateFields accept from/to range filters and sort chronologically.
	DateFields []string
	// IDFilter enables the separate "ID contains" filter.
	IDFilter bool
	// DefaultSort applies when the request names no sort key.
	DefaultSort     string
	DefaultSortDesc bool
	// Deletable reports whether DELETE is exposed for this collection.
	Deletable bool
	Columns   []Column
}

var descriptors = map[Entity]Descriptor{
	User: {
		SearchFields: []string{"fullName", "email", "username"},
		EnumFields:   []string{"status", "role"},
		DateFields:   []string{"createdAt"},
		Deletable:    true,
		Columns: []Column{
			{"id", "ID"}, {"fullName", "Họ tên"}, {"email", "Email"},
			{"role", "Vai trò"}, {"status", "Trạng thái"}, {"createdAt", "Ngày tạo"},
		},
	},
	Game: {
		SearchFields: []string{"name", "description"},
		EnumFields:   []string{"status", "category", "platform"},
		DateFields:   []string{"createdAt"},
		Deletable:    true,
		Columns: []Column{
			{"id", "ID"}, {"name", "Tên game"}, {"category", "Thể loại"},
			{"platform", "Nền tảng"}, {"status", "Trạng thái"},
		},
	},
	Order: {
		SearchFields:    []string{"renterName", "playerName", "id"},
		EnumFields:      []string{"status"},
		NumericFields:   []string{"price"},
		DateFields:      []string{"createdAt", "startTime"},
		IDFilter:        true,
		DefaultSort:     "id",
		DefaultSortDesc: true,
		Deletable:       true,
		Columns: []Column{
			{"id", "Mã đơn"}, {"renterName", "Người thuê"}, {"playerName", "Game thủ"},
			{"price", "Giá"}, {"status", "Trạng thái"}, {"createdAt", "Thời gian"},
		},
	},
	Gamer: {
		SearchFields:  []string{"fullName", "playerUsername", "email"},
		EnumFields:    []string{"status", "gameName", "rank"},
		NumericFields: []string{"rating", "pricePerHour", "income", "orderCount", "reviewCount"},
		Deletable:     true,
		Columns: []Column{
			{"id", "ID"}, {"fullName", "Họ tên"}, {"playerUsername", "Tên trong game"},
			{"gameName", "Game"}, {"rank", "Rank"}, {"rating", "Đánh giá"},
			{"income", "Thu nhập"}, {"status", "Trạng thái"},
		},
	},
	Report: {
		SearchFields: []string{"reporter", "reportedUser", "content"},
		EnumFields:   []string{"status"},
		DateFields:   []string{"createdAt"},
		DefaultSort:  "createdAt", DefaultSortDesc: true,
		Columns: []Column{
			{"id", "Mã báo cáo"}, {"reporter", "Người báo cáo"}, {"reportedUser", "Người bị báo cáo"},
			{"content", "Nội dung"}, {"status", "Trạng thái"}, {"createdAt", "Thời gian"},
		},
	},
	Deposit: {
		SearchFields:  []string{"id", "userName"},
		EnumFields:    []string{"status", "method"},
		NumericFields: []string{"amount"},
		DateFields:    []string{"createdAt"},
		DefaultSort:   "createdAt", DefaultSortDesc: true,
		Columns: []Column{
			{"id", "Mã giao dịch"}, {"userName", "Người dùng"}, {"method", "Phương thức"},
			{"amount", "Số tiền"}, {"status", "Trạng thái"}, {"createdAt", "Ngày"},
		},
	},
	Withdrawal: {
		SearchFields:  []string{"id", "userName"},
		EnumFields:    []string{"status", "method", "accountType"},
		NumericFields: []string{"amount"},
		DateFields:    []string{"createdAt"},
		DefaultSort:   "createdAt", DefaultSortDesc: true,
		Columns: []Column{
			{"id", "Mã giao dịch"}, {"userName", "Người dùng"}, {"accountType", "Loại tài khoản"},
			{"amount", "Số tiền"}, {"status", "Trạng thái"}, {"createdAt", "Ngày"},
		},
	},
}

// Describe returns the descriptor of e. Unknown collections get an empty descriptor.
func Describe(e Entity) Descriptor {
	return descriptors[e]
}

// IsNumeric reports whether field sorts numerically for e. "id" counts as numeric
// here; comparison falls back to text when an ID is not a number.
func (d Descriptor) IsNumeric(field string) bool {
	return field == "id" || contains(d.NumericFields, field)
}

// IsDate reports whether field sorts chronologically.
func (d Descriptor) IsDate(field string) bool {
	return contains(d.DateFields, field)
}

// IsEnum reports whether field accepts an exact-match filter.
func (d Descriptor) IsEnum(field string) bool {
	return contains(d.EnumFields, field)
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
