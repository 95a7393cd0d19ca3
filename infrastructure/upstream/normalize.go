package upstream

import (
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"duoadmin/domain/entity"
	"duoadmin/domain/listing"
	"duoadmin/domain/status"
	"duoadmin/pkg/logger"
)

// Normalizer turns upstream JSON into list items. Shapes are coerced
// defensively: a missing or malformed field never drops a row, only a row
// without an id is dropped.
type Normalizer struct {
	assets AssetResolver
}

// NewNormalizer creates a Normalizer resolving relative asset paths against assetBase.
func NewNormalizer(assetBase, defaultAvatar string) *Normalizer {
	return &Normalizer{assets: NewAssetResolver(assetBase, defaultAvatar)}
}

type rowFunc func(n *Normalizer, r gjson.Result, it *listing.Item)

var rows = map[entity.Entity]rowFunc{
	entity.User:       (*Normalizer).user,
	entity.Game:       (*Normalizer).game,
	entity.Order:      (*Normalizer).order,
	entity.Gamer:      (*Normalizer).gamer,
	entity.Report:     (*Normalizer).report,
	entity.Deposit:    (*Normalizer).transaction,
	entity.Withdrawal: (*Normalizer).transaction,
}

// Collection normalizes a list payload: a bare array or an object whose
// "data" (or "content") member is an array. Anything else is empty. The first
// row wins when ids repeat.
func (n *Normalizer) Collection(e entity.Entity, body []byte) []listing.Item {
	records := listPayload(body)
	items := make([]listing.Item, 0, len(records))
	seen := make(map[string]struct{}, len(records))
	for _, r := range records {
		it, ok := n.row(e, r)
		if !ok {
			logger.Get().Named("upstream").Warn("Dropping record without id", zap.String("entity", string(e)))
			continue
		}
		if _, dup := seen[it.ID]; dup {
			logger.Get().Named("upstream").Warn("Dropping duplicate record",
				zap.String("entity", string(e)), zap.String("id", it.ID))
			continue
		}
		seen[it.ID] = struct{}{}
		items = append(items, it)
	}
	return items
}

// Single normalizes a detail payload: an object, or an object wrapped in "data".
func (n *Normalizer) Single(e entity.Entity, body []byte) (listing.Item, bool) {
	if !gjson.ValidBytes(body) {
		return listing.Item{}, false
	}
	r := gjson.ParseBytes(body)
	if d := r.Get("data"); d.IsObject() {
		r = d
	}
	if !r.IsObject() {
		return listing.Item{}, false
	}
	return n.row(e, r)
}

func listPayload(body []byte) []gjson.Result {
	if !gjson.ValidBytes(body) {
		return nil
	}
	r := gjson.ParseBytes(body)
	if r.IsArray() {
		return r.Array()
	}
	for _, key := range []string{"data", "content", "data.content"} {
		if v := r.Get(key); v.IsArray() {
			return v.Array()
		}
	}
	return nil
}

func (n *Normalizer) row(e entity.Entity, r gjson.Result) (listing.Item, bool) {
	fn, ok := rows[e]
	if !ok {
		return listing.Item{}, false
	}
	id := text(r.Get("id"))
	if id == "" {
		return listing.Item{}, false
	}
	it := listing.Item{
		ID:      id,
		Entity:  e,
		Fields:  map[string]string{},
		Numbers: map[string]float64{},
		Times:   map[string]time.Time{},
		Raw:     []byte(r.Raw),
	}
	fn(n, r, &it)
	it.Status = status.Resolve(e, it.StatusRaw)
	return it, true
}

func (n *Normalizer) user(r gjson.Result, it *listing.Item) {
	username := text(r.Get("username"))
	it.Fields["username"] = username
	it.Fields["fullName"] = firstNonEmpty(text(r.Get("fullName")), username)
	it.Fields["email"] = text(r.Get("email"))
	it.Fields["phoneNumber"] = text(r.Get("phoneNumber"))
	it.Fields["avatarUrl"] = n.assets.Avatar(text(r.Get("avatarUrl")))

	it.Roles = Roles(r.Get("roles"))
	if len(it.Roles) == 0 {
		it.Roles = Roles(r.Get("role"))
	}
	if len(it.Roles) > 0 {
		it.Fields["role"] = it.Roles[0]
	} else {
		it.Fields["role"] = status.RoleUser
	}

	it.StatusRaw = userStatus(r)
	setTime(it, "createdAt", r.Get("createdAt"))
}

// userStatus derives the account status from the enabled and lock flags.
func userStatus(r gjson.Result) string {
	enabled := flag(r.Get("enabled"), false)
	unlocked := flag(r.Get("accountNonLocked"), false)
	switch {
	case enabled && unlocked:
		return status.UserActive
	case enabled:
		return status.UserLocked
	}
	return status.UserInactive
}

func (n *Normalizer) game(r gjson.Result, it *listing.Item) {
	it.Fields["name"] = text(r.Get("name"))
	it.Fields["description"] = text(r.Get("description"))
	it.Fields["category"] = text(r.Get("category"))
	it.Fields["platform"] = text(r.Get("platform"))
	it.Fields["imageUrl"] = n.assets.Asset(text(r.Get("imageUrl")))
	it.StatusRaw = strings.ToLower(firstNonEmpty(text(r.Get("status")), status.GameActive))
	setTime(it, "createdAt", r.Get("createdAt"))
}

func (n *Normalizer) order(r gjson.Result, it *listing.Item) {
	it.Fields["renterName"] = firstNonEmpty(text(r.Get("renterName")), text(r.Get("renter.fullName")), text(r.Get("renter.username")))
	it.Fields["playerName"] = firstNonEmpty(text(r.Get("playerName")), text(r.Get("player.user.username")), text(r.Get("player.playerName")))
	it.Fields["gameName"] = firstNonEmpty(text(r.Get("gameName")), text(r.Get("game.name")))
	it.Numbers["price"] = Number(r.Get("price"))
	it.StatusRaw = strings.ToUpper(text(r.Get("status")))
	setTime(it, "createdAt", r.Get("createdAt"))
	setTime(it, "startTime", r.Get("startTime"))
	setTime(it, "endTime", r.Get("endTime"))
}

func (n *Normalizer) gamer(r gjson.Result, it *listing.Item) {
	it.Fields["fullName"] = firstNonEmpty(text(r.Get("name")), text(r.Get("fullName")), text(r.Get("user.fullName")), text(r.Get("username")))
	it.Fields["playerUsername"] = firstNonEmpty(text(r.Get("playerName")), text(r.Get("username")))
	it.Fields["email"] = firstNonEmpty(text(r.Get("email")), text(r.Get("user.email")))
	it.Fields["gameName"] = firstNonEmpty(text(r.Get("gameName")), text(r.Get("game.name")))
	it.Fields["rank"] = firstNonEmpty(text(r.Get("rankLabel")), text(r.Get("rank")))
	it.Fields["avatarUrl"] = n.assets.Avatar(firstNonEmpty(text(r.Get("avatarUrl")), text(r.Get("user.avatarUrl"))))

	it.Numbers["rating"] = Number(r.Get("rating"))
	it.Numbers["pricePerHour"] = Number(r.Get("pricePerHour"))
	it.Numbers["orderCount"] = Number(r.Get("totalOrders"))
	it.Numbers["reviewCount"] = Number(r.Get("totalReviews"))
	it.Numbers["income"] = Number(r.Get("totalRevenue"))

	it.StatusRaw = strings.ToUpper(text(r.Get("status")))
	setTime(it, "createdAt", r.Get("createdAt"))
}

func (n *Normalizer) report(r gjson.Result, it *listing.Item) {
	reason := text(r.Get("reason"))
	description := text(r.Get("description"))
	it.Fields["reporter"] = firstNonEmpty(text(r.Get("reporter.username")), text(r.Get("reporterName")))
	it.Fields["reportedUser"] = firstNonEmpty(text(r.Get("reportedPlayer.user.username")), text(r.Get("reportedPlayerName")))
	it.Fields["reportedPlayerId"] = firstNonEmpty(text(r.Get("reportedPlayer.id")), text(r.Get("reportedPlayer.user.id")))
	it.Fields["reason"] = reason
	it.Fields["description"] = description
	it.Fields["videoUrl"] = text(r.Get("video"))
	it.Fields["resolution"] = text(r.Get("resolution"))
	switch {
	case reason != "" && description != "":
		it.Fields["content"] = reason + ": " + description
	default:
		it.Fields["content"] = reason + description
	}
	it.StatusRaw = strings.ToLower(firstNonEmpty(text(r.Get("status")), status.ReportPending))
	setTime(it, "createdAt", r.Get("createdAt"))
}

func (n *Normalizer) transaction(r gjson.Result, it *listing.Item) {
	it.Fields["userName"] = firstNonEmpty(text(r.Get("fullName")), text(r.Get("user.fullName")), text(r.Get("username")))
	it.Fields["phoneNumber"] = text(r.Get("phoneNumber"))
	it.Fields["method"] = text(r.Get("method"))
	it.Fields["accountType"] = text(r.Get("accountType"))
	it.Fields["accountNumber"] = text(r.Get("accountNumber"))
	it.Numbers["amount"] = Number(firstPresent(r, "coin", "amount"))
	it.StatusRaw = transactionStatus(text(r.Get("status")))
	setTime(it, "createdAt", firstPresent(r, "createdAt", "dateTime"))
}

func transactionStatus(raw string) string {
	switch strings.ToUpper(raw) {
	case "COMPLETED":
		return status.TxProcessed
	case "PENDING":
		return status.TxPending
	}
	return status.TxRejected
}

// ============================================================================
// Coercion helpers
// ============================================================================

// Roles reads a role claim that may be a string, an object with name or
// authority, or an array of either. The ROLE_ prefix is stripped.
func Roles(r gjson.Result) []string {
	var out []string
	add := func(v gjson.Result) {
		var name string
		switch {
		case v.IsObject():
			name = firstNonEmpty(text(v.Get("name")), text(v.Get("authority")), text(v.Get("role")))
		case v.Type == gjson.String:
			name = v.Str
		}
		name = strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(name)), "ROLE_")
		if name != "" {
			out = append(out, name)
		}
	}
	if r.IsArray() {
		for _, v := range r.Array() {
			add(v)
		}
		return out
	}
	if r.Exists() {
		add(r)
	}
	return out
}

// Number reads a number or a numeric string. Anything else is 0.
func Number(r gjson.Result) float64 {
	switch r.Type {
	case gjson.Number:
		return r.Num
	case gjson.String:
		if f, err := strconv.ParseFloat(strings.TrimSpace(r.Str), 64); err == nil {
			return f
		}
	}
	return 0
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Time reads an ISO timestamp, epoch milliseconds, or a [y,m,d,h,m,s] array
// as serialized for Java local date-times.
func Time(r gjson.Result) (time.Time, bool) {
	switch r.Type {
	case gjson.String:
		s := strings.TrimSpace(r.Str)
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
	case gjson.Number:
		if r.Num > 0 {
			return time.UnixMilli(int64(r.Num)).UTC(), true
		}
	default:
		if r.IsArray() {
			parts := r.Array()
			if len(parts) < 3 {
				return time.Time{}, false
			}
			v := [6]int{}
			for i := 0; i < len(parts) && i < 6; i++ {
				v[i] = int(parts[i].Int())
			}
			return time.Date(v[0], time.Month(v[1]), v[2], v[3], v[4], v[5], 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

func setTime(it *listing.Item, field string, r gjson.Result) {
	if t, ok := Time(r); ok {
		it.Times[field] = t
	}
}

func text(r gjson.Result) string {
	switch r.Type {
	case gjson.String:
		return strings.TrimSpace(r.Str)
	case gjson.Number:
		return r.Raw
	case gjson.True, gjson.False:
		return r.String()
	}
	return ""
}

func flag(r gjson.Result, def bool) bool {
	switch r.Type {
	case gjson.True:
		return true
	case gjson.False:
		return false
	case gjson.String:
		if b, err := strconv.ParseBool(r.Str); err == nil {
			return b
		}
	}
	return def
}

func firstPresent(r gjson.Result, keys ...string) gjson.Result {
	for _, k := range keys {
		if v := r.Get(k); v.Exists() {
			return v
		}
	}
	return gjson.Result{}
}
